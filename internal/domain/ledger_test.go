package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasses_BoundaryInclusive(t *testing.T) {
	assert.False(t, Passes(0))
	assert.False(t, Passes(DailyMinimum-1))
	assert.True(t, Passes(DailyMinimum))
	assert.True(t, Passes(45_000_000_000))

	e := &VSEntry{Score: 7_200_000}
	assert.True(t, e.Passed())
}

func TestParseDay(t *testing.T) {
	day, err := ParseDay("2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", day)

	for _, bad := range []string{"", "2024-5-1", "01/05/2024", "2024-02-30", "today"} {
		_, err := ParseDay(bad)
		assert.Error(t, err, bad)
	}
}

func TestWeekContains(t *testing.T) {
	assert.True(t, WeekContains("2024-04-29", "2024-04-29"))
	assert.True(t, WeekContains("2024-04-29", "2024-05-05"))
	assert.False(t, WeekContains("2024-04-29", "2024-05-06"))
	assert.False(t, WeekContains("2024-04-29", "2024-04-28"))
}

func TestWeekType_Valid(t *testing.T) {
	assert.True(t, WeekSave.Valid())
	assert.True(t, WeekPush.Valid())
	assert.False(t, WeekType("SAVE").Valid())
}
