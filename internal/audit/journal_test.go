package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournal_ListNewestFirst(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := range 5 {
		err := j.Record(ctx, Event{
			AllianceID: "ally-1",
			ActorID:    "u1",
			Kind:       ScoreRecorded,
			TargetID:   fmt.Sprintf("plr-%d", i),
			At:         at,
		})
		require.NoError(t, err)
	}
	require.NoError(t, j.Record(ctx, Event{AllianceID: "ally-2", ActorID: "u9", Kind: AllianceCreated}))

	events, err := j.List(ctx, "ally-1", 0)
	require.NoError(t, err)
	require.Len(t, events, 5)

	for i, ev := range events {
		assert.Equal(t, fmt.Sprintf("plr-%d", 4-i), ev.TargetID)
		assert.Equal(t, "ally-1", ev.AllianceID)
		assert.NotEmpty(t, ev.ID)
		assert.True(t, ev.At.Equal(at))
	}

	limited, err := j.List(ctx, "ally-1", 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "plr-4", limited[0].TargetID)
	assert.Equal(t, "plr-3", limited[1].TargetID)
}

func TestJournal_AlliancePrefixIsolation(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	// "ally-1" must not match events of "ally-10".
	require.NoError(t, j.Record(ctx, Event{AllianceID: "ally-10", ActorID: "u1", Kind: AllianceCreated}))

	events, err := j.List(ctx, "ally-1", 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestJournal_RecordKeepsDetails(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, Event{
		AllianceID: "ally-1",
		ActorID:    "u1",
		Kind:       MemberRoleChanged,
		TargetID:   "u2",
		Details:    map[string]string{"from": "R3", "to": "R4"},
	}))

	events, err := j.List(ctx, "ally-1", 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, MemberRoleChanged, events[0].Kind)
	assert.Equal(t, "R4", events[0].Details["to"])
	assert.False(t, events[0].At.IsZero())
}

func TestJournal_RejectsEventWithoutAlliance(t *testing.T) {
	j := newTestJournal(t)
	assert.Error(t, j.Record(context.Background(), Event{ActorID: "u1", Kind: AllianceCreated}))
}

func TestJournal_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	j, err := Open(Options{Path: dir})
	require.NoError(t, err)
	require.NoError(t, j.Record(ctx, Event{AllianceID: "ally-1", ActorID: "u1", Kind: InviteIssued}))
	require.NoError(t, j.Close())

	j2, err := Open(Options{Path: dir})
	require.NoError(t, err)
	defer j2.Close()

	events, err := j2.List(ctx, "ally-1", 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, InviteIssued, events[0].Kind)
}
