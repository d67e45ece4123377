package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for i := 0; i < count; i++ {
		id, err := Generate("test")
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{"ally", "mem", "inv", "plr", "vs"} {
		t.Run(prefix, func(t *testing.T) {
			id, err := Generate(prefix)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(id, prefix+"-"))
			assert.Len(t, id, len(prefix)+1+21)
		})
	}
}

func TestInviteCode_Alphabet(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := InviteCode(DefaultInviteCodeLength)
		require.NoError(t, err)
		require.Len(t, code, DefaultInviteCodeLength)

		for _, r := range code {
			assert.True(t, strings.ContainsRune(InviteAlphabet, r), "unexpected symbol %q in %s", r, code)
		}
		assert.NotContains(t, code, "0")
		assert.NotContains(t, code, "O")
		assert.NotContains(t, code, "1")
		assert.NotContains(t, code, "I")
	}
}

func TestInviteCode_RejectsShortLength(t *testing.T) {
	_, err := InviteCode(6)
	assert.Error(t, err)
}

func TestInviteAlphabet_Size(t *testing.T) {
	assert.Len(t, InviteAlphabet, 32)
}
