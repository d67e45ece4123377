package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warroomops/warroom-server/internal/domain"
)

func setupTestIndex(t *testing.T) *RosterIndex {
	t.Helper()
	index, err := NewRosterIndex(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return index
}

func player(id, allianceID, name string) *domain.Player {
	return &domain.Player{Entity: domain.Entity{ID: id}, AllianceID: allianceID, Name: name, Active: true}
}

func hitIDs(hits []Hit) []string {
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.PlayerID
	}
	return ids
}

func TestRosterIndex_IndexAndCount(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.IndexPlayer(ctx, player("plr-1", "ally-1", "Falcon")))
	require.NoError(t, index.IndexPlayer(ctx, player("plr-2", "ally-1", "Iron Wolf")))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	require.NoError(t, index.RemovePlayer(ctx, "plr-1"))
	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestRosterIndex_InactivePlayerIsRemoved(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	p := player("plr-1", "ally-1", "Falcon")
	require.NoError(t, index.IndexPlayer(ctx, p))

	p.Active = false
	require.NoError(t, index.IndexPlayer(ctx, p))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRosterIndex_Search(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	hq := 30
	falcon := player("plr-1", "ally-1", "Falcon")
	falcon.HQLevel = &hq
	for _, p := range []*domain.Player{
		falcon,
		player("plr-2", "ally-1", "Iron Wolf"),
		player("plr-3", "ally-1", "Falconer"),
		player("plr-4", "ally-2", "Falcon"),
	} {
		require.NoError(t, index.IndexPlayer(ctx, p))
	}

	t.Run("exact name ranks first", func(t *testing.T) {
		hits, err := index.Search(ctx, "ally-1", "falcon", 10)
		require.NoError(t, err)
		require.NotEmpty(t, hits)
		assert.Equal(t, "plr-1", hits[0].PlayerID)
		assert.Equal(t, "Falcon", hits[0].Name)
		require.NotNil(t, hits[0].HQLevel)
		assert.Equal(t, 30, *hits[0].HQLevel)
		assert.Contains(t, hitIDs(hits), "plr-3")
	})

	t.Run("scoped to alliance", func(t *testing.T) {
		hits, err := index.Search(ctx, "ally-1", "falcon", 10)
		require.NoError(t, err)
		assert.NotContains(t, hitIDs(hits), "plr-4")

		hits, err = index.Search(ctx, "ally-2", "falcon", 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"plr-4"}, hitIDs(hits))
	})

	t.Run("typo tolerance", func(t *testing.T) {
		hits, err := index.Search(ctx, "ally-1", "falcn", 10)
		require.NoError(t, err)
		assert.Contains(t, hitIDs(hits), "plr-1")
	})

	t.Run("prefix for type-ahead", func(t *testing.T) {
		hits, err := index.Search(ctx, "ally-1", "iron wo", 10)
		require.NoError(t, err)
		require.NotEmpty(t, hits)
		assert.Equal(t, "plr-2", hits[0].PlayerID)
	})

	t.Run("no match", func(t *testing.T) {
		hits, err := index.Search(ctx, "ally-1", "zzzzzz", 10)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("limit", func(t *testing.T) {
		hits, err := index.Search(ctx, "ally-1", "falcon", 1)
		require.NoError(t, err)
		assert.Len(t, hits, 1)
	})
}

func TestRosterIndex_Rebuild(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.IndexPlayer(ctx, player("stale", "ally-1", "Stale")))

	inactive := player("plr-3", "ally-1", "Gone")
	inactive.Active = false
	require.NoError(t, index.Rebuild(ctx, []*domain.Player{
		player("plr-1", "ally-1", "Falcon"),
		player("plr-2", "ally-1", "Raven"),
		inactive,
	}))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	hits, err := index.Search(ctx, "ally-1", "stale", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
