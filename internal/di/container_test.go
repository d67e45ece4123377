package di

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warroomops/warroom-server/internal/config"
	"github.com/warroomops/warroom-server/internal/di/providers"
	"github.com/warroomops/warroom-server/internal/service"
)

func testContainer(t *testing.T, extra ...string) *do.RootScope {
	t.Helper()
	dir := t.TempDir()

	args := append([]string{"-data-path", dir, "-log-level", "error"}, extra...)
	cfg, err := config.Load(args)
	require.NoError(t, err)

	injector := NewContainer()
	do.OverrideValue(injector, cfg)
	return injector
}

func TestBootstrap_WiresServicesAndRebuildsIndex(t *testing.T) {
	injector := testContainer(t)
	ctx := context.Background()

	require.NoError(t, Bootstrap(injector, false))

	alliances := do.MustInvoke[*service.AllianceService](injector)
	roster := do.MustInvoke[*service.RosterService](injector)

	a, _, err := alliances.CreateAlliance(ctx, "u1", service.CreateAllianceRequest{Name: "Iron Wolves"})
	require.NoError(t, err)
	_, err = roster.AddPlayer(ctx, "u1", a.ID, service.AddPlayerRequest{Name: "Falcon"})
	require.NoError(t, err)

	stream := do.MustInvoke[*providers.SSEHandle](injector)
	assert.Zero(t, stream.ClientCount())

	cfg := do.MustInvoke[*config.Config](injector)
	_, err = os.Stat(cfg.Identity.KeyPath)
	assert.NoError(t, err, "identity key should be generated on first start")

	report := injector.Shutdown()
	require.True(t, report.Succeed, report.Error())

	// A fresh process over the same data directory finds the player through
	// the rebuilt in-memory index.
	again := NewContainer()
	do.OverrideValue(again, cfg)
	require.NoError(t, Bootstrap(again, false))
	t.Cleanup(func() { _ = again.Shutdown() })

	index := do.MustInvoke[*providers.SearchIndexHandle](again)
	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	hits, err := do.MustInvoke[*service.RosterService](again).Search(ctx, "u1", a.ID, "falc", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Falcon", hits[0].Name)
}

func TestBootstrap_SearchDisabled(t *testing.T) {
	injector := testContainer(t, "-search-enabled", "false")
	t.Cleanup(func() { _ = injector.Shutdown() })

	require.NoError(t, Bootstrap(injector, false))

	index := do.MustInvoke[*providers.SearchIndexHandle](injector)
	assert.Nil(t, index.RosterIndex)
	assert.Nil(t, index.Searcher())

	cfg := do.MustInvoke[*config.Config](injector)
	assert.Equal(t, filepath.Join(filepath.Dir(cfg.Database.Path), "audit"), cfg.Audit.Path)
}
