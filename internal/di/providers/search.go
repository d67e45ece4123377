package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/warroomops/warroom-server/internal/config"
	"github.com/warroomops/warroom-server/internal/logger"
	"github.com/warroomops/warroom-server/internal/search"
	"github.com/warroomops/warroom-server/internal/service"
)

// SearchIndexHandle wraps the roster index with shutdown capability.
// RosterIndex is nil when search is disabled.
type SearchIndexHandle struct {
	*search.RosterIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	if h.RosterIndex == nil {
		return nil
	}
	return h.Close()
}

// Searcher returns the index as a service.PlayerSearcher, or an untyped nil
// when search is disabled so that the roster service falls back to scanning.
func (h *SearchIndexHandle) Searcher() service.PlayerSearcher {
	if h.RosterIndex == nil {
		return nil
	}
	return h.RosterIndex
}

// ProvideSearchIndex provides the in-memory roster index and wires it to the
// store so that player writes keep it current.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	if !cfg.Search.Enabled {
		log.Info("Roster search index disabled by configuration")
		return &SearchIndexHandle{}, nil
	}

	index, err := search.NewRosterIndex(log.Logger)
	if err != nil {
		return nil, err
	}
	storeHandle.SetSearchIndexer(index)

	return &SearchIndexHandle{RosterIndex: index}, nil
}

// RebuildSearchIndex loads every active player into the roster index.
// The index lives in memory, so this runs on every start.
func RebuildSearchIndex(i do.Injector) error {
	roster := do.MustInvoke[*service.RosterService](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	if indexHandle.RosterIndex == nil {
		return nil
	}
	if err := roster.RebuildIndex(context.Background()); err != nil {
		return err
	}

	docCount, _ := indexHandle.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)
	return nil
}
