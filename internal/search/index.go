// Package search provides fuzzy name search over alliance rosters.
package search

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/warroomops/warroom-server/internal/domain"
	"github.com/warroomops/warroom-server/internal/store"
)

// RosterIndex is an in-memory Bleve index of active players.
// The database is the source of truth; the index is rebuilt from it at start-up
// and kept current through the store.SearchIndexer hooks.
//
// Thread safety: All public methods are safe for concurrent use.
type RosterIndex struct {
	mu     sync.RWMutex // Protects the index pointer during rebuild
	index  bleve.Index
	logger *slog.Logger
}

var _ store.SearchIndexer = (*RosterIndex)(nil)

// NewRosterIndex creates an empty index.
func NewRosterIndex(logger *slog.Logger) (*RosterIndex, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create roster index: %w", err)
	}

	return &RosterIndex{index: index, logger: logger}, nil
}

// Close releases the index.
func (r *RosterIndex) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.index.Close()
}

// IndexPlayer adds or replaces a player. Inactive players are removed instead.
func (r *RosterIndex) IndexPlayer(_ context.Context, p *domain.Player) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !p.Active {
		return r.index.Delete(p.ID)
	}
	return r.index.Index(p.ID, playerDocument(p))
}

// RemovePlayer deletes a player from the index. Unknown IDs are ignored.
func (r *RosterIndex) RemovePlayer(_ context.Context, playerID string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index.Delete(playerID)
}

// DocumentCount returns the number of indexed players.
func (r *RosterIndex) DocumentCount() (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index.DocCount()
}

// Rebuild replaces the whole index with players. Inactive entries are skipped.
func (r *RosterIndex) Rebuild(ctx context.Context, players []*domain.Player) error {
	const batchSize = 500

	fresh, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create roster index: %w", err)
	}

	indexed := 0
	for i := 0; i < len(players); i += batchSize {
		if err := ctx.Err(); err != nil {
			fresh.Close()
			return err
		}

		end := min(i+batchSize, len(players))
		batch := fresh.NewBatch()
		for _, p := range players[i:end] {
			if !p.Active {
				continue
			}
			if err := batch.Index(p.ID, playerDocument(p)); err != nil {
				fresh.Close()
				return fmt.Errorf("batch index %s: %w", p.ID, err)
			}
			indexed++
		}
		if err := fresh.Batch(batch); err != nil {
			fresh.Close()
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	r.mu.Lock()
	old := r.index
	r.index = fresh
	r.mu.Unlock()

	if err := old.Close(); err != nil {
		r.logger.Warn("failed to close previous roster index", "error", err)
	}

	r.logger.Info("roster index rebuilt", "players", indexed)
	return nil
}
