package providers

import (
	"github.com/samber/do/v2"

	"github.com/warroomops/warroom-server/internal/audit"
	"github.com/warroomops/warroom-server/internal/config"
	"github.com/warroomops/warroom-server/internal/logger"
	"github.com/warroomops/warroom-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the SQLite store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := sqlite.Open(cfg.Database.Path, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", cfg.Database.Path)

	return &StoreHandle{Store: db}, nil
}

// JournalHandle wraps the audit journal with shutdown capability.
type JournalHandle struct {
	*audit.Journal
}

// Shutdown implements do.Shutdownable.
func (h *JournalHandle) Shutdown() error {
	return h.Close()
}

// ProvideAuditJournal provides the badger-backed audit journal.
func ProvideAuditJournal(i do.Injector) (*JournalHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	journal, err := audit.Open(audit.Options{
		Path:   cfg.Audit.Path,
		Logger: log.Logger,
	})
	if err != nil {
		return nil, err
	}

	log.Info("Audit journal opened", "path", cfg.Audit.Path)

	return &JournalHandle{Journal: journal}, nil
}
