// Package audit keeps an append-only journal of alliance mutations in badger.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// Journal key layout: audit:{alliance_id}:{uuidv7} → Event JSON.
// UUIDv7 strings sort by creation time, so a reverse scan of one alliance's
// prefix yields newest first.
const keyPrefix = "audit:"

// Kind names the mutation an event records.
type Kind string

// Event kinds.
const (
	AllianceCreated   Kind = "alliance.created"
	MemberRoleChanged Kind = "member.role_changed"
	MemberDisabled    Kind = "member.disabled"
	InviteIssued      Kind = "invite.issued"
	InviteRedeemed    Kind = "invite.redeemed"
	InviteRevoked     Kind = "invite.revoked"
	PlayerAdded       Kind = "player.added"
	PlayerReactivated Kind = "player.reactivated"
	PlayerDeactivated Kind = "player.deactivated"
	WeekTypeSet       Kind = "week.set"
	ScoreRecorded     Kind = "score.recorded"
)

// Event is one journal record.
type Event struct {
	ID         string            `json:"id"`
	AllianceID string            `json:"alliance_id"`
	ActorID    string            `json:"actor_id"`
	Kind       Kind              `json:"kind"`
	TargetID   string            `json:"target_id,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
	At         time.Time         `json:"at"`
}

// Options configures Open.
type Options struct {
	// Path is the badger directory. Ignored when InMemory is set.
	Path     string
	InMemory bool
	Logger   *slog.Logger
}

// Journal is a badger-backed audit log.
type Journal struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open opens or creates the journal.
func Open(opts Options) (*Journal, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	bopts := badger.DefaultOptions(opts.Path).WithLogger(nil)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open audit journal: %w", err)
	}

	return &Journal{db: db, logger: logger}, nil
}

// Close flushes and closes the journal.
func (j *Journal) Close() error {
	return j.db.Close()
}

func allianceKeyPrefix(allianceID string) []byte {
	return []byte(keyPrefix + allianceID + ":")
}

// Stamp fills in an empty ID with a fresh UUIDv7 and an empty At with now.
// At is normalised to UTC.
func (ev *Event) Stamp(now time.Time) error {
	if ev.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate event id: %w", err)
		}
		ev.ID = id.String()
	}
	if ev.At.IsZero() {
		ev.At = now
	}
	ev.At = ev.At.UTC()
	return nil
}

// Record appends ev. ID and At are filled in when empty.
func (j *Journal) Record(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ev.AllianceID == "" {
		return fmt.Errorf("audit event %s has no alliance", ev.Kind)
	}

	if err := ev.Stamp(time.Now()); err != nil {
		return err
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshaling audit event: %w", err)
	}

	key := append(allianceKeyPrefix(ev.AllianceID), ev.ID...)
	return j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// List returns up to limit events for the alliance, newest first.
// A limit of zero or less returns every event.
func (j *Journal) List(ctx context.Context, allianceID string, limit int) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := allianceKeyPrefix(allianceID)
	events := []Event{}

	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		// In reverse mode Seek lands on the last key <= the seek key.
		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(events) >= limit {
				break
			}

			var ev Event
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &ev)
			})
			if err != nil {
				j.logger.Warn("skipping unreadable audit event",
					"key", string(it.Item().Key()),
					"error", err,
				)
				continue
			}
			events = append(events, ev)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing audit events: %w", err)
	}

	return events, nil
}
