package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/warroomops/warroom-server/internal/domain"
	"github.com/warroomops/warroom-server/internal/store"
)

type recordingIndexer struct {
	mu      sync.Mutex
	indexed []string
	removed []string
}

func (r *recordingIndexer) IndexPlayer(_ context.Context, p *domain.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexed = append(r.indexed, p.ID)
	return nil
}

func (r *recordingIndexer) RemovePlayer(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, id)
	return nil
}

func TestAddPlayer(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestAlliance(t, s, "ally-1", "u1")

	hq := 30
	p := &domain.Player{Entity: domain.Entity{ID: "plr-1"}, AllianceID: "ally-1", Name: "Falcon", NameKey: "falcon", HQLevel: &hq}
	p.InitTimestamps(testNow)

	reactivated, err := s.AddPlayer(ctx, p)
	if err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	if reactivated {
		t.Error("new player must not be reported as reactivated")
	}

	got, err := s.GetPlayer(ctx, "plr-1")
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	if got.Name != "Falcon" || got.NameKey != "falcon" || !got.Active {
		t.Errorf("unexpected player: %+v", got)
	}
	if got.HQLevel == nil || *got.HQLevel != 30 {
		t.Errorf("HQLevel: got %v, want 30", got.HQLevel)
	}
}

func TestAddPlayer_DuplicateActiveName(t *testing.T) {
	s := newTestStore(t)
	insertTestAlliance(t, s, "ally-1", "u1")
	insertTestPlayer(t, s, "ally-1", "plr-1", "Falcon")

	dup := &domain.Player{Entity: domain.Entity{ID: "plr-2"}, AllianceID: "ally-1", Name: "FALCON", NameKey: "falcon"}
	dup.InitTimestamps(testNow)
	if _, err := s.AddPlayer(context.Background(), dup); !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestAddPlayer_SameNameOtherAlliance(t *testing.T) {
	s := newTestStore(t)
	insertTestAlliance(t, s, "ally-1", "u1")
	insertTestAlliance(t, s, "ally-2", "u2")
	insertTestPlayer(t, s, "ally-1", "plr-1", "Falcon")
	insertTestPlayer(t, s, "ally-2", "plr-2", "Falcon")
}

func TestAddPlayer_ReactivatesDeactivated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestAlliance(t, s, "ally-1", "u1")
	insertTestPlayer(t, s, "ally-1", "plr-1", "Falcon")

	if _, err := s.DeactivatePlayer(ctx, "ally-1", "plr-1", testNow); err != nil {
		t.Fatalf("DeactivatePlayer: %v", err)
	}

	hq := 31
	again := &domain.Player{Entity: domain.Entity{ID: "plr-new"}, AllianceID: "ally-1", Name: "falcon", NameKey: "falcon", HQLevel: &hq}
	again.InitTimestamps(testNow.Add(time.Hour))

	reactivated, err := s.AddPlayer(ctx, again)
	if err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	if !reactivated {
		t.Error("expected reactivation")
	}
	if again.ID != "plr-1" {
		t.Errorf("ID: got %q, want plr-1", again.ID)
	}
	if !again.CreatedAt.Equal(testNow) {
		t.Errorf("CreatedAt: got %v, want original %v", again.CreatedAt, testNow)
	}

	got, err := s.GetPlayer(ctx, "plr-1")
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	if !got.Active || got.Name != "falcon" || got.HQLevel == nil || *got.HQLevel != 31 {
		t.Errorf("unexpected reactivated player: %+v", got)
	}

	if _, err := s.GetPlayer(ctx, "plr-new"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("reactivation must not insert a new row, got %v", err)
	}
}

func TestListActivePlayers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestAlliance(t, s, "ally-1", "u1")
	insertTestAlliance(t, s, "ally-2", "u2")

	insertTestPlayer(t, s, "ally-1", "plr-1", "Zephyr")
	insertTestPlayer(t, s, "ally-1", "plr-2", "alpha")
	insertTestPlayer(t, s, "ally-1", "plr-3", "Mongoose")
	insertTestPlayer(t, s, "ally-1", "plr-4", "Ghost")
	insertTestPlayer(t, s, "ally-2", "plr-5", "Outsider")

	if _, err := s.DeactivatePlayer(ctx, "ally-1", "plr-4", testNow); err != nil {
		t.Fatalf("DeactivatePlayer: %v", err)
	}

	players, err := s.ListActivePlayers(ctx, "ally-1")
	if err != nil {
		t.Fatalf("ListActivePlayers: %v", err)
	}

	want := []string{"alpha", "Mongoose", "Zephyr"}
	if len(players) != len(want) {
		t.Fatalf("got %d players, want %d", len(players), len(want))
	}
	for i, p := range players {
		if p.Name != want[i] {
			t.Errorf("players[%d]: got %s, want %s", i, p.Name, want[i])
		}
	}

	all, err := s.ListAllActivePlayers(ctx)
	if err != nil {
		t.Fatalf("ListAllActivePlayers: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("all active: got %d, want 4", len(all))
	}
}

func TestDeactivatePlayer_WrongAlliance(t *testing.T) {
	s := newTestStore(t)
	insertTestAlliance(t, s, "ally-1", "u1")
	insertTestAlliance(t, s, "ally-2", "u2")
	insertTestPlayer(t, s, "ally-1", "plr-1", "Falcon")

	if _, err := s.DeactivatePlayer(context.Background(), "ally-2", "plr-1", testNow); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPlayerWritesNotifyIndexer(t *testing.T) {
	s := newTestStore(t)
	idx := &recordingIndexer{}
	s.SetSearchIndexer(idx)

	insertTestAlliance(t, s, "ally-1", "u1")
	insertTestPlayer(t, s, "ally-1", "plr-1", "Falcon")
	if _, err := s.DeactivatePlayer(context.Background(), "ally-1", "plr-1", testNow); err != nil {
		t.Fatalf("DeactivatePlayer: %v", err)
	}

	if len(idx.indexed) != 1 || idx.indexed[0] != "plr-1" {
		t.Errorf("indexed: got %v", idx.indexed)
	}
	if len(idx.removed) != 1 || idx.removed[0] != "plr-1" {
		t.Errorf("removed: got %v", idx.removed)
	}
}
