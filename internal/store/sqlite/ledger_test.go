package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/warroomops/warroom-server/internal/domain"
	"github.com/warroomops/warroom-server/internal/store"
)

func recordTestScore(t *testing.T, s *Store, id, allianceID, playerID, day string, score int64) *domain.VSEntry {
	t.Helper()
	e := &domain.VSEntry{
		Entity:     domain.Entity{ID: id},
		AllianceID: allianceID,
		PlayerID:   playerID,
		GameDay:    day,
		Score:      score,
		CreatedBy:  "u1",
	}
	e.InitTimestamps(testNow)
	if err := s.UpsertVSEntry(context.Background(), e); err != nil {
		t.Fatalf("UpsertVSEntry: %v", err)
	}
	return e
}

func TestUpsertVSWeek_LastWriterWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestAlliance(t, s, "ally-1", "u1")

	w := &domain.VSWeek{AllianceID: "ally-1", WeekStart: "2024-04-29", WeekType: domain.WeekSave, GraceDays: 2, UpdatedBy: "u1", UpdatedAt: testNow}
	if err := s.UpsertVSWeek(ctx, w); err != nil {
		t.Fatalf("UpsertVSWeek: %v", err)
	}

	w2 := &domain.VSWeek{AllianceID: "ally-1", WeekStart: "2024-04-29", WeekType: domain.WeekPush, GraceDays: 3, UpdatedBy: "u2", UpdatedAt: testNow.Add(time.Hour)}
	if err := s.UpsertVSWeek(ctx, w2); err != nil {
		t.Fatalf("UpsertVSWeek: %v", err)
	}

	got, err := s.GetVSWeek(ctx, "ally-1", "2024-04-29")
	if err != nil {
		t.Fatalf("GetVSWeek: %v", err)
	}
	if got.WeekType != domain.WeekPush || got.GraceDays != 3 || got.UpdatedBy != "u2" {
		t.Errorf("unexpected week: %+v", got)
	}

	var count int
	s.db.QueryRow(`SELECT COUNT(*) FROM vs_weeks`).Scan(&count)
	if count != 1 {
		t.Errorf("week rows: got %d, want 1", count)
	}

	if _, err := s.GetVSWeek(ctx, "ally-1", "2024-05-06"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFindVSWeekCovering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestAlliance(t, s, "ally-1", "u1")

	for _, ws := range []string{"2024-04-22", "2024-04-29"} {
		w := &domain.VSWeek{AllianceID: "ally-1", WeekStart: ws, WeekType: domain.WeekSave, GraceDays: 2, UpdatedBy: "u1", UpdatedAt: testNow}
		if err := s.UpsertVSWeek(ctx, w); err != nil {
			t.Fatalf("UpsertVSWeek: %v", err)
		}
	}

	tests := []struct {
		day  string
		want string
	}{
		{"2024-04-29", "2024-04-29"},
		{"2024-05-01", "2024-04-29"},
		{"2024-05-05", "2024-04-29"},
		{"2024-04-28", "2024-04-22"},
		{"2024-05-06", ""},
		{"2024-04-21", ""},
	}
	for _, tt := range tests {
		t.Run(tt.day, func(t *testing.T) {
			w, err := s.FindVSWeekCovering(ctx, "ally-1", tt.day)
			if tt.want == "" {
				if !errors.Is(err, store.ErrNotFound) {
					t.Errorf("expected ErrNotFound, got %v (%+v)", err, w)
				}
				return
			}
			if err != nil {
				t.Fatalf("FindVSWeekCovering: %v", err)
			}
			if w.WeekStart != tt.want {
				t.Errorf("WeekStart: got %s, want %s", w.WeekStart, tt.want)
			}
		})
	}
}

func TestUpsertVSEntry_Overwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestAlliance(t, s, "ally-1", "u1")
	insertTestPlayer(t, s, "ally-1", "plr-1", "Falcon")

	first := recordTestScore(t, s, "vs-1", "ally-1", "plr-1", "2024-05-01", 7_000_000)
	second := recordTestScore(t, s, "vs-2", "ally-1", "plr-1", "2024-05-01", 7_500_000)

	if second.ID != first.ID {
		t.Errorf("overwrite must keep the entry ID: got %s, want %s", second.ID, first.ID)
	}

	got, err := s.GetVSEntry(ctx, "plr-1", "2024-05-01")
	if err != nil {
		t.Fatalf("GetVSEntry: %v", err)
	}
	if got.Score != 7_500_000 {
		t.Errorf("Score: got %d, want 7500000", got.Score)
	}

	var count int
	s.db.QueryRow(`SELECT COUNT(*) FROM vs_entries WHERE player_id = ?`, "plr-1").Scan(&count)
	if count != 1 {
		t.Errorf("entries: got %d, want 1", count)
	}
}

func TestUpsertVSEntry_UnknownPlayer(t *testing.T) {
	s := newTestStore(t)
	insertTestAlliance(t, s, "ally-1", "u1")

	e := &domain.VSEntry{Entity: domain.Entity{ID: "vs-1"}, AllianceID: "ally-1", PlayerID: "ghost", GameDay: "2024-05-01", Score: 1, CreatedBy: "u1"}
	e.InitTimestamps(testNow)
	if err := s.UpsertVSEntry(context.Background(), e); err == nil {
		t.Error("expected foreign key failure for unknown player")
	}
}

func TestListDayStandings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestAlliance(t, s, "ally-1", "u1")

	insertTestPlayer(t, s, "ally-1", "plr-1", "Falcon")
	insertTestPlayer(t, s, "ally-1", "plr-2", "bravo")
	insertTestPlayer(t, s, "ally-1", "plr-3", "Alpha")
	insertTestPlayer(t, s, "ally-1", "plr-4", "Delta")

	recordTestScore(t, s, "vs-1", "ally-1", "plr-1", "2024-05-01", 7_200_000)
	recordTestScore(t, s, "vs-2", "ally-1", "plr-2", "2024-05-01", 7_199_999)
	recordTestScore(t, s, "vs-3", "ally-1", "plr-3", "2024-05-01", 7_199_999)
	recordTestScore(t, s, "vs-4", "ally-1", "plr-4", "2024-05-01", 9_000_000)
	recordTestScore(t, s, "vs-5", "ally-1", "plr-1", "2024-05-02", 1)

	// Deactivated players keep their history.
	if _, err := s.DeactivatePlayer(ctx, "ally-1", "plr-4", testNow); err != nil {
		t.Fatalf("DeactivatePlayer: %v", err)
	}

	standings, err := s.ListDayStandings(ctx, "ally-1", "2024-05-01")
	if err != nil {
		t.Fatalf("ListDayStandings: %v", err)
	}

	want := []domain.DayStanding{
		{PlayerID: "plr-4", PlayerName: "Delta", Score: 9_000_000, Pass: true},
		{PlayerID: "plr-1", PlayerName: "Falcon", Score: 7_200_000, Pass: true},
		{PlayerID: "plr-3", PlayerName: "Alpha", Score: 7_199_999, Pass: false},
		{PlayerID: "plr-2", PlayerName: "bravo", Score: 7_199_999, Pass: false},
	}
	if len(standings) != len(want) {
		t.Fatalf("got %d standings, want %d", len(standings), len(want))
	}
	for i := range want {
		if standings[i] != want[i] {
			t.Errorf("standings[%d]: got %+v, want %+v", i, standings[i], want[i])
		}
	}

	empty, err := s.ListDayStandings(ctx, "ally-1", "2024-06-01")
	if err != nil {
		t.Fatalf("ListDayStandings empty: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", empty)
	}
}
