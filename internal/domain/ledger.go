package domain

import (
	"fmt"
	"time"
)

// DailyMinimum is the VS score a player must reach on a game day to pass.
// The boundary is inclusive.
const DailyMinimum int64 = 7_200_000

// DefaultGraceDays is the grace period applied when a week type is set
// without an explicit value.
const DefaultGraceDays = 2

// MaxGraceDays bounds the grace period to a single week.
const MaxGraceDays = 7

// DayLayout is the wire and storage format of game days and week starts.
const DayLayout = "2006-01-02"

// WeekType tags a VS week with the alliance's plan for it.
type WeekType string

// Week types.
const (
	WeekSave WeekType = "save"
	WeekPush WeekType = "push"
)

// Valid reports whether t is a known week type.
func (t WeekType) Valid() bool {
	return t == WeekSave || t == WeekPush
}

// ParseDay validates a YYYY-MM-DD calendar day and returns it in canonical form.
func ParseDay(s string) (string, error) {
	d, err := time.Parse(DayLayout, s)
	if err != nil {
		return "", fmt.Errorf("day %q must be formatted as YYYY-MM-DD", s)
	}
	return d.Format(DayLayout), nil
}

// WeekContains reports whether day falls within the seven days starting at weekStart.
// Both arguments must already be canonical days.
func WeekContains(weekStart, day string) bool {
	start, err := time.Parse(DayLayout, weekStart)
	if err != nil {
		return false
	}
	d, err := time.Parse(DayLayout, day)
	if err != nil {
		return false
	}
	return !d.Before(start) && d.Before(start.AddDate(0, 0, 7))
}

// VSWeek is the per-alliance policy for one week. One record per
// (alliance, week start); writes replace the previous record.
type VSWeek struct {
	AllianceID string     `json:"alliance_id"`
	WeekStart  string     `json:"week_start"`
	WeekType   WeekType   `json:"week_type"`
	GraceDays  int        `json:"grace_days"`
	LockedAt   *time.Time `json:"locked_at,omitempty"`
	LockedBy   string     `json:"locked_by,omitempty"`
	UpdatedBy  string     `json:"updated_by"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// VSEntry is one player's score for one game day. One entry per
// (player, game day); recording again overwrites it.
type VSEntry struct {
	Entity
	AllianceID string `json:"alliance_id"`
	PlayerID   string `json:"player_id"`
	GameDay    string `json:"game_day"`
	Score      int64  `json:"score"`
	CreatedBy  string `json:"created_by"`
	Notes      string `json:"notes,omitempty"`
}

// Passed reports whether the entry meets the daily minimum.
func (e *VSEntry) Passed() bool {
	return Passes(e.Score)
}

// Passes reports whether score meets the daily minimum.
func Passes(score int64) bool {
	return score >= DailyMinimum
}

// DayStanding is one row of a day's leaderboard.
type DayStanding struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Score      int64  `json:"score"`
	Pass       bool   `json:"pass"`
}
