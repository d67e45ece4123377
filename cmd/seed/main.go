// Package main seeds a demo alliance for local development and prints identity
// tokens for its members.
//
// It plays the onboarding scenario end to end: a leader founds the alliance
// and issues a single-use invite, one user joins with it, a second user is
// turned away because the invite is used up, and the leader records the first
// VS score.
//
// Usage:
//
//	DATA_PATH=~/WarRoom/data go run ./cmd/seed
//
// It accepts the same flags and environment variables as the server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/samber/do/v2"

	"github.com/warroomops/warroom-server/internal/auth"
	"github.com/warroomops/warroom-server/internal/di"
	domainerrors "github.com/warroomops/warroom-server/internal/errors"
	"github.com/warroomops/warroom-server/internal/id"
	"github.com/warroomops/warroom-server/internal/service"
)

const (
	tokenTTL  = 24 * time.Hour
	demoDay   = "2024-05-01"
	demoWeek  = "2024-04-29"
	demoScore = 7_200_000
)

func main() {
	injector := di.NewContainer()

	err := di.Bootstrap(injector, false)
	if err == nil {
		err = seed(context.Background(), injector)
	}

	// Close badger and SQLite cleanly even when seeding failed.
	if report := injector.Shutdown(); !report.Succeed {
		log.Printf("Shutdown error: %s", report.Error())
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Seed failed: %v\n", err)
		os.Exit(1)
	}
}

func seed(ctx context.Context, injector do.Injector) error {
	alliances := do.MustInvoke[*service.AllianceService](injector)
	invites := do.MustInvoke[*service.InviteService](injector)
	roster := do.MustInvoke[*service.RosterService](injector)
	ledger := do.MustInvoke[*service.LedgerService](injector)
	tokens := do.MustInvoke[*auth.TokenService](injector)

	leader := id.MustGenerate("usr")
	joiner := id.MustGenerate("usr")
	latecomer := id.MustGenerate("usr")

	alliance, _, err := alliances.CreateAlliance(ctx, leader, service.CreateAllianceRequest{Name: "Demo Alliance"})
	if err != nil {
		return fmt.Errorf("create alliance: %w", err)
	}
	fmt.Printf("Alliance %q created: %s\n", alliance.Name, alliance.ID)

	invite, err := invites.Issue(ctx, leader, alliance.ID, service.IssueInviteRequest{MaxUses: 1})
	if err != nil {
		return fmt.Errorf("issue invite: %w", err)
	}
	fmt.Printf("Invite issued: %s (max uses %d)\n", invite.Code, invite.MaxUses)

	joined, err := invites.Redeem(ctx, joiner, invite.Code)
	if err != nil {
		return fmt.Errorf("redeem invite: %w", err)
	}
	fmt.Printf("Joined as %s\n", joined.Membership.Role)

	_, err = invites.Redeem(ctx, latecomer, invite.Code)
	if !errors.Is(err, domainerrors.ErrExhaustedUses) {
		return fmt.Errorf("second redeem: expected EXHAUSTED_USES, got %v", err)
	}
	fmt.Printf("Second redeem refused: %s\n", domainerrors.CodeOf(err))

	hq := 30
	falcon, err := roster.AddPlayer(ctx, leader, alliance.ID, service.AddPlayerRequest{Name: "Falcon", HQLevel: &hq})
	if err != nil {
		return fmt.Errorf("add player: %w", err)
	}

	if _, err := ledger.SetWeekType(ctx, leader, alliance.ID, service.SetWeekRequest{
		WeekStart: demoWeek,
		WeekType:  "push",
	}); err != nil {
		return fmt.Errorf("set week type: %w", err)
	}

	if _, err := ledger.RecordScore(ctx, leader, alliance.ID, service.RecordScoreRequest{
		PlayerID: falcon.ID,
		GameDay:  demoDay,
		Score:    demoScore,
	}); err != nil {
		return fmt.Errorf("record score: %w", err)
	}

	report, err := ledger.ListForDay(ctx, joiner, alliance.ID, demoDay)
	if err != nil {
		return fmt.Errorf("list day: %w", err)
	}
	fmt.Printf("\nStandings for %s (minimum %d):\n", report.GameDay, report.Threshold)
	for _, row := range report.Standings {
		result := "fail"
		if row.Pass {
			result = "pass"
		}
		fmt.Printf("  %-12s %12d  %s\n", row.PlayerName, row.Score, result)
	}

	fmt.Println("\nIdentity tokens (valid 24h):")
	for _, u := range []struct{ label, id string }{
		{"leader (R5)", leader},
		{"joiner (R3)", joiner},
		{"latecomer (no alliance)", latecomer},
	} {
		token, err := tokens.Issue(u.id, u.label, tokenTTL)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		fmt.Printf("  %-24s %s\n    %s\n", u.label, u.id, token)
	}
	return nil
}
