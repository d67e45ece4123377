package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/warroomops/warroom-server/internal/audit"
	"github.com/warroomops/warroom-server/internal/domain"
	domainerrors "github.com/warroomops/warroom-server/internal/errors"
	"github.com/warroomops/warroom-server/internal/logger"
	"github.com/warroomops/warroom-server/internal/policy"
	"github.com/warroomops/warroom-server/internal/ratelimit"
	"github.com/warroomops/warroom-server/internal/search"
	"github.com/warroomops/warroom-server/internal/store/sqlite"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// testClock is a settable clock shared by every service in a testEnv.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	store     *sqlite.Store
	journal   *audit.Journal
	index     *search.RosterIndex
	clock     *testClock
	alliances *AllianceService
	invites   *InviteService
	roster    *RosterService
	ledger    *LedgerService
	audit     *AuditService
}

// setupServiceTest wires every service against a temporary SQLite file, an
// in-memory audit journal and an in-memory roster index.
func setupServiceTest(t *testing.T) *testEnv {
	t.Helper()

	log := logger.Discard()

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	journal, err := audit.Open(audit.Options{InMemory: true, Logger: log})
	require.NoError(t, err)
	t.Cleanup(func() { _ = journal.Close() })

	index, err := search.NewRosterIndex(log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	st.SetSearchIndexer(index)

	clock := &testClock{now: testNow}
	limiter := ratelimit.New(ratelimit.PerMinute(10), 5, ratelimit.WithClock(clock.Now))
	pol := policy.MustNew()

	env := &testEnv{
		store:     st,
		journal:   journal,
		index:     index,
		clock:     clock,
		alliances: NewAllianceService(st, pol, journal, log),
		invites:   NewInviteService(st, pol, journal, limiter, log, InviteOptions{CodeLength: 8}),
		roster:    NewRosterService(st, pol, journal, index, log),
		ledger:    NewLedgerService(st, pol, journal, log),
		audit:     NewAuditService(st, pol, journal, log),
	}
	env.alliances.SetClock(clock.Now)
	env.invites.SetClock(clock.Now)
	env.roster.SetClock(clock.Now)
	env.ledger.SetClock(clock.Now)
	env.audit.SetClock(clock.Now)
	return env
}

// createAlliance founds an alliance for founderID and returns its ID.
func (e *testEnv) createAlliance(t *testing.T, founderID, name string) string {
	t.Helper()
	a, _, err := e.alliances.CreateAlliance(context.Background(), founderID, CreateAllianceRequest{Name: name})
	require.NoError(t, err)
	return a.ID
}

// join adds userID to the alliance through an invite issued by officerID and
// then gives it role.
func (e *testEnv) join(t *testing.T, allianceID, officerID, userID string, role domain.Role) {
	t.Helper()
	ctx := context.Background()

	inv, err := e.invites.Issue(ctx, officerID, allianceID, IssueInviteRequest{})
	require.NoError(t, err)
	_, err = e.invites.Redeem(ctx, userID, inv.Code)
	require.NoError(t, err)

	if role != domain.JoinRole {
		_, err = e.alliances.SetRole(ctx, officerID, allianceID, SetRoleRequest{UserID: userID, Role: role})
		require.NoError(t, err)
	}
}

func requireCode(t *testing.T, err error, code domainerrors.Code) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, domainerrors.CodeOf(err), "error: %v", err)
}

func intPtr(v int) *int { return &v }
