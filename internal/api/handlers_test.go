package api

import (
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnboardingAndFirstScore(t *testing.T) {
	ts := setupTestServer(t, nil)

	allianceID := ts.createAlliance(t, "u1", "Iron Wolves")
	code := ts.issueInvite(t, "u1", allianceID, map[string]any{"max_uses": 1})
	assert.Len(t, code, 8)

	// u2 joins as R3; the lower-case code with a separator still matches.
	resp := ts.api.Post("/api/v1/invites/redeem", ts.as(t, "u2"),
		map[string]any{"code": strings.ToLower(code[:4]) + "-" + strings.ToLower(code[4:])})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	redeemed := decodeBody(t, resp)
	assert.Equal(t, allianceID, redeemed["alliance_id"])
	assert.Equal(t, "R3", redeemed["membership"].(map[string]any)["role"])

	body := requireError(t,
		ts.api.Post("/api/v1/invites/redeem", ts.as(t, "u3"), map[string]any{"code": code}),
		http.StatusGone, "EXHAUSTED_USES")
	assert.Equal(t, false, body["retryable"])

	resp = ts.api.Post("/api/v1/alliances/"+allianceID+"/players", ts.as(t, "u1"),
		map[string]any{"name": "Falcon", "hq_level": 30})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	playerID := decodeBody(t, resp)["id"].(string)

	resp = ts.api.Put("/api/v1/alliances/"+allianceID+"/days/2024-05-01/scores/"+playerID, ts.as(t, "u1"),
		map[string]any{"score": 7_200_000})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, true, decodeBody(t, resp)["pass"])

	// Any member may read the standings.
	resp = ts.api.Get("/api/v1/alliances/"+allianceID+"/days/2024-05-01", ts.as(t, "u2"))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	report := decodeBody(t, resp)
	assert.Equal(t, float64(7_200_000), report["threshold"])
	standings := report["standings"].([]any)
	require.Len(t, standings, 1)
	row := standings[0].(map[string]any)
	assert.Equal(t, "Falcon", row["player_name"])
	assert.Equal(t, float64(7_200_000), row["score"])
	assert.Equal(t, true, row["pass"])
}

func TestRecordScore_RejectsNonIntegralAndNegative(t *testing.T) {
	ts := setupTestServer(t, nil)
	allianceID := ts.createAlliance(t, "u1", "Iron Wolves")

	resp := ts.api.Post("/api/v1/alliances/"+allianceID+"/players", ts.as(t, "u1"), map[string]any{"name": "Falcon"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	playerID := decodeBody(t, resp)["id"].(string)
	path := "/api/v1/alliances/" + allianceID + "/days/2024-05-01/scores/" + playerID

	requireError(t, ts.api.Put(path, ts.as(t, "u1"), map[string]any{"score": 7.5}), http.StatusBadRequest, "VALIDATION")
	requireError(t, ts.api.Put(path, ts.as(t, "u1"), map[string]any{"score": -1}), http.StatusBadRequest, "VALIDATION")
	requireError(t, ts.api.Put(path, ts.as(t, "u1"), map[string]any{"score": "lots"}), http.StatusBadRequest, "VALIDATION")

	// Overwrite keeps one entry with the latest score.
	require.Equal(t, http.StatusOK, ts.api.Put(path, ts.as(t, "u1"), map[string]any{"score": 7_000_000}).Code)
	resp = ts.api.Put(path, ts.as(t, "u1"), map[string]any{"score": 7_500_000})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	standings := decodeBody(t, ts.api.Get("/api/v1/alliances/"+allianceID+"/days/2024-05-01", ts.as(t, "u1")))["standings"].([]any)
	require.Len(t, standings, 1)
	assert.Equal(t, float64(7_500_000), standings[0].(map[string]any)["score"])
}

func TestRecordScore_ForeignPlayer(t *testing.T) {
	ts := setupTestServer(t, nil)
	ours := ts.createAlliance(t, "u1", "Iron Wolves")
	theirs := ts.createAlliance(t, "u9", "Night Owls")

	resp := ts.api.Post("/api/v1/alliances/"+theirs+"/players", ts.as(t, "u9"), map[string]any{"name": "Raven"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	foreign := decodeBody(t, resp)["id"].(string)

	body := requireError(t,
		ts.api.Put("/api/v1/alliances/"+ours+"/days/2024-05-01/scores/"+foreign, ts.as(t, "u1"), map[string]any{"score": 1}),
		http.StatusBadRequest, "VALIDATION")
	assert.Contains(t, body["details"], "player_id")
}

func TestSetRole_RequiresR5(t *testing.T) {
	ts := setupTestServer(t, nil)
	allianceID := ts.createAlliance(t, "u1", "Iron Wolves")
	code := ts.issueInvite(t, "u1", allianceID, map[string]any{"max_uses": 2})

	for _, u := range []string{"u2", "u3"} {
		resp := ts.api.Post("/api/v1/invites/redeem", ts.as(t, u), map[string]any{"code": code})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	}

	path := "/api/v1/alliances/" + allianceID + "/members/u3/role"
	requireError(t, ts.api.Put(path, ts.as(t, "u2"), map[string]any{"role": "R4"}), http.StatusForbidden, "PERMISSION_DENIED")
	requireError(t, ts.api.Put(path, ts.as(t, "u2"), map[string]any{"role": "R9"}), http.StatusForbidden, "PERMISSION_DENIED")
	requireError(t, ts.api.Put(path, ts.as(t, "u1"), map[string]any{"role": "R9"}), http.StatusBadRequest, "VALIDATION")

	resp := ts.api.Put(path, ts.as(t, "u1"), map[string]any{"role": "R4"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "R4", decodeBody(t, resp)["role"])

	requireError(t, ts.api.Put("/api/v1/alliances/"+allianceID+"/members/nobody/role", ts.as(t, "u1"),
		map[string]any{"role": "R2"}), http.StatusNotFound, "NOT_FOUND")
}

func TestMembers_ListAndDisable(t *testing.T) {
	ts := setupTestServer(t, nil)
	allianceID := ts.createAlliance(t, "u1", "Iron Wolves")
	code := ts.issueInvite(t, "u1", allianceID, map[string]any{})
	require.Equal(t, http.StatusOK, ts.api.Post("/api/v1/invites/redeem", ts.as(t, "u2"), map[string]any{"code": code}).Code)

	resp := ts.api.Get("/api/v1/alliances/"+allianceID+"/members", ts.as(t, "u2"))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	members := decodeBody(t, resp)["members"].([]any)
	require.Len(t, members, 2)
	assert.Equal(t, "u1", members[0].(map[string]any)["user_id"])

	requireError(t, ts.api.Delete("/api/v1/alliances/"+allianceID+"/members/u1", ts.as(t, "u2")),
		http.StatusForbidden, "PERMISSION_DENIED")
	requireError(t, ts.api.Delete("/api/v1/alliances/"+allianceID+"/members/u1", ts.as(t, "u1")),
		http.StatusBadRequest, "VALIDATION")

	resp = ts.api.Delete("/api/v1/alliances/"+allianceID+"/members/u2", ts.as(t, "u1"))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	// A disabled member can no longer read alliance data.
	requireError(t, ts.api.Get("/api/v1/alliances/"+allianceID+"/members", ts.as(t, "u2")),
		http.StatusForbidden, "PERMISSION_DENIED")
}

func TestRedeem_Errors(t *testing.T) {
	ts := setupTestServer(t, nil)
	allianceID := ts.createAlliance(t, "u1", "Iron Wolves")

	requireError(t, ts.api.Post("/api/v1/invites/redeem", ts.as(t, "u2"), map[string]any{"code": "ZZZZZZZZ"}),
		http.StatusNotFound, "INVALID_CODE")

	code := ts.issueInvite(t, "u1", allianceID, map[string]any{"max_uses": 5})
	resp := ts.api.Get("/api/v1/alliances/"+allianceID+"/invites", ts.as(t, "u1"))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	invites := decodeBody(t, resp)["invites"].([]any)
	require.Len(t, invites, 1)
	inviteID := invites[0].(map[string]any)["id"].(string)

	// Revoking twice succeeds; redeeming afterwards reports the revocation
	// even though uses remain.
	require.Equal(t, http.StatusOK, ts.api.Delete("/api/v1/invites/"+inviteID, ts.as(t, "u1")).Code)
	resp = ts.api.Delete("/api/v1/invites/"+inviteID, ts.as(t, "u1"))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, true, decodeBody(t, resp)["revoked"])

	requireError(t, ts.api.Post("/api/v1/invites/redeem", ts.as(t, "u2"), map[string]any{"code": code}),
		http.StatusGone, "REVOKED")

	requireError(t, ts.api.Post("/api/v1/alliances/"+allianceID+"/invites", ts.as(t, "u1"),
		map[string]any{"expires_at": "2001-01-01T00:00:00Z"}), http.StatusBadRequest, "VALIDATION")
}

func TestRedeem_Concurrent(t *testing.T) {
	ts := setupTestServer(t, nil)
	allianceID := ts.createAlliance(t, "u1", "Iron Wolves")
	code := ts.issueInvite(t, "u1", allianceID, map[string]any{"max_uses": 1})

	const n = 8
	headers := make([]string, n)
	for i := range headers {
		headers[i] = ts.as(t, "joiner-"+string(rune('a'+i)))
	}

	var wg sync.WaitGroup
	statuses := make([]int, n)
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp := ts.api.Post("/api/v1/invites/redeem", headers[i], map[string]any{"code": code})
			statuses[i] = resp.Code
		}(i)
	}
	wg.Wait()

	var ok, gone int
	for _, s := range statuses {
		switch s {
		case http.StatusOK:
			ok++
		case http.StatusGone:
			gone++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, gone)
}

func TestRedeem_RateLimited(t *testing.T) {
	ts := setupTestServer(t, nil)
	header := ts.as(t, "guesser")

	var last map[string]any
	for range 6 {
		resp := ts.api.Post("/api/v1/invites/redeem", header, map[string]any{"code": "ABCDEFGH"})
		if resp.Code == http.StatusTooManyRequests {
			last = decodeBody(t, resp)
			break
		}
		requireError(t, resp, http.StatusNotFound, "INVALID_CODE")
	}

	require.NotNil(t, last, "expected the limiter to trip within six attempts")
	assert.Equal(t, "RATE_LIMITED", last["code"])
	assert.Equal(t, true, last["retryable"])
}

func TestInvites_CodesHiddenFromMembers(t *testing.T) {
	ts := setupTestServer(t, nil)
	allianceID := ts.createAlliance(t, "u1", "Iron Wolves")
	ts.issueInvite(t, "u1", allianceID, map[string]any{"max_uses": 3})
	code := ts.issueInvite(t, "u1", allianceID, map[string]any{})
	require.Equal(t, http.StatusOK, ts.api.Post("/api/v1/invites/redeem", ts.as(t, "u2"), map[string]any{"code": code}).Code)

	requireError(t, ts.api.Post("/api/v1/alliances/"+allianceID+"/invites", ts.as(t, "u2"), map[string]any{}),
		http.StatusForbidden, "PERMISSION_DENIED")

	resp := ts.api.Get("/api/v1/alliances/"+allianceID+"/invites", ts.as(t, "u2"))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	for _, raw := range decodeBody(t, resp)["invites"].([]any) {
		inv := raw.(map[string]any)
		assert.Empty(t, inv["code"])
		assert.Contains(t, []any{"active", "exhausted"}, inv["status"])
	}
}

func TestRoster(t *testing.T) {
	ts := setupTestServer(t, nil)
	allianceID := ts.createAlliance(t, "u1", "Iron Wolves")
	base := "/api/v1/alliances/" + allianceID + "/players"

	for _, name := range []string{"Osprey", "Falcon", "Kestrel"} {
		resp := ts.api.Post(base, ts.as(t, "u1"), map[string]any{"name": name})
		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	}
	requireError(t, ts.api.Post(base, ts.as(t, "u1"), map[string]any{"name": "FALCON"}), http.StatusConflict, "DUPLICATE")

	resp := ts.api.Get(base, ts.as(t, "u1"))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var names []string
	for _, p := range decodeBody(t, resp)["players"].([]any) {
		names = append(names, p.(map[string]any)["name"].(string))
	}
	assert.Equal(t, []string{"Falcon", "Kestrel", "Osprey"}, names)

	resp = ts.api.Get(base+"/search?q=ospey", ts.as(t, "u1"))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	hits := decodeBody(t, resp)["hits"].([]any)
	require.NotEmpty(t, hits)
	assert.Equal(t, "Osprey", hits[0].(map[string]any)["name"])

	requireError(t, ts.api.Get(base+"/search?q=%20", ts.as(t, "u1")), http.StatusBadRequest, "VALIDATION")

	playerID := decodeBody(t, ts.api.Get(base, ts.as(t, "u1")))["players"].([]any)[0].(map[string]any)["id"].(string)
	resp = ts.api.Delete(base+"/"+playerID, ts.as(t, "u1"))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, false, decodeBody(t, resp)["active"])
	assert.Len(t, decodeBody(t, ts.api.Get(base, ts.as(t, "u1")))["players"].([]any), 2)
}

func TestWeeks(t *testing.T) {
	ts := setupTestServer(t, nil)
	allianceID := ts.createAlliance(t, "u1", "Iron Wolves")
	path := "/api/v1/alliances/" + allianceID + "/weeks/2024-04-29"

	requireError(t, ts.api.Get(path, ts.as(t, "u1")), http.StatusNotFound, "NOT_FOUND")

	resp := ts.api.Put(path, ts.as(t, "u1"), map[string]any{"week_type": "push"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	week := decodeBody(t, resp)
	assert.Equal(t, "push", week["week_type"])
	assert.Equal(t, float64(2), week["grace_days"])

	resp = ts.api.Put(path, ts.as(t, "u1"), map[string]any{"week_type": "save", "grace_days": 0, "locked": true})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	week = decodeBody(t, ts.api.Get(path, ts.as(t, "u1")))
	assert.Equal(t, "save", week["week_type"])
	assert.Equal(t, float64(0), week["grace_days"])
	assert.Equal(t, "u1", week["locked_by"])

	requireError(t, ts.api.Put(path, ts.as(t, "u1"), map[string]any{"week_type": "coast"}), http.StatusBadRequest, "VALIDATION")
	requireError(t, ts.api.Put("/api/v1/alliances/"+allianceID+"/weeks/2024-13-01", ts.as(t, "u1"),
		map[string]any{"week_type": "save"}), http.StatusBadRequest, "VALIDATION")

	// The covering week is attached to day reports.
	report := decodeBody(t, ts.api.Get("/api/v1/alliances/"+allianceID+"/days/2024-05-01", ts.as(t, "u1")))
	assert.Equal(t, "2024-04-29", report["week"].(map[string]any)["week_start"])
	assert.Empty(t, report["standings"])
}

func TestAudit(t *testing.T) {
	ts := setupTestServer(t, nil)
	allianceID := ts.createAlliance(t, "u1", "Iron Wolves")
	code := ts.issueInvite(t, "u1", allianceID, map[string]any{})
	require.Equal(t, http.StatusOK, ts.api.Post("/api/v1/invites/redeem", ts.as(t, "u2"), map[string]any{"code": code}).Code)

	resp := ts.api.Get("/api/v1/alliances/"+allianceID+"/audit", ts.as(t, "u1"))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	events := decodeBody(t, resp)["events"].([]any)
	require.Len(t, events, 3)
	assert.Equal(t, "invite.redeemed", events[0].(map[string]any)["kind"])
	assert.Equal(t, "alliance.created", events[2].(map[string]any)["kind"])

	requireError(t, ts.api.Get("/api/v1/alliances/"+allianceID+"/audit?limit=1", ts.as(t, "u2")),
		http.StatusForbidden, "PERMISSION_DENIED")
	requireError(t, ts.api.Get("/api/v1/alliances/"+allianceID+"/audit?limit=501", ts.as(t, "u1")),
		http.StatusBadRequest, "VALIDATION")
}
