package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warroomops/warroom-server/internal/audit"
	"github.com/warroomops/warroom-server/internal/domain"
	domainerrors "github.com/warroomops/warroom-server/internal/errors"
)

func TestAuditService_ListAudit(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	allianceID := env.createAlliance(t, "u1", "Wolves")
	env.join(t, allianceID, "u1", "u4", domain.RoleR4)
	env.join(t, allianceID, "u1", "u3", domain.RoleR3)

	_, err := env.roster.AddPlayer(ctx, "u4", allianceID, AddPlayerRequest{Name: "Falcon"})
	require.NoError(t, err)

	events, err := env.audit.ListAudit(ctx, "u4", allianceID, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, audit.PlayerAdded, events[0].Kind)
	assert.Equal(t, "u4", events[0].ActorID)

	all, err := env.audit.ListAudit(ctx, "u1", allianceID, 0)
	require.NoError(t, err)
	assert.Equal(t, audit.AllianceCreated, all[len(all)-1].Kind)

	_, err = env.audit.ListAudit(ctx, "u3", allianceID, 0)
	requireCode(t, err, domainerrors.CodePermissionDenied)

	_, err = env.audit.ListAudit(ctx, "u1", allianceID, 10_000)
	requireCode(t, err, domainerrors.CodeValidation)
}

func TestAuditService_ScopedToAlliance(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	wolves := env.createAlliance(t, "u1", "Wolves")
	env.createAlliance(t, "u2", "Bears")

	events, err := env.audit.ListAudit(ctx, "u1", wolves, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, wolves, events[0].AllianceID)
}
