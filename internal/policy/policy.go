// Package policy decides which alliance roles may perform which actions.
//
// The rules live in a casbin RBAC model held entirely in memory. Roles inherit
// downwards (R5 has everything R4 has, and so on), so each permission is
// granted once at the lowest role that holds it.
package policy

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/warroomops/warroom-server/internal/domain"
	domainerrors "github.com/warroomops/warroom-server/internal/errors"
)

// Action names an operation checked by the policy.
type Action string

// Actions known to the policy.
const (
	InviteCreate     Action = "invite.create"
	InviteRevoke     Action = "invite.revoke"
	InviteView       Action = "invite.view"
	RosterAdd        Action = "roster.add"
	RosterDeactivate Action = "roster.deactivate"
	RosterView       Action = "roster.view"
	WeekSet          Action = "week.set"
	ScoreRecord      Action = "score.record"
	ScoreView        Action = "score.view"
	MemberView       Action = "member.view"
	MemberManage     Action = "member.manage"
	AuditView        Action = "audit.view"
)

const rbacModel = `
[request_definition]
r = sub, act

[policy_definition]
p = sub, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.act == p.act
`

// grants maps the lowest role holding each action.
var grants = map[domain.Role][]Action{
	domain.RoleR1: {InviteView, RosterView, ScoreView, MemberView},
	domain.RoleR4: {InviteCreate, InviteRevoke, RosterAdd, RosterDeactivate, WeekSet, ScoreRecord, AuditView},
	domain.RoleR5: {MemberManage},
}

// Policy answers role/action questions.
type Policy struct {
	enforcer *casbin.Enforcer
}

// New builds the policy. It fails only if the embedded model is malformed.
func New() (*Policy, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("parse rbac model: %w", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}

	// Each role inherits the role directly beneath it.
	for i := 0; i+1 < len(domain.Roles); i++ {
		if _, err := e.AddGroupingPolicy(string(domain.Roles[i]), string(domain.Roles[i+1])); err != nil {
			return nil, fmt.Errorf("add role inheritance %s: %w", domain.Roles[i], err)
		}
	}

	for role, actions := range grants {
		for _, act := range actions {
			if _, err := e.AddPolicy(string(role), string(act)); err != nil {
				return nil, fmt.Errorf("add policy %s %s: %w", role, act, err)
			}
		}
	}

	return &Policy{enforcer: e}, nil
}

// MustNew is like New but panics on error.
func MustNew() *Policy {
	p, err := New()
	if err != nil {
		panic(err)
	}
	return p
}

// Allowed reports whether role may perform act. Unknown roles are never allowed.
func (p *Policy) Allowed(role domain.Role, act Action) bool {
	if !role.Valid() {
		return false
	}
	ok, err := p.enforcer.Enforce(string(role), string(act))
	return err == nil && ok
}

// Authorize returns nil if role may perform act, otherwise a PERMISSION_DENIED error.
func (p *Policy) Authorize(role domain.Role, act Action) error {
	if p.Allowed(role, act) {
		return nil
	}
	return domainerrors.PermissionDeniedf("role %s may not perform %s", roleLabel(role), act)
}

// Actions returns every action role may perform, in declaration order.
func (p *Policy) Actions(role domain.Role) []Action {
	var out []Action
	for _, act := range allActions {
		if p.Allowed(role, act) {
			out = append(out, act)
		}
	}
	return out
}

var allActions = []Action{
	InviteCreate, InviteRevoke, InviteView,
	RosterAdd, RosterDeactivate, RosterView,
	WeekSet, ScoreRecord, ScoreView,
	MemberView, MemberManage, AuditView,
}

func roleLabel(r domain.Role) string {
	if r == "" {
		return "(none)"
	}
	return string(r)
}
