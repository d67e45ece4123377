package domain

// Player is an alliance roster entry. Players are never physically deleted;
// deactivation keeps their ledger history intact.
type Player struct {
	Entity
	AllianceID string `json:"alliance_id"`
	Name       string `json:"name"`
	// NameKey is the case-folded name used for uniqueness among active players.
	NameKey string `json:"-"`
	HQLevel *int   `json:"hq_level,omitempty"`
	Active  bool   `json:"active"`
}
