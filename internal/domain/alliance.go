// Package domain holds the alliance core's entities and the pure rules that
// belong to them (role ordering, invite terminal states, pass/fail scoring).
package domain

// Alliance is the top-level tenant. Every other record belongs to exactly one.
type Alliance struct {
	Entity
	Name      string `json:"name"`
	CreatedBy string `json:"created_by"`
}
