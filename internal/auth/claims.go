package auth

import "time"

// IdentityClaims are the claims carried by an identity token.
// v4.local tokens are encrypted, so claims are not readable without the key.
type IdentityClaims struct {
	// DisplayName is informational; authorization only uses Subject.
	DisplayName string `json:"name,omitempty"`

	// Standard PASETO claims
	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}

// UserID returns the verified stable user identifier.
func (c *IdentityClaims) UserID() string {
	return c.Subject
}
