package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/warroomops/warroom-server/internal/id"
)

// ErrInvalidToken is returned for any token that fails decryption or a claim rule.
var ErrInvalidToken = errors.New("invalid identity token")

// TokenService verifies identity tokens and, for local development and tests,
// issues them. Tokens are PASETO v4.local with a shared symmetric key.
type TokenService struct {
	symmetricKey paseto.V4SymmetricKey
	issuer       string
	audience     string
	now          func() time.Time
}

// NewTokenService creates a token service for the given 32-byte key.
func NewTokenService(key []byte, issuer, audience string) (*TokenService, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d bytes, got %d", keyLength, len(key))
	}
	if issuer == "" || audience == "" {
		return nil, errors.New("identity issuer and audience are required")
	}

	symmetricKey, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}

	return &TokenService{
		symmetricKey: symmetricKey,
		issuer:       issuer,
		audience:     audience,
		now:          time.Now,
	}, nil
}

// SetClock replaces time.Now for issuing and verifying. Used by tests.
func (s *TokenService) SetClock(now func() time.Time) {
	s.now = now
}

// Issue mints a token asserting subject for ttl.
func (s *TokenService) Issue(subject, displayName string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("subject is required")
	}

	now := s.now()
	token := paseto.NewToken()

	token.SetIssuer(s.issuer)
	token.SetSubject(subject)
	token.SetAudience(s.audience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(ttl))

	tokenID, err := id.Generate("tok")
	if err != nil {
		return "", fmt.Errorf("generate token ID: %w", err)
	}
	token.SetJti(tokenID)

	if displayName != "" {
		//nolint:errcheck // Token.Set only errors on invalid types, which we control
		_ = token.Set("name", displayName)
	}

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// Verify decrypts tokenString and checks issuer, audience, and validity window.
// The returned claims always carry a non-empty Subject.
func (s *TokenService) Verify(tokenString string) (*IdentityClaims, error) {
	now := s.now()

	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(s.audience))
	parser.AddRule(paseto.IssuedBy(s.issuer))
	parser.AddRule(paseto.ValidAt(now))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var claims IdentityClaims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("%w: parse claims: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &claims, nil
}
