package providers

import (
	"github.com/samber/do/v2"

	"github.com/warroomops/warroom-server/internal/auth"
	"github.com/warroomops/warroom-server/internal/config"
	"github.com/warroomops/warroom-server/internal/logger"
)

// IdentityKey wraps the symmetric key shared with the identity provider.
type IdentityKey []byte

// ProvideIdentityKey loads the identity key, generating one on first start.
func ProvideIdentityKey(i do.Injector) (IdentityKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.Identity.KeyPath)
	if err != nil {
		return nil, err
	}

	log.Info("Identity key loaded",
		"path", cfg.Identity.KeyPath,
		"issuer", cfg.Identity.Issuer,
		"audience", cfg.Identity.Audience,
	)

	return IdentityKey(key), nil
}

// ProvideTokenService provides the PASETO identity token verifier.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	key := do.MustInvoke[IdentityKey](i)

	return auth.NewTokenService([]byte(key), cfg.Identity.Issuer, cfg.Identity.Audience)
}
