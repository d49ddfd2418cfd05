package app

import (
	"fmt"
	"log/slog"

	"github.com/machauth/machauth/pkg/jwtx"
)

// InitAuthKeys generates the ephemeral signing keys for this process.
// Tokens do not outlive the process set that issued them: clients are
// expected to re-authenticate after a restart, so nothing is persisted.
func InitAuthKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyManager, error) {
	keyManager, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Algorithm: cfg.Algorithm,
		Issuer:    cfg.Issuer,
		RSABits:   cfg.RSABits,
		NumKeys:   cfg.NumKeys,
	})
	if err != nil {
		return nil, fmt.Errorf("generate signing keys: %w", err)
	}

	logger.Info("signing keys generated",
		"algorithm", keyManager.Algorithm(),
		"keys", len(keyManager.KeySet.PublicJWKS().Keys),
	)
	return keyManager, nil
}
