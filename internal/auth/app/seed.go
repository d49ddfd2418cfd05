package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/machauth/machauth/internal/auth/service"
	"github.com/machauth/machauth/internal/auth/store"
	"github.com/machauth/machauth/pkg/httpx"
)

// seedClient is one entry in the MACHAUTH_CLIENTS_FILE JSON array.
// Secrets here are plaintext; they are argon2-hashed before anything
// touches the store.
type seedClient struct {
	ClientID string   `json:"client_id"`
	Secret   string   `json:"secret"`
	Scopes   []string `json:"scopes"`
	TokenTTL string   `json:"token_ttl,omitempty"` // Go duration, default 1h
}

// SeedClients registers the clients named in the configuration: the
// single env-var client first, then any clients file. A client_id that
// already exists in the store is left untouched so re-seeding against a
// persistent database is safe.
func SeedClients(ctx context.Context, clients *service.ClientService, cfg Config, logger *slog.Logger) error {
	if cfg.ClientID != "" {
		if cfg.ClientSecret == "" {
			return fmt.Errorf("seed client %q has no secret", cfg.ClientID)
		}
		err := registerSeed(ctx, clients, seedClient{
			ClientID: cfg.ClientID,
			Secret:   cfg.ClientSecret,
			Scopes:   httpx.SplitScopes(cfg.ClientScopes),
		}, cfg.ClientTokenTTL, logger)
		if err != nil {
			return err
		}
	}

	if cfg.ClientsFile == "" {
		return nil
	}

	raw, err := os.ReadFile(cfg.ClientsFile)
	if err != nil {
		return fmt.Errorf("read clients file: %w", err)
	}

	var seeds []seedClient
	if err := json.Unmarshal(raw, &seeds); err != nil {
		return fmt.Errorf("parse clients file %s: %w", cfg.ClientsFile, err)
	}

	for _, s := range seeds {
		ttl := cfg.ClientTokenTTL
		if s.TokenTTL != "" {
			parsed, err := time.ParseDuration(s.TokenTTL)
			if err != nil {
				return fmt.Errorf("client %q: bad token_ttl %q: %w", s.ClientID, s.TokenTTL, err)
			}
			ttl = parsed
		}
		if err := registerSeed(ctx, clients, s, ttl, logger); err != nil {
			return err
		}
	}
	return nil
}

func registerSeed(ctx context.Context, clients *service.ClientService, s seedClient, ttl time.Duration, logger *slog.Logger) error {
	_, err := clients.Register(ctx, service.RegisterParams{
		ClientID: s.ClientID,
		Secret:   s.Secret,
		Scopes:   s.Scopes,
		TokenTTL: ttl,
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			logger.Info("seed client already registered", "client_id", s.ClientID)
			return nil
		}
		return fmt.Errorf("register client %q: %w", s.ClientID, err)
	}

	logger.Info("seed client registered", "client_id", s.ClientID, "token_ttl", ttl.String())
	return nil
}
