package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/machauth/machauth/internal/auth/domain"
	"github.com/machauth/machauth/internal/auth/store"
	"github.com/machauth/machauth/pkg/cryptox"
	"github.com/machauth/machauth/pkg/idx"
	"github.com/machauth/machauth/pkg/slogx"
)

var (
	ErrInvalidClient = errors.New("invalid_client")
)

// ClientService owns client registration and authentication. Authentication
// deliberately collapses "unknown client" and "wrong secret" into a single
// ErrInvalidClient so the token endpoint cannot be used to probe which
// client_ids exist.
type ClientService struct {
	Store store.Store
}

// RegisterParams carries the inputs for registering a confidential client.
// Secret is the plaintext secret; it is hashed before anything is stored.
type RegisterParams struct {
	ClientID string
	Secret   string
	Scopes   []string
	TokenTTL time.Duration
}

// Register hashes the secret and persists the client. The plaintext secret is
// never stored. Registration validates eagerly so a misconfigured client is
// rejected at startup rather than at first token request.
func (s *ClientService) Register(ctx context.Context, p RegisterParams) (domain.Client, error) {
	hash, err := cryptox.HashSecret(p.Secret)
	if err != nil {
		return domain.Client{}, err
	}

	now := time.Now().UTC()
	c := domain.Client{
		ID:         idx.New().String(),
		ClientID:   p.ClientID,
		SecretHash: hash,
		GrantTypes: []string{domain.GrantClientCredentials},
		Scopes:     append([]string(nil), p.Scopes...),
		TokenTTL:   p.TokenTTL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := c.Validate(); err != nil {
		return domain.Client{}, err
	}

	if err := s.Store.Clients().CreateClient(ctx, c); err != nil {
		return domain.Client{}, err
	}
	return c, nil
}

// Authenticate loads the client by its public client_id and verifies the
// secret against the stored argon2 hash. On an unknown client_id it still
// burns a full argon2 verification against a dummy hash so the two failure
// paths take the same time.
func (s *ClientService) Authenticate(ctx context.Context, clientID, clientSecret string) (domain.Client, error) {
	l := slogx.FromContext(ctx)

	c, err := s.Store.Clients().GetClientByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = cryptox.VerifyDummy(clientSecret)
			l.Info("token request for unknown client", slog.String("client_id", clientID))
			return domain.Client{}, ErrInvalidClient
		}
		return domain.Client{}, err
	}

	if c.SecretHash == "" {
		l.Warn("client has no secret hash", slog.String("client_id", clientID))
		return domain.Client{}, ErrInvalidClient
	}

	if err := cryptox.VerifySecret(clientSecret, c.SecretHash); err != nil {
		if errors.Is(err, cryptox.ErrSecretMismatch) {
			l.Info("client secret verification failed", slog.String("client_id", clientID))
			return domain.Client{}, ErrInvalidClient
		}
		return domain.Client{}, err
	}

	return c, nil
}
