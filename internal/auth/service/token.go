package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/machauth/machauth/internal/auth/domain"
	"github.com/machauth/machauth/pkg/jwtx"
	"github.com/machauth/machauth/pkg/slogx"
)

var ErrSignerUnavailable = errors.New("token signer unavailable")

// TokenService mints access tokens for authenticated, validated clients.
// No refresh tokens are issued: a machine client can always re-authenticate
// with its credentials.
type TokenService struct {
	KeyManager *jwtx.KeyManager
	Issuer     string
	Audience   []string
}

// Issue signs a JWT access token for the client with the granted scopes.
// The token's lifetime comes from the client's own TokenTTL, so expiry is
// always issuedAt + TTL regardless of server defaults.
func (s *TokenService) Issue(ctx context.Context, client domain.Client, grantedScopes []string, now time.Time) (domain.IssuedToken, error) {
	l := slogx.FromContext(ctx)

	if s.KeyManager == nil || !s.KeyManager.IsReady() {
		return domain.IssuedToken{}, ErrSignerUnavailable
	}

	audience := s.Audience
	if len(audience) == 0 {
		audience = []string{client.ClientID}
	}

	claims := jwtx.NewAccessClaims(
		client.ClientID,
		grantedScopes,
		client.TokenTTL,
		s.Issuer,
		audience,
		client.ClientID,
		now,
	)

	signer := s.KeyManager.GetSigner()
	value, err := signer.Sign(claims)
	if err != nil {
		l.Error("failed to sign access token", slog.Any("error", err))
		return domain.IssuedToken{}, err
	}

	return domain.IssuedToken{
		Value:         value,
		TokenType:     "Bearer",
		IssuedAt:      now,
		ExpiresAt:     now.Add(client.TokenTTL),
		GrantedScopes: grantedScopes,
	}, nil
}

// Exchange runs the full client_credentials flow: authenticate the client,
// validate the grant, and mint the token. Handlers call this once per token
// request.
type ExchangeService struct {
	Clients *ClientService
	Grants  GrantValidator
	Tokens  *TokenService
}

func (s *ExchangeService) ExchangeClientCredentials(
	ctx context.Context,
	clientID, clientSecret, grantType string,
	requestedScopes []string,
) (domain.IssuedToken, error) {
	client, err := s.Clients.Authenticate(ctx, clientID, clientSecret)
	if err != nil {
		return domain.IssuedToken{}, err
	}

	res := s.Grants.Validate(client, grantType, requestedScopes)
	if res.State == GrantRejected {
		return domain.IssuedToken{}, res.Err
	}

	return s.Tokens.Issue(ctx, client, res.GrantedScopes, time.Now())
}
