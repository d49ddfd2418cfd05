package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/machauth/machauth/internal/auth/service"
	"github.com/machauth/machauth/internal/auth/store/drivers/memory"
	"github.com/machauth/machauth/pkg/cryptox"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "app-pepper-*")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestSeedClientsFromEnv(t *testing.T) {
	ctx := context.Background()
	clients := &service.ClientService{Store: memory.New()}

	cfg := Config{
		ClientID:       "my-client",
		ClientSecret:   "my-secret",
		ClientScopes:   "openid profile",
		ClientTokenTTL: time.Hour,
	}
	require.NoError(t, SeedClients(ctx, clients, cfg, discardLogger()))

	c, err := clients.Authenticate(ctx, "my-client", "my-secret")
	require.NoError(t, err)
	require.Equal(t, []string{"openid", "profile"}, c.Scopes)
	require.Equal(t, time.Hour, c.TokenTTL)
}

func TestSeedClientsMissingSecret(t *testing.T) {
	clients := &service.ClientService{Store: memory.New()}

	cfg := Config{ClientID: "my-client", ClientTokenTTL: time.Hour}
	require.Error(t, SeedClients(context.Background(), clients, cfg, discardLogger()))
}

func TestSeedClientsFromFile(t *testing.T) {
	ctx := context.Background()
	clients := &service.ClientService{Store: memory.New()}

	path := filepath.Join(t.TempDir(), "clients.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"client_id": "svc-a", "secret": "secret-a", "scopes": ["openid"]},
		{"client_id": "svc-b", "secret": "secret-b", "scopes": ["openid", "client:read"], "token_ttl": "30m"}
	]`), 0o600))

	cfg := Config{ClientsFile: path, ClientTokenTTL: time.Hour}
	require.NoError(t, SeedClients(ctx, clients, cfg, discardLogger()))

	a, err := clients.Authenticate(ctx, "svc-a", "secret-a")
	require.NoError(t, err)
	require.Equal(t, time.Hour, a.TokenTTL)

	b, err := clients.Authenticate(ctx, "svc-b", "secret-b")
	require.NoError(t, err)
	require.Equal(t, 30*time.Minute, b.TokenTTL)
}

func TestSeedClientsIdempotent(t *testing.T) {
	ctx := context.Background()
	clients := &service.ClientService{Store: memory.New()}

	cfg := Config{
		ClientID:       "my-client",
		ClientSecret:   "my-secret",
		ClientScopes:   "openid",
		ClientTokenTTL: time.Hour,
	}
	require.NoError(t, SeedClients(ctx, clients, cfg, discardLogger()))

	// second run with a different secret leaves the original untouched
	cfg.ClientSecret = "changed"
	require.NoError(t, SeedClients(ctx, clients, cfg, discardLogger()))

	_, err := clients.Authenticate(ctx, "my-client", "my-secret")
	require.NoError(t, err)
}

func TestSeedClientsBadTTL(t *testing.T) {
	clients := &service.ClientService{Store: memory.New()}

	path := filepath.Join(t.TempDir(), "clients.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"client_id": "svc-a", "secret": "secret-a", "scopes": ["openid"], "token_ttl": "soon"}
	]`), 0o600))

	cfg := Config{ClientsFile: path, ClientTokenTTL: time.Hour}
	require.Error(t, SeedClients(context.Background(), clients, cfg, discardLogger()))
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()
	require.Equal(t, "machauth", cfg.Issuer)
	require.Equal(t, "EdDSA", cfg.Algorithm)
	require.Equal(t, "sqlite", cfg.StoreDriver)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 10*time.Second, cfg.ShutdownGracePeriod)
	require.Equal(t, time.Hour, cfg.ClientTokenTTL)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("MACHAUTH_ISSUER", "https://auth.example.com")
	t.Setenv("MACHAUTH_STORE_DRIVER", "memory")
	t.Setenv("MACHAUTH_CLIENT_TOKEN_TTL", "45m")
	t.Setenv("PORT", "9090")

	cfg := LoadConfig()
	require.Equal(t, "https://auth.example.com", cfg.Issuer)
	require.Equal(t, "memory", cfg.StoreDriver)
	require.Equal(t, 45*time.Minute, cfg.ClientTokenTTL)
	require.Equal(t, 9090, cfg.Port)
}
