package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/machauth/machauth/internal/auth/domain"
	"github.com/machauth/machauth/internal/auth/store"
	"github.com/machauth/machauth/pkg/idx"
)

func newClient(clientID string, createdAt time.Time) domain.Client {
	return domain.Client{
		ID:         idx.New().String(),
		ClientID:   clientID,
		SecretHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		GrantTypes: []string{domain.GrantClientCredentials},
		Scopes:     []string{"openid"},
		TokenTTL:   time.Hour,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
}

func TestMemoryClients(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := New()
	t.Cleanup(func() { _ = m.Close() })

	require.NoError(t, m.ApplyMigrations())
	require.NoError(t, m.Ping(ctx))

	empty, err := m.Clients().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	_, err = m.Clients().GetClientByClientID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	c := newClient("my-client", time.Now())
	require.NoError(t, m.Clients().CreateClient(ctx, c))

	got, err := m.Clients().GetClientByClientID(ctx, "my-client")
	require.NoError(t, err)
	require.Equal(t, c.ID, got.ID)
	require.Equal(t, c.Scopes, got.Scopes)
	require.Equal(t, time.Hour, got.TokenTTL)

	// duplicate client_id rejected
	require.ErrorIs(t, m.Clients().CreateClient(ctx, c), store.ErrAlreadyExists)

	empty, err = m.Clients().IsEmpty(ctx)
	require.NoError(t, err)
	require.False(t, empty)
}

func TestMemoryListOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := New()

	base := time.Now()
	require.NoError(t, m.Clients().CreateClient(ctx, newClient("older", base.Add(-time.Hour))))
	require.NoError(t, m.Clients().CreateClient(ctx, newClient("newer", base)))

	list, err := m.Clients().ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "newer", list[0].ClientID)
	require.Equal(t, "older", list[1].ClientID)
}

func TestMemoryCloneIsolation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := New()

	c := newClient("my-client", time.Now())
	require.NoError(t, m.Clients().CreateClient(ctx, c))

	got, err := m.Clients().GetClientByClientID(ctx, "my-client")
	require.NoError(t, err)
	got.Scopes[0] = "mutated"

	again, err := m.Clients().GetClientByClientID(ctx, "my-client")
	require.NoError(t, err)
	require.Equal(t, []string{"openid"}, again.Scopes)
}
