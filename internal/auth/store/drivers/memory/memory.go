// Package memory provides an in-memory store driver. It is the reference
// implementation used by tests and by deployments that seed their whole
// client set from configuration and do not need persistence.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/machauth/machauth/internal/auth/domain"
	"github.com/machauth/machauth/internal/auth/store"
)

type Memory struct {
	mu sync.RWMutex

	// keyed by public client_id, the token endpoint's lookup key
	clients map[string]domain.Client
}

var _ store.Store = (*Memory)(nil)

func New() *Memory {
	return &Memory{clients: make(map[string]domain.Client)}
}

func (m *Memory) Clients() store.Clients { return (*clientsRepo)(m) }

func (m *Memory) ApplyMigrations() error { return nil }

func (m *Memory) Close() error { return nil }

func (m *Memory) Ping(ctx context.Context) error { return ctx.Err() }

type clientsRepo Memory

func (r *clientsRepo) GetClientByClientID(ctx context.Context, clientID string) (domain.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[clientID]
	if !ok {
		return domain.Client{}, store.ErrNotFound
	}
	return cloneClient(c), nil
}

func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[c.ClientID]; ok {
		return store.ErrAlreadyExists
	}
	r.clients[c.ClientID] = cloneClient(c)
	return nil
}

func (r *clientsRepo) ListClients(ctx context.Context) ([]domain.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, cloneClient(c))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *clientsRepo) IsEmpty(ctx context.Context) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients) == 0, nil
}

// cloneClient copies the slices so callers cannot mutate stored state.
func cloneClient(c domain.Client) domain.Client {
	c.GrantTypes = append([]string(nil), c.GrantTypes...)
	c.Scopes = append([]string(nil), c.Scopes...)
	return c
}
