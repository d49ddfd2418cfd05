package store

import (
	"context"
	"errors"

	"github.com/machauth/machauth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (memory, sqlite)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Clients() Clients

	// ApplyMigrations brings the schema up to date. Drivers without a
	// persistent schema (memory) implement it as a no-op.
	ApplyMigrations() error

	// Close releases any underlying resources (optional for memory).
	Close() error

	// Ping verifies the backing store is still reachable.
	Ping(ctx context.Context) error
}

type Clients interface {
	// GetClientByClientID fetches a client by its public client_id. This is
	// the hot path for the token endpoint, so it maps to an indexed lookup.
	GetClientByClientID(ctx context.Context, clientID string) (domain.Client, error)

	// CreateClient inserts a new client (id is ULID; secret_hash is the
	// argon2 PHC string, never the plaintext secret).
	CreateClient(ctx context.Context, c domain.Client) error

	// ListClients returns all clients ordered by creation date (newest first).
	ListClients(ctx context.Context) ([]domain.Client, error)

	// IsEmpty returns true if there are no clients.
	IsEmpty(ctx context.Context) (bool, error)
}
