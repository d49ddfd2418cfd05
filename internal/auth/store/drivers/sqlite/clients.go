package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/machauth/machauth/internal/auth/domain"
	"github.com/machauth/machauth/internal/auth/store"
)

type clientsRepo struct {
	db *sql.DB
}

const clientColumns = `id, client_id, secret_hash, grant_types, scopes, token_ttl_sec, created_at, updated_at`

func (r *clientsRepo) GetClientByClientID(ctx context.Context, clientID string) (domain.Client, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE client_id = ?`, clientID)
	return scanClient(row)
}

func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO clients (`+clientColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.ClientID,
		c.SecretHash,
		strings.Join(c.GrantTypes, " "),
		strings.Join(c.Scopes, " "),
		int64(c.TokenTTL/time.Second),
		c.CreatedAt,
		c.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *clientsRepo) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+clientColumns+` FROM clients ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (r *clientsRepo) IsEmpty(ctx context.Context) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients`).Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (domain.Client, error) {
	var (
		c          domain.Client
		grantTypes string
		scopes     string
		ttlSec     int64
	)
	err := row.Scan(
		&c.ID,
		&c.ClientID,
		&c.SecretHash,
		&grantTypes,
		&scopes,
		&ttlSec,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}

	c.GrantTypes = splitAndFilter(grantTypes)
	c.Scopes = splitAndFilter(scopes)
	c.TokenTTL = time.Duration(ttlSec) * time.Second
	return c, nil
}
