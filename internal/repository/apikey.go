package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Bruce101github/crochethairbygg/internal/domain/auth"
)

const (
	findAPIKeyByHashSQL = `SELECT id, key_hash, name, customer_id, scopes
		FROM api_keys WHERE key_hash = $1 AND active = TRUE`

	insertAPIKeySQL = `INSERT INTO api_keys (key_hash, name, customer_id, scopes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key_hash) DO NOTHING`
)

var _ auth.Repository = (*APIKeyRepository)(nil)

// APIKeyRepository implements auth.Repository backed by PostgreSQL.
type APIKeyRepository struct {
	pool *pgxpool.Pool
}

// NewAPIKeyRepository returns an APIKeyRepository that uses the given pool.
func NewAPIKeyRepository(pool *pgxpool.Pool) *APIKeyRepository {
	return &APIKeyRepository{pool: pool}
}

// FindByHash looks up an active API key by its stored hash. Unknown and
// inactive keys both map to auth.ErrUnauthorized.
func (r *APIKeyRepository) FindByHash(ctx context.Context, hash string) (*auth.Identity, error) {
	var id auth.Identity
	err := r.pool.QueryRow(ctx, findAPIKeyByHashSQL, hash).
		Scan(&id.KeyID, &id.KeyHash, &id.Name, &id.CustomerID, &id.Scopes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrUnauthorized
		}
		return nil, fmt.Errorf("finding api key: %w", err)
	}
	return &id, nil
}

// Insert registers a new key hash, used by seeding tooling. Re-inserting an
// existing hash is a no-op.
func (r *APIKeyRepository) Insert(ctx context.Context, hash, name string, customerID *int64, scopes []string) error {
	_, err := r.pool.Exec(ctx, insertAPIKeySQL, hash, name, customerID, scopes)
	if err != nil {
		return fmt.Errorf("inserting api key %q: %w", name, err)
	}
	return nil
}
