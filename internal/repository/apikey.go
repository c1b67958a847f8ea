package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/burger-shop/internal/domain/auth"
	"github.com/xenking/burger-shop/internal/domain/store"
)

const getAPIKeyByHashSQL = `SELECT id, key_hash, name, scopes
	FROM api_keys WHERE key_hash = $1 AND active = TRUE`

var _ auth.Repository = (*APIKeyRepository)(nil)

// APIKeyRepository provides API key lookups backed by PostgreSQL.
type APIKeyRepository struct {
	q querier
}

// NewAPIKeyRepository returns an APIKeyRepository that uses q.
func NewAPIKeyRepository(q querier) *APIKeyRepository {
	return &APIKeyRepository{q: q}
}

// FindByHash looks up an active API key by its HMAC-SHA256 hash.
func (r *APIKeyRepository) FindByHash(ctx context.Context, hash string) (*auth.APIKeyInfo, error) {
	rows, err := r.q.Query(ctx, getAPIKeyByHashSQL, hash)
	if err != nil {
		return nil, store.Wrap(err, "find api key")
	}
	info, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[auth.APIKeyInfo])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, store.Wrap(err, "find api key")
	}
	return &info, nil
}
