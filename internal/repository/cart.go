package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/burger-shop/internal/domain/cart"
	"github.com/xenking/burger-shop/internal/domain/checkout"
	"github.com/xenking/burger-shop/internal/domain/store"
)

const (
	getCartSQL = `SELECT content, version FROM cart WHERE user_id = $1`

	createCartSQL = `INSERT INTO cart (user_id, content) VALUES ($1, $2)
	ON CONFLICT (user_id) DO NOTHING`

	replaceCartSQL = `UPDATE cart SET content = $2, version = version + 1, updated_at = now()
	WHERE user_id = $1 AND version = $3`

	deleteCartSQL = `DELETE FROM cart WHERE user_id = $1`

	deleteCartVersionSQL = `DELETE FROM cart WHERE user_id = $1 AND version = $2`
)

var (
	_ cart.Repository      = (*CartRepository)(nil)
	_ checkout.CartRemover = (*CartRepository)(nil)
)

// CartRepository stores one JSONB cart document per user.
type CartRepository struct {
	q querier
}

// NewCartRepository returns a CartRepository that uses q.
func NewCartRepository(q querier) *CartRepository {
	return &CartRepository{q: q}
}

// WithTx returns a copy of the repository bound to tx.
func (r *CartRepository) WithTx(tx pgx.Tx) *CartRepository {
	return &CartRepository{q: tx}
}

// Get returns the cart of userID or cart.ErrNotFound.
func (r *CartRepository) Get(ctx context.Context, userID int64) (*cart.Cart, error) {
	var (
		content []byte
		version int64
	)
	err := r.q.QueryRow(ctx, getCartSQL, userID).Scan(&content, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, store.Wrap(err, "get cart")
	}

	items, err := cart.DecodeItems(content)
	if err != nil {
		return nil, store.Wrap(errors.Wrapf(err, "decode cart of user %d", userID), "get cart")
	}
	return &cart.Cart{UserID: userID, Items: items, Version: version}, nil
}

// Create inserts the first cart document of userID.
func (r *CartRepository) Create(ctx context.Context, userID int64, items []cart.Item) error {
	tag, err := r.q.Exec(ctx, createCartSQL, userID, cart.EncodeItems(items))
	if err != nil {
		return store.Wrap(err, "create cart")
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrConflict
	}
	return nil
}

// Replace overwrites the document when the stored version still matches.
func (r *CartRepository) Replace(ctx context.Context, userID int64, items []cart.Item, version int64) error {
	tag, err := r.q.Exec(ctx, replaceCartSQL, userID, cart.EncodeItems(items), version)
	if err != nil {
		return store.Wrap(err, "replace cart")
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrConflict
	}
	return nil
}

// Delete removes the cart of userID if present.
func (r *CartRepository) Delete(ctx context.Context, userID int64) error {
	if _, err := r.q.Exec(ctx, deleteCartSQL, userID); err != nil {
		return store.Wrap(err, "delete cart")
	}
	return nil
}

// DeleteVersion removes the cart of userID only if it is still at version.
func (r *CartRepository) DeleteVersion(ctx context.Context, userID, version int64) error {
	tag, err := r.q.Exec(ctx, deleteCartVersionSQL, userID, version)
	if err != nil {
		return store.Wrap(err, "delete cart")
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrConflict
	}
	return nil
}
