package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/burger-shop/internal/domain/checkout"
	"github.com/xenking/burger-shop/internal/domain/store"
)

var _ checkout.Transactor = (*TxRunner)(nil)

// TxRunner runs checkout writes in one read-committed transaction.
type TxRunner struct {
	pool   *pgxpool.Pool
	orders *OrderRepository
	carts  *CartRepository
}

// NewTxRunner returns a TxRunner that binds orders and carts to each
// transaction it opens.
func NewTxRunner(pool *pgxpool.Pool, orders *OrderRepository, carts *CartRepository) *TxRunner {
	return &TxRunner{pool: pool, orders: orders, carts: carts}
}

// InTx commits when fn returns nil and rolls back otherwise. Errors from
// fn are returned as is; begin and commit failures are storage errors.
func (r *TxRunner) InTx(ctx context.Context, fn func(ctx context.Context, s checkout.Stores) error) error {
	var fnErr error
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		fnErr = fn(ctx, checkout.Stores{
			Orders: r.orders.WithTx(tx),
			Carts:  r.carts.WithTx(tx),
		})
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	return store.Wrap(err, "checkout tx")
}
