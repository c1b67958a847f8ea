package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/burger-shop/internal/domain/product"
	"github.com/xenking/burger-shop/internal/domain/store"
)

const (
	resolvePricesSQL = `SELECT product_id, size, price, stock
	FROM sizes WHERE product_id = ANY($1)
	ORDER BY product_id, size`

	checkStockSQL = `SELECT stock FROM sizes WHERE product_id = $1 AND size = $2`

	outOfStockSQL = `SELECT p.id, p.title, s.size, s.price
	FROM sizes s
	JOIN products p ON p.id = s.product_id
	WHERE s.stock = 0
	ORDER BY p.id, s.size`

	getProductsByIDsSQL = `SELECT id, title, description FROM products WHERE id = ANY($1) ORDER BY id`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	q querier
}

// NewProductRepository returns a ProductRepository that uses q.
func NewProductRepository(q querier) *ProductRepository {
	return &ProductRepository{q: q}
}

// ResolvePrices returns every size of the given products in a single query.
func (r *ProductRepository) ResolvePrices(ctx context.Context, ids []int64) ([]product.PriceEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.q.Query(ctx, resolvePricesSQL, ids)
	if err != nil {
		return nil, store.Wrap(err, "resolve prices")
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (product.PriceEntry, error) {
		var e product.PriceEntry
		err := row.Scan(&e.ProductID, &e.Size, &e.UnitPrice, &e.Stock)
		return e, err
	})
	if err != nil {
		return nil, store.Wrap(err, "resolve prices")
	}
	return entries, nil
}

// CheckStock returns the stock of one size or product.ErrNotFound.
func (r *ProductRepository) CheckStock(ctx context.Context, id int64, size string) (int, error) {
	var stock int
	if err := r.q.QueryRow(ctx, checkStockSQL, id, size).Scan(&stock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, product.ErrNotFound
		}
		return 0, store.Wrap(err, "check stock")
	}
	return stock, nil
}

// OutOfStock lists every size with zero stock.
func (r *ProductRepository) OutOfStock(ctx context.Context) ([]product.StockEntry, error) {
	rows, err := r.q.Query(ctx, outOfStockSQL)
	if err != nil {
		return nil, store.Wrap(err, "out of stock")
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (product.StockEntry, error) {
		var e product.StockEntry
		err := row.Scan(&e.ProductID, &e.Title, &e.Size, &e.Price)
		return e, err
	})
	if err != nil {
		return nil, store.Wrap(err, "out of stock")
	}
	return entries, nil
}

// GetByIDs returns products matching any of the given ids.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []int64) ([]product.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.q.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, store.Wrap(err, "get products")
	}
	products, err := pgx.CollectRows(rows, pgx.RowToStructByPos[product.Product])
	if err != nil {
		return nil, store.Wrap(err, "get products")
	}
	return products, nil
}
