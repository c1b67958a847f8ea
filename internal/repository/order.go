package repository

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/burger-shop/internal/domain/order"
	"github.com/xenking/burger-shop/internal/domain/store"
)

const orderColumns = `o.id, o.customer_id, o.total_amount, o.status, o.payment_method,
	COALESCE(o.payment_last4, ''), o.address, o.city, o.state, o.zip, o.created_at`

const (
	createOrderSQL = `INSERT INTO orders
	(customer_id, total_amount, status, payment_method, payment_last4, address, city, state, zip)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id, created_at`

	updateStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1 AND status = ANY($3)`

	getStatusSQL = `SELECT status FROM orders WHERE id = $1`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders o WHERE o.id = $1`

	getOrderItemsSQL = `SELECT id, order_id, product_id, quantity, size, unit_price, line_total
	FROM orders_items WHERE order_id = $1 ORDER BY id`

	listByCustomerSQL = `SELECT ` + orderColumns + ` FROM orders o
	WHERE o.customer_id = $1
	ORDER BY o.created_at DESC, o.id DESC`

	// Arguments: $1 status or '', $2 ILIKE pattern or '', $3 exact id or NULL.
	adminFilterSQL = `FROM orders o
	LEFT JOIN users u ON u.id = o.customer_id
	WHERE ($1::text = '' OR o.status = $1::text)
	AND ($2::text = ''
		OR u.name ILIKE $2::text ESCAPE '\'
		OR u.email ILIKE $2::text ESCAPE '\'
		OR o.id = $3::bigint)`

	adminListSQL = `SELECT ` + orderColumns + `,
	COALESCE(u.name, ''), COALESCE(u.email, ''),
	(SELECT COUNT(*) FROM orders_items oi WHERE oi.order_id = o.id)
	` + adminFilterSQL + `
	ORDER BY o.created_at DESC, o.id DESC
	LIMIT $4 OFFSET $5`

	adminCountSQL = `SELECT COUNT(*) ` + adminFilterSQL
)

var lineItemColumns = []string{"order_id", "product_id", "quantity", "size", "unit_price", "line_total"}

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	q querier
}

// NewOrderRepository returns an OrderRepository that uses q.
func NewOrderRepository(q querier) *OrderRepository {
	return &OrderRepository{q: q}
}

// WithTx returns a copy of the repository bound to tx.
func (r *OrderRepository) WithTx(tx pgx.Tx) *OrderRepository {
	return &OrderRepository{q: tx}
}

// Create inserts the order header and fills in its generated id and
// creation time.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) (int64, error) {
	var last4 *string
	if o.PaymentLast4 != "" {
		last4 = &o.PaymentLast4
	}
	err := r.q.QueryRow(ctx, createOrderSQL,
		o.CustomerID, o.TotalAmount, string(o.Status), o.PaymentMethod, last4,
		o.Address, o.City, o.State, o.Zip,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return 0, store.Wrap(err, "create order")
	}
	return o.ID, nil
}

// SaveLineItems copies items into orders_items in one round trip.
func (r *OrderRepository) SaveLineItems(ctx context.Context, orderID int64, items []order.LineItem) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	n, err := r.q.CopyFrom(ctx, pgx.Identifier{"orders_items"}, lineItemColumns,
		pgx.CopyFromSlice(len(items), func(i int) ([]any, error) {
			it := items[i]
			return []any{orderID, it.ProductID, it.Quantity, it.Size, it.UnitPrice, it.LineTotal}, nil
		}),
	)
	if err != nil {
		return 0, store.Wrap(err, "save line items")
	}
	return n, nil
}

// UpdateStatus moves order id to to when its current status is in from.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, to order.Status, from []order.Status) error {
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}

	tag, err := r.q.Exec(ctx, updateStatusSQL, id, string(to), allowed)
	if err != nil {
		return store.Wrap(err, "update order status")
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var current string
	if err := r.q.QueryRow(ctx, getStatusSQL, id).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.ErrNotFound
		}
		return store.Wrap(err, "update order status")
	}
	return &order.TransitionError{From: order.Status(current), To: to}
}

// GetDetail returns the order and its line items in insertion order.
func (r *OrderRepository) GetDetail(ctx context.Context, id int64) (*order.Detail, error) {
	rows, err := r.q.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, store.Wrap(err, "get order")
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, store.Wrap(err, "get order")
	}

	rows, err = r.q.Query(ctx, getOrderItemsSQL, id)
	if err != nil {
		return nil, store.Wrap(err, "get order items")
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByPos[order.LineItem])
	if err != nil {
		return nil, store.Wrap(err, "get order items")
	}

	return &order.Detail{Order: o, Items: items}, nil
}

// AdminList returns one page of the filtered listing and the number of
// matching orders.
func (r *OrderRepository) AdminList(ctx context.Context, q order.AdminQuery) ([]order.AdminRow, int64, error) {
	var pattern string
	if q.Search != "" {
		pattern = "%" + escapeLike(q.Search) + "%"
	}
	args := []any{string(q.Status), pattern, q.SearchID}

	var total int64
	if err := r.q.QueryRow(ctx, adminCountSQL, args...).Scan(&total); err != nil {
		return nil, 0, store.Wrap(err, "count orders")
	}
	if total == 0 {
		return []order.AdminRow{}, 0, nil
	}

	rows, err := r.q.Query(ctx, adminListSQL, append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, 0, store.Wrap(err, "list orders")
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.AdminRow, error) {
		var (
			a      order.AdminRow
			status string
		)
		err := row.Scan(
			&a.ID, &a.CustomerID, &a.TotalAmount, &status, &a.PaymentMethod,
			&a.PaymentLast4, &a.Address, &a.City, &a.State, &a.Zip, &a.CreatedAt,
			&a.CustomerName, &a.CustomerEmail, &a.ItemCount,
		)
		a.Status = order.Status(status)
		return a, err
	})
	if err != nil {
		return nil, 0, store.Wrap(err, "list orders")
	}
	return list, total, nil
}

// ListByCustomer returns the order headers of one customer, newest first.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID int64) ([]order.Order, error) {
	rows, err := r.q.Query(ctx, listByCustomerSQL, customerID)
	if err != nil {
		return nil, store.Wrap(err, "list customer orders")
	}
	list, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, store.Wrap(err, "list customer orders")
	}
	return list, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.TotalAmount, &status, &o.PaymentMethod,
		&o.PaymentLast4, &o.Address, &o.City, &o.State, &o.Zip, &o.CreatedAt,
	)
	o.Status = order.Status(status)
	return o, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
