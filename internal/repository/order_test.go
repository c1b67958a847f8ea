//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/burger-shop/internal/domain/cart"
	"github.com/xenking/burger-shop/internal/domain/checkout"
	"github.com/xenking/burger-shop/internal/domain/order"
)

func newCheckout(t *testing.T) (*checkout.Service, *CartRepository, *OrderRepository) {
	t.Helper()
	carts := NewCartRepository(testPool)
	orders := NewOrderRepository(testPool)
	svc, err := checkout.NewService(carts, NewProductRepository(testPool),
		NewTxRunner(testPool, orders, carts),
		metricnoop.NewMeterProvider(), tracenoop.NewTracerProvider(),
	)
	require.NoError(t, err)
	return svc, carts, orders
}

func testForm() checkout.Form {
	return checkout.Form{
		Address: "1 Main Street", City: "Springfield", State: "IL", Zip: "62701",
		Card: "4111111111111234",
	}
}

func TestCheckout_Commit(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	svc, carts, orders := newCheckout(t)

	require.NoError(t, carts.Create(ctx, 1, []cart.Item{
		{ProductID: 1, Size: "M", Quantity: 2},
		{ProductID: 3, Size: "M", Quantity: 1},
	}))

	res, err := svc.Place(ctx, checkout.Request{UserID: 1, Form: testForm()})
	require.NoError(t, err)
	assert.True(t, dec("17.23").Equal(res.Order.TotalAmount), res.Order.TotalAmount.String())

	_, err = carts.Get(ctx, 1)
	require.ErrorIs(t, err, cart.ErrNotFound, "cart removed in the same transaction")

	d, err := orders.GetDetail(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, d.Order.Status)
	assert.Equal(t, "1234", d.Order.PaymentLast4)
	require.Len(t, d.Items, 2)
	assert.True(t, dec("9.98").Equal(d.Items[0].LineTotal))
}

func TestCheckout_PriceUnavailable(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	svc, carts, orders := newCheckout(t)

	require.NoError(t, carts.Create(ctx, 1, []cart.Item{{ProductID: 1, Size: "XL", Quantity: 1}}))

	_, err := svc.Place(ctx, checkout.Request{UserID: 1, Form: testForm()})
	var priceErr *checkout.PriceUnavailableError
	require.ErrorAs(t, err, &priceErr)

	_, err = carts.Get(ctx, 1)
	require.NoError(t, err, "cart untouched")

	totals, err := orders.StatusTotals(ctx)
	require.NoError(t, err)
	assert.Zero(t, totals.TotalOrders)
}

func TestCheckout_RollbackOnItemFailure(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	svc, carts, orders := newCheckout(t)

	// quantity > 0 is enforced by the schema; a zero quantity stored in the
	// document makes the COPY fail after the header was inserted.
	_, err := testPool.Exec(ctx, `INSERT INTO cart (user_id, content) VALUES (1, '[{"productId":1,"size":"M","quantity":0}]')`)
	require.NoError(t, err)

	_, err = svc.Place(ctx, checkout.Request{UserID: 1, Form: testForm()})
	require.ErrorIs(t, err, checkout.ErrCheckoutFailed)

	totals, err := orders.StatusTotals(ctx)
	require.NoError(t, err)
	assert.Zero(t, totals.TotalOrders, "header rolled back")

	_, err = carts.Get(ctx, 1)
	require.NoError(t, err)
}

func seedOrders(t *testing.T, statuses ...order.Status) []int64 {
	t.Helper()
	ctx := context.Background()
	repo := NewOrderRepository(testPool)

	ids := make([]int64, 0, len(statuses))
	for i, st := range statuses {
		o := &order.Order{
			CustomerID: int64(i%2 + 1), TotalAmount: dec("4.99"), Status: st,
			PaymentMethod: checkout.PaymentMethodCard, Address: "addr", City: "city", State: "st", Zip: "1",
		}
		id, err := repo.Create(ctx, o)
		require.NoError(t, err)
		_, err = repo.SaveLineItems(ctx, id, []order.LineItem{
			{ProductID: int64(i%3 + 1), Quantity: i + 1, Size: "M", UnitPrice: dec("4.99"), LineTotal: dec("4.99")},
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func TestOrderRepository_SaveLineItemsEmpty(t *testing.T) {
	resetDB(t)
	ids := seedOrders(t, order.StatusPending)

	n, err := NewOrderRepository(testPool).SaveLineItems(context.Background(), ids[0], nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	ids := seedOrders(t, order.StatusPending)
	svc := order.NewService(NewOrderRepository(testPool), nil)

	require.NoError(t, svc.UpdateStatus(ctx, ids[0], "paid"))
	require.NoError(t, svc.UpdateStatus(ctx, ids[0], "paid"), "idempotent")
	require.ErrorIs(t, svc.UpdateStatus(ctx, ids[0], "pending"), order.ErrInvalidTransition)
	require.ErrorIs(t, svc.UpdateStatus(ctx, 999, "paid"), order.ErrNotFound)

	var invalid *order.InvalidStatusError
	require.ErrorAs(t, svc.UpdateStatus(ctx, ids[0], "lost"), &invalid)

	d, err := svc.GetOrderDetail(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, order.StatusPaid, d.Order.Status)
}

func TestOrderRepository_AdminList(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	seedOrders(t,
		order.StatusPaid, order.StatusPending, order.StatusPaid, order.StatusPending,
		order.StatusPaid, order.StatusPending, order.StatusPaid, order.StatusPaid,
	)
	svc := order.NewService(NewOrderRepository(testPool), nil)

	page, err := svc.GetAdminList(ctx, order.AdminFilter{Page: 1, Limit: 2, Status: "paid"})
	require.NoError(t, err)
	assert.Len(t, page.Rows, 2)
	assert.Equal(t, int64(5), page.Pagination.Total)
	assert.Equal(t, 3, page.Pagination.Pages)
	for _, r := range page.Rows {
		assert.Equal(t, order.StatusPaid, r.Status)
		assert.Equal(t, int64(1), r.ItemCount)
		assert.NotEmpty(t, r.CustomerEmail)
	}

	page, err = svc.GetAdminList(ctx, order.AdminFilter{Status: "all", Search: "ANN"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Pagination.Total, "case-insensitive name match")

	page, err = svc.GetAdminList(ctx, order.AdminFilter{Search: "100%"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Pagination.Total, "literal percent")

	page, err = svc.GetAdminList(ctx, order.AdminFilter{Search: "n_l"})
	require.NoError(t, err)
	assert.Zero(t, page.Pagination.Total, "underscore is not a wildcard")
	assert.Equal(t, 1, page.Pagination.Pages)

	page, err = svc.GetAdminList(ctx, order.AdminFilter{Search: "3"})
	require.NoError(t, err)
	require.Len(t, page.Rows, 1, "numeric search matches the order id")
	assert.Equal(t, int64(3), page.Rows[0].ID)
}

func TestOrderRepository_Reports(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	seedOrders(t, order.StatusPaid, order.StatusPending, order.StatusPaid, order.StatusShipped)
	repo := NewOrderRepository(testPool)

	// Move one order into an earlier month and one past the current month.
	_, err := testPool.Exec(ctx, `UPDATE orders SET created_at = now() - interval '2 months' WHERE id = 4`)
	require.NoError(t, err)
	_, err = testPool.Exec(ctx, `UPDATE orders SET created_at = now() + interval '2 months' WHERE id = 3`)
	require.NoError(t, err)

	totals, err := repo.StatusTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), totals.TotalOrders)
	assert.Contains(t, totals.Breakdown, order.StatusCount{Status: order.StatusPaid, Total: 2})

	svc := order.NewService(repo, nil)
	months, err := svc.GetMonthlyTrend(ctx, 6)
	require.NoError(t, err)
	require.Len(t, months, 2, "future-dated orders fall outside the window")
	assert.Less(t, months[0].Month, months[1].Month)
	assert.Equal(t, time.Now().UTC().Format("2006-01"), months[1].Month)
	assert.Equal(t, int64(2), months[1].Total)

	months, err = svc.GetMonthlyTrend(ctx, 1)
	require.NoError(t, err)
	require.Len(t, months, 1)

	top, err := repo.TopSellingProducts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	// Quantities: product 1 = 1+4, product 2 = 2, product 3 = 3.
	assert.Equal(t, int64(1), top[0].ProductID)
	assert.Equal(t, int64(5), top[0].TotalQuantity)
	assert.Equal(t, "Classic", top[0].Title)
	assert.Equal(t, int64(3), top[1].ProductID)
}

func TestOrderRepository_ListByCustomer(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	seedOrders(t, order.StatusPaid, order.StatusPending, order.StatusPaid)

	list, err := NewOrderRepository(testPool).ListByCustomer(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(3), list[0].ID, "newest first")
}
