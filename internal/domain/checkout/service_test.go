package checkout

import (
	"context"
	"slices"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/burger-shop/internal/domain/cart"
	"github.com/xenking/burger-shop/internal/domain/order"
	"github.com/xenking/burger-shop/internal/domain/product"
)

// --- Mock implementations ---

type mockCartRepo struct {
	carts map[int64]*cart.Cart
	err   error
}

func (m *mockCartRepo) Get(_ context.Context, userID int64) (*cart.Cart, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[userID]
	if !ok {
		return nil, cart.ErrNotFound
	}
	cp := *c
	cp.Items = slices.Clone(c.Items)
	return &cp, nil
}

func (m *mockCartRepo) Create(context.Context, int64, []cart.Item) error { return nil }

func (m *mockCartRepo) Replace(context.Context, int64, []cart.Item, int64) error { return nil }

func (m *mockCartRepo) Delete(_ context.Context, userID int64) error {
	delete(m.carts, userID)
	return nil
}

type mockProductRepo struct {
	prices []product.PriceEntry
	err    error
	calls  [][]int64
}

func (m *mockProductRepo) ResolvePrices(_ context.Context, ids []int64) ([]product.PriceEntry, error) {
	m.calls = append(m.calls, ids)
	return m.prices, m.err
}

func (m *mockProductRepo) CheckStock(context.Context, int64, string) (int, error) { return 0, nil }

func (m *mockProductRepo) OutOfStock(context.Context) ([]product.StockEntry, error) { return nil, nil }

func (m *mockProductRepo) GetByIDs(context.Context, []int64) ([]product.Product, error) {
	return nil, nil
}

type mockOrderWriter struct {
	nextID    int64
	orders    []order.Order
	items     []order.LineItem
	createErr error
	itemsErr  error
}

func (m *mockOrderWriter) Create(_ context.Context, o *order.Order) (int64, error) {
	if m.createErr != nil {
		return 0, m.createErr
	}
	m.nextID++
	m.orders = append(m.orders, *o)
	return m.nextID, nil
}

func (m *mockOrderWriter) SaveLineItems(_ context.Context, _ int64, items []order.LineItem) (int64, error) {
	if m.itemsErr != nil {
		return 0, m.itemsErr
	}
	m.items = append(m.items, items...)
	return int64(len(items)), nil
}

// memTx stages order writes and only publishes them on commit. Cart
// deletion is applied to carts on commit as well.
type memTx struct {
	committed *mockOrderWriter
	carts     *mockCartRepo

	// writer is used as the staging writer when set, to inject failures.
	writer *mockOrderWriter
}

type stagedCarts struct {
	carts   *mockCartRepo
	deleted []int64
}

func (s *stagedCarts) DeleteVersion(_ context.Context, userID, version int64) error {
	c, ok := s.carts.carts[userID]
	if !ok || c.Version != version {
		return cart.ErrConflict
	}
	s.deleted = append(s.deleted, userID)
	return nil
}

func (t *memTx) InTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error {
	staged := t.writer
	if staged == nil {
		staged = &mockOrderWriter{nextID: t.committed.nextID}
	}
	sc := &stagedCarts{carts: t.carts}
	if err := fn(ctx, Stores{Orders: staged, Carts: sc}); err != nil {
		return err
	}
	t.committed.nextID = staged.nextID
	t.committed.orders = append(t.committed.orders, staged.orders...)
	t.committed.items = append(t.committed.items, staged.items...)
	for _, id := range sc.deleted {
		delete(t.carts.carts, id)
	}
	return nil
}

// --- Helpers ---

func newTestService(t *testing.T, carts *mockCartRepo, products *mockProductRepo, tx Transactor) *Service {
	t.Helper()
	svc, err := NewService(carts, products, tx, metricnoop.NewMeterProvider(), tracenoop.NewTracerProvider())
	require.NoError(t, err)
	return svc
}

func testForm() Form {
	return Form{
		Address: "1 Main Street",
		City:    "Springfield",
		State:   "IL",
		Zip:     "62701",
		Card:    "4111111111111234",
	}
}

func burgerPrices() []product.PriceEntry {
	return []product.PriceEntry{
		{ProductID: 1, Size: "M", UnitPrice: decimal.RequireFromString("4.99"), Stock: 10},
		{ProductID: 1, Size: "L", UnitPrice: decimal.RequireFromString("6.49"), Stock: 10},
		{ProductID: 2, Size: "M", UnitPrice: decimal.RequireFromString("3.10"), Stock: 0},
	}
}

// --- Tests ---

func TestPlace(t *testing.T) {
	carts := &mockCartRepo{carts: map[int64]*cart.Cart{
		7: {UserID: 7, Version: 3, Items: []cart.Item{
			{ProductID: 1, Size: "M", Quantity: 2},
			{ProductID: 2, Size: "M", Quantity: 1},
			{ProductID: 1, Size: "L", Quantity: 1},
		}},
	}}
	products := &mockProductRepo{prices: burgerPrices()}
	orders := &mockOrderWriter{}
	svc := newTestService(t, carts, products, &memTx{committed: orders, carts: carts})

	res, err := svc.Place(context.Background(), Request{UserID: 7, Form: testForm()})
	require.NoError(t, err)

	require.Len(t, products.calls, 1, "prices are resolved in one call")
	assert.Equal(t, []int64{1, 2}, products.calls[0])

	assert.Equal(t, int64(1), res.Order.ID)
	assert.Equal(t, order.StatusPending, res.Order.Status)
	assert.Equal(t, PaymentMethodCard, res.Order.PaymentMethod)
	assert.Equal(t, "1234", res.Order.PaymentLast4)
	assert.Equal(t, int64(7), res.Order.CustomerID)
	assert.Equal(t, "Springfield", res.Order.City)
	assert.True(t, decimal.RequireFromString("19.57").Equal(res.Order.TotalAmount), res.Order.TotalAmount.String())

	require.Len(t, res.Items, 3)
	assert.True(t, decimal.RequireFromString("9.98").Equal(res.Items[0].LineTotal))
	for _, it := range res.Items {
		assert.Equal(t, int64(1), it.OrderID)
	}

	require.Len(t, orders.orders, 1)
	assert.Len(t, orders.items, 3)
	assert.NotContains(t, carts.carts, int64(7), "cart is removed on commit")
}

func TestPlace_EmptyCart(t *testing.T) {
	carts := &mockCartRepo{carts: map[int64]*cart.Cart{
		2: {UserID: 2, Version: 1},
	}}
	orders := &mockOrderWriter{}
	svc := newTestService(t, carts, &mockProductRepo{}, &memTx{committed: orders, carts: carts})

	_, err := svc.Place(context.Background(), Request{UserID: 1, Form: testForm()})
	require.ErrorIs(t, err, ErrEmptyCart, "missing cart")

	_, err = svc.Place(context.Background(), Request{UserID: 2, Form: testForm()})
	require.ErrorIs(t, err, ErrEmptyCart, "cart without items")

	assert.Empty(t, orders.orders)
}

func TestPlace_PriceUnavailable(t *testing.T) {
	carts := &mockCartRepo{carts: map[int64]*cart.Cart{
		7: {UserID: 7, Version: 1, Items: []cart.Item{
			{ProductID: 1, Size: "M", Quantity: 1},
			{ProductID: 1, Size: "XL", Quantity: 1},
		}},
	}}
	orders := &mockOrderWriter{}
	svc := newTestService(t, carts, &mockProductRepo{prices: burgerPrices()}, &memTx{committed: orders, carts: carts})

	_, err := svc.Place(context.Background(), Request{UserID: 7, Form: testForm()})

	var priceErr *PriceUnavailableError
	require.ErrorAs(t, err, &priceErr)
	assert.Equal(t, int64(1), priceErr.ProductID)
	assert.Equal(t, "XL", priceErr.Size)

	assert.Empty(t, orders.orders, "no writes before every line is priced")
	assert.Contains(t, carts.carts, int64(7))
}

func TestPlace_LookupError(t *testing.T) {
	carts := &mockCartRepo{err: errors.New("connection refused")}
	svc := newTestService(t, carts, &mockProductRepo{}, &memTx{committed: &mockOrderWriter{}, carts: carts})

	_, err := svc.Place(context.Background(), Request{UserID: 7, Form: testForm()})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmptyCart)
	assert.NotErrorIs(t, err, ErrCheckoutFailed)
}

func TestPlace_TransactionFailure(t *testing.T) {
	itemsErr := errors.New("copy failed")
	carts := &mockCartRepo{carts: map[int64]*cart.Cart{
		7: {UserID: 7, Version: 1, Items: []cart.Item{{ProductID: 1, Size: "M", Quantity: 1}}},
	}}
	orders := &mockOrderWriter{}
	tx := &memTx{committed: orders, carts: carts, writer: &mockOrderWriter{itemsErr: itemsErr}}
	svc := newTestService(t, carts, &mockProductRepo{prices: burgerPrices()}, tx)

	_, err := svc.Place(context.Background(), Request{UserID: 7, Form: testForm()})

	var failed *FailedError
	require.ErrorAs(t, err, &failed)
	require.ErrorIs(t, err, ErrCheckoutFailed)
	require.ErrorIs(t, err, itemsErr)

	assert.Empty(t, orders.orders, "header rolled back")
	assert.Contains(t, carts.carts, int64(7), "cart untouched")
}

func TestPlace_CartChangedDuringCheckout(t *testing.T) {
	carts := &mockCartRepo{carts: map[int64]*cart.Cart{
		7: {UserID: 7, Version: 1, Items: []cart.Item{{ProductID: 1, Size: "M", Quantity: 1}}},
	}}
	orders := &mockOrderWriter{}
	inner := &memTx{committed: orders, carts: carts}
	// A concurrent add bumps the version between the read and the delete.
	tx := txFunc(func(ctx context.Context, fn func(context.Context, Stores) error) error {
		carts.carts[7].Version = 2
		return inner.InTx(ctx, fn)
	})
	svc := newTestService(t, carts, &mockProductRepo{prices: burgerPrices()}, tx)

	_, err := svc.Place(context.Background(), Request{UserID: 7, Form: testForm()})
	require.ErrorIs(t, err, ErrCheckoutFailed)
	require.ErrorIs(t, err, cart.ErrConflict)

	assert.Empty(t, orders.orders)
	assert.Contains(t, carts.carts, int64(7))
}

type txFunc func(ctx context.Context, fn func(context.Context, Stores) error) error

func (f txFunc) InTx(ctx context.Context, fn func(context.Context, Stores) error) error {
	return f(ctx, fn)
}

func TestFailureReason(t *testing.T) {
	assert.Equal(t, reasonEmptyCart, failureReason(ErrEmptyCart))
	assert.Equal(t, reasonPriceUnavailable, failureReason(&PriceUnavailableError{ProductID: 1}))
	assert.Equal(t, reasonConflict, failureReason(&FailedError{Cause: cart.ErrConflict}))
	assert.Equal(t, reasonTx, failureReason(&FailedError{Cause: errors.New("boom")}))
	assert.Equal(t, reasonLookup, failureReason(errors.New("boom")))
}

func TestLast4(t *testing.T) {
	assert.Equal(t, "1234", last4("4111111111111234"))
	assert.Equal(t, "12", last4("12"))
	assert.Equal(t, "", last4(""))
}
