package checkout

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/burger-shop/internal/domain/cart"
	"github.com/xenking/burger-shop/internal/domain/order"
	"github.com/xenking/burger-shop/internal/domain/product"
)

const instrumentationName = "github.com/xenking/burger-shop/internal/domain/checkout"

// Failure reasons recorded on the checkout.failures counter.
const (
	reasonEmptyCart        = "empty_cart"
	reasonPriceUnavailable = "price_unavailable"
	reasonLookup           = "lookup"
	reasonConflict         = "conflict"
	reasonTx               = "tx"
)

// Service turns a cart into an order.
type Service struct {
	carts    cart.Repository
	products product.Repository
	tx       Transactor

	tracer   trace.Tracer
	attempts metric.Int64Counter
	failures metric.Int64Counter
}

// NewService creates a checkout Service reporting to the given providers.
func NewService(
	carts cart.Repository,
	products product.Repository,
	tx Transactor,
	mp metric.MeterProvider,
	tp trace.TracerProvider,
) (*Service, error) {
	meter := mp.Meter(instrumentationName)

	attempts, err := meter.Int64Counter("checkout.attempts",
		metric.WithDescription("Checkout attempts"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "attempts counter")
	}
	failures, err := meter.Int64Counter("checkout.failures",
		metric.WithDescription("Failed checkouts by reason"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failures counter")
	}

	return &Service{
		carts:    carts,
		products: products,
		tx:       tx,
		tracer:   tp.Tracer(instrumentationName),
		attempts: attempts,
		failures: failures,
	}, nil
}

// Place prices the cart of req.UserID from the catalog and commits it as a
// pending order in one transaction, removing the cart on success.
//
// Errors: ErrEmptyCart, *PriceUnavailableError, *FailedError wrapping the
// transaction cause, or a storage error from the lookups.
func (s *Service) Place(ctx context.Context, req Request) (_ *Result, rerr error) {
	ctx, span := s.tracer.Start(ctx, "checkout.Place",
		trace.WithAttributes(attribute.Int64("user.id", req.UserID)),
	)
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
			s.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", failureReason(rerr))))
		}
		span.End()
	}()
	s.attempts.Add(ctx, 1)

	c, err := s.carts.Get(ctx, req.UserID)
	switch {
	case errors.Is(err, cart.ErrNotFound):
		return nil, ErrEmptyCart
	case err != nil:
		return nil, errors.Wrap(err, "load cart")
	case len(c.Items) == 0:
		return nil, ErrEmptyCart
	}

	entries, err := s.products.ResolvePrices(ctx, product.UniqueIDs(c.ProductIDs()))
	if err != nil {
		return nil, errors.Wrap(err, "resolve prices")
	}
	items, total, err := priceLines(c.Items, product.NewPriceMap(entries))
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("checkout.lines", len(items)))

	o := order.Order{
		CustomerID:    req.UserID,
		TotalAmount:   total,
		Status:        order.StatusPending,
		PaymentMethod: PaymentMethodCard,
		PaymentLast4:  last4(req.Form.Card),
		Address:       req.Form.Address,
		City:          req.Form.City,
		State:         req.Form.State,
		Zip:           req.Form.Zip,
	}

	if err := s.tx.InTx(ctx, func(ctx context.Context, st Stores) error {
		id, err := st.Orders.Create(ctx, &o)
		if err != nil {
			return errors.Wrap(err, "create order")
		}
		o.ID = id
		for i := range items {
			items[i].OrderID = id
		}
		if _, err := st.Orders.SaveLineItems(ctx, id, items); err != nil {
			return errors.Wrap(err, "save line items")
		}
		if err := st.Carts.DeleteVersion(ctx, req.UserID, c.Version); err != nil {
			return errors.Wrap(err, "delete cart")
		}
		return nil
	}); err != nil {
		return nil, &FailedError{Cause: err}
	}

	return &Result{Order: o, Items: items}, nil
}

// priceLines resolves every cart line against prices. Line totals are
// rounded to cents, and so is their sum.
func priceLines(lines []cart.Item, prices product.PriceMap) ([]order.LineItem, decimal.Decimal, error) {
	items := make([]order.LineItem, 0, len(lines))
	total := decimal.Zero
	for _, l := range lines {
		e, ok := prices.Lookup(l.ProductID, l.Size)
		if !ok {
			return nil, decimal.Zero, &PriceUnavailableError{ProductID: l.ProductID, Size: l.Size}
		}
		lt := e.LineTotal(l.Quantity)
		items = append(items, order.LineItem{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Size:      l.Size,
			UnitPrice: e.UnitPrice,
			LineTotal: lt,
		})
		total = total.Add(lt)
	}
	return items, total.Round(2), nil
}

func failureReason(err error) string {
	var priceErr *PriceUnavailableError
	switch {
	case errors.Is(err, ErrEmptyCart):
		return reasonEmptyCart
	case errors.As(err, &priceErr):
		return reasonPriceUnavailable
	case errors.Is(err, cart.ErrConflict):
		return reasonConflict
	case errors.Is(err, ErrCheckoutFailed):
		return reasonTx
	default:
		return reasonLookup
	}
}
