package checkout

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"

	"github.com/xenking/burger-shop/internal/domain/order"
)

var (
	// ErrEmptyCart is returned when the user has no cart or it holds no
	// items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrCheckoutFailed is matched by every *FailedError.
	ErrCheckoutFailed = errors.New("checkout failed")
)

// PaymentMethodCard is the only payment method accepted at checkout.
const PaymentMethodCard = "card"

// PriceUnavailableError indicates a cart line whose product size is no
// longer sold. Checkout aborts before any write.
type PriceUnavailableError struct {
	ProductID int64
	Size      string
}

func (e *PriceUnavailableError) Error() string {
	return fmt.Sprintf("missing price for product %d size %q", e.ProductID, e.Size)
}

// FailedError wraps the cause of a failed order transaction. The cart is
// left untouched whenever it is returned.
type FailedError struct {
	Cause error
}

func (e *FailedError) Error() string {
	return "checkout failed: " + e.Cause.Error()
}

func (e *FailedError) Unwrap() error { return e.Cause }

func (e *FailedError) Is(target error) bool {
	return target == ErrCheckoutFailed
}

// Form is the validated shipping address and card number of a checkout.
// Only the last four card digits are kept on the order; expiry and security
// code never leave the route layer.
type Form struct {
	Address string
	City    string
	State   string
	Zip     string
	Card    string
}

// Request is one checkout of the cart of UserID.
type Request struct {
	UserID int64
	Form   Form
}

// Result is a committed order.
type Result struct {
	Order order.Order
	Items []order.LineItem
}

// CartRemover deletes carts inside the checkout transaction.
type CartRemover interface {
	// DeleteVersion removes the cart of userID if it is still at version.
	// It returns cart.ErrConflict when the cart changed or disappeared.
	DeleteVersion(ctx context.Context, userID, version int64) error
}

// Stores are the writers bound to one transaction.
type Stores struct {
	Orders order.Writer
	Carts  CartRemover
}

// Transactor runs fn in a single database transaction. The transaction
// commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}

// last4 returns the trailing four characters of card.
func last4(card string) string {
	if len(card) <= 4 {
		return card
	}
	return card[len(card)-4:]
}
