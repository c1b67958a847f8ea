// Package cart owns the per-user shopping cart: a single JSON document of
// items unique on (product, size), rewritten whole on every mutation.
package cart

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"

	"github.com/xenking/burger-shop/internal/domain/product"
)

var (
	// ErrNotFound is returned when the user has no cart row.
	ErrNotFound = errors.New("cart not found")
	// ErrConflict is returned when a conditional write lost a race with
	// another writer of the same cart.
	ErrConflict = errors.New("cart modified concurrently")
	// ErrNoItems is returned when an add request carries no items.
	ErrNoItems = errors.New("items required")
)

// MaxQuantity bounds the quantity of one cart entry. It keeps line totals
// within the NUMERIC(10,2) and INTEGER columns an order is written to.
const MaxQuantity = 999

const quantityLimitReason = "quantity must not exceed 999"

// InvalidItemError indicates an item that can never be stored: unknown
// product id, empty size, a non-positive quantity on add, or a quantity
// above MaxQuantity.
type InvalidItemError struct {
	ProductID int64
	Size      string
	Reason    string
}

func (e *InvalidItemError) Error() string {
	return fmt.Sprintf("invalid cart item %s: %s", product.Key(e.ProductID, e.Size), e.Reason)
}

// Item is one purchase intent. Its identity is (ProductID, Size).
type Item struct {
	ProductID int64
	Size      string
	Quantity  int
}

// Key returns the identity key of the item.
func (i Item) Key() string {
	return product.Key(i.ProductID, i.Size)
}

// Cart is the stored document together with its row version.
type Cart struct {
	UserID  int64
	Items   []Item
	Version int64
}

// ProductIDs returns the distinct product ids referenced by the cart.
func (c *Cart) ProductIDs() []int64 {
	ids := make([]int64, len(c.Items))
	for i, it := range c.Items {
		ids[i] = it.ProductID
	}
	return product.UniqueIDs(ids)
}

// Repository persists cart documents. Writes are conditional so that a
// read-modify-write cycle never overwrites a concurrent one.
type Repository interface {
	// Get returns the cart of userID or ErrNotFound.
	Get(ctx context.Context, userID int64) (*Cart, error)
	// Create inserts a new cart. It returns ErrConflict when a row exists.
	Create(ctx context.Context, userID int64, items []Item) error
	// Replace overwrites the document if the stored version still equals
	// version, and returns ErrConflict otherwise.
	Replace(ctx context.Context, userID int64, items []Item, version int64) error
	// Delete removes the row. Deleting a missing cart is not an error.
	Delete(ctx context.Context, userID int64) error
}
