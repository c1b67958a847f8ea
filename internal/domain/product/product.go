package product

import (
	"context"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product or size does not exist.
// Callers treat it as "not purchasable", never as zero stock.
var ErrNotFound = errors.New("product not found")

// Product is a catalog entry. Prices live on its sizes.
type Product struct {
	ID          int64
	Title       string
	Description string
}

// PriceEntry is the authoritative price and stock of one (product, size)
// pair, read fresh from the catalog.
type PriceEntry struct {
	ProductID int64
	Size      string
	UnitPrice decimal.Decimal
	Stock     int
}

// StockEntry is a size of a product that has run out.
type StockEntry struct {
	ProductID int64
	Title     string
	Size      string
	Price     decimal.Decimal
}

// Repository defines read operations over the catalog.
type Repository interface {
	// ResolvePrices returns one entry per existing size of the given products.
	ResolvePrices(ctx context.Context, ids []int64) ([]PriceEntry, error)
	// CheckStock returns the stock of one size, or ErrNotFound.
	CheckStock(ctx context.Context, id int64, size string) (int, error)
	// OutOfStock lists every size whose stock is zero.
	OutOfStock(ctx context.Context) ([]StockEntry, error)
	// GetByIDs returns the products matching any of ids.
	GetByIDs(ctx context.Context, ids []int64) ([]Product, error)
}

// Key builds the lookup key of a (product, size) pair: "<id>_<size>".
func Key(productID int64, size string) string {
	return strconv.FormatInt(productID, 10) + "_" + size
}

// LineTotal returns UnitPrice * qty rounded to cents.
func (e PriceEntry) LineTotal(qty int) decimal.Decimal {
	return e.UnitPrice.Mul(decimal.NewFromInt(int64(qty))).Round(2)
}
