package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/burger-shop/internal/domain/product"
)

// DefaultMaxAttempts bounds the read-modify-write retries of one mutation.
const DefaultMaxAttempts = 5

// ViewLine is a cart item enriched with catalog data.
type ViewLine struct {
	Item
	Title     string
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
	// Available is false when the size is no longer sold; such lines carry
	// no price and are left out of the subtotal.
	Available bool
}

// View is the priced cart shown to the shopper before checkout.
type View struct {
	Lines    []ViewLine
	Subtotal decimal.Decimal
}

// Service implements the cart operations on top of a Repository.
//
// Every mutation is a full read-modify-write of the document. Writes are
// conditional on the version that was read; when another request wins the
// race the mutation is re-applied to the fresh document, up to maxAttempts
// times, after which ErrConflict is returned.
type Service struct {
	repo        Repository
	products    product.Repository
	maxAttempts int
}

// NewService creates a cart Service. A non-positive maxAttempts selects
// DefaultMaxAttempts.
func NewService(repo Repository, products product.Repository, maxAttempts int) *Service {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Service{
		repo:        repo,
		products:    products,
		maxAttempts: maxAttempts,
	}
}

// GetContent returns the cart of userID, or ErrNotFound.
func (s *Service) GetContent(ctx context.Context, userID int64) (*Cart, error) {
	return s.repo.Get(ctx, userID)
}

// AddToCart merges items into the user's cart, creating it on first use.
func (s *Service) AddToCart(ctx context.Context, userID int64, items []Item) error {
	if len(items) == 0 {
		return ErrNoItems
	}
	for _, it := range items {
		if err := validateItem(it); err != nil {
			return err
		}
		if it.Quantity <= 0 {
			return &InvalidItemError{ProductID: it.ProductID, Size: it.Size, Reason: "quantity must be greater than 0"}
		}
	}

	return s.mutate(ctx, userID, func(current []Item) ([]Item, bool, error) {
		next, err := Merge(current, items)
		return next, true, err
	})
}

// Update sets the quantity of one entry; zero or less removes it. Removing
// an entry that does not exist is a no-op.
func (s *Service) Update(ctx context.Context, userID int64, item Item) error {
	if err := validateItem(item); err != nil {
		return err
	}

	return s.mutate(ctx, userID, func(current []Item) ([]Item, bool, error) {
		next, changed := Apply(current, item)
		return next, changed, nil
	})
}

// Empty deletes the user's cart. It succeeds when there is none.
func (s *Service) Empty(ctx context.Context, userID int64) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		return errors.Wrap(err, "delete cart")
	}
	return nil
}

// View prices the user's cart with current catalog data.
func (s *Service) View(ctx context.Context, userID int64) (*View, error) {
	c, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	v := &View{Subtotal: decimal.Zero}
	if len(c.Items) == 0 {
		return v, nil
	}

	ids := c.ProductIDs()
	prices, err := s.products.ResolvePrices(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "resolve prices")
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}

	titles := make(map[int64]string, len(products))
	for _, p := range products {
		titles[p.ID] = p.Title
	}
	priceMap := product.NewPriceMap(prices)

	v.Lines = make([]ViewLine, len(c.Items))
	for i, it := range c.Items {
		line := ViewLine{Item: it, Title: titles[it.ProductID]}
		if e, ok := priceMap.Lookup(it.ProductID, it.Size); ok {
			line.Available = true
			line.UnitPrice = e.UnitPrice
			line.LineTotal = e.LineTotal(it.Quantity)
			v.Subtotal = v.Subtotal.Add(line.LineTotal)
		}
		v.Lines[i] = line
	}
	v.Subtotal = v.Subtotal.Round(2)

	return v, nil
}

// mutate runs one optimistic read-modify-write cycle, retrying on conflict.
// fn receives the current items (nil when there is no row) and returns the
// new items and whether anything must be written. An error from fn aborts
// the mutation unchanged.
func (s *Service) mutate(ctx context.Context, userID int64, fn func(current []Item) ([]Item, bool, error)) error {
	for range s.maxAttempts {
		c, err := s.repo.Get(ctx, userID)
		switch {
		case errors.Is(err, ErrNotFound):
			next, write, ferr := fn(nil)
			if ferr != nil {
				return ferr
			}
			if !write || len(next) == 0 {
				return nil
			}
			err = s.repo.Create(ctx, userID, next)
		case err != nil:
			return errors.Wrap(err, "get cart")
		default:
			next, write, ferr := fn(c.Items)
			if ferr != nil {
				return ferr
			}
			if !write {
				return nil
			}
			err = s.repo.Replace(ctx, userID, next, c.Version)
		}

		if !errors.Is(err, ErrConflict) {
			if err != nil {
				return errors.Wrap(err, "write cart")
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return errors.Wrapf(ErrConflict, "after %d attempts", s.maxAttempts)
}

func validateItem(it Item) error {
	switch {
	case it.ProductID <= 0:
		return &InvalidItemError{ProductID: it.ProductID, Size: it.Size, Reason: "product id must be positive"}
	case it.Size == "":
		return &InvalidItemError{ProductID: it.ProductID, Size: it.Size, Reason: "size required"}
	case it.Quantity > MaxQuantity:
		return &InvalidItemError{ProductID: it.ProductID, Size: it.Size, Reason: quantityLimitReason}
	}
	return nil
}
