package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no order matches the requested id.
var ErrNotFound = errors.New("order not found")

// Order is a committed order header. TotalAmount is fixed at creation as the
// sum of its line totals and never recomputed.
type Order struct {
	ID            int64
	CustomerID    int64
	TotalAmount   decimal.Decimal
	Status        Status
	PaymentMethod string
	// PaymentLast4 holds at most the last four card digits.
	PaymentLast4 string
	Address      string
	City         string
	State        string
	Zip          string
	CreatedAt    time.Time
}

// LineItem is one immutable product/size/quantity/price row of an order.
type LineItem struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int
	Size      string
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// Detail is an order with its line items.
type Detail struct {
	Order Order
	Items []LineItem
}

// StatusCount is the number of orders in one status.
type StatusCount struct {
	Status Status
	Total  int64
}

// StatusTotals is the grouped count of orders per status.
type StatusTotals struct {
	TotalOrders int64
	Breakdown   []StatusCount
}

// MonthCount is the number of orders created in one calendar month.
type MonthCount struct {
	// Month is formatted as YYYY-MM.
	Month string
	Total int64
}

// TopProduct is a product ranked by units sold.
type TopProduct struct {
	ProductID     int64
	Title         string
	TotalQuantity int64
}

// AdminQuery is a normalized admin listing request.
type AdminQuery struct {
	// Status filters by exact status; empty means all.
	Status Status
	// Search matches customer name or email as a case-insensitive substring.
	Search string
	// SearchID additionally matches the order id exactly when set.
	SearchID *int64
	Limit    int
	Offset   int
}

// AdminRow is an order enriched for the admin listing.
type AdminRow struct {
	Order
	CustomerName  string
	CustomerEmail string
	ItemCount     int64
}

// Writer creates orders and their line items.
type Writer interface {
	// Create inserts the header and returns the generated id.
	Create(ctx context.Context, o *Order) (int64, error)
	// SaveLineItems bulk-inserts items for orderID and returns the number
	// of rows written. An empty slice issues no statement.
	SaveLineItems(ctx context.Context, orderID int64, items []LineItem) (int64, error)
}

// Reporter computes the aggregate views shown on the dashboard.
type Reporter interface {
	StatusTotals(ctx context.Context) (*StatusTotals, error)
	// MonthlyTrend counts orders per month created in [since, until),
	// ascending by month.
	MonthlyTrend(ctx context.Context, since, until time.Time) ([]MonthCount, error)
	TopSellingProducts(ctx context.Context, limit int) ([]TopProduct, error)
}

// Repository is the full persistence surface for orders.
type Repository interface {
	Writer
	Reporter

	// UpdateStatus sets the status of id to to, provided the current status
	// is one of from. It returns ErrNotFound or a *TransitionError.
	UpdateStatus(ctx context.Context, id int64, to Status, from []Status) error
	GetDetail(ctx context.Context, id int64) (*Detail, error)
	// AdminList returns one page of rows and the total number of matches.
	AdminList(ctx context.Context, q AdminQuery) ([]AdminRow, int64, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]Order, error)
}
