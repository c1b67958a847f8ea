package order

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"
)

// Listing and reporting defaults.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
	DefaultTrendSpan = 6
	DefaultTopLimit  = 5

	// maxOffset keeps OFFSET within the range PostgreSQL accepts on every
	// platform int size.
	maxOffset = math.MaxInt32
)

// AdminFilter is the raw admin listing request as received from the route
// layer.
type AdminFilter struct {
	Page   int
	Limit  int
	Status string
	Search string
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page  int
	Limit int
	Total int64
	// Pages is ceil(Total/Limit), never less than 1.
	Pages int
}

// AdminPage is one page of the admin order listing.
type AdminPage struct {
	Rows       []AdminRow
	Pagination Pagination
}

// Dashboard bundles the aggregate views of the admin landing page.
type Dashboard struct {
	Totals      *StatusTotals
	Monthly     []MonthCount
	TopProducts []TopProduct
}

// Service exposes the order read side and status management.
type Service struct {
	repo    Repository
	reports Reporter
	now     func() time.Time
}

// NewService creates an order Service. reports serves the aggregate views
// and may wrap repo with a cache; nil uses repo directly.
func NewService(repo Repository, reports Reporter) *Service {
	if reports == nil {
		reports = repo
	}
	return &Service{
		repo:    repo,
		reports: reports,
		now:     time.Now,
	}
}

// UpdateStatus moves an order to status. Unknown values fail with
// *InvalidStatusError, moves outside the lifecycle with *TransitionError.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) error {
	to, err := ParseStatus(status)
	if err != nil {
		return err
	}
	return s.repo.UpdateStatus(ctx, id, to, Sources(to))
}

// GetOrderDetail returns an order and its items, or ErrNotFound.
func (s *Service) GetOrderDetail(ctx context.Context, id int64) (*Detail, error) {
	return s.repo.GetDetail(ctx, id)
}

// ListByCustomer returns the order history of one customer, newest first.
func (s *Service) ListByCustomer(ctx context.Context, customerID int64) ([]Order, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}

// GetStatusTotals returns the order count per status.
func (s *Service) GetStatusTotals(ctx context.Context) (*StatusTotals, error) {
	return s.reports.StatusTotals(ctx)
}

// GetMonthlyTrend counts orders per calendar month over the trailing months
// months, the current one included. A non-positive months selects
// DefaultTrendSpan.
func (s *Service) GetMonthlyTrend(ctx context.Context, months int) ([]MonthCount, error) {
	if months <= 0 {
		months = DefaultTrendSpan
	}
	since := TrendStart(s.now(), months)
	return s.reports.MonthlyTrend(ctx, since, since.AddDate(0, months, 0))
}

// GetTopSellingProducts ranks products by units sold. A non-positive limit
// selects DefaultTopLimit.
func (s *Service) GetTopSellingProducts(ctx context.Context, limit int) ([]TopProduct, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	return s.reports.TopSellingProducts(ctx, limit)
}

// GetDashboard loads status totals, the default monthly trend and the top
// sellers concurrently.
func (s *Service) GetDashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		totals, err := s.GetStatusTotals(gctx)
		if err != nil {
			return errors.Wrap(err, "status totals")
		}
		d.Totals = totals
		return nil
	})
	g.Go(func() error {
		monthly, err := s.GetMonthlyTrend(gctx, DefaultTrendSpan)
		if err != nil {
			return errors.Wrap(err, "monthly trend")
		}
		d.Monthly = monthly
		return nil
	})
	g.Go(func() error {
		top, err := s.GetTopSellingProducts(gctx, DefaultTopLimit)
		if err != nil {
			return errors.Wrap(err, "top products")
		}
		d.TopProducts = top
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetAdminList returns one filtered page of orders for the admin listing.
func (s *Service) GetAdminList(ctx context.Context, f AdminFilter) (*AdminPage, error) {
	page, limit := normalizePage(f.Page, f.Limit)

	q := AdminQuery{
		Limit:  limit,
		Offset: (page - 1) * limit,
		Search: strings.TrimSpace(f.Search),
	}
	if st := strings.TrimSpace(f.Status); st != "" && st != "all" {
		status, err := ParseStatus(st)
		if err != nil {
			return nil, err
		}
		q.Status = status
	}
	if q.Search != "" {
		if id, err := strconv.ParseInt(q.Search, 10, 64); err == nil {
			q.SearchID = &id
		}
	}

	rows, total, err := s.repo.AdminList(ctx, q)
	if err != nil {
		return nil, err
	}

	return &AdminPage{
		Rows: rows,
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: PageCount(total, limit),
		},
	}, nil
}

// TrendStart returns the first instant of the month months-1 months before
// now, in UTC.
func TrendStart(now time.Time, months int) time.Time {
	now = now.UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, -(months - 1), 0)
}

// PageCount returns ceil(total/limit), floored at 1.
func PageCount(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 1
	}
	pages := int((total + int64(limit) - 1) / int64(limit))
	return max(pages, 1)
}

// normalizePage applies the listing defaults. Pages past the last
// addressable offset are clamped; they are empty anyway.
func normalizePage(page, limit int) (int, int) {
	switch {
	case limit <= 0:
		limit = DefaultPageLimit
	case limit > MaxPageLimit:
		limit = MaxPageLimit
	}
	switch lastPage := maxOffset/limit + 1; {
	case page < 1:
		page = 1
	case page > lastPage:
		page = lastPage
	}
	return page, limit
}
