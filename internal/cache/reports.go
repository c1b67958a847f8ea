package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/burger-shop/internal/domain/order"
)

var _ order.Reporter = (*Reports)(nil)

// Reports serves dashboard aggregates from Cache, loading misses from the
// wrapped Reporter. Results may be up to ttl stale. Cache errors are logged
// and the aggregate is computed directly.
type Reports struct {
	next  order.Reporter
	cache Cache
	ttl   time.Duration
}

// NewReports wraps next with a cache whose entries expire after ttl.
func NewReports(next order.Reporter, c Cache, ttl time.Duration) *Reports {
	return &Reports{next: next, cache: c, ttl: ttl}
}

func (r *Reports) StatusTotals(ctx context.Context) (*order.StatusTotals, error) {
	return cached(ctx, r, r.cache.GenerateKey("status_totals", "all"), func() (*order.StatusTotals, error) {
		return r.next.StatusTotals(ctx)
	})
}

func (r *Reports) MonthlyTrend(ctx context.Context, since, until time.Time) ([]order.MonthCount, error) {
	key := r.cache.GenerateKey("monthly_trend", since.UTC().Format("2006-01")+"_"+until.UTC().Format("2006-01"))
	return cached(ctx, r, key, func() ([]order.MonthCount, error) {
		return r.next.MonthlyTrend(ctx, since, until)
	})
}

func (r *Reports) TopSellingProducts(ctx context.Context, limit int) ([]order.TopProduct, error) {
	key := r.cache.GenerateKey("top_products", strconv.Itoa(limit))
	return cached(ctx, r, key, func() ([]order.TopProduct, error) {
		return r.next.TopSellingProducts(ctx, limit)
	})
}

func cached[T any](ctx context.Context, r *Reports, key string, load func() (T, error)) (T, error) {
	lg := zctx.From(ctx).With(zap.String("cache_key", key))

	raw, err := r.cache.Get(ctx, key)
	switch {
	case err != nil:
		lg.Warn("Report cache read failed", zap.Error(err))
	case raw != "":
		var v T
		decodeErr := json.Unmarshal([]byte(raw), &v)
		if decodeErr == nil {
			return v, nil
		}
		lg.Warn("Report cache entry corrupt", zap.Error(decodeErr))
	}

	v, err := load()
	if err != nil {
		return v, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		lg.Warn("Report cache encode failed", zap.Error(err))
		return v, nil
	}
	if err := r.cache.Set(ctx, key, data, r.ttl); err != nil {
		lg.Warn("Report cache write failed", zap.Error(err))
	}
	return v, nil
}
