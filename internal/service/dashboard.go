package service

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"creditdash/internal/cache"
	"creditdash/internal/db"
	"creditdash/internal/repository"
)

const dateLayout = "2006-01-02"

// Scope partitions cached results. Sessions never share entries, and bumping
// Generation abandons everything cached before.
type Scope struct {
	SessionID  string
	Generation int64
}

// Row highlight hints for the deal tables.
const (
	HighlightCritical = "critical"
	HighlightWarning  = "warning"
)

func Highlight(watchlist string) string {
	switch watchlist {
	case repository.WatchlistIntensiveCare:
		return HighlightCritical
	case repository.WatchlistWatch:
		return HighlightWarning
	default:
		return ""
	}
}

type DealExposureView struct {
	repository.DealExposure
	Highlight string `json:"highlight,omitempty"`
}

type DealRowView struct {
	repository.DealRow
	Highlight string `json:"highlight,omitempty"`
}

type DealStats struct {
	Count           int             `json:"count"`
	TotalExposure   decimal.Decimal `json:"total_exposure"`
	AverageExposure decimal.Decimal `json:"average_exposure"`
	WatchlistCount  int             `json:"watchlist_count"`
}

type DealListView struct {
	Rows  []DealRowView `json:"rows"`
	Stats DealStats     `json:"stats"`
}

// MonthOverMonth compares the last two month-end points of a trend.
// PercentChange is nil when the previous exposure is zero.
type MonthOverMonth struct {
	LatestMonth   datatypes.Date   `json:"latest_month"`
	PreviousMonth datatypes.Date   `json:"previous_month"`
	Latest        decimal.Decimal  `json:"latest"`
	Previous      decimal.Decimal  `json:"previous"`
	Delta         decimal.Decimal  `json:"delta"`
	PercentChange *decimal.Decimal `json:"percent_change"`
}

type TrendView struct {
	Year           int                          `json:"year"`
	Points         []repository.MonthlyExposure `json:"points"`
	MonthOverMonth *MonthOverMonth              `json:"month_over_month,omitempty"`
}

type DealFilter struct {
	Watchlist  string
	Originator string
}

// DashboardService serves the dashboard panels. Every warehouse call runs
// under QueryTimeout and goes through Cache.
type DashboardService struct {
	Repo          repository.Repository
	Cache         *cache.ResultCache
	Logger        *zap.Logger
	Location      *time.Location
	QueryTimeout  time.Duration
	TopDealsLimit int
	Now           func() time.Time
}

func (s *DashboardService) now() time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	if s.Now != nil {
		return s.Now().In(loc)
	}
	return time.Now().In(loc)
}

// Today is the current calendar date in the reporting timezone.
func (s *DashboardService) Today() time.Time {
	return repository.DateOnly(s.now())
}

// AsOf resolves an optional reporting date, defaulting to Today.
func (s *DashboardService) AsOf(v *time.Time) time.Time {
	if v == nil || v.IsZero() {
		return s.Today()
	}
	return repository.DateOnly(*v)
}

// DefaultTopDealsLimit is used when the caller does not pick a limit.
func (s *DashboardService) DefaultTopDealsLimit() int {
	if s.TopDealsLimit > 0 {
		return s.TopDealsLimit
	}
	return 10
}

func (s *DashboardService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// query runs one cached warehouse call.
func query[T any](ctx context.Context, s *DashboardService, scope Scope, op string, args map[string]string, load func(context.Context) (T, error)) (T, error) {
	key := cache.Key(scope.SessionID, scope.Generation, op, args)
	out, err := cache.Fetch(ctx, s.Cache, key, func(ctx context.Context) (T, error) {
		if s.QueryTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.QueryTimeout)
			defer cancel()
		}
		start := time.Now()
		v, err := load(ctx)
		if err != nil {
			s.logger().Warn("warehouse query failed",
				zap.String("op", op),
				zap.String("kind", string(db.KindOf(err))),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err))
			return v, err
		}
		s.logger().Debug("warehouse query", zap.String("op", op), zap.Duration("elapsed", time.Since(start)))
		return v, nil
	})
	return out, err
}

func (s *DashboardService) Freshness(ctx context.Context, scope Scope) (*repository.Freshness, error) {
	return query(ctx, s, scope, "freshness", nil, s.Repo.Freshness)
}

func (s *DashboardService) Summary(ctx context.Context, scope Scope, asOf time.Time) (*repository.PortfolioSummary, error) {
	asOf = repository.DateOnly(asOf)
	return query(ctx, s, scope, "summary", map[string]string{"as_of": asOf.Format(dateLayout)},
		func(ctx context.Context) (*repository.PortfolioSummary, error) {
			return s.Repo.PortfolioSummary(ctx, asOf)
		})
}

func (s *DashboardService) TopDeals(ctx context.Context, scope Scope, limit int, asOf time.Time) ([]DealExposureView, error) {
	if limit <= 0 {
		return nil, repository.ErrInvalidLimit
	}
	asOf = repository.DateOnly(asOf)
	rows, err := query(ctx, s, scope, "top_deals", map[string]string{
		"as_of": asOf.Format(dateLayout),
		"limit": strconv.Itoa(limit),
	}, func(ctx context.Context) ([]repository.DealExposure, error) {
		return s.Repo.TopDealsByExposure(ctx, repository.TopDealsParams{Limit: limit, AsOf: asOf})
	})
	if err != nil {
		return nil, err
	}
	out := make([]DealExposureView, 0, len(rows))
	for _, r := range rows {
		out = append(out, DealExposureView{DealExposure: r, Highlight: Highlight(r.Watchlist)})
	}
	return out, nil
}

func (s *DashboardService) Industries(ctx context.Context, scope Scope, asOf time.Time) ([]repository.IndustryExposure, error) {
	asOf = repository.DateOnly(asOf)
	rows, err := query(ctx, s, scope, "industries", map[string]string{"as_of": asOf.Format(dateLayout)},
		func(ctx context.Context) ([]repository.IndustryExposure, error) {
			return s.Repo.ExposureByIndustry(ctx, asOf)
		})
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []repository.IndustryExposure{}
	}
	return rows, nil
}

// Trend returns the month-end series of year, or of the current year when
// year is zero.
func (s *DashboardService) Trend(ctx context.Context, scope Scope, year int) (TrendView, error) {
	if year <= 0 {
		year = s.now().Year()
	}
	points, err := query(ctx, s, scope, "trend", map[string]string{"year": strconv.Itoa(year)},
		func(ctx context.Context) ([]repository.MonthlyExposure, error) {
			return s.Repo.MonthlyExposureTrend(ctx, year)
		})
	if err != nil {
		return TrendView{}, err
	}
	if points == nil {
		points = []repository.MonthlyExposure{}
	}
	return TrendView{Year: year, Points: points, MonthOverMonth: monthOverMonth(points)}, nil
}

func monthOverMonth(points []repository.MonthlyExposure) *MonthOverMonth {
	if len(points) < 2 {
		return nil
	}
	latest := points[len(points)-1]
	prev := points[len(points)-2]
	m := &MonthOverMonth{
		LatestMonth:   latest.MonthEndDate,
		PreviousMonth: prev.MonthEndDate,
		Latest:        latest.TotalExposure,
		Previous:      prev.TotalExposure,
		Delta:         latest.TotalExposure.Sub(prev.TotalExposure),
	}
	if !prev.TotalExposure.IsZero() {
		pct := m.Delta.Div(prev.TotalExposure).Mul(decimal.NewFromInt(100)).Round(2)
		m.PercentChange = &pct
	}
	return m
}

func (s *DashboardService) Deals(ctx context.Context, scope Scope, filter DealFilter, asOf time.Time) (DealListView, error) {
	watchlist, err := ParseWatchlist(filter.Watchlist)
	if err != nil {
		return DealListView{}, err
	}
	originator := ParseOriginator(filter.Originator)
	asOf = repository.DateOnly(asOf)

	args := map[string]string{"as_of": asOf.Format(dateLayout)}
	if watchlist != nil {
		args["watchlist"] = *watchlist
	}
	if originator != nil {
		args["originator"] = *originator
	}
	rows, err := query(ctx, s, scope, "deals", args, func(ctx context.Context) ([]repository.DealRow, error) {
		return s.Repo.ListDeals(ctx, repository.ListDealsParams{
			Watchlist:  watchlist,
			Originator: originator,
			AsOf:       asOf,
		})
	})
	if err != nil {
		return DealListView{}, err
	}
	view := DealListView{Rows: make([]DealRowView, 0, len(rows))}
	for _, r := range rows {
		view.Rows = append(view.Rows, DealRowView{DealRow: r, Highlight: Highlight(r.Watchlist)})
	}
	view.Stats = dealStats(rows)
	return view, nil
}

func dealStats(rows []repository.DealRow) DealStats {
	st := DealStats{Count: len(rows)}
	for _, r := range rows {
		st.TotalExposure = st.TotalExposure.Add(r.TotalExposure)
		if r.Watchlist == repository.WatchlistWatch || r.Watchlist == repository.WatchlistIntensiveCare {
			st.WatchlistCount++
		}
	}
	if st.Count > 0 {
		st.AverageExposure = st.TotalExposure.Div(decimal.NewFromInt(int64(st.Count))).Round(2)
	}
	return st
}

func (s *DashboardService) Originators(ctx context.Context, scope Scope) ([]string, error) {
	names, err := query(ctx, s, scope, "originators", nil, s.Repo.ListOriginators)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}
