package service

import (
	"context"
	"sync"
	"time"

	"creditdash/internal/repository"
)

// stubRepo is an in-memory repository.Repository that records every call.
type stubRepo struct {
	mu    sync.Mutex
	calls map[string]int

	freshness   *repository.Freshness
	summary     *repository.PortfolioSummary
	topDeals    []repository.DealExposure
	industries  []repository.IndustryExposure
	trend       []repository.MonthlyExposure
	deals       []repository.DealRow
	originators []string
	err         error

	lastAsOf     time.Time
	lastYear     int
	lastDeals    repository.ListDealsParams
	lastTopDeals repository.TopDealsParams
}

func newStubRepo() *stubRepo {
	return &stubRepo{calls: map[string]int{}}
}

func (s *stubRepo) record(op string) {
	s.mu.Lock()
	s.calls[op]++
	s.mu.Unlock()
}

func (s *stubRepo) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *stubRepo) Freshness(ctx context.Context) (*repository.Freshness, error) {
	s.record("freshness")
	return s.freshness, s.err
}

func (s *stubRepo) PortfolioSummary(ctx context.Context, asOf time.Time) (*repository.PortfolioSummary, error) {
	s.record("summary")
	s.lastAsOf = asOf
	return s.summary, s.err
}

func (s *stubRepo) TopDealsByExposure(ctx context.Context, params repository.TopDealsParams) ([]repository.DealExposure, error) {
	s.record("top_deals")
	s.lastTopDeals = params
	if s.err != nil {
		return nil, s.err
	}
	rows := s.topDeals
	if len(rows) > params.Limit {
		rows = rows[:params.Limit]
	}
	return rows, nil
}

func (s *stubRepo) ExposureByIndustry(ctx context.Context, asOf time.Time) ([]repository.IndustryExposure, error) {
	s.record("industries")
	s.lastAsOf = asOf
	return s.industries, s.err
}

func (s *stubRepo) MonthlyExposureTrend(ctx context.Context, year int) ([]repository.MonthlyExposure, error) {
	s.record("trend")
	s.lastYear = year
	return s.trend, s.err
}

func (s *stubRepo) ListDeals(ctx context.Context, params repository.ListDealsParams) ([]repository.DealRow, error) {
	s.record("deals")
	s.lastDeals = params
	return s.deals, s.err
}

func (s *stubRepo) ListOriginators(ctx context.Context) ([]string, error) {
	s.record("originators")
	return s.originators, s.err
}
