package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"creditdash/internal/config"
	"creditdash/internal/repository"
	"creditdash/internal/service"
)

type recordingRepo struct {
	topDeals repository.TopDealsParams
	deals    repository.ListDealsParams
	year     int
}

func (r *recordingRepo) Freshness(context.Context) (*repository.Freshness, error) { return nil, nil }
func (r *recordingRepo) PortfolioSummary(context.Context, time.Time) (*repository.PortfolioSummary, error) {
	return nil, nil
}
func (r *recordingRepo) TopDealsByExposure(_ context.Context, p repository.TopDealsParams) ([]repository.DealExposure, error) {
	r.topDeals = p
	return nil, nil
}
func (r *recordingRepo) ExposureByIndustry(context.Context, time.Time) ([]repository.IndustryExposure, error) {
	return nil, nil
}
func (r *recordingRepo) MonthlyExposureTrend(_ context.Context, year int) ([]repository.MonthlyExposure, error) {
	r.year = year
	return nil, nil
}
func (r *recordingRepo) ListDeals(_ context.Context, p repository.ListDealsParams) ([]repository.DealRow, error) {
	r.deals = p
	return nil, nil
}
func (r *recordingRepo) ListOriginators(context.Context) ([]string, error) { return nil, nil }

func newQueryFixture() (*recordingRepo, *service.DashboardService, *config.Config) {
	repo := &recordingRepo{}
	dash := &service.DashboardService{
		Repo:          repo,
		Location:      time.UTC,
		TopDealsLimit: 7,
		Now:           func() time.Time { return time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC) },
	}
	return repo, dash, &config.Config{}
}

func TestRunQuery_TopDealsDefaults(t *testing.T) {
	repo, dash, cfg := newQueryFixture()
	if _, err := runQuery(context.Background(), dash, cfg, "top-deals", &queryOptions{}); err != nil {
		t.Fatalf("err=%v", err)
	}
	if repo.topDeals.Limit != 7 {
		t.Fatalf("limit=%d want 7", repo.topDeals.Limit)
	}
	if want := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC); !repo.topDeals.AsOf.Equal(want) {
		t.Fatalf("as_of=%v want %v", repo.topDeals.AsOf, want)
	}
}

func TestRunQuery_DealsFilters(t *testing.T) {
	repo, dash, cfg := newQueryFixture()
	opts := &queryOptions{asOf: "2026-03-31", watchlist: "Watchlist", originator: service.AllOption}
	if _, err := runQuery(context.Background(), dash, cfg, "deals", opts); err != nil {
		t.Fatalf("err=%v", err)
	}
	if repo.deals.Watchlist == nil || *repo.deals.Watchlist != "Watchlist" || repo.deals.Originator != nil {
		t.Fatalf("params=%+v", repo.deals)
	}
	if repo.deals.AsOf.Day() != 31 {
		t.Fatalf("as_of=%v want Mar 31", repo.deals.AsOf)
	}
}

func TestRunQuery_Errors(t *testing.T) {
	_, dash, cfg := newQueryFixture()
	if _, err := runQuery(context.Background(), dash, cfg, "positions", &queryOptions{}); err == nil {
		t.Fatalf("expected unknown operation error")
	}
	if _, err := runQuery(context.Background(), dash, cfg, "summary", &queryOptions{asOf: "03/31/2026"}); err == nil {
		t.Fatalf("expected as-of parse error")
	}
	_, err := runQuery(context.Background(), dash, cfg, "deals", &queryOptions{watchlist: "Closed"})
	if !errors.Is(err, service.ErrInvalidWatchlist) {
		t.Fatalf("err=%v want ErrInvalidWatchlist", err)
	}
	_, err = runQuery(context.Background(), dash, cfg, "top-deals", &queryOptions{limit: -2})
	if !errors.Is(err, repository.ErrInvalidLimit) {
		t.Fatalf("err=%v want ErrInvalidLimit", err)
	}
}
