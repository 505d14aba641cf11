package gormrepository

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"creditdash/internal/db"
	"creditdash/internal/repository"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store runs the dashboard queries against the warehouse star schema.
// Table references are built once from configuration; everything that comes
// from a request is bound as a parameter.
type Store struct {
	db *gorm.DB

	fact      string
	deals     string
	companies string
	dates     string
}

var _ repository.Repository = (*Store)(nil)

func New(gdb *gorm.DB, schema string) (*Store, error) {
	schema = strings.TrimSpace(schema)
	qualify := func(table string) string { return table }
	if schema != "" {
		if !identPattern.MatchString(schema) {
			return nil, fmt.Errorf("invalid warehouse schema %q", schema)
		}
		qualify = func(table string) string { return schema + "." + table }
	}
	return &Store{
		db:        gdb,
		fact:      qualify("fact_position_snapshot"),
		deals:     qualify("dim_deal"),
		companies: qualify("dim_company"),
		dates:     qualify("dim_date"),
	}, nil
}

func (s *Store) Freshness(ctx context.Context) (*repository.Freshness, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var rows []repository.Freshness
	err := s.db.WithContext(ctx).
		Table(s.fact + " f").
		Select(`
			MAX(d.calendar_date) AS latest_date,
			COUNT(DISTINCT f.deal_id) AS deal_count,
			COUNT(DISTINCT f.company_id) AS company_count
		`).
		Joins("JOIN " + s.dates + " d ON f.date_id = d.date_key").
		Find(&rows).Error
	if err != nil {
		return nil, db.Wrap("freshness", err)
	}
	if len(rows) == 0 || rows[0].DealCount == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (s *Store) PortfolioSummary(ctx context.Context, asOf time.Time) (*repository.PortfolioSummary, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var rows []repository.PortfolioSummary
	err := s.db.WithContext(ctx).
		Table(s.fact+" f").
		Select(`
			COALESCE(SUM(f.exposure),0) AS total_exposure,
			COALESCE(SUM(f.commitment),0) AS total_commitment,
			COALESCE(SUM(f.fair_value),0) AS total_fair_value,
			COALESCE(AVG(f.mark),0) AS average_mark,
			COUNT(DISTINCT f.deal_id) AS deal_count,
			COUNT(DISTINCT f.company_id) AS company_count
		`).
		Joins("JOIN "+s.dates+" d ON f.date_id = d.date_key").
		Where("d.calendar_date = ?", repository.DateOnly(asOf)).
		Find(&rows).Error
	if err != nil {
		return nil, db.Wrap("portfolio_summary", err)
	}
	if len(rows) == 0 || rows[0].DealCount == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (s *Store) TopDealsByExposure(ctx context.Context, params repository.TopDealsParams) ([]repository.DealExposure, error) {
	if params.Limit <= 0 {
		return nil, repository.ErrInvalidLimit
	}
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit := params.Limit
	if limit > repository.MaxLimit {
		limit = repository.MaxLimit
	}
	rows := []repository.DealExposure{}
	err := s.db.WithContext(ctx).
		Table(s.fact+" f").
		Select(`
			deals.deal_name AS deal_name,
			companies.company_name AS company_name,
			deals.watchlist AS watchlist,
			deals.rating AS rating,
			COALESCE(SUM(f.exposure),0) AS total_exposure,
			COALESCE(SUM(f.commitment),0) AS total_commitment,
			COALESCE(AVG(f.mark),0) AS average_mark
		`).
		Joins("JOIN "+s.deals+" deals ON f.deal_id = deals.deal_id").
		Joins("JOIN "+s.companies+" companies ON f.company_id = companies.company_id").
		Joins("JOIN "+s.dates+" d ON f.date_id = d.date_key").
		Where("d.calendar_date = ?", repository.DateOnly(params.AsOf)).
		Group("deals.deal_name, companies.company_name, deals.watchlist, deals.rating").
		Order("total_exposure DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, db.Wrap("top_deals", err)
	}
	return rows, nil
}

func (s *Store) ExposureByIndustry(ctx context.Context, asOf time.Time) ([]repository.IndustryExposure, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	rows := []repository.IndustryExposure{}
	err := s.db.WithContext(ctx).
		Table(s.fact+" f").
		Select(`
			companies.industry AS industry,
			COALESCE(SUM(f.exposure),0) AS total_exposure,
			COUNT(DISTINCT f.deal_id) AS deal_count
		`).
		Joins("JOIN "+s.companies+" companies ON f.company_id = companies.company_id").
		Joins("JOIN "+s.dates+" d ON f.date_id = d.date_key").
		Where("d.calendar_date = ?", repository.DateOnly(asOf)).
		Group("companies.industry").
		Order("total_exposure DESC").
		Find(&rows).Error
	if err != nil {
		return nil, db.Wrap("exposure_by_industry", err)
	}
	return rows, nil
}

// MonthlyExposureTrend relies on dim_date.is_month_end rather than date
// arithmetic, so short months and leap years need no special casing.
func (s *Store) MonthlyExposureTrend(ctx context.Context, year int) ([]repository.MonthlyExposure, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	rows := []repository.MonthlyExposure{}
	err := s.db.WithContext(ctx).
		Table(s.fact+" f").
		Select(`
			d.month_end_date AS month_end_date,
			COALESCE(SUM(f.exposure),0) AS total_exposure,
			COALESCE(SUM(f.commitment),0) AS total_commitment,
			COALESCE(SUM(f.fair_value),0) AS total_fair_value
		`).
		Joins("JOIN "+s.dates+" d ON f.date_id = d.date_key").
		Where("d.is_month_end = ?", true).
		Where("d.year = ?", year).
		Group("d.month_end_date").
		Order("d.month_end_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, db.Wrap("monthly_trend", err)
	}
	return rows, nil
}

func (s *Store) ListDeals(ctx context.Context, params repository.ListDealsParams) ([]repository.DealRow, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Table(s.fact+" f").
		Select(`
			deals.deal_name AS deal_name,
			companies.company_name AS company_name,
			deals.watchlist AS watchlist,
			deals.rating AS rating,
			deals.originator1 AS originator,
			deals.deal_date AS deal_date,
			COALESCE(SUM(f.exposure),0) AS total_exposure,
			COALESCE(SUM(f.fair_value),0) AS total_fair_value
		`).
		Joins("JOIN "+s.deals+" deals ON f.deal_id = deals.deal_id").
		Joins("JOIN "+s.companies+" companies ON f.company_id = companies.company_id").
		Joins("JOIN "+s.dates+" d ON f.date_id = d.date_key").
		Where("d.calendar_date = ?", repository.DateOnly(params.AsOf))
	if params.Watchlist != nil {
		query = query.Where("deals.watchlist = ?", *params.Watchlist)
	}
	if params.Originator != nil {
		query = query.Where("deals.originator1 = ?", *params.Originator)
	}
	rows := []repository.DealRow{}
	err := query.
		Group("deals.deal_name, companies.company_name, deals.watchlist, deals.rating, deals.originator1, deals.deal_date").
		Order("total_exposure DESC").
		Find(&rows).Error
	if err != nil {
		return nil, db.Wrap("list_deals", err)
	}
	return rows, nil
}

func (s *Store) ListOriginators(ctx context.Context) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	names := []string{}
	err := s.db.WithContext(ctx).
		Table(s.deals+" deals").
		Distinct().
		Where("deals.originator1 IS NOT NULL").
		Order("deals.originator1 ASC").
		Pluck("deals.originator1", &names).Error
	if err != nil {
		return nil, db.Wrap("list_originators", err)
	}
	return names, nil
}
