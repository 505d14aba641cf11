package gormrepository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"creditdash/internal/repository"
)

type captured struct {
	sql  string
	vars []any
}

// newDryRunStore builds a Store whose statements are rendered but never sent,
// and records the last rendered query.
func newDryRunStore(t *testing.T) (*Store, *captured) {
	t.Helper()
	gdb, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=test dbname=test sslmode=disable",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	c := &captured{}
	err = gdb.Callback().Query().After("gorm:query").Register("test:capture", func(tx *gorm.DB) {
		c.sql = tx.Statement.SQL.String()
		c.vars = append([]any(nil), tx.Statement.Vars...)
	})
	if err != nil {
		t.Fatalf("register capture: %v", err)
	}
	store, err := New(gdb, "credit")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store, c
}

func hasVar(vars []any, want any) bool {
	for _, v := range vars {
		if v == want {
			return true
		}
	}
	return false
}

func normalizeSQL(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var asOf = time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC)

func TestNew_RejectsInvalidSchema(t *testing.T) {
	if _, err := New(nil, "credit; DROP TABLE x"); err == nil {
		t.Fatalf("expected error for invalid schema")
	}
	if _, err := New(nil, "credit_dw"); err != nil {
		t.Fatalf("valid schema rejected: %v", err)
	}
}

func TestTopDealsByExposure_RejectsNonPositiveLimit(t *testing.T) {
	store, c := newDryRunStore(t)
	for _, limit := range []int{0, -1, -100} {
		_, err := store.TopDealsByExposure(context.Background(), repository.TopDealsParams{Limit: limit, AsOf: asOf})
		if !errors.Is(err, repository.ErrInvalidLimit) {
			t.Fatalf("limit=%d err=%v want ErrInvalidLimit", limit, err)
		}
	}
	if c.sql != "" {
		t.Fatalf("no statement must be rendered for invalid limits, got %q", c.sql)
	}
}

func TestTopDealsByExposure_SQL(t *testing.T) {
	store, c := newDryRunStore(t)
	rows, err := store.TopDealsByExposure(context.Background(), repository.TopDealsParams{Limit: 5, AsOf: asOf})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("dry run must return no rows, got %d", len(rows))
	}
	sql := normalizeSQL(c.sql)
	for _, want := range []string{
		"FROM credit.fact_position_snapshot f",
		"JOIN credit.dim_deal deals ON f.deal_id = deals.deal_id",
		"JOIN credit.dim_company companies ON f.company_id = companies.company_id",
		"JOIN credit.dim_date d ON f.date_id = d.date_key",
		"WHERE d.calendar_date = $1",
		"GROUP BY deals.deal_name, companies.company_name, deals.watchlist, deals.rating",
		"ORDER BY total_exposure DESC",
		"LIMIT",
	} {
		if !strings.Contains(sql, want) {
			t.Fatalf("sql missing %q:\n%s", want, sql)
		}
	}
	if !hasVar(c.vars, asOf) {
		t.Fatalf("vars=%v want reporting date %v", c.vars, asOf)
	}
}

func TestTopDealsByExposure_CapsLimit(t *testing.T) {
	store, c := newDryRunStore(t)
	if _, err := store.TopDealsByExposure(context.Background(), repository.TopDealsParams{Limit: 100000, AsOf: asOf}); err != nil {
		t.Fatalf("err=%v", err)
	}
	sql := normalizeSQL(c.sql)
	if !strings.Contains(sql, "LIMIT 500") && !hasVar(c.vars, repository.MaxLimit) {
		t.Fatalf("limit not capped to %d: sql=%s vars=%v", repository.MaxLimit, sql, c.vars)
	}
}

func TestListDeals_FiltersAreBound(t *testing.T) {
	store, c := newDryRunStore(t)
	watchlist := "Intensive Care' OR '1'='1"
	originator := "O'Brien; DROP TABLE dim_deal; --"
	_, err := store.ListDeals(context.Background(), repository.ListDealsParams{
		Watchlist:  &watchlist,
		Originator: &originator,
		AsOf:       asOf,
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	sql := normalizeSQL(c.sql)
	if strings.Contains(sql, "'1'='1") || strings.Contains(sql, "DROP TABLE") || strings.Contains(sql, "O'Brien") {
		t.Fatalf("filter value leaked into sql text:\n%s", sql)
	}
	for _, want := range []string{
		"deals.watchlist = $2",
		"deals.originator1 = $3",
		"GROUP BY deals.deal_name, companies.company_name, deals.watchlist, deals.rating, deals.originator1, deals.deal_date",
	} {
		if !strings.Contains(sql, want) {
			t.Fatalf("sql missing %q:\n%s", want, sql)
		}
	}
	if !hasVar(c.vars, watchlist) || !hasVar(c.vars, originator) {
		t.Fatalf("vars=%v want both filter values bound", c.vars)
	}
}

func TestListDeals_NoFilters(t *testing.T) {
	store, c := newDryRunStore(t)
	if _, err := store.ListDeals(context.Background(), repository.ListDealsParams{AsOf: asOf}); err != nil {
		t.Fatalf("err=%v", err)
	}
	sql := normalizeSQL(c.sql)
	if strings.Contains(sql, "deals.watchlist =") || strings.Contains(sql, "deals.originator1 =") {
		t.Fatalf("unexpected filter predicate:\n%s", sql)
	}
	if len(c.vars) != 1 {
		t.Fatalf("vars=%v want only the reporting date", c.vars)
	}
}

func TestMonthlyExposureTrend_UsesMonthEndFlag(t *testing.T) {
	store, c := newDryRunStore(t)
	if _, err := store.MonthlyExposureTrend(context.Background(), 2026); err != nil {
		t.Fatalf("err=%v", err)
	}
	sql := normalizeSQL(c.sql)
	for _, want := range []string{
		"d.is_month_end = $1",
		"d.year = $2",
		"GROUP BY d.month_end_date",
		"ORDER BY d.month_end_date ASC",
	} {
		if !strings.Contains(sql, want) {
			t.Fatalf("sql missing %q:\n%s", want, sql)
		}
	}
	if strings.Contains(sql, "calendar_date =") {
		t.Fatalf("trend must not be scoped to a single date:\n%s", sql)
	}
	if !hasVar(c.vars, true) || !hasVar(c.vars, 2026) {
		t.Fatalf("vars=%v want [true 2026]", c.vars)
	}
}

func TestPortfolioSummary_BindsReportingDate(t *testing.T) {
	store, c := newDryRunStore(t)
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 23:30 local on Mar 31 is already Apr 1 in UTC; the local date wins.
	local := time.Date(2026, time.March, 31, 23, 30, 0, 0, ny)
	got, err := store.PortfolioSummary(context.Background(), local)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if got != nil {
		t.Fatalf("dry run must report no data, got %+v", got)
	}
	if !hasVar(c.vars, asOf) {
		t.Fatalf("vars=%v want %v", c.vars, asOf)
	}
	if !strings.Contains(normalizeSQL(c.sql), "COUNT(DISTINCT f.deal_id) AS deal_count") {
		t.Fatalf("unexpected sql:\n%s", c.sql)
	}
}

func TestExposureByIndustry_SQL(t *testing.T) {
	store, c := newDryRunStore(t)
	if _, err := store.ExposureByIndustry(context.Background(), asOf); err != nil {
		t.Fatalf("err=%v", err)
	}
	sql := normalizeSQL(c.sql)
	if !strings.Contains(sql, "GROUP BY companies.industry") || !strings.Contains(sql, "ORDER BY total_exposure DESC") {
		t.Fatalf("unexpected sql:\n%s", sql)
	}
}

func TestListOriginators_SQL(t *testing.T) {
	store, c := newDryRunStore(t)
	names, err := store.ListOriginators(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(names) != 0 {
		t.Fatalf("dry run must return no names, got %v", names)
	}
	sql := normalizeSQL(c.sql)
	for _, want := range []string{
		"SELECT DISTINCT deals.originator1",
		"FROM credit.dim_deal deals",
		"deals.originator1 IS NOT NULL",
		"ORDER BY deals.originator1 ASC",
	} {
		if !strings.Contains(sql, want) {
			t.Fatalf("sql missing %q:\n%s", want, sql)
		}
	}
}

func TestFreshness_EmptyWarehouse(t *testing.T) {
	store, c := newDryRunStore(t)
	got, err := store.Freshness(context.Background())
	if err != nil || got != nil {
		t.Fatalf("got=%+v err=%v want nil,nil", got, err)
	}
	if strings.Contains(c.sql, "WHERE") {
		t.Fatalf("freshness spans the whole fact table, got:\n%s", c.sql)
	}
}
