package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Watchlist values as stored in dim_deal.watchlist.
const (
	WatchlistNone          = "None"
	WatchlistWatch         = "Watchlist"
	WatchlistIntensiveCare = "Intensive Care"
)

// MaxLimit caps row-limited queries.
const MaxLimit = 500

var ErrInvalidLimit = errors.New("limit must be a positive integer")

// Repository is the read-only query layer over the credit warehouse star
// schema. Every method issues exactly one SELECT. Empty results are not
// errors: pointer results come back nil and slices come back empty.
type Repository interface {
	Freshness(ctx context.Context) (*Freshness, error)
	PortfolioSummary(ctx context.Context, asOf time.Time) (*PortfolioSummary, error)
	TopDealsByExposure(ctx context.Context, params TopDealsParams) ([]DealExposure, error)
	ExposureByIndustry(ctx context.Context, asOf time.Time) ([]IndustryExposure, error)
	MonthlyExposureTrend(ctx context.Context, year int) ([]MonthlyExposure, error)
	ListDeals(ctx context.Context, params ListDealsParams) ([]DealRow, error)
	ListOriginators(ctx context.Context) ([]string, error)
}

type TopDealsParams struct {
	Limit int
	AsOf  time.Time
}

// ListDealsParams filters are exact matches; nil means unfiltered.
type ListDealsParams struct {
	Watchlist  *string
	Originator *string
	AsOf       time.Time
}

type Freshness struct {
	LatestDate   datatypes.Date `json:"latest_date"`
	DealCount    int64          `json:"deal_count"`
	CompanyCount int64          `json:"company_count"`
}

type PortfolioSummary struct {
	TotalExposure   decimal.Decimal `json:"total_exposure"`
	TotalCommitment decimal.Decimal `json:"total_commitment"`
	TotalFairValue  decimal.Decimal `json:"total_fair_value"`
	AverageMark     decimal.Decimal `json:"average_mark"`
	DealCount       int64           `json:"deal_count"`
	CompanyCount    int64           `json:"company_count"`
}

type DealExposure struct {
	DealName        string          `json:"deal_name"`
	CompanyName     string          `json:"company_name"`
	Watchlist       string          `json:"watchlist"`
	Rating          string          `json:"rating"`
	TotalExposure   decimal.Decimal `json:"total_exposure"`
	TotalCommitment decimal.Decimal `json:"total_commitment"`
	AverageMark     decimal.Decimal `json:"average_mark"`
}

type IndustryExposure struct {
	Industry      string          `json:"industry"`
	TotalExposure decimal.Decimal `json:"total_exposure"`
	DealCount     int64           `json:"deal_count"`
}

type MonthlyExposure struct {
	MonthEndDate    datatypes.Date  `json:"month_end_date"`
	TotalExposure   decimal.Decimal `json:"total_exposure"`
	TotalCommitment decimal.Decimal `json:"total_commitment"`
	TotalFairValue  decimal.Decimal `json:"total_fair_value"`
}

type DealRow struct {
	DealName       string          `json:"deal_name"`
	CompanyName    string          `json:"company_name"`
	Watchlist      string          `json:"watchlist"`
	Rating         string          `json:"rating"`
	Originator     string          `json:"originator"`
	DealDate       datatypes.Date  `json:"deal_date"`
	TotalExposure  decimal.Decimal `json:"total_exposure"`
	TotalFairValue decimal.Decimal `json:"total_fair_value"`
}

// DateOnly truncates t to midnight UTC of its calendar day in t's location,
// the form reporting dates are bound as.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
