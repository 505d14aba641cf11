package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"creditdash/internal/config"
	"creditdash/internal/db"
	gormrepository "creditdash/internal/repository/gorm"
	"creditdash/internal/service"
)

type queryOptions struct {
	asOf       string
	limit      int
	year       int
	watchlist  string
	originator string
}

var queryOps = []string{"freshness", "summary", "top-deals", "industries", "trend", "deals", "originators"}

func newQueryCmd(root *rootOptions) *cobra.Command {
	opts := &queryOptions{}
	cmd := &cobra.Command{
		Use:       "query OPERATION",
		Short:     "Run one dashboard query and print the result as JSON",
		Long:      "Operations: freshness, summary, top-deals, industries, trend, deals, originators.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: queryOps,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			defer log.Sync()

			dbConn, err := db.Open(cfg.DB)
			if err != nil {
				return err
			}
			defer db.Close(dbConn)
			store, err := gormrepository.New(dbConn.Gorm, cfg.Warehouse.Schema)
			if err != nil {
				return err
			}
			dash := &service.DashboardService{
				Repo:          store,
				Logger:        log,
				Location:      cfg.Warehouse.Location(),
				QueryTimeout:  cfg.Warehouse.QueryTimeout,
				TopDealsLimit: cfg.Warehouse.TopDealsLimit,
			}
			out, err := runQuery(cmd.Context(), dash, cfg, args[0], opts)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&opts.asOf, "as-of", "", "reporting date YYYY-MM-DD (defaults to today)")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "top-deals row count (defaults to warehouse.top_deals_limit)")
	cmd.Flags().IntVar(&opts.year, "year", 0, "trend year (defaults to the current year)")
	cmd.Flags().StringVar(&opts.watchlist, "watchlist", service.AllOption, "deals watchlist filter")
	cmd.Flags().StringVar(&opts.originator, "originator", service.AllOption, "deals originator filter")
	return cmd
}

func runQuery(ctx context.Context, dash *service.DashboardService, cfg *config.Config, op string, opts *queryOptions) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var asOfPtr *time.Time
	if opts.asOf != "" {
		t, err := time.ParseInLocation(time.DateOnly, opts.asOf, cfg.Warehouse.Location())
		if err != nil {
			return nil, fmt.Errorf("invalid --as-of %q: %w", opts.asOf, err)
		}
		asOfPtr = &t
	}
	asOf := dash.AsOf(asOfPtr)
	scope := service.Scope{SessionID: "cli"}

	switch op {
	case "freshness":
		return dash.Freshness(ctx, scope)
	case "summary":
		return dash.Summary(ctx, scope, asOf)
	case "top-deals":
		limit := opts.limit
		if limit == 0 {
			limit = dash.DefaultTopDealsLimit()
		}
		return dash.TopDeals(ctx, scope, limit, asOf)
	case "industries":
		return dash.Industries(ctx, scope, asOf)
	case "trend":
		return dash.Trend(ctx, scope, opts.year)
	case "deals":
		filter := service.DealFilter{Watchlist: opts.watchlist, Originator: opts.originator}
		return dash.Deals(ctx, scope, filter, asOf)
	case "originators":
		return dash.Originators(ctx, scope)
	default:
		return nil, fmt.Errorf("unknown operation %q (want one of %v)", op, queryOps)
	}
}
