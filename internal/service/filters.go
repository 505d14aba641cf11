package service

import (
	"context"
	"errors"
	"strings"

	"creditdash/internal/repository"
)

// AllOption is the UI sentinel for "no filter".
const AllOption = "All"

var ErrInvalidWatchlist = errors.New("invalid watchlist filter")

var watchlistOptions = []string{
	AllOption,
	repository.WatchlistNone,
	repository.WatchlistWatch,
	repository.WatchlistIntensiveCare,
}

// WatchlistOptions is the closed set offered by the watchlist filter.
func WatchlistOptions() []string {
	return append([]string(nil), watchlistOptions...)
}

// ParseWatchlist maps a filter value to a query predicate. All and empty
// mean unfiltered and yield nil.
func ParseWatchlist(v string) (*string, error) {
	v = strings.TrimSpace(v)
	if v == "" || v == AllOption {
		return nil, nil
	}
	for _, opt := range watchlistOptions[1:] {
		if v == opt {
			out := opt
			return &out, nil
		}
	}
	return nil, ErrInvalidWatchlist
}

// ParseOriginator treats All and empty as unfiltered. Any other value is
// matched exactly.
func ParseOriginator(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" || v == AllOption {
		return nil
	}
	return &v
}

type FilterOptions struct {
	Watchlist   []string `json:"watchlist"`
	Originators []string `json:"originators"`
}

type FilterResolver struct {
	Dashboard *DashboardService
}

func (r *FilterResolver) Options(ctx context.Context, scope Scope) (FilterOptions, error) {
	out := FilterOptions{Watchlist: WatchlistOptions(), Originators: []string{AllOption}}
	if r == nil || r.Dashboard == nil {
		return out, nil
	}
	names, err := r.Dashboard.Originators(ctx, scope)
	if err != nil {
		return FilterOptions{}, err
	}
	out.Originators = append(out.Originators, names...)
	return out, nil
}
