package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"creditdash/internal/repository"
)

func TestParseWatchlist(t *testing.T) {
	cases := []struct {
		in      string
		want    *string
		wantErr error
	}{
		{"", nil, nil},
		{"All", nil, nil},
		{"None", strPtr(repository.WatchlistNone), nil},
		{"Watchlist", strPtr(repository.WatchlistWatch), nil},
		{" Intensive Care ", strPtr(repository.WatchlistIntensiveCare), nil},
		{"intensive care", nil, ErrInvalidWatchlist},
		{"Intensive Care' OR '1'='1", nil, ErrInvalidWatchlist},
	}
	for _, tc := range cases {
		got, err := ParseWatchlist(tc.in)
		if !errors.Is(err, tc.wantErr) {
			t.Fatalf("in=%q err=%v want %v", tc.in, err, tc.wantErr)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("in=%q (-want +got):\n%s", tc.in, diff)
		}
	}
}

func TestParseOriginator(t *testing.T) {
	if ParseOriginator("All") != nil || ParseOriginator("  ") != nil {
		t.Fatalf("All and blank must not filter")
	}
	if got := ParseOriginator("O'Brien"); got == nil || *got != "O'Brien" {
		t.Fatalf("got=%v want O'Brien", got)
	}
}

func TestFilterResolver_Options(t *testing.T) {
	repo := newStubRepo()
	repo.originators = []string{"Jane Doe", "John Williams"}
	r := &FilterResolver{Dashboard: newDashboard(repo, time.Now())}

	got, err := r.Options(context.Background(), Scope{SessionID: "s"})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	want := FilterOptions{
		Watchlist:   []string{"All", "None", "Watchlist", "Intensive Care"},
		Originators: []string{"All", "Jane Doe", "John Williams"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("options (-want +got):\n%s", diff)
	}
	if _, err := r.Options(context.Background(), Scope{SessionID: "s"}); err != nil {
		t.Fatalf("err=%v", err)
	}
	if n := repo.count("originators"); n != 1 {
		t.Fatalf("originators must be cached, calls=%d", n)
	}
}

func TestWatchlistOptions_ReturnsCopy(t *testing.T) {
	opts := WatchlistOptions()
	opts[0] = "mutated"
	if WatchlistOptions()[0] != AllOption {
		t.Fatalf("options slice is shared")
	}
}

func strPtr(s string) *string { return &s }
