package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"insufficient privilege", &pgconn.PgError{Code: "42501"}, KindPermission},
		{"invalid password", &pgconn.PgError{Code: "28P01"}, KindPermission},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, KindMalformed},
		{"syntax error", &pgconn.PgError{Code: "42601"}, KindMalformed},
		{"connection failure", &pgconn.PgError{Code: "08006"}, KindConnection},
		{"statement timeout", &pgconn.PgError{Code: "57014"}, KindTimeout},
		{"deadline", fmt.Errorf("scan: %w", context.DeadlineExceeded), KindTimeout},
		{"bad conn", driver.ErrBadConn, KindConnection},
		{"other", errors.New("boom"), KindUnknown},
	}
	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Fatalf("%s: Classify=%q want %q", tt.name, got, tt.want)
		}
	}
}

func TestWrap(t *testing.T) {
	if Wrap("summary", nil) != nil {
		t.Fatalf("nil error must stay nil")
	}
	err := Wrap("summary", &pgconn.PgError{Code: "42501"})
	if KindOf(err) != KindPermission {
		t.Fatalf("kind=%q want permission", KindOf(err))
	}
	again := Wrap("other", err)
	var qe *QueryError
	if !errors.As(again, &qe) || qe.Op != "summary" {
		t.Fatalf("rewrap must keep the original op, got %v", again)
	}
}
