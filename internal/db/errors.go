package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

type ErrorKind string

const (
	KindConnection ErrorKind = "connection"
	KindPermission ErrorKind = "permission"
	KindMalformed  ErrorKind = "malformed"
	KindTimeout    ErrorKind = "timeout"
	KindUnknown    ErrorKind = "unknown"
)

// QueryError wraps a warehouse failure with the kind callers branch on.
type QueryError struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("warehouse %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Wrap classifies err and tags it with the operation name. Nil stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var qe *QueryError
	if errors.As(err, &qe) {
		return err
	}
	return &QueryError{Op: op, Kind: Classify(err), Err: err}
}

func Classify(err error) ErrorKind {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		code := pgErr.Code
		switch {
		case code == "42501":
			return KindPermission
		case strings.HasPrefix(code, "28"):
			return KindPermission
		case strings.HasPrefix(code, "08"):
			return KindConnection
		case strings.HasPrefix(code, "42"):
			return KindMalformed
		case code == "57014":
			return KindTimeout
		}
		return KindUnknown
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return KindConnection
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindConnection
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.Canceled) {
		return KindConnection
	}
	return KindUnknown
}

// KindOf reports the kind of a wrapped QueryError, or KindUnknown.
func KindOf(err error) ErrorKind {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return KindUnknown
}
