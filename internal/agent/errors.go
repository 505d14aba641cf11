package agent

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindForbidden    ErrorKind = "forbidden"
	KindUnauthorized ErrorKind = "unauthorized"
	KindServer       ErrorKind = "server"
	KindHTTP         ErrorKind = "http"
	KindTimeout      ErrorKind = "timeout"
	KindNetwork      ErrorKind = "network"
	KindUnexpected   ErrorKind = "unexpected"
)

// Error is a failed agent call. Message is safe to show to the user.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func statusError(status int, body string, agentFQN string) *Error {
	e := &Error{Status: status}
	switch status {
	case http.StatusNotFound:
		e.Kind = KindNotFound
		e.Message = "Agent not found. Verify deployment and permissions."
	case http.StatusForbidden:
		e.Kind = KindForbidden
		e.Message = "Access denied. Grant USAGE on agent to your role:\n```sql\nGRANT USAGE ON AGENT " + agentFQN + " TO ROLE <your_role>;\n```"
	case http.StatusUnauthorized:
		e.Kind = KindUnauthorized
		e.Message = "Authentication failed. Please refresh your session."
	case http.StatusInternalServerError:
		e.Kind = KindServer
		e.Message = "Server error. Check agent configuration and try again."
	default:
		e.Kind = KindHTTP
		e.Message = fmt.Sprintf("HTTP %d: %s", status, strings.TrimSpace(body))
	}
	return e
}

// transportError classifies a failure that happened before or while reading
// the stream. ctx is the call's own context so its deadline can be checked.
func transportError(ctx context.Context, err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	if isTimeout(ctx, err) {
		return &Error{
			Kind:    KindTimeout,
			Message: "Request timed out. The agent may be processing a complex query. Try a simpler question.",
			Err:     err,
		}
	}
	var netErr net.Error
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) || errors.As(err, &netErr) ||
		errors.Is(err, context.Canceled) || isConnectionFailure(err) {
		return &Error{Kind: KindNetwork, Message: "Network error: " + err.Error(), Err: err}
	}
	return &Error{Kind: KindUnexpected, Message: "Unexpected error: " + err.Error(), Err: err}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if ctx != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isConnectionFailure reports transport errors that happen before any
// response arrives: refused or reset connections, DNS failures and similar.
func isConnectionFailure(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection refused", "connection reset", "no such host", "eof"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
