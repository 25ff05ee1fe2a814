package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrNetwork matches any NetworkError.
	ErrNetwork = errors.New("network error")
	// ErrNotAuthenticated matches any NotAuthenticatedError.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrUserExists is returned by Register when the username or email is taken.
	ErrUserExists = errors.New("user already exists")
)

// NetworkError covers every failed remote call: transport failures,
// timeouts, non-2xx statuses and malformed bodies.
type NetworkError struct {
	Op     string
	Status int // zero when no response was received
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// NotAuthenticatedError reports a remote operation attempted without a usable
// session, or rejected by the backend as unauthorized.
type NotAuthenticatedError struct {
	Op     string
	Status int
}

func (e *NotAuthenticatedError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %v (status %d)", e.Op, ErrNotAuthenticated, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Op, ErrNotAuthenticated)
}

func (e *NotAuthenticatedError) Is(target error) bool { return target == ErrNotAuthenticated }

// ErrorLabel classifies err for metrics and log fields.
func ErrorLabel(err error) string {
	if err == nil {
		return "none"
	}
	if errors.Is(err, ErrNotAuthenticated) {
		return "not_authenticated"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		switch {
		case ne.Status == 0:
			return "connection"
		case ne.Status >= 500:
			return "server"
		case ne.Status > 0:
			return "client"
		}
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return "other"
}
