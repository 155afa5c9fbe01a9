package vendors

import (
	"errors"
	"fmt"
	"strings"

	"evmap/backend/services/stations-service/internal/models"
)

// Failure kinds. Every error returned by a vendor client matches exactly one of
// them through errors.Is.
var (
	ErrAuthentication = errors.New("vendor: authentication failed")
	ErrFetch          = errors.New("vendor: fetch failed")
	ErrNetwork        = errors.New("vendor: network error")
	ErrShape          = errors.New("vendor: unexpected response shape")
)

// Error describes a failed vendor call.
type Error struct {
	Vendor models.Brand
	Op     string
	Kind   error
	Status int
	Body   string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %v", e.Vendor.Label(), e.Op, e.Kind)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Body != "" {
		fmt.Fprintf(&b, ": %s", e.Body)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// AuthError builds an ErrAuthentication failure for a non-2xx login.
func AuthError(vendor models.Brand, status int, body string) error {
	return &Error{Vendor: vendor, Op: "login", Kind: ErrAuthentication, Status: status, Body: body}
}

// FetchError builds an ErrFetch failure for a non-2xx data call.
func FetchError(vendor models.Brand, op string, status int, body string) error {
	return &Error{Vendor: vendor, Op: op, Kind: ErrFetch, Status: status, Body: body}
}

// NetworkError wraps a transport failure.
func NetworkError(vendor models.Brand, op string, err error) error {
	return &Error{Vendor: vendor, Op: op, Kind: ErrNetwork, Err: err}
}

// ShapeError wraps a decode failure or a missing field.
func ShapeError(vendor models.Brand, op string, err error) error {
	return &Error{Vendor: vendor, Op: op, Kind: ErrShape, Err: err}
}

// KindOf returns a short label for the failure kind of err.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthentication):
		return "authentication"
	case errors.Is(err, ErrFetch):
		return "fetch"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrShape):
		return "shape"
	default:
		return "unknown"
	}
}
