package locate

import (
	"context"
	"errors"
	"fmt"

	"github.com/rubiojr/gasmap/pkg/api"
)

// ValidationError is a local input problem detected before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

var (
	ErrNoStrategy = &ValidationError{Field: "strategy", Reason: "no location strategy selected"}
	ErrEmptyInput = &ValidationError{Field: "town", Reason: "town name is empty"}
	ErrNoPin      = &ValidationError{Field: "pin", Reason: "place a pin on the map first"}

	ErrPermissionDenied    = errors.New("location permission denied")
	ErrNotFound            = errors.New("town not found")
	ErrAddressNotFound     = errors.New("address not found")
	ErrLocationUnavailable = errors.New("location unavailable")
)

// ErrorKind classifies a pipeline error for presentation.
type ErrorKind string

const (
	KindNone                ErrorKind = ""
	KindValidation          ErrorKind = "validation"
	KindPermissionDenied    ErrorKind = "permission_denied"
	KindNotFound            ErrorKind = "not_found"
	KindLocationUnavailable ErrorKind = "location_unavailable"
	KindTransport           ErrorKind = "transport"
	KindCanceled            ErrorKind = "canceled"
	KindUnknown             ErrorKind = "unknown"
)

// KindOf returns the kind of err. Cancellation wins over the error it is
// wrapped in, since a canceled run is never shown to the user.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var ve *ValidationError
	var te *api.TransportError
	switch {
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.As(err, &ve):
		return KindValidation
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrAddressNotFound):
		return KindNotFound
	case errors.Is(err, ErrLocationUnavailable):
		return KindLocationUnavailable
	case errors.As(err, &te), errors.Is(err, context.DeadlineExceeded):
		return KindTransport
	}
	return KindUnknown
}
