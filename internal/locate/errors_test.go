package locate

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rubiojr/gasmap/pkg/api"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err      error
		expected ErrorKind
	}{
		{nil, KindNone},
		{ErrNoStrategy, KindValidation},
		{&ValidationError{Field: "radius", Reason: "too big"}, KindValidation},
		{fmt.Errorf("wrapped: %w", ErrEmptyInput), KindValidation},
		{ErrPermissionDenied, KindPermissionDenied},
		{fmt.Errorf("%w: Atlantis", ErrNotFound), KindNotFound},
		{fmt.Errorf("%w: Strada Lunga 1", ErrAddressNotFound), KindNotFound},
		{ErrLocationUnavailable, KindLocationUnavailable},
		{&api.TransportError{Endpoint: api.EndpointByUAT, StatusCode: 500}, KindTransport},
		{&api.TransportError{Endpoint: api.EndpointByUAT, Err: context.Canceled}, KindCanceled},
		{context.DeadlineExceeded, KindTransport},
		{errors.New("something else"), KindUnknown},
	}

	for _, test := range tests {
		if got := KindOf(test.err); got != test.expected {
			t.Errorf("KindOf(%v) = %q, expected %q", test.err, got, test.expected)
		}
	}
}
