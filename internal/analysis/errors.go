package analysis

import (
	"context"
	"errors"
	"fmt"
)

// DefaultFailureMessage is reported when the service gives no detail.
const DefaultFailureMessage = "Upload failed"

// Messages shown for failures that carry no service detail. The underlying
// error is logged, never displayed.
const (
	UnreachableMessage     = "Could not reach the analysis service."
	TimeoutMessage         = "The analysis service did not respond in time."
	InvalidResponseMessage = "The analysis service returned an invalid response."
)

// ErrInvalidResponse is returned for a successful status whose body is not
// a chart list.
var ErrInvalidResponse = errors.New("invalid response from analysis service")

// ServiceError is a non-success answer from the analysis service.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// TransportError wraps failures to reach the service or read its answer.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Reason turns any error from this package into the message shown to the
// user. Only service-provided messages are passed through.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var svc *ServiceError
	var te *TransportError
	switch {
	case errors.As(err, &svc):
		if svc.Message == "" {
			return DefaultFailureMessage
		}
		return svc.Message
	case errors.As(err, &te):
		if errors.Is(te, context.DeadlineExceeded) {
			return TimeoutMessage
		}
		return UnreachableMessage
	case errors.Is(err, ErrInvalidResponse):
		return InvalidResponseMessage
	}
	return DefaultFailureMessage
}
