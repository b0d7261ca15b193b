package webhook

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Sentinel errors for resolving and configuring webhooks
var (
	ErrInvalidMethod        = errors.New("invalid method")
	ErrInvalidURL           = errors.New("invalid url")
	ErrTemplateFailure      = errors.New("template failure")
	ErrInvalidConfiguration = errors.New("invalid webhook configuration")
)

/* ResolutionError is returned when a RequestSpec cannot be turned into a ResolvedRequest
 * Err wraps one of ErrInvalidMethod, ErrInvalidURL or ErrTemplateFailure
 */
type ResolutionError struct {
	Field string
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving %s: %v", e.Field, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// TransportError is returned when the outbound exchange could not complete
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the exchange gave up because a deadline expired
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// ConfigurationError is returned when a declarative spec is structurally invalid
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrInvalidConfiguration, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidConfiguration, e.Reason)
}

func (e *ConfigurationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidConfiguration, e.Err}
	}
	return []error{ErrInvalidConfiguration}
}
