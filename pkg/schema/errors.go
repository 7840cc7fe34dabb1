package schema

import (
	"errors"
	"fmt"

	"github.com/aretw0/parley/pkg/domain"
)

// ValidationError represents a single payload validation failure.
type ValidationError struct {
	Resource string      // Resource name
	Kind     domain.Kind // Kind the payload was checked against
	Reason   string      // Human-readable reason for failure
	Value    any         // The value that failed validation
}

func (e *ValidationError) Error() string {
	if e.Resource == "" {
		return fmt.Sprintf("%s payload: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("resource %q (%s): %s", e.Resource, e.Kind, e.Reason)
}

// Unwrap lets callers match domain.ErrInvalidPayload.
func (e *ValidationError) Unwrap() error { return domain.ErrInvalidPayload }

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

func (e *AggregateError) Unwrap() []error { return e.Errors }

// ValidationErrors returns all validation errors if err is an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}
