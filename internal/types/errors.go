package types

import (
	"errors"
	"fmt"
)

// Error taxonomy. Only ValidationError, ErrTaskNotFound, and ErrServiceBusy
// ever surface to the external caller; LLM failures are absorbed at stage
// boundaries and converted into degraded-but-valid results.

// ErrServiceBusy is returned when the concurrent LLM call budget is exhausted.
// Surfaced as a retryable 5xx-equivalent.
var ErrServiceBusy = errors.New("llm call budget exhausted, retry later")

// ErrTaskNotFound is returned by stores when a clarify call references an
// unknown task_id.
var ErrTaskNotFound = errors.New("task not found")

// ValidationError rejects malformed or oversized input text. 4xx-equivalent,
// no retry.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TransientLLMError marks a timeout or network failure calling the LLM.
// Recovered locally via one retry then fallback; never surfaced.
type TransientLLMError struct {
	Stage string
	Err   error
}

func (e *TransientLLMError) Error() string {
	return fmt.Sprintf("transient llm failure in %s: %v", e.Stage, e.Err)
}

func (e *TransientLLMError) Unwrap() error { return e.Err }

// IsTransientLLM reports whether err is (or wraps) a TransientLLMError.
func IsTransientLLM(err error) bool {
	var te *TransientLLMError
	return errors.As(err, &te)
}

// SchemaValidationError marks an LLM response that did not match the expected
// JSON schema. Recovered locally by falling back; no retry.
type SchemaValidationError struct {
	Stage string
	Err   error
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("llm response schema invalid in %s: %v", e.Stage, e.Err)
}

func (e *SchemaValidationError) Unwrap() error { return e.Err }

// IsSchemaValidation reports whether err is (or wraps) a SchemaValidationError.
func IsSchemaValidation(err error) bool {
	var se *SchemaValidationError
	return errors.As(err, &se)
}
