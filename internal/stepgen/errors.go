// Package stepgen generates courses and step plans from a generative model.
package stepgen

import (
	"errors"
	"fmt"
	"net"
	"strings"

	course "github.com/stepwise/stepwise"
)

// GenerationError wraps errors from the generative backend with context
type GenerationError struct {
	Generator string // Generator name (e.g., "gemini")
	Operation string // Operation that failed (e.g., "generate course")
	Err       error  // Underlying error
	Retryable bool   // Whether this error is retryable
}

func (e *GenerationError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("generator %q %s failed: %v", e.Generator, e.Operation, e.Err)
	}
	return fmt.Sprintf("generator %q: %v", e.Generator, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *GenerationError) IsRetryable() bool {
	return e.Retryable
}

// PayloadError reports model output that could not be used: not JSON, or
// JSON that failed course boundary validation. Never retried blindly; the
// caller decides whether to re-prompt.
type PayloadError struct {
	Generator string
	Reason    string
	Err       error
}

func (e *PayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generator %q: bad payload: %s: %v", e.Generator, e.Reason, e.Err)
	}
	return fmt.Sprintf("generator %q: bad payload: %s", e.Generator, e.Reason)
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}

// CircuitOpenError indicates the circuit breaker is open
type CircuitOpenError struct {
	Generator string
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("generator %q: circuit breaker open, service temporarily unavailable", e.Generator)
}

// NewGenerationError creates a GenerationError with retryable detection
func NewGenerationError(generator, operation string, err error) *GenerationError {
	return &GenerationError{
		Generator: generator,
		Operation: operation,
		Err:       err,
		Retryable: isRetryableError(err),
	}
}

// isRetryableError checks if an error is retryable
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Retryable
	}

	// Payload and validation problems will not fix themselves on retry
	var payloadErr *PayloadError
	if errors.As(err, &payloadErr) {
		return false
	}
	var validationErr *course.ValidationError
	if errors.As(err, &validationErr) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	// The genai client surfaces HTTP status in error text; match the common
	// transient cases.
	errStr := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection refused",
		"connection reset",
		"no such host",
		"timeout",
		"deadline exceeded",
		"temporary failure",
		"try again",
		"service unavailable",
		"bad gateway",
		"gateway timeout",
		"resource exhausted",
		"rate limit",
		"429",
		"500",
		"503",
	}
	for _, pattern := range transientPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// UserFriendlyMessage returns a user-facing message for generation failures
func UserFriendlyMessage(err error) string {
	if err == nil {
		return ""
	}

	var circuitErr *CircuitOpenError
	if errors.As(err, &circuitErr) {
		return "Course generation is temporarily unavailable. Please try again later."
	}

	var payloadErr *PayloadError
	if errors.As(err, &payloadErr) {
		return "The generated course came back malformed. Please try again."
	}

	var validationErr *course.ValidationError
	if errors.As(err, &validationErr) {
		return "The generated course came back incomplete. Please try again."
	}

	var genErr *GenerationError
	if errors.As(err, &genErr) {
		if genErr.Retryable {
			return "Course generation failed. Please try again in a moment."
		}
		return "Course generation failed."
	}

	return "Course generation failed. Please try again."
}
