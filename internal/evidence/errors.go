package evidence

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidationFailed = errors.New("evidence validation failed")
	ErrChainNotFound    = errors.New("evidence chain not found")
	ErrItemNotFound     = errors.New("evidence item not found")
	ErrDuplicateChain   = errors.New("element already has an evidence chain")
	ErrInvalidMethod    = errors.New("verification method must be automated or manual")
	ErrInvalidReport    = errors.New("report type must be completeness, quality, consistency, or traceability")
	ErrInvalidStatus    = errors.New("invalid verification status")
	ErrInvalidRetention = errors.New("retention days must not be negative")
)

// ValidationError lists the error-severity rules an item violated.
// It unwraps to ErrValidationFailed.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = fmt.Sprintf("%s: %s", v.Rule, v.Message)
	}
	return fmt.Sprintf("%s: %s", ErrValidationFailed, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
