package elements

import "errors"

// Domain errors for production element values.
var (
	ErrInvalidCategory   = errors.New("category is not part of the taxonomy")
	ErrInvalidSpan       = errors.New("evidence span outside source bounds")
	ErrInvalidConfidence = errors.New("confidence out of range")
	ErrMissingRationale  = errors.New("evidence rationale required")
)
