package supervisor

import "errors"

var (
	ErrInvalidThreshold = errors.New("threshold must be within [0,1]")
	ErrInvalidSeverity  = errors.New("invalid conflict severity")
)
