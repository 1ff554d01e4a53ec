package classify

import "errors"

var (
	ErrInvalidRules  = errors.New("invalid classification rules")
	ErrInvalidPolicy = errors.New("invalid classification policy")
)
