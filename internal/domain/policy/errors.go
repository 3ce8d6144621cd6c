package policy

import "errors"

// Sentinel error kinds for this package.
var (
	ErrUnknownPolicy = errors.New("unknown policy")
)
