package probe

import "errors"

// Sentinel errors for a probe run.
var (
	ErrUnhealthy  = errors.New("service unhealthy")
	ErrNoSuccess  = errors.New("no successful responses")
	ErrViolations = errors.New("response violations found")
)
