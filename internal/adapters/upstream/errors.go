package upstream

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package.
var (
	ErrUpstreamStatus = errors.New("upstream status")
	ErrTransport      = errors.New("upstream transport")
)

// StatusError reports a non-2xx reply from the upstream.
type StatusError struct {
	Status int
	// Body is the start of the response body, for diagnostics.
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned HTTP %d", e.Status)
}

// Is makes errors.Is(err, ErrUpstreamStatus) match.
func (e *StatusError) Is(target error) bool {
	return target == ErrUpstreamStatus
}
