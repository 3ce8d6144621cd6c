package service

import (
	"errors"
	"fmt"
)

// Sentinel errors for the pipeline.
var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrNoFetcher        = errors.New("no fetcher configured")
)

// InsufficientDataError reports a result shorter than the policy minimum.
type InsufficientDataError struct {
	Count int
	Min   int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("not enough moments: got %d, need %d", e.Count, e.Min)
}

// Is makes errors.Is(err, ErrInsufficientData) match.
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}
