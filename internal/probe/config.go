package probe

import (
	"time"

	"github.com/okian/momentproxy/internal/domain/types"
)

// Config holds configuration for a verification run
type Config struct {
	BaseURL    string        // Base URL of the service
	Path       string        // Moments route, /moments by default
	Policy     string        // Policy query parameter; empty uses the server default
	Requests   int           // Number of requests to send
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	MaxCount   int           // Expected upper bound on listings; 0 skips the check
	OutputFile string        // Output file for collected samples; empty skips saving
	LogFile    string        // Log file for probe output
	Verbose    bool          // Enable verbose logging
}

// MomentsResponse is the success body of the moments endpoint
type MomentsResponse struct {
	Moments []types.Listing `json:"moments"`
	Total   *int            `json:"total,omitempty"`
}

// FailureResponse is the error body of the moments endpoint
type FailureResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status,omitempty"`
	Hint   string `json:"hint,omitempty"`
	Detail string `json:"detail,omitempty"`
	Count  *int   `json:"count,omitempty"`
}

// Sample is one response collected by a worker
type Sample struct {
	RequestID  string           `json:"requestId"`
	StatusCode int              `json:"statusCode"`
	Response   *MomentsResponse `json:"response,omitempty"`
	Failure    *FailureResponse `json:"failure,omitempty"`
	Violations []string         `json:"violations,omitempty"`
}

// Stats holds run statistics
type Stats struct {
	RunID            string
	RequestsSent     int
	RequestsOK       int
	RequestsFailed   int
	RequestsRejected int // well-formed 4xx/5xx bodies from the service
	Violations       int
	ListingsSeen     int
	UniqueMoments    int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
