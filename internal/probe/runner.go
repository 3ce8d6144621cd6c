package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/okian/momentproxy/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run executes a verification run against a live service.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
	}
	ctx = logger.WithFields(ctx, logger.String("run_id", stats.RunID))

	logger.Get().Info(ctx, "starting moments probe",
		logger.String("baseURL", config.BaseURL),
		logger.String("policy", config.Policy),
		logger.Int("requests", config.Requests),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return stats, err
	}

	// Step 2: Collect samples concurrently
	samples, err := collectSamples(ctx, config, stats)
	if err != nil {
		return stats, fmt.Errorf("sample collection failed: %w", err)
	}

	// Step 3: Aggregate verification results
	summarize(ctx, samples, stats, config.Verbose)

	// Step 4: Save samples to file
	if config.OutputFile != "" {
		if err := saveSamples(ctx, config.OutputFile, samples); err != nil {
			logger.Get().Warn(ctx, "failed to save samples to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	switch {
	case stats.RequestsOK == 0:
		return stats, ErrNoSuccess
	case stats.Violations > 0:
		return stats, fmt.Errorf("%w: %d", ErrViolations, stats.Violations)
	}
	logger.Get().Info(ctx, "probe completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	client := newHTTPClient(config.Timeout)

	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	_, _ = readResponseBody(resp)

	// The service answers /healthz with Prometheus metrics
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("%w: HTTP %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// summarize folds per-sample results into stats.
func summarize(ctx context.Context, samples []Sample, stats *Stats, verbose bool) {
	seen := make(map[string]struct{})
	for _, s := range samples {
		if s.Failure != nil {
			logger.Get().Warn(ctx, "service returned an error",
				logger.String("requestId", s.RequestID),
				logger.Int("statusCode", s.StatusCode),
				logger.String("error", s.Failure.Error))
			continue
		}
		stats.Violations += len(s.Violations)
		if s.Response == nil {
			continue
		}
		stats.ListingsSeen += len(s.Response.Moments)
		for _, l := range s.Response.Moments {
			seen[l.ID] = struct{}{}
		}
		for _, v := range s.Violations {
			logger.Get().Error(ctx, "violation", logger.String("requestId", s.RequestID), logger.String("detail", v))
		}
		if verbose {
			logger.Get().Debug(ctx, "sample verified",
				logger.String("requestId", s.RequestID),
				logger.Int("moments", len(s.Response.Moments)))
		}
	}
	stats.UniqueMoments = len(seen)
}

// saveSamples writes samples as a JSON array.
func saveSamples(ctx context.Context, filename string, samples []Sample) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(samples, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal samples: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	logger.Get().Info(ctx, "samples saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, requestsPerSecond float64

	if stats.RequestsSent > 0 {
		successRate = float64(stats.RequestsOK) / float64(stats.RequestsSent) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		requestsPerSecond = float64(stats.RequestsSent) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("requestsSent", stats.RequestsSent),
		logger.Int("requestsOK", stats.RequestsOK),
		logger.Int("requestsRejected", stats.RequestsRejected),
		logger.Int("requestsFailed", stats.RequestsFailed),
		logger.Int("violations", stats.Violations),
		logger.Int("listingsSeen", stats.ListingsSeen),
		logger.Int("uniqueMoments", stats.UniqueMoments),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("requestsPerSecond", requestsPerSecond))
}
