package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/momentproxy/pkg/logger"
)

const maxBodyBytes = 4 << 20

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

// momentsURL builds the request URL for config.
func momentsURL(config *Config) (string, error) {
	path := config.Path
	if path == "" {
		path = DefaultPath
	}
	u, err := url.Parse(config.BaseURL + path)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	if config.Policy != "" {
		q := u.Query()
		q.Set("policy", config.Policy)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// collectSamples sends config.Requests GETs with a worker pool and verifies
// each successful body.
func collectSamples(ctx context.Context, config *Config, stats *Stats) ([]Sample, error) {
	target, err := momentsURL(config)
	if err != nil {
		return nil, err
	}
	workers := config.Workers
	if workers <= 0 {
		workers = 1
	}

	logger.Get().Info(ctx, "collecting samples",
		logger.String("url", target),
		logger.Int("requests", config.Requests),
		logger.Int("workers", workers))

	client := newHTTPClient(config.Timeout)

	var (
		sent     int64
		ok       int64
		failed   int64
		rejected int64
	)

	jobs := make(chan int, workers*WorkerChannelMultiplier)
	samples := make([]Sample, config.Requests)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				s, err := fetchSample(ctx, client, target, config.MaxCount)
				atomic.AddInt64(&sent, 1)
				switch {
				case err != nil:
					atomic.AddInt64(&failed, 1)
					if config.Verbose {
						logger.Get().Warn(ctx, "request failed", logger.Int("request", idx), logger.Error(err))
					}
					continue
				case s.Response != nil:
					atomic.AddInt64(&ok, 1)
				default:
					atomic.AddInt64(&rejected, 1)
				}
				samples[idx] = s
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 0; i < config.Requests; i++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	wg.Wait()

	stats.RequestsSent = int(atomic.LoadInt64(&sent))
	stats.RequestsOK = int(atomic.LoadInt64(&ok))
	stats.RequestsFailed = int(atomic.LoadInt64(&failed))
	stats.RequestsRejected = int(atomic.LoadInt64(&rejected))

	out := samples[:0]
	for _, s := range samples {
		if s.StatusCode != 0 {
			out = append(out, s)
		}
	}
	return out, ctx.Err()
}

// fetchSample performs one request and decodes its body.
func fetchSample(ctx context.Context, client *HTTPClient, target string, maxCount int) (Sample, error) {
	resp, err := client.Get(ctx, target)
	if err != nil {
		return Sample{}, err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return Sample{}, fmt.Errorf("read body: %w", err)
	}

	s := Sample{RequestID: resp.Header.Get("X-Request-Id"), StatusCode: resp.StatusCode}
	if resp.StatusCode == StatusOK {
		var mr MomentsResponse
		if err := json.Unmarshal(body, &mr); err != nil {
			return Sample{}, fmt.Errorf("decode moments: %w", err)
		}
		s.Response = &mr
		s.Violations = Verify(mr, maxCount)
		return s, nil
	}

	var fr FailureResponse
	if err := json.Unmarshal(body, &fr); err != nil {
		return Sample{}, fmt.Errorf("decode failure (HTTP %d): %w", resp.StatusCode, err)
	}
	s.Failure = &fr
	return s, nil
}
