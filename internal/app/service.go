// Package service runs the moments pipeline: fetch, normalize, sample, and
// assemble the client response.
package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/okian/momentproxy/internal/domain/model"
	"github.com/okian/momentproxy/internal/domain/normalize"
	"github.com/okian/momentproxy/internal/domain/policy"
	"github.com/okian/momentproxy/internal/domain/sampling"
	"github.com/okian/momentproxy/internal/domain/types"
	"github.com/okian/momentproxy/pkg/logger"
	"github.com/okian/momentproxy/pkg/metrics"
)

// Fetcher runs one upstream query.
type Fetcher interface {
	Fetch(ctx context.Context, q policy.Query) ([]model.RawListing, error)
}

// Result is a successful pipeline run.
type Result struct {
	Policy       string
	Listings     []types.Listing
	Total        int
	IncludeTotal bool
	CacheControl string
}

// Service implements the API dependencies for the moments endpoint.
type Service struct {
	fetcher       Fetcher
	defaultPolicy string
	overrides     policy.Overrides
	urlOpts       normalize.Options
	intN          func(n int) int

	logger logger.Logger

	requests         atomic.Int64
	served           atomic.Int64
	failures         atomic.Int64
	insufficient     atomic.Int64
	commonsFallbacks atomic.Int64
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithFetcher sets the upstream fetcher.
func WithFetcher(f Fetcher) Option {
	return func(s *Service) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// WithDefaultPolicy sets the policy used when a request names none.
func WithDefaultPolicy(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.defaultPolicy = name
		}
	}
}

// WithOverrides applies o on top of every policy.
func WithOverrides(o policy.Overrides) Option {
	return func(s *Service) {
		s.overrides = o
	}
}

// WithURLOptions sets the image suffix and moment URL base. The scarcity rule
// always comes from the policy.
func WithURLOptions(opts normalize.Options) Option {
	return func(s *Service) {
		s.urlOpts = opts
	}
}

// WithIntN sets the uniform source for shuffling.
func WithIntN(intN func(n int) int) Option {
	return func(s *Service) {
		s.intN = intN
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		defaultPolicy: policy.Default,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	return s
}

// DefaultPolicy returns the policy used when none is requested.
func (s *Service) DefaultPolicy() string { return s.defaultPolicy }

// Moments runs the named policy, or the default one when name is empty.
func (s *Service) Moments(ctx context.Context, name string) (Result, error) {
	s.requests.Add(1)
	if name == "" {
		name = s.defaultPolicy
	}
	p, err := policy.Lookup(name)
	if err != nil {
		s.failures.Add(1)
		metrics.RecordPipelineFailure("policy")
		return Result{}, err
	}
	p = p.With(s.overrides)

	primaryRaw, commonsRaw, err := s.fetch(ctx, p)
	if err != nil {
		s.failures.Add(1)
		metrics.RecordPipelineFailure("fetch")
		return Result{}, err
	}

	opts := s.urlOpts
	opts.Rule = p.Scarcity
	n := normalize.New(opts)
	primary := n.NormalizeAll(primaryRaw)
	commons := n.NormalizeAll(commonsRaw)

	out, rep := sampling.New(p.Sampling, sampling.WithIntN(s.intN)).Apply(primary, commons)
	metrics.RecordListingsDropped("invalid", rep.Invalid)
	metrics.RecordListingsDropped("excluded", rep.Excluded)
	metrics.RecordListingsDropped("duplicate", rep.Duplicates)
	metrics.RecordListingsDropped("truncated", rep.Truncated)

	s.logger.Debug(ctx, "pipeline report",
		logger.String("policy", p.Name),
		logger.Int("input", rep.Input),
		logger.Int("invalid", rep.Invalid),
		logger.Int("excluded", rep.Excluded),
		logger.Int("duplicates", rep.Duplicates),
		logger.Int("truncated", rep.Truncated),
		logger.Int("output", rep.Output),
	)

	if len(out) < p.MinCount {
		s.failures.Add(1)
		s.insufficient.Add(1)
		metrics.RecordPipelineFailure("insufficient")
		return Result{}, &InsufficientDataError{Count: len(out), Min: p.MinCount}
	}

	s.served.Add(int64(len(out)))
	metrics.RecordListingsServed(p.Name, len(out))

	return Result{
		Policy:       p.Name,
		Listings:     out,
		Total:        len(out),
		IncludeTotal: p.IncludeTotal,
		CacheControl: p.CacheControl(),
	}, nil
}

// fetch runs the primary query and, when the policy has one, the commons
// query concurrently. Only a primary failure is returned.
func (s *Service) fetch(ctx context.Context, p policy.Policy) (primary, commons []model.RawListing, err error) {
	if s.fetcher == nil {
		return nil, nil, ErrNoFetcher
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raws, err := s.fetcher.Fetch(gctx, p.Primary)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", p.Primary.Label, err)
		}
		primary = raws
		return nil
	})
	if p.Commons != nil {
		q := *p.Commons
		g.Go(func() error {
			raws, err := s.fetcher.Fetch(gctx, q)
			if err != nil {
				// Cancelled because the primary query failed; the request
				// is already lost.
				if gctx.Err() != nil {
					return nil
				}
				s.commonsFallbacks.Add(1)
				metrics.RecordCommonsFallback()
				s.logger.Warn(ctx, "commons query failed, continuing without commons",
					logger.String("policy", p.Name),
					logger.Error(err),
				)
				return nil
			}
			commons = raws
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return primary, commons, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"defaultPolicy":    s.defaultPolicy,
		"policies":         policy.Names(),
		"requests":         s.requests.Load(),
		"listingsServed":   s.served.Load(),
		"failures":         s.failures.Load(),
		"insufficientData": s.insufficient.Load(),
		"commonsFallbacks": s.commonsFallbacks.Load(),
	}
}
