// Package bootstrap assembles the HTTP handler from configuration. Both the
// long-running server and the Lambda entrypoint use it.
package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/okian/momentproxy/internal/adapters/http/api"
	"github.com/okian/momentproxy/internal/adapters/http/swagger"
	"github.com/okian/momentproxy/internal/adapters/upstream"
	service "github.com/okian/momentproxy/internal/app"
	"github.com/okian/momentproxy/internal/config"
	"github.com/okian/momentproxy/internal/domain/normalize"
	"github.com/okian/momentproxy/internal/telemetry"
	"github.com/okian/momentproxy/pkg/logger"
)

// ErrNilConfig is returned when Build is called without configuration.
var ErrNilConfig = errors.New("nil config")

// App is the assembled application.
type App struct {
	Handler http.Handler
	Service *service.Service
}

// NewUpstream builds the GraphQL client described by cfg.
func NewUpstream(cfg *config.Config) *upstream.Client {
	return upstream.New(
		upstream.WithURL(cfg.UpstreamURL),
		upstream.WithHeader("Origin", cfg.UpstreamOrigin),
		upstream.WithHeader("Referer", cfg.UpstreamReferer),
		upstream.WithHeader("User-Agent", cfg.UserAgent),
		upstream.WithHeader("Accept-Language", cfg.AcceptLanguage),
		upstream.WithErrorBodyLimit(cfg.ErrorBodyLimit),
		upstream.WithHTTPClient(&http.Client{
			Timeout:   time.Duration(cfg.UpstreamTimeoutMS) * time.Millisecond,
			Transport: telemetry.Transport(nil),
		}),
	)
}

// NewService builds the pipeline service on top of f.
func NewService(cfg *config.Config, f service.Fetcher, log logger.Logger) *service.Service {
	return service.New(
		service.WithFetcher(f),
		service.WithDefaultPolicy(cfg.Policy),
		service.WithOverrides(cfg.Overrides()),
		service.WithURLOptions(cfg.NormalizeOptions(normalize.Rule{})),
		service.WithLogger(log.Named("service")),
	)
}

// Build validates cfg and wires upstream client, service, routes and tracing.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if err := cfg.Validate(ctx); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Get()
	}

	svc := NewService(cfg, NewUpstream(cfg), log)

	mux := http.NewServeMux()
	api.NewServer(svc, svc, api.WithLogger(log.Named("api"))).Register(ctx, mux)
	swagger.Register(ctx, mux)

	return &App{
		Handler: telemetry.WrapHandler(telemetry.ServiceName, mux),
		Service: svc,
	}, nil
}
