// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - All functions accept context.Context as the first parameter.
// - Validation errors wrap this package's sentinel errors.
package config

import (
	"context"
	"time"

	"github.com/okian/momentproxy/internal/adapters/upstream"
	"github.com/okian/momentproxy/internal/domain/normalize"
	"github.com/okian/momentproxy/internal/domain/policy"
)

// WriteTimeout bounds a whole response on the HTTP server. An upstream call
// must finish inside it so its failure still reaches the client.
const WriteTimeout = 20 * time.Second

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Policy names the default pipeline policy.
	Policy string `koanf:"policy"`

	// Upstream GraphQL endpoint and the browser-like headers sent to it.
	UpstreamURL     string `koanf:"upstream_url"`
	UpstreamOrigin  string `koanf:"upstream_origin"`
	UpstreamReferer string `koanf:"upstream_referer"`
	UserAgent       string `koanf:"user_agent"`
	AcceptLanguage  string `koanf:"accept_language"`

	// UpstreamTimeoutMS bounds a single upstream call. It must be positive and
	// below WriteTimeout.
	UpstreamTimeoutMS int `koanf:"upstream_timeout_ms"`

	// ErrorBodyLimit caps the upstream error body echoed to clients.
	ErrorBodyLimit int `koanf:"error_body_limit"`

	// ImageSuffix is appended to a moment's asset path prefix.
	ImageSuffix string `koanf:"image_suffix"`

	// MomentURLBase is prefixed to a moment id.
	MomentURLBase string `koanf:"moment_url_base"`

	// Policy overrides. Only positive values apply; zero keeps the policy's
	// own value, so common_min_price cannot remove a policy's price floor.
	MaxCount       int `koanf:"max_count"`
	MinCount       int `koanf:"min_count"`
	CommonMinPrice int `koanf:"common_min_price"`
	CommonCap      int `koanf:"common_cap"`
	CacheMaxAge    int `koanf:"cache_max_age"`

	// TracingExporter is none or stdout.
	TracingExporter string `koanf:"tracing_exporter"`
}

// New creates a Config holding defaults. Context is accepted first to
// satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		Policy:            policy.Default,
		UpstreamURL:       upstream.DefaultURL,
		UpstreamOrigin:    upstream.DefaultOrigin,
		UpstreamReferer:   upstream.DefaultReferer,
		UserAgent:         upstream.DefaultUserAgent,
		AcceptLanguage:    upstream.DefaultAcceptLanguage,
		UpstreamTimeoutMS: 8000,
		ErrorBodyLimit:    upstream.DefaultErrorBodyLimit,
		ImageSuffix:       normalize.DefaultImageSuffix,
		MomentURLBase:     normalize.DefaultMomentURLBase,
		TracingExporter:   "none",
	}
}

// Overrides returns the policy overrides carried by c.
func (c *Config) Overrides() policy.Overrides {
	return policy.Overrides{
		MaxCount:       c.MaxCount,
		MinCount:       c.MinCount,
		CommonMinPrice: c.CommonMinPrice,
		CommonCap:      c.CommonCap,
		CacheMaxAge:    c.CacheMaxAge,
	}
}

// NormalizeOptions returns the URL options for the normalizer; the scarcity
// rule comes from the policy.
func (c *Config) NormalizeOptions(rule normalize.Rule) normalize.Options {
	return normalize.Options{
		ImageSuffix:   c.ImageSuffix,
		MomentURLBase: c.MomentURLBase,
		Rule:          rule,
	}
}
