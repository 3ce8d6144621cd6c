package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/momentproxy/internal/domain/policy"
)

// Environment variable names.
const (
	EnvPrefix = "MOMENTS_"
	EnvFile   = EnvPrefix + "CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if MOMENTS_CONFIG is set
//  3. env (prefix MOMENTS_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(EnvFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// MOMENTS_UPSTREAM_URL -> upstream_url. Underscores are kept to match
	// the flat koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(ctx); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate(_ context.Context) error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.UpstreamURL == "":
		return fmt.Errorf("%w: upstream_url must not be empty", ErrInvalidConfig)
	case c.UpstreamTimeoutMS <= 0:
		return fmt.Errorf("%w: upstream_timeout_ms must be positive", ErrInvalidConfig)
	case time.Duration(c.UpstreamTimeoutMS)*time.Millisecond >= WriteTimeout:
		return fmt.Errorf("%w: upstream_timeout_ms %d must be below the %s write timeout",
			ErrInvalidConfig, c.UpstreamTimeoutMS, WriteTimeout)
	case c.MaxCount < 0 || c.MinCount < 0 || c.CommonMinPrice < 0 || c.CommonCap < 0 || c.CacheMaxAge < 0:
		return fmt.Errorf("%w: policy overrides must not be negative", ErrInvalidConfig)
	}
	// Overrides apply to every policy, and ?policy= can select any of them.
	for _, name := range policy.Names() {
		p, err := policy.Lookup(name)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		p = p.With(c.Overrides())
		if p.MinCount > p.Sampling.MaxCount {
			return fmt.Errorf("%w: policy %s needs %d listings but serves at most %d",
				ErrInvalidConfig, name, p.MinCount, p.Sampling.MaxCount)
		}
	}
	switch c.TracingExporter {
	case "", "none", "stdout":
	default:
		return fmt.Errorf("%w: unknown tracing_exporter %q", ErrInvalidConfig, c.TracingExporter)
	}
	if _, err := policy.Lookup(c.Policy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
