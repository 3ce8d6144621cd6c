package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/momentproxy/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Policy, convey.ShouldEqual, "mixed-v3")
				convey.So(cfg.UpstreamTimeoutMS, convey.ShouldEqual, 8000)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("MOMENTS_ADDR", ":8080")
			_ = os.Setenv("MOMENTS_POLICY", "listing-v1")
			_ = os.Setenv("MOMENTS_UPSTREAM_URL", "http://localhost:4000/graphql")
			_ = os.Setenv("MOMENTS_MAX_COUNT", "20")
			_ = os.Setenv("MOMENTS_USER_AGENT", "Mozilla/5.0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Policy, convey.ShouldEqual, "listing-v1")
				convey.So(cfg.UpstreamURL, convey.ShouldEqual, "http://localhost:4000/graphql")
				convey.So(cfg.MaxCount, convey.ShouldEqual, 20)
				convey.So(cfg.UserAgent, convey.ShouldEqual, "Mozilla/5.0")
				convey.So(cfg.Overrides().MaxCount, convey.ShouldEqual, 20)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
policy: tiered-v2
log_format: json
min_count: 3
common_cap: 2
cache_max_age: 60
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("MOMENTS_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.Policy, convey.ShouldEqual, "tiered-v2")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.MinCount, convey.ShouldEqual, 3)
				convey.So(cfg.CommonCap, convey.ShouldEqual, 2)
				convey.So(cfg.CacheMaxAge, convey.ShouldEqual, 60)
				convey.So(cfg.UpstreamTimeoutMS, convey.ShouldEqual, 8000) // From defaults
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
policy: tiered-v2
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("MOMENTS_CONFIG", tmpFile)
			_ = os.Setenv("MOMENTS_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")       // Overridden by env
				convey.So(cfg.Policy, convey.ShouldEqual, "tiered-v2") // From file
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("MOMENTS_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("MOMENTS_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("MOMENTS_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown policy", func() {
			_ = os.Setenv("MOMENTS_POLICY", "v9")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "v9")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("MOMENTS_MAX_COUNT", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigValidateEdgeCases(t *testing.T) {
	convey.Convey("Given config validation edge cases", t, func() {
		ctx := context.Background()

		convey.Convey("When min_count exceeds max_count", func() {
			cfg := config.New(ctx)
			cfg.MaxCount = 5
			cfg.MinCount = 6

			convey.So(cfg.Validate(ctx), convey.ShouldNotBeNil)
		})

		convey.Convey("When an override is negative", func() {
			cfg := config.New(ctx)
			cfg.CommonCap = -1

			convey.So(errors.Is(cfg.Validate(ctx), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the tracing exporter is unknown", func() {
			cfg := config.New(ctx)
			cfg.TracingExporter = "jaeger"

			convey.So(cfg.Validate(ctx), convey.ShouldNotBeNil)
		})

		convey.Convey("When the upstream url is empty", func() {
			cfg := config.New(ctx)
			cfg.UpstreamURL = ""

			convey.So(cfg.Validate(ctx).Error(), convey.ShouldContainSubstring, "upstream_url")
		})

		convey.Convey("When the upstream timeout is negative", func() {
			cfg := config.New(ctx)
			cfg.UpstreamTimeoutMS = -1

			convey.So(cfg.Validate(ctx), convey.ShouldNotBeNil)
		})

		convey.Convey("When the upstream timeout is zero", func() {
			cfg := config.New(ctx)
			cfg.UpstreamTimeoutMS = 0

			convey.So(errors.Is(cfg.Validate(ctx), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the upstream timeout reaches the write timeout", func() {
			cfg := config.New(ctx)
			cfg.UpstreamTimeoutMS = int(config.WriteTimeout / time.Millisecond)

			err := cfg.Validate(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "write timeout")
		})

		convey.Convey("When the upstream timeout is just below the write timeout", func() {
			cfg := config.New(ctx)
			cfg.UpstreamTimeoutMS = int(config.WriteTimeout/time.Millisecond) - 1

			convey.So(cfg.Validate(ctx), convey.ShouldBeNil)
		})

		convey.Convey("When only max_count is set below a policy minimum", func() {
			cfg := config.New(ctx)
			cfg.MaxCount = 5

			err := cfg.Validate(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "serves at most 5")
		})

		convey.Convey("When only min_count is set above a policy maximum", func() {
			cfg := config.New(ctx)
			cfg.MinCount = 31

			err := cfg.Validate(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "listing-v1")
		})

		convey.Convey("When max_count and min_count are lowered together", func() {
			cfg := config.New(ctx)
			cfg.MaxCount = 5
			cfg.MinCount = 2

			convey.So(cfg.Validate(ctx), convey.ShouldBeNil)
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"MOMENTS_CONFIG",
		"MOMENTS_ADDR",
		"MOMENTS_POLICY",
		"MOMENTS_UPSTREAM_URL",
		"MOMENTS_MAX_COUNT",
		"MOMENTS_USER_AGENT",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "moments-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
