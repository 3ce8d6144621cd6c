package config_test

import (
	"context"
	"testing"

	"github.com/okian/momentproxy/internal/config"
	"github.com/okian/momentproxy/internal/domain/normalize"
	"github.com/okian/momentproxy/internal/domain/policy"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.Policy, convey.ShouldEqual, policy.MixedV3)
			convey.So(cfg.UpstreamURL, convey.ShouldEqual, "https://nbatopshot.com/marketplace/graphql")
			convey.So(cfg.UpstreamOrigin, convey.ShouldEqual, "https://nbatopshot.com")
			convey.So(cfg.ErrorBodyLimit, convey.ShouldEqual, 200)
			convey.So(cfg.TracingExporter, convey.ShouldEqual, "none")
			convey.So(cfg.Validate(context.Background()), convey.ShouldBeNil)
		})

		convey.Convey("Then zero overrides leave policies untouched", func() {
			p, _ := policy.Lookup(cfg.Policy)
			convey.So(p.With(cfg.Overrides()), convey.ShouldResemble, p)
		})

		convey.Convey("Then normalizer options carry the URL settings", func() {
			opts := cfg.NormalizeOptions(normalize.Rule{Source: normalize.SourceTier})
			convey.So(opts.ImageSuffix, convey.ShouldEqual, normalize.DefaultImageSuffix)
			convey.So(opts.MomentURLBase, convey.ShouldEqual, normalize.DefaultMomentURLBase)
			convey.So(opts.Rule.Source, convey.ShouldEqual, normalize.SourceTier)
		})
	})
}
