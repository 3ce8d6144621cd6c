package policy_test

import (
	"errors"
	"testing"

	"github.com/okian/momentproxy/internal/domain/normalize"
	"github.com/okian/momentproxy/internal/domain/policy"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLookup(t *testing.T) {
	Convey("Given the policy registry", t, func() {
		Convey("Then it knows the three revisions", func() {
			So(policy.Names(), ShouldResemble, []string{"listing-v1", "mixed-v3", "tiered-v2"})
		})

		Convey("When looking up the default", func() {
			p, err := policy.Lookup(policy.Default)

			Convey("Then it fetches commons separately", func() {
				So(err, ShouldBeNil)
				So(p.Name, ShouldEqual, policy.MixedV3)
				So(p.Commons, ShouldNotBeNil)
				So(p.Commons.Label, ShouldEqual, policy.QueryCommons)
				So(p.Commons.Variables["byTiers"], ShouldResemble, []string{"MOMENT_TIER_COMMON"})
				So(p.Scarcity.Source, ShouldEqual, normalize.SourceAll)
				So(p.IncludeTotal, ShouldBeTrue)
				So(p.CacheControl(), ShouldEqual, "s-maxage=180, stale-while-revalidate=60")
			})
		})

		Convey("When looking up the original listing policy", func() {
			p, err := policy.Lookup(policy.ListingV1)

			Convey("Then it sends a bare query with tag based scarcity", func() {
				So(err, ShouldBeNil)
				So(p.Primary.OperationName, ShouldEqual, "")
				So(p.Primary.Variables, ShouldBeNil)
				So(p.Primary.Fields.Tier, ShouldEqual, "")
				So(p.Scarcity.Source, ShouldEqual, normalize.SourceTags)
				So(p.Sampling.RequireImage, ShouldBeTrue)
				So(p.Sampling.MaxCount, ShouldEqual, 30)
				So(p.CacheControl(), ShouldEqual, "s-maxage=300, stale-while-revalidate=60")
				So(p.Commons, ShouldBeNil)
			})
		})

		Convey("When looking up the tiered policy", func() {
			p, err := policy.Lookup(policy.TieredV2)

			So(err, ShouldBeNil)
			So(p.Primary.OperationName, ShouldNotBeEmpty)
			So(p.Scarcity.Source, ShouldEqual, normalize.SourceTier)
			So(p.MinCount, ShouldEqual, 10)
		})

		Convey("When looking up an unknown name", func() {
			_, err := policy.Lookup("v4")

			Convey("Then it fails with ErrUnknownPolicy", func() {
				So(errors.Is(err, policy.ErrUnknownPolicy), ShouldBeTrue)
			})
		})

		Convey("When a looked up policy is mutated", func() {
			p, _ := policy.Lookup(policy.MixedV3)
			p.Primary.Variables["limit"] = 1
			again, _ := policy.Lookup(policy.MixedV3)

			Convey("Then later lookups are unaffected", func() {
				So(again.Primary.Variables["limit"], ShouldEqual, 100)
			})
		})
	})
}

func TestWith(t *testing.T) {
	Convey("Given a policy and overrides", t, func() {
		p, _ := policy.Lookup(policy.MixedV3)

		Convey("When overrides are zero", func() {
			So(p.With(policy.Overrides{}), ShouldResemble, p)
		})

		Convey("When only the commons price floor is zeroed", func() {
			o := p.With(policy.Overrides{CommonMinPrice: 0, CommonCap: 2})

			Convey("Then the policy keeps its own floor", func() {
				So(o.Sampling.CommonMinPrice, ShouldEqual, 3)
				So(o.Sampling.CommonCap, ShouldEqual, 2)
			})
		})

		Convey("When overrides are positive", func() {
			o := p.With(policy.Overrides{MaxCount: 12, MinCount: 2, CommonMinPrice: 7, CommonCap: 1, CacheMaxAge: 30})

			So(o.Sampling.MaxCount, ShouldEqual, 12)
			So(o.MinCount, ShouldEqual, 2)
			So(o.Sampling.CommonMinPrice, ShouldEqual, 7)
			So(o.Sampling.CommonCap, ShouldEqual, 1)
			So(o.CacheControl(), ShouldEqual, "s-maxage=30, stale-while-revalidate=60")
			So(p.Sampling.MaxCount, ShouldEqual, 36)
		})
	})
}
