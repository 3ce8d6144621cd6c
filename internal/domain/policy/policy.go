// Package policy holds the named pipeline configurations. Each policy is plain
// data: the upstream queries to run and the rules that shape their results.
package policy

import (
	"fmt"
	"sort"

	"github.com/okian/momentproxy/internal/domain/model"
	"github.com/okian/momentproxy/internal/domain/normalize"
	"github.com/okian/momentproxy/internal/domain/sampling"
	"github.com/okian/momentproxy/internal/domain/types"
)

// Policy names.
const (
	ListingV1 = "listing-v1"
	TieredV2  = "tiered-v2"
	MixedV3   = "mixed-v3"

	Default = MixedV3
)

// Query labels used in logs and metrics.
const (
	QueryPrimary = "primary"
	QueryCommons = "commons"
)

const staleWhileRevalidate = 60

// Query is one upstream GraphQL request and where to read its results.
type Query struct {
	Label string
	// OperationName is sent only when set; an empty name sends {query} alone.
	OperationName string
	Text          string
	Variables     map[string]any
	ItemsPath     string
	Fields        model.FieldPaths
}

// Policy is a complete pipeline configuration.
type Policy struct {
	Name    string
	Primary Query
	// Commons is fetched best-effort alongside Primary when non-nil.
	Commons *Query

	Scarcity normalize.Rule
	Sampling sampling.Rules

	MinCount             int
	CacheMaxAge          int
	StaleWhileRevalidate int
	IncludeTotal         bool
}

// Overrides replace policy values when positive.
type Overrides struct {
	MaxCount       int
	MinCount       int
	CommonMinPrice int
	CommonCap      int
	CacheMaxAge    int
}

// CacheControl returns the shared-cache directive for successful responses.
func (p Policy) CacheControl() string {
	return fmt.Sprintf("s-maxage=%d, stale-while-revalidate=%d", p.CacheMaxAge, p.StaleWhileRevalidate)
}

// With returns a copy of p with o applied.
func (p Policy) With(o Overrides) Policy {
	if o.MaxCount > 0 {
		p.Sampling.MaxCount = o.MaxCount
	}
	if o.MinCount > 0 {
		p.MinCount = o.MinCount
	}
	if o.CommonMinPrice > 0 {
		p.Sampling.CommonMinPrice = o.CommonMinPrice
	}
	if o.CommonCap > 0 {
		p.Sampling.CommonCap = o.CommonCap
	}
	if o.CacheMaxAge > 0 {
		p.CacheMaxAge = o.CacheMaxAge
	}
	return p
}

var builders = map[string]func() Policy{
	ListingV1: listingV1,
	TieredV2:  tieredV2,
	MixedV3:   mixedV3,
}

// Lookup returns a fresh copy of the named policy.
func Lookup(name string) (Policy, error) {
	b, ok := builders[name]
	if !ok {
		return Policy{}, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
	return b(), nil
}

// Names lists the known policies in sorted order.
func Names() []string {
	out := make([]string, 0, len(builders))
	for n := range builders {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func fields() model.FieldPaths {
	return model.FieldPaths{
		MomentID:         "moment.id",
		LowestAsk:        "lowestAsk",
		SerialNumber:     "moment.flowSerialNumber",
		SetName:          "moment.set.flowName",
		PlayerName:       "moment.play.stats.playerName",
		TeamAtMoment:     "moment.play.stats.teamAtMoment",
		PlayCategory:     "moment.play.stats.playCategory",
		PlayDescription:  "moment.play.description",
		CirculationCount: "moment.circulationCount",
		Tier:             "moment.tier",
		Tags:             "moment.setPlay.tags.#.title",
		AssetPathPrefix:  "moment.assetPathPrefix",
	}
}

func tieredQueryFor(label string, limit int, tiers ...string) Query {
	return Query{
		Label:         label,
		OperationName: tieredOperation,
		Text:          tieredQuery,
		Variables: map[string]any{
			"byTiers":       tiers,
			"byAutographed": false,
			"limit":         limit,
		},
		ItemsPath: itemsPath,
		Fields:    fields(),
	}
}

var fullPrecedence = []types.Scarcity{
	types.ScarcityLegendary,
	types.ScarcityRare,
	types.ScarcityUltimate,
	types.ScarcityFandom,
}

func listingV1() Policy {
	f := fields()
	f.Tier = ""
	return Policy{
		Name: ListingV1,
		Primary: Query{
			Label:     QueryPrimary,
			Text:      listingQuery,
			ItemsPath: itemsPath,
			Fields:    f,
		},
		Scarcity: normalize.Rule{
			Source:     normalize.SourceTags,
			Precedence: []types.Scarcity{types.ScarcityLegendary, types.ScarcityRare, types.ScarcityFandom},
		},
		Sampling: sampling.Rules{
			RequireImage: true,
			MaxCount:     30,
		},
		MinCount:             5,
		CacheMaxAge:          300,
		StaleWhileRevalidate: staleWhileRevalidate,
	}
}

func tieredV2() Policy {
	f := fields()
	f.Tags = ""
	q := tieredQueryFor(QueryPrimary, 100,
		"MOMENT_TIER_LEGENDARY", "MOMENT_TIER_RARE", "MOMENT_TIER_ULTIMATE", "MOMENT_TIER_FANDOM", "MOMENT_TIER_COMMON")
	q.Fields = f
	return Policy{
		Name:     TieredV2,
		Primary:  q,
		Scarcity: normalize.Rule{Source: normalize.SourceTier, Precedence: fullPrecedence},
		Sampling: sampling.Rules{
			Partition:      true,
			CommonMinPrice: 10,
			CommonCap:      5,
			IncludeFandom:  true,
			MaxCount:       40,
		},
		MinCount:             10,
		CacheMaxAge:          180,
		StaleWhileRevalidate: staleWhileRevalidate,
		IncludeTotal:         true,
	}
}

func mixedV3() Policy {
	commons := tieredQueryFor(QueryCommons, 50, "MOMENT_TIER_COMMON")
	return Policy{
		Name: MixedV3,
		Primary: tieredQueryFor(QueryPrimary, 100,
			"MOMENT_TIER_LEGENDARY", "MOMENT_TIER_RARE", "MOMENT_TIER_ULTIMATE", "MOMENT_TIER_FANDOM"),
		Commons:  &commons,
		Scarcity: normalize.Rule{Source: normalize.SourceAll, Precedence: fullPrecedence},
		Sampling: sampling.Rules{
			Partition:      true,
			CommonMinPrice: 3,
			CommonCap:      8,
			IncludeFandom:  true,
			MaxCount:       36,
		},
		MinCount:             8,
		CacheMaxAge:          180,
		StaleWhileRevalidate: staleWhileRevalidate,
		IncludeTotal:         true,
	}
}
