// Package normalize maps upstream listings to the flat client shape.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/okian/momentproxy/internal/domain/model"
	"github.com/okian/momentproxy/internal/domain/types"
)

// Defaults for building URLs.
const (
	DefaultImageSuffix   = "Hero_2880_2880_Black.jpg"
	DefaultMomentURLBase = "https://nbatopshot.com/moment/"
	tierPrefix           = "moment_tier_"
)

// Source selects which upstream fields feed scarcity classification.
type Source string

// Scarcity sources.
const (
	SourceTags Source = "tags"
	SourceTier Source = "tier"
	SourceAll  Source = "all"
)

// Rule classifies scarcity: the first tier in Precedence found among the
// candidates taken from Source wins, otherwise common.
type Rule struct {
	Source     Source
	Precedence []types.Scarcity
}

// Options configures a Normalizer.
type Options struct {
	ImageSuffix   string
	MomentURLBase string
	Rule          Rule
}

// Normalizer converts RawListing values into Listing values.
type Normalizer struct {
	opts Options
}

// New creates a Normalizer, filling empty URL options with defaults.
func New(opts Options) *Normalizer {
	if opts.ImageSuffix == "" {
		opts.ImageSuffix = DefaultImageSuffix
	}
	if opts.MomentURLBase == "" {
		opts.MomentURLBase = DefaultMomentURLBase
	}
	return &Normalizer{opts: opts}
}

// Normalize maps one raw listing. It never fails; absent fields take defaults.
func (n *Normalizer) Normalize(raw model.RawListing) types.Listing {
	l := types.Listing{
		ID:        raw.MomentID,
		Player:    raw.PlayerName,
		Team:      raw.TeamAtMoment,
		Play:      raw.PlayCategory,
		Set:       raw.SetName,
		Serial:    ParseSerial(raw.SerialNumber),
		Circ:      raw.CirculationCount,
		Scarcity:  n.opts.Rule.Classify(raw),
		LowestAsk: ParsePrice(raw.LowestAsk),
		MomentURL: n.opts.MomentURLBase + raw.MomentID,
	}
	if l.Player == "" {
		l.Player = types.UnknownPlayer
	}
	if l.Play == "" {
		l.Play = raw.PlayDescription
	}
	if l.Circ < 0 {
		l.Circ = 0
	}
	if raw.AssetPathPrefix != "" {
		img := raw.AssetPathPrefix + n.opts.ImageSuffix
		l.ImageURL = &img
	}
	return l
}

// NormalizeAll maps a slice of raw listings preserving order.
func (n *Normalizer) NormalizeAll(raws []model.RawListing) []types.Listing {
	out := make([]types.Listing, len(raws))
	for i, r := range raws {
		out[i] = n.Normalize(r)
	}
	return out
}

// Classify returns the scarcity of raw under the rule.
func (r Rule) Classify(raw model.RawListing) types.Scarcity {
	candidates := make(map[types.Scarcity]struct{}, len(raw.Tags)+1)
	if r.Source == SourceTags || r.Source == SourceAll {
		for _, t := range raw.Tags {
			candidates[types.Scarcity(strings.ToLower(strings.TrimSpace(t)))] = struct{}{}
		}
	}
	if (r.Source == SourceTier || r.Source == SourceAll) && raw.Tier != "" {
		tier := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw.Tier)), tierPrefix)
		candidates[types.Scarcity(tier)] = struct{}{}
	}
	for _, s := range r.Precedence {
		if _, ok := candidates[s]; ok {
			return s
		}
	}
	return types.ScarcityCommon
}

// ParsePrice parses a decimal price and rounds it to the nearest integer.
// Unparseable, non-finite and negative values become 0.
func ParsePrice(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return int(math.Round(f))
}

// ParseSerial reads the leading decimal digits of s; 0 if there are none.
func ParseSerial(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
