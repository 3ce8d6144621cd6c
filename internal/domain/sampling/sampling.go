// Package sampling turns normalized listings into the bounded, shuffled set
// served to clients.
package sampling

import (
	"math/rand/v2"

	"github.com/okian/momentproxy/internal/domain/dedupe"
	"github.com/okian/momentproxy/internal/domain/types"
)

// Rules configure one pass of the stage.
type Rules struct {
	// RequireImage drops listings without an image URL.
	RequireImage bool

	// Partition enables scarcity partitioning. When false every valid
	// listing passes in input order.
	Partition bool

	// CommonMinPrice is the exclusive price floor for common listings.
	CommonMinPrice int

	// CommonCap bounds how many common listings are kept.
	CommonCap int

	// IncludeFandom keeps fandom listings (uncapped) when partitioning.
	IncludeFandom bool

	// MaxCount truncates the final list. Zero or negative means unbounded.
	MaxCount int
}

// Report counts what each step removed.
type Report struct {
	Input      int
	Invalid    int
	Excluded   int // commons below the floor or over the cap, fandom when disabled
	Duplicates int
	Truncated  int
	Output     int
}

// Sampler applies Rules to listings.
type Sampler struct {
	rules Rules
	intN  func(n int) int
}

// Option applies a configuration option to the Sampler.
type Option func(*Sampler)

// WithIntN sets the uniform source used by the shuffle; intN(n) must return
// a value in [0, n).
func WithIntN(intN func(n int) int) Option {
	return func(s *Sampler) {
		if intN != nil {
			s.intN = intN
		}
	}
}

// New creates a Sampler.
func New(rules Rules, opts ...Option) *Sampler {
	s := &Sampler{rules: rules, intN: rand.IntN}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Apply runs filter, partition, dedupe, shuffle and truncate. primary comes
// from the main query; commons, if any, from the secondary query.
func (s *Sampler) Apply(primary, commons []types.Listing) ([]types.Listing, Report) {
	rep := Report{Input: len(primary) + len(commons)}

	valid := make([]types.Listing, 0, rep.Input)
	for _, src := range [][]types.Listing{primary, commons} {
		for _, l := range src {
			if !s.valid(l) {
				rep.Invalid++
				continue
			}
			valid = append(valid, l)
		}
	}

	ordered := valid
	if s.rules.Partition {
		ordered = s.partition(valid)
		rep.Excluded = len(valid) - len(ordered)
	}

	unique, dups := dedupe.FirstByKey(ordered, dedupe.NewKeySet(dedupe.WithCapacity(len(ordered))))
	rep.Duplicates = dups

	Shuffle(unique, s.intN)

	if s.rules.MaxCount > 0 && len(unique) > s.rules.MaxCount {
		rep.Truncated = len(unique) - s.rules.MaxCount
		unique = unique[:s.rules.MaxCount]
	}
	rep.Output = len(unique)
	return unique, rep
}

func (s *Sampler) valid(l types.Listing) bool {
	if !l.Valid() {
		return false
	}
	if s.rules.RequireImage && l.ImageURL == nil {
		return false
	}
	return true
}

// partition orders listings as premium, fandom, commons.
func (s *Sampler) partition(in []types.Listing) []types.Listing {
	var premium, fandom, commons []types.Listing
	for _, l := range in {
		switch {
		case l.Scarcity.Premium():
			premium = append(premium, l)
		case l.Scarcity == types.ScarcityFandom:
			if s.rules.IncludeFandom {
				fandom = append(fandom, l)
			}
		default:
			if l.LowestAsk > s.rules.CommonMinPrice && len(commons) < s.rules.CommonCap {
				commons = append(commons, l)
			}
		}
	}
	out := make([]types.Listing, 0, len(premium)+len(fandom)+len(commons))
	out = append(out, premium...)
	out = append(out, fandom...)
	return append(out, commons...)
}

// Shuffle permutes ls in place with Fisher-Yates.
func Shuffle(ls []types.Listing, intN func(n int) int) {
	for i := len(ls) - 1; i > 0; i-- {
		j := intN(i + 1)
		ls[i], ls[j] = ls[j], ls[i]
	}
}
