// Package dedupe drops repeated listings by a composite key.
package dedupe

import (
	"strings"

	"github.com/okian/momentproxy/internal/domain/types"
)

// keySep never appears in player or set names.
const keySep = "\x1f"

// Deduper records seen keys. Implementations are request-scoped and not
// safe for concurrent use.
type Deduper interface {
	// SeenAndRecord checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(key string) bool
}

// keySet implements Deduper with a plain map.
type keySet struct {
	seen map[string]struct{}
}

// NewKeySet creates an empty Deduper.
func NewKeySet(opts ...Option) Deduper {
	o := options{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(&o)
	}
	if o.capacity < 0 {
		o.capacity = 0
	}
	return &keySet{seen: make(map[string]struct{}, o.capacity)}
}

func (k *keySet) SeenAndRecord(key string) bool {
	if _, ok := k.seen[key]; ok {
		return true
	}
	k.seen[key] = struct{}{}
	return false
}

// Key returns the (player, set) identity of a listing. Comparison is exact.
func Key(l types.Listing) string {
	return strings.Join([]string{l.Player, l.Set}, keySep)
}

// FirstByKey keeps the first listing for every key in iteration order and
// returns the kept listings together with the number dropped.
func FirstByKey(in []types.Listing, d Deduper) ([]types.Listing, int) {
	out := make([]types.Listing, 0, len(in))
	for _, l := range in {
		if d.SeenAndRecord(Key(l)) {
			continue
		}
		out = append(out, l)
	}
	return out, len(in) - len(out)
}
