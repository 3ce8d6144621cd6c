package probe

import (
	"fmt"

	"github.com/okian/momentproxy/internal/domain/dedupe"
	"github.com/okian/momentproxy/internal/domain/types"
)

// Verify checks one successful response against the output guarantees of the
// service and returns a description of every violation.
func Verify(resp MomentsResponse, maxCount int) []string {
	var out []string

	if maxCount > 0 && len(resp.Moments) > maxCount {
		out = append(out, fmt.Sprintf("%d moments exceed the maximum of %d", len(resp.Moments), maxCount))
	}
	if resp.Total != nil && *resp.Total != len(resp.Moments) {
		out = append(out, fmt.Sprintf("total %d does not match %d moments", *resp.Total, len(resp.Moments)))
	}

	keys := dedupe.NewKeySet(dedupe.WithCapacity(len(resp.Moments)))
	ids := make(map[string]struct{}, len(resp.Moments))
	for i, l := range resp.Moments {
		if l.LowestAsk <= 0 {
			out = append(out, fmt.Sprintf("moment %d (%s) has lowestAsk %d", i, l.ID, l.LowestAsk))
		}
		if l.Player == types.UnknownPlayer {
			out = append(out, fmt.Sprintf("moment %d (%s) has an unknown player", i, l.ID))
		}
		if !l.Scarcity.Valid() {
			out = append(out, fmt.Sprintf("moment %d (%s) has scarcity %q", i, l.ID, l.Scarcity))
		}
		if keys.SeenAndRecord(dedupe.Key(l)) {
			out = append(out, fmt.Sprintf("moment %d (%s) repeats player %q in set %q", i, l.ID, l.Player, l.Set))
		}
		if _, dup := ids[l.ID]; dup {
			out = append(out, fmt.Sprintf("moment %d repeats id %s", i, l.ID))
		}
		ids[l.ID] = struct{}{}
	}
	return out
}
