// Package types contains common types used across the application
package types

// UnknownPlayer is the player name used when the upstream omits it.
const UnknownPlayer = "Unknown"

// Scarcity is the rarity tier of a listing.
type Scarcity string

// Scarcity tiers.
const (
	ScarcityCommon    Scarcity = "common"
	ScarcityRare      Scarcity = "rare"
	ScarcityLegendary Scarcity = "legendary"
	ScarcityUltimate  Scarcity = "ultimate"
	ScarcityFandom    Scarcity = "fandom"
)

// Valid reports whether s is one of the known tiers.
func (s Scarcity) Valid() bool {
	switch s {
	case ScarcityCommon, ScarcityRare, ScarcityLegendary, ScarcityUltimate, ScarcityFandom:
		return true
	}
	return false
}

// Premium reports whether s belongs to the always-included partition.
func (s Scarcity) Premium() bool {
	return s == ScarcityLegendary || s == ScarcityRare || s == ScarcityUltimate
}

// Listing is the flat moment record served to the game client.
type Listing struct {
	ID        string   `json:"id"`
	Player    string   `json:"player"`
	Team      string   `json:"team"`
	Play      string   `json:"play"`
	Set       string   `json:"set"`
	Serial    int      `json:"serial"`
	Circ      int      `json:"circ"`
	Scarcity  Scarcity `json:"scarcity"`
	LowestAsk int      `json:"lowestAsk"`
	ImageURL  *string  `json:"imageUrl"`
	MomentURL string   `json:"momentUrl"`
}

// Valid reports whether the listing may be served: priced and attributed to a player.
func (l Listing) Valid() bool {
	return l.LowestAsk > 0 && l.Player != UnknownPlayer
}
