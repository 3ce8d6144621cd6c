// Package model contains domain models passed between layers.
package model

import (
	"strings"

	"github.com/tidwall/gjson"
)

// RawListing is one upstream search result flattened to the fields the
// normalizer reads. Zero values mean the upstream did not send the field.
type RawListing struct {
	MomentID         string
	LowestAsk        string // number or numeric string, kept verbatim
	SerialNumber     string
	SetName          string
	PlayerName       string
	TeamAtMoment     string
	PlayCategory     string
	PlayDescription  string
	CirculationCount int
	Tier             string   // e.g. MOMENT_TIER_LEGENDARY
	Tags             []string // tag titles as sent
	AssetPathPrefix  string
}

// FieldPaths are gjson paths, relative to one result item, for each RawListing
// field. An empty path leaves the field unset.
type FieldPaths struct {
	MomentID         string `koanf:"moment_id"`
	LowestAsk        string `koanf:"lowest_ask"`
	SerialNumber     string `koanf:"serial_number"`
	SetName          string `koanf:"set_name"`
	PlayerName       string `koanf:"player_name"`
	TeamAtMoment     string `koanf:"team_at_moment"`
	PlayCategory     string `koanf:"play_category"`
	PlayDescription  string `koanf:"play_description"`
	CirculationCount string `koanf:"circulation_count"`
	Tier             string `koanf:"tier"`
	Tags             string `koanf:"tags"`
	AssetPathPrefix  string `koanf:"asset_path_prefix"`
}

// Decode extracts a RawListing from a single result item. Missing or null
// values at any depth decode to zero values.
func Decode(item gjson.Result, p FieldPaths) RawListing {
	return RawListing{
		MomentID:         str(item, p.MomentID),
		LowestAsk:        str(item, p.LowestAsk),
		SerialNumber:     str(item, p.SerialNumber),
		SetName:          str(item, p.SetName),
		PlayerName:       str(item, p.PlayerName),
		TeamAtMoment:     str(item, p.TeamAtMoment),
		PlayCategory:     str(item, p.PlayCategory),
		PlayDescription:  str(item, p.PlayDescription),
		CirculationCount: integer(item, p.CirculationCount),
		Tier:             str(item, p.Tier),
		Tags:             strs(item, p.Tags),
		AssetPathPrefix:  str(item, p.AssetPathPrefix),
	}
}

// DecodeAll decodes every item found at itemsPath in a response document.
// A body that is not JSON, or has nothing at itemsPath, yields no items.
func DecodeAll(body []byte, itemsPath string, p FieldPaths) []RawListing {
	if !gjson.ValidBytes(body) {
		return nil
	}
	res := gjson.GetBytes(body, itemsPath)
	if !res.IsArray() {
		return nil
	}
	items := res.Array()
	out := make([]RawListing, 0, len(items))
	for _, it := range items {
		if !it.IsObject() {
			continue
		}
		out = append(out, Decode(it, p))
	}
	return out
}

func str(item gjson.Result, path string) string {
	if path == "" {
		return ""
	}
	v := item.Get(path)
	if !v.Exists() || v.Type == gjson.Null || v.IsObject() || v.IsArray() {
		return ""
	}
	return strings.TrimSpace(v.String())
}

func integer(item gjson.Result, path string) int {
	if path == "" {
		return 0
	}
	v := item.Get(path)
	if v.Type != gjson.Number && v.Type != gjson.String {
		return 0
	}
	return int(v.Int())
}

func strs(item gjson.Result, path string) []string {
	if path == "" {
		return nil
	}
	v := item.Get(path)
	if !v.IsArray() {
		return nil
	}
	var out []string
	for _, e := range v.Array() {
		if e.Type != gjson.String {
			continue
		}
		out = append(out, e.String())
	}
	return out
}
