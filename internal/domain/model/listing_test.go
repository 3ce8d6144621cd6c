package model_test

import (
	"testing"

	"github.com/okian/momentproxy/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/tidwall/gjson"
)

var paths = model.FieldPaths{
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

func TestDecode(t *testing.T) {
	Convey("Given a fully populated item", t, func() {
		item := gjson.Parse(`{
			"lowestAsk": "17.50",
			"moment": {
				"id": "abc",
				"flowSerialNumber": "42",
				"set": {"flowName": "Base Set"},
				"play": {"description": "dunk", "stats": {"playerName": "Ja Morant", "teamAtMoment": "Memphis Grizzlies", "playCategory": "Dunk"}},
				"circulationCount": 15000,
				"tier": "MOMENT_TIER_RARE",
				"setPlay": {"tags": [{"title": "Rare"}, {"title": "Fandom"}]},
				"assetPathPrefix": "https://assets/abc/"
			}
		}`)

		raw := model.Decode(item, paths)

		Convey("Then every field is extracted", func() {
			So(raw.MomentID, ShouldEqual, "abc")
			So(raw.LowestAsk, ShouldEqual, "17.50")
			So(raw.SerialNumber, ShouldEqual, "42")
			So(raw.SetName, ShouldEqual, "Base Set")
			So(raw.PlayerName, ShouldEqual, "Ja Morant")
			So(raw.TeamAtMoment, ShouldEqual, "Memphis Grizzlies")
			So(raw.PlayCategory, ShouldEqual, "Dunk")
			So(raw.PlayDescription, ShouldEqual, "dunk")
			So(raw.CirculationCount, ShouldEqual, 15000)
			So(raw.Tier, ShouldEqual, "MOMENT_TIER_RARE")
			So(raw.Tags, ShouldResemble, []string{"Rare", "Fandom"})
			So(raw.AssetPathPrefix, ShouldEqual, "https://assets/abc/")
		})
	})

	Convey("Given an item with null and missing nested objects", t, func() {
		item := gjson.Parse(`{"lowestAsk": 9, "moment": {"id": "x", "play": null, "setPlay": {"tags": null}}}`)

		raw := model.Decode(item, paths)

		Convey("Then missing fields decode to zero values", func() {
			So(raw.MomentID, ShouldEqual, "x")
			So(raw.LowestAsk, ShouldEqual, "9")
			So(raw.PlayerName, ShouldEqual, "")
			So(raw.TeamAtMoment, ShouldEqual, "")
			So(raw.CirculationCount, ShouldEqual, 0)
			So(raw.Tags, ShouldBeNil)
		})
	})

	Convey("Given empty paths", t, func() {
		raw := model.Decode(gjson.Parse(`{"moment":{"id":"y"}}`), model.FieldPaths{})

		Convey("Then nothing is extracted", func() {
			So(raw, ShouldResemble, model.RawListing{})
		})
	})
}

func TestDecodeAll(t *testing.T) {
	Convey("Given a search response", t, func() {
		body := []byte(`{"data":{"search":{"items":[{"moment":{"id":"a"}}, 3, {"moment":{"id":"b"}}]}}}`)

		Convey("When the items path matches", func() {
			raws := model.DecodeAll(body, "data.search.items", paths)

			Convey("Then only object items are decoded, in order", func() {
				So(len(raws), ShouldEqual, 2)
				So(raws[0].MomentID, ShouldEqual, "a")
				So(raws[1].MomentID, ShouldEqual, "b")
			})
		})

		Convey("When the items path is missing", func() {
			So(model.DecodeAll(body, "data.other", paths), ShouldBeEmpty)
		})

		Convey("When the body is not JSON", func() {
			So(model.DecodeAll([]byte("<html>blocked</html>"), "data.search.items", paths), ShouldBeEmpty)
		})
	})
}
