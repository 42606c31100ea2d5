package model_test

import (
	"errors"
	"testing"

	model "github.com/okian/jasstafel/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestIdentifiers(t *testing.T) {
	convey.Convey("Given identifiers arriving from the boundary", t, func() {
		convey.Convey("When parsing teams", func() {
			top, err := model.ParseTeam(" TOP ")
			convey.So(err, convey.ShouldBeNil)
			convey.So(top, convey.ShouldEqual, model.TeamTop)
			convey.So(top.Opponent(), convey.ShouldEqual, model.TeamBottom)
			convey.So(model.TeamBottom.Opponent(), convey.ShouldEqual, model.TeamTop)

			_, err = model.ParseTeam("left")
			convey.So(errors.Is(err, model.ErrUnknownTeam), convey.ShouldBeTrue)
		})

		convey.Convey("When parsing trumps", func() {
			id, err := model.ParseTrumpID("Misère")
			convey.So(err, convey.ShouldBeNil)
			convey.So(id, convey.ShouldEqual, model.TrumpMisere)

			_, err = model.ParseTrumpID("spades")
			convey.So(errors.Is(err, model.ErrUnknownTrump), convey.ShouldBeTrue)
			convey.So(len(model.TrumpIDs()), convey.ShouldEqual, 10)
		})

		convey.Convey("When parsing stroke kinds", func() {
			k, err := model.ParseStrokeKind("Berg")
			convey.So(err, convey.ShouldBeNil)
			convey.So(k, convey.ShouldEqual, model.StrokeBerg)
			convey.So(k.Repeatable(), convey.ShouldBeFalse)
			convey.So(model.StrokeMatsch.Repeatable(), convey.ShouldBeTrue)

			_, err = model.ParseStrokeKind("weis")
			convey.So(errors.Is(err, model.ErrUnknownStroke), convey.ShouldBeTrue)
		})
	})
}

func TestRoundRecord(t *testing.T) {
	convey.Convey("Given a finalized round", t, func() {
		rec := model.RoundRecord{
			CallingTeam:    model.TeamBottom,
			TeamPoints:     240,
			OpponentPoints: 231,
			StrokesAwarded: []model.StrokeEvent{{Team: model.TeamBottom, Kind: model.StrokeBerg, Marks: 1}},
		}

		convey.Convey("Then points are credited by side", func() {
			convey.So(rec.PointsFor(model.TeamBottom), convey.ShouldEqual, 240)
			convey.So(rec.PointsFor(model.TeamTop), convey.ShouldEqual, 231)
		})

		convey.Convey("Then a clone does not share stroke storage", func() {
			cp := rec.Clone()
			cp.StrokesAwarded[0].Marks = 9
			convey.So(rec.StrokesAwarded[0].Marks, convey.ShouldEqual, 1)
		})
	})
}
