package ledger_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/jasstafel/internal/domain/ledger"
	"github.com/okian/jasstafel/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func record(seq, team, opp int) model.RoundRecord {
	return model.RoundRecord{
		SequenceNumber: seq,
		Trump:          model.TrumpDeclaration{TrumpID: model.TrumpEicheln, Multiplier: 1},
		CallingTeam:    model.TeamTop,
		TeamPoints:     team,
		OpponentPoints: opp,
		Timestamp:      time.Unix(int64(seq), 0).UTC(),
	}
}

func filled(n int) *ledger.Ledger {
	l := ledger.New()
	for i := 0; i < n; i++ {
		if err := l.Append(record(i, 100, 57)); err != nil {
			panic(err)
		}
	}
	return l
}

func TestAppend(t *testing.T) {
	convey.Convey("Given an empty ledger", t, func() {
		l := ledger.New()

		convey.Convey("When records are appended in order", func() {
			convey.So(l.Append(record(0, 100, 57)), convey.ShouldBeNil)
			convey.So(l.Append(record(1, 80, 77)), convey.ShouldBeNil)

			convey.Convey("Then the length grows", func() {
				convey.So(l.Len(), convey.ShouldEqual, 2)
				latest, ok := l.Latest()
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(latest.SequenceNumber, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When a record skips a sequence number", func() {
			err := l.Append(record(3, 100, 57))

			convey.Convey("Then it is rejected", func() {
				convey.So(errors.Is(err, ledger.ErrSequence), convey.ShouldBeTrue)
				convey.So(l.Len(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When a caller mutates an appended record", func() {
			rec := record(0, 100, 57)
			rec.StrokesAwarded = []model.StrokeEvent{{Team: model.TeamTop, Kind: model.StrokeBerg, Marks: 1}}
			convey.So(l.Append(rec), convey.ShouldBeNil)
			rec.StrokesAwarded[0].Team = model.TeamBottom

			convey.Convey("Then the ledger keeps its own copy", func() {
				got, _ := l.At(0)
				convey.So(got.StrokesAwarded[0].Team, convey.ShouldEqual, model.TeamTop)
			})
		})
	})
}

func TestTruncateAndAppend(t *testing.T) {
	convey.Convey("Given a ledger of five rounds", t, func() {
		l := filled(5)
		before := l.Records()

		convey.Convey("When editing from index 1", func() {
			discarded, err := l.TruncateAndAppend(1, record(2, 10, 147))

			convey.Convey("Then the length is k+2 with the prefix untouched", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(discarded, convey.ShouldEqual, 3)
				convey.So(l.Len(), convey.ShouldEqual, 3)
				convey.So(l.Records()[:2], convey.ShouldResemble, before[:2])
				latest, _ := l.Latest()
				convey.So(latest.TeamPoints, convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When the replacement carries the wrong sequence", func() {
			_, err := l.TruncateAndAppend(1, record(4, 10, 147))

			convey.Convey("Then nothing changes", func() {
				convey.So(errors.Is(err, ledger.ErrSequence), convey.ShouldBeTrue)
				convey.So(l.Records(), convey.ShouldResemble, before)
			})
		})

		convey.Convey("When the index is out of range", func() {
			_, err := l.TruncateAndAppend(7, record(8, 10, 147))
			convey.So(errors.Is(err, ledger.ErrSequence), convey.ShouldBeTrue)
		})
	})
}

func TestFold(t *testing.T) {
	convey.Convey("Given a ledger with strokes and weis", t, func() {
		l := ledger.New()
		first := record(0, 100, 57)
		first.WeisPoints = model.TeamPoints{Top: 20, Bottom: 50}
		first.StrokesAwarded = []model.StrokeEvent{{Team: model.TeamTop, Kind: model.StrokeBerg, Marks: 1}}
		second := record(1, 257, 0)
		second.CallingTeam = model.TeamBottom
		second.StrokesAwarded = []model.StrokeEvent{{Team: model.TeamBottom, Kind: model.StrokeMatsch, Marks: 1}}
		convey.So(l.Append(first), convey.ShouldBeNil)
		convey.So(l.Append(second), convey.ShouldBeNil)

		convey.Convey("When folding", func() {
			agg := l.Fold()

			convey.Convey("Then scores include trick points and weis", func() {
				convey.So(agg.Scores.Top, convey.ShouldEqual, 120)
				convey.So(agg.Scores.Bottom, convey.ShouldEqual, 57+50+257)
				convey.So(agg.Rounds, convey.ShouldEqual, 2)
			})

			convey.Convey("Then strokes are tallied per team", func() {
				convey.So(agg.StrokeTally.Top[model.StrokeBerg], convey.ShouldEqual, 1)
				convey.So(agg.StrokeTally.Bottom[model.StrokeMatsch], convey.ShouldEqual, 1)
				convey.So(agg.StrokeTally.Bottom[model.StrokeBerg], convey.ShouldEqual, 0)
			})

			convey.Convey("Then folding again yields an identical state", func() {
				convey.So(l.Fold(), convey.ShouldResemble, agg)
			})
		})

		convey.Convey("When folding a prefix", func() {
			agg := l.FoldUpTo(1)
			convey.So(agg.Scores.Top, convey.ShouldEqual, 120)
			convey.So(agg.Rounds, convey.ShouldEqual, 1)
			convey.So(l.FoldUpTo(-4).Rounds, convey.ShouldEqual, 0)
		})
	})
}

func TestReplace(t *testing.T) {
	convey.Convey("Given a ledger of two rounds", t, func() {
		l := filled(2)

		convey.Convey("When a contiguous remote array arrives", func() {
			err := l.Replace([]model.RoundRecord{record(0, 1, 156), record(1, 2, 155), record(2, 3, 154)})
			convey.So(err, convey.ShouldBeNil)
			convey.So(l.Len(), convey.ShouldEqual, 3)
			convey.So(l.Fold().Scores.Top, convey.ShouldEqual, 6)
		})

		convey.Convey("When the remote array has a gap", func() {
			err := l.Replace([]model.RoundRecord{record(0, 1, 156), record(2, 3, 154)})
			convey.So(errors.Is(err, ledger.ErrSequence), convey.ShouldBeTrue)
			convey.So(l.Len(), convey.ShouldEqual, 2)
		})
	})
}
