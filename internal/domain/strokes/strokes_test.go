package strokes_test

import (
	"errors"
	"testing"

	"github.com/okian/jasstafel/internal/domain/gameconfig"
	"github.com/okian/jasstafel/internal/domain/model"
	"github.com/okian/jasstafel/internal/domain/scoring"
	"github.com/okian/jasstafel/internal/domain/strokes"
	. "github.com/smartystreets/goconvey/convey"
)

func aggregate(top, bottom int, held ...model.StrokeEvent) model.AggregateState {
	agg := model.AggregateState{
		Scores:      model.TeamPoints{Top: top, Bottom: bottom},
		StrokeTally: model.NewStrokeTally(),
	}
	for _, ev := range held {
		agg.StrokeTally.For(ev.Team)[ev.Kind] += ev.Marks
	}
	return agg
}

func TestMilestone(t *testing.T) {
	Convey("Given the default thresholds", t, func() {
		ev := strokes.NewEvaluator(gameconfig.Default())

		Convey("When nobody has reached the berg", func() {
			m := ev.Milestone(model.TeamTop, model.TeamPoints{Top: 1000, Bottom: 900})
			So(m.Title, ShouldEqual, model.StrokeBerg)
			So(m.Remaining, ShouldEqual, 250)
		})

		Convey("When the opponent is over the berg", func() {
			m := ev.Milestone(model.TeamTop, model.TeamPoints{Top: 700, Bottom: 1300})
			So(m.Title, ShouldEqual, model.StrokeSchneider)
			So(m.Remaining, ShouldEqual, 550)
		})

		Convey("When the team itself is over the berg", func() {
			m := ev.Milestone(model.TeamBottom, model.TeamPoints{Top: 1300, Bottom: 1400})
			So(m.Title, ShouldEqual, model.StrokeSieg)
			So(m.Remaining, ShouldEqual, 1100)
		})

		Convey("When the team is past the sieg", func() {
			m := ev.Milestone(model.TeamBottom, model.TeamPoints{Bottom: 2600})
			So(m.Remaining, ShouldEqual, 0)
		})
	})

	Convey("Given berg disabled", t, func() {
		score := gameconfig.DefaultScoreSettings()
		score.BergEnabled = false
		cfg, err := gameconfig.New(gameconfig.WithScoreSettings(score))
		So(err, ShouldBeNil)
		ev := strokes.NewEvaluator(cfg)

		Convey("Then sieg is the only milestone", func() {
			m := ev.Milestone(model.TeamTop, model.TeamPoints{Top: 100, Bottom: 2000})
			So(m.Title, ShouldEqual, model.StrokeSieg)
			So(m.Remaining, ShouldEqual, 2400)
		})
	})

	Convey("Given schneider disabled and the opponent over the berg", t, func() {
		score := gameconfig.DefaultScoreSettings()
		score.SchneiderEnabled = false
		cfg, err := gameconfig.New(gameconfig.WithScoreSettings(score))
		So(err, ShouldBeNil)

		m := strokes.NewEvaluator(cfg).Milestone(model.TeamTop, model.TeamPoints{Top: 100, Bottom: 1300})
		So(m.Title, ShouldEqual, model.StrokeSieg)
	})
}

func TestToggle(t *testing.T) {
	Convey("Given an empty board", t, func() {
		ev := strokes.NewEvaluator(gameconfig.Default())
		p := strokes.NewPending()
		agg := aggregate(0, 0)

		Convey("When top declares a berg", func() {
			active, err := ev.Toggle(p, model.StrokeBerg, model.TeamTop, agg)
			So(err, ShouldBeNil)
			So(active, ShouldBeTrue)

			Convey("Then bottom cannot declare one", func() {
				_, err := ev.Toggle(p, model.StrokeBerg, model.TeamBottom, agg)
				So(errors.Is(err, strokes.ErrStrokeConflict), ShouldBeTrue)
				So(p.Has(model.TeamBottom, model.StrokeBerg), ShouldBeFalse)
			})

			Convey("Then toggling again clears it and frees it for bottom", func() {
				active, err := ev.Toggle(p, model.StrokeBerg, model.TeamTop, agg)
				So(err, ShouldBeNil)
				So(active, ShouldBeFalse)

				active, err = ev.Toggle(p, model.StrokeBerg, model.TeamBottom, agg)
				So(err, ShouldBeNil)
				So(active, ShouldBeTrue)
			})

			Convey("Then a sieg can stand on it", func() {
				_, err := ev.Toggle(p, model.StrokeSieg, model.TeamTop, agg)
				So(err, ShouldBeNil)
				So(p.Events(), ShouldHaveLength, 2)

				Convey("And clearing the berg drops the sieg", func() {
					_, err := ev.Toggle(p, model.StrokeBerg, model.TeamTop, agg)
					So(err, ShouldBeNil)
					So(p.Events(), ShouldBeEmpty)
				})
			})
		})

		Convey("When a sieg is declared without any berg", func() {
			_, err := ev.Toggle(p, model.StrokeSieg, model.TeamTop, agg)
			So(errors.Is(err, strokes.ErrBergRequired), ShouldBeTrue)
		})

		Convey("When a matsch is declared by hand", func() {
			_, err := ev.Toggle(p, model.StrokeMatsch, model.TeamTop, agg)
			So(errors.Is(err, strokes.ErrNotDeclarable), ShouldBeTrue)
		})
	})

	Convey("Given a berg already on the ledger for top", t, func() {
		ev := strokes.NewEvaluator(gameconfig.Default())
		p := strokes.NewPending()
		agg := aggregate(1300, 400, model.StrokeEvent{Team: model.TeamTop, Kind: model.StrokeBerg, Marks: 1})

		Convey("Then bottom conflicts with it", func() {
			_, err := ev.Toggle(p, model.StrokeBerg, model.TeamBottom, agg)
			So(errors.Is(err, strokes.ErrStrokeConflict), ShouldBeTrue)
		})

		Convey("Then top cannot receive it twice", func() {
			_, err := ev.Toggle(p, model.StrokeBerg, model.TeamTop, agg)
			So(errors.Is(err, strokes.ErrStrokeConflict), ShouldBeTrue)
		})

		Convey("Then either team may declare a sieg", func() {
			_, err := ev.Toggle(p, model.StrokeSieg, model.TeamBottom, agg)
			So(err, ShouldBeNil)
		})

		Convey("When the ledger loses the berg", func() {
			_, err := ev.Toggle(p, model.StrokeSieg, model.TeamTop, agg)
			So(err, ShouldBeNil)
			dropped := ev.Revalidate(p, aggregate(0, 0))

			Convey("Then the pending sieg is dropped", func() {
				So(dropped, ShouldHaveLength, 1)
				So(dropped[0].Kind, ShouldEqual, model.StrokeSieg)
				So(p.Events(), ShouldBeEmpty)
			})
		})
	})
}

func TestDerive(t *testing.T) {
	Convey("Given a clean sweep at multiplier 4", t, func() {
		ev := strokes.NewEvaluator(gameconfig.Default())
		decl := model.RoundDeclaration{
			CallingTeam:  model.TeamBottom,
			Trump:        model.TrumpDeclaration{TrumpID: model.TrumpSchilten, Multiplier: 4},
			IsCleanSweep: true,
		}
		split, err := scoring.ComputeSplit(decl)
		So(err, ShouldBeNil)

		Convey("When it is a regular sweep", func() {
			events := ev.Derive(strokes.RoundInput{Declaration: decl, Split: split, Before: aggregate(0, 0)})

			Convey("Then exactly one matsch is recorded for the calling team", func() {
				So(events, ShouldResemble, []model.StrokeEvent{
					{Team: model.TeamBottom, Kind: model.StrokeMatsch, Marks: strokes.MatschMarks},
				})
			})
		})

		Convey("When it is a counter sweep", func() {
			decl.Counter = true
			events := ev.Derive(strokes.RoundInput{Declaration: decl, Split: split, Before: aggregate(0, 0)})
			So(events, ShouldHaveLength, 1)
			So(events[0].Kind, ShouldEqual, model.StrokeKontermatsch)
			So(events[0].Marks, ShouldEqual, gameconfig.DefaultKontermatschMarks)
		})

		Convey("When kontermatsch is disabled", func() {
			cfg, err := gameconfig.New(gameconfig.WithStrokeSettings(gameconfig.StrokeSettings{Schneider: 2}))
			So(err, ShouldBeNil)
			decl.Counter = true
			events := strokes.NewEvaluator(cfg).Derive(strokes.RoundInput{Declaration: decl, Split: split, Before: aggregate(0, 0)})
			So(events[0].Kind, ShouldEqual, model.StrokeMatsch)
		})
	})

	Convey("Given a pending sieg", t, func() {
		ev := strokes.NewEvaluator(gameconfig.Default())
		before := aggregate(2400, 500, model.StrokeEvent{Team: model.TeamTop, Kind: model.StrokeBerg, Marks: 1})
		p := strokes.NewPending()
		_, err := ev.Toggle(p, model.StrokeSieg, model.TeamTop, before)
		So(err, ShouldBeNil)

		decl := model.RoundDeclaration{
			CallingTeam:    model.TeamTop,
			Trump:          model.TrumpDeclaration{TrumpID: model.TrumpEicheln, Multiplier: 1},
			DeclaredPoints: 120,
		}
		split, err := scoring.ComputeSplit(decl)
		So(err, ShouldBeNil)

		Convey("When the opponent stays under the schneider threshold", func() {
			events := ev.Derive(strokes.RoundInput{Declaration: decl, Split: split, Before: before, Pending: p})

			Convey("Then the winner also receives a schneider", func() {
				So(events, ShouldResemble, []model.StrokeEvent{
					{Team: model.TeamTop, Kind: model.StrokeSieg, Marks: strokes.SiegMarks},
					{Team: model.TeamTop, Kind: model.StrokeSchneider, Marks: gameconfig.DefaultSchneiderMarks},
				})
			})
		})

		Convey("When weis lifts the opponent over the threshold", func() {
			events := ev.Derive(strokes.RoundInput{
				Declaration: decl,
				Split:       split,
				Before:      before,
				Pending:     p,
				Weis:        model.TeamPoints{Bottom: 800},
			})
			So(events, ShouldHaveLength, 1)
			So(events[0].Kind, ShouldEqual, model.StrokeSieg)
		})
	})
}
