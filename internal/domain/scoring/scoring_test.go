package scoring_test

import (
	"errors"
	"testing"

	"github.com/okian/jasstafel/internal/domain/model"
	scoring "github.com/okian/jasstafel/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func declare(points, multiplier int) model.RoundDeclaration {
	return model.RoundDeclaration{
		CallingTeam:    model.TeamBottom,
		Trump:          model.TrumpDeclaration{TrumpID: model.TrumpSchellen, Multiplier: multiplier},
		DeclaredPoints: points,
	}
}

func TestComputeSplit(t *testing.T) {
	Convey("Given a regular declaration", t, func() {
		Convey("When 80 points are declared at multiplier 3", func() {
			split, err := scoring.ComputeSplit(declare(80, 3))

			Convey("Then the split is 240 to 231", func() {
				So(err, ShouldBeNil)
				So(split.TeamPoints, ShouldEqual, 240)
				So(split.OpponentPoints, ShouldEqual, 231)
				So(split.TeamPoints+split.OpponentPoints, ShouldEqual, 471)
			})
		})

		Convey("When every point value between 1 and 156 is declared", func() {
			Convey("Then the total is conserved for every multiplier", func() {
				for m := 1; m <= 7; m++ {
					for p := 1; p <= 156; p++ {
						split, err := scoring.ComputeSplit(declare(p, m))
						So(err, ShouldBeNil)
						So(split.TeamPoints+split.OpponentPoints, ShouldEqual, scoring.MaxPoints*m)
					}
				}
			})
		})

		Convey("When the full 157 are declared", func() {
			split, err := scoring.ComputeSplit(declare(157, 2))
			So(err, ShouldBeNil)
			So(split.TeamPoints, ShouldEqual, 314)
			So(split.OpponentPoints, ShouldEqual, 0)
		})
	})

	Convey("Given a shutout", t, func() {
		split, err := scoring.ComputeSplit(declare(0, 2))

		Convey("Then the opponents receive all 157 points", func() {
			So(err, ShouldBeNil)
			So(split.TeamPoints, ShouldEqual, 0)
			So(split.OpponentPoints, ShouldEqual, 314)
			So(split.For(model.TeamTop, model.TeamBottom), ShouldEqual, 314)
		})
	})

	Convey("Given a clean sweep", t, func() {
		decl := declare(0, 4)
		decl.IsCleanSweep = true
		split, err := scoring.ComputeSplit(decl)

		Convey("Then the calling team receives 257 per multiplier step", func() {
			So(err, ShouldBeNil)
			So(split.TeamPoints, ShouldEqual, 1028)
			So(split.OpponentPoints, ShouldEqual, 0)
		})

		Convey("And declaring the full 157 alongside it is rejected", func() {
			decl.DeclaredPoints = scoring.MaxPoints
			_, err := scoring.ComputeSplit(decl)
			So(errors.Is(err, scoring.ErrInvalidDeclaration), ShouldBeTrue)
			So(errors.Is(scoring.Validate(decl), scoring.ErrInvalidDeclaration), ShouldBeTrue)
		})
	})

	Convey("Given invalid declarations", t, func() {
		cases := map[string]model.RoundDeclaration{
			"disabled trump":      declare(80, 0),
			"negative points":     declare(-1, 2),
			"points above 157":    declare(158, 2),
			"unknown trump":       {CallingTeam: model.TeamTop, Trump: model.TrumpDeclaration{TrumpID: "spades", Multiplier: 1}, DeclaredPoints: 10},
			"unknown team":        {CallingTeam: "left", Trump: model.TrumpDeclaration{TrumpID: model.TrumpObe, Multiplier: 1}, DeclaredPoints: 10},
			"sweep with 80":       {CallingTeam: model.TeamTop, Trump: model.TrumpDeclaration{TrumpID: model.TrumpObe, Multiplier: 1}, DeclaredPoints: 80, IsCleanSweep: true},
			"counter w/o a sweep": {CallingTeam: model.TeamTop, Trump: model.TrumpDeclaration{TrumpID: model.TrumpObe, Multiplier: 1}, DeclaredPoints: 80, Counter: true},
		}
		for name, decl := range cases {
			Convey("When the declaration has "+name, func() {
				_, err := scoring.ComputeSplit(decl)
				So(errors.Is(err, scoring.ErrInvalidDeclaration), ShouldBeTrue)
			})
		}
	})
}
