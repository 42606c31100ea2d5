package gameconfig_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/okian/jasstafel/internal/domain/gameconfig"
	"github.com/okian/jasstafel/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGameConfig(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		cfg := gameconfig.Default()

		Convey("Then thresholds and conventions match the stock table", func() {
			So(cfg.Score().Sieg, ShouldEqual, gameconfig.DefaultSieg)
			So(cfg.Score().BergEnabled, ShouldBeTrue)
			So(cfg.Stroke().Schneider, ShouldEqual, 2)
			So(cfg.KontermatschEnabled(), ShouldBeTrue)
		})

		Convey("Then the highest multiplier ignores disabled trumps", func() {
			So(cfg.HighestMultiplier(), ShouldEqual, 6)
			So(cfg.Trump(model.TrumpQuer).Multiplier, ShouldEqual, 0)
			So(cfg.EnabledTrumps(), ShouldNotContain, model.TrumpQuer)
		})

		Convey("Then Farbe returns a detached copy", func() {
			f := cfg.Farbe()
			f.Multipliers[model.TrumpUne] = 99
			So(cfg.Trump(model.TrumpUne).Multiplier, ShouldEqual, 6)
		})
	})

	Convey("Given overrides", t, func() {
		Convey("When only one-point trumps are enabled", func() {
			all := map[model.TrumpID]int{}
			for _, id := range model.TrumpIDs() {
				all[id] = 0
			}
			all[model.TrumpEicheln] = 1
			cfg, err := gameconfig.New(gameconfig.WithFarbeSettings(gameconfig.FarbeSettings{Multipliers: all}))
			So(err, ShouldBeNil)
			So(cfg.HighestMultiplier(), ShouldEqual, 1)
			So(cfg.EnabledTrumps(), ShouldResemble, []model.TrumpID{model.TrumpEicheln})
		})

		Convey("When every trump is disabled", func() {
			all := map[model.TrumpID]int{}
			for _, id := range model.TrumpIDs() {
				all[id] = 0
			}
			_, err := gameconfig.New(gameconfig.WithFarbeSettings(gameconfig.FarbeSettings{Multipliers: all}))
			So(errors.Is(err, gameconfig.ErrInvalidSettings), ShouldBeTrue)
		})

		Convey("When berg is above sieg", func() {
			s := gameconfig.DefaultScoreSettings()
			s.Berg = s.Sieg + 1
			_, err := gameconfig.New(gameconfig.WithScoreSettings(s))
			So(errors.Is(err, gameconfig.ErrInvalidSettings), ShouldBeTrue)
		})

		Convey("When berg is disabled its threshold is not checked", func() {
			s := gameconfig.DefaultScoreSettings()
			s.BergEnabled = false
			s.Berg = 0
			_, err := gameconfig.New(gameconfig.WithScoreSettings(s))
			So(err, ShouldBeNil)
		})

		Convey("When stroke marks are out of range", func() {
			_, err := gameconfig.New(gameconfig.WithStrokeSettings(gameconfig.StrokeSettings{Schneider: 3}))
			So(errors.Is(err, gameconfig.ErrInvalidSettings), ShouldBeTrue)
		})

		Convey("When only the sieg threshold is overridden", func() {
			var o gameconfig.Overrides
			So(json.Unmarshal([]byte(`{"score":{"sieg":3000},"stroke":{"schneider":1}}`), &o), ShouldBeNil)
			cfg, err := gameconfig.New(o.Options()...)

			Convey("Then the other settings keep their defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.Score().Sieg, ShouldEqual, 3000)
				So(cfg.Score().Berg, ShouldEqual, gameconfig.DefaultBerg)
				So(cfg.Score().Schneider, ShouldEqual, gameconfig.DefaultSchneider)
				So(cfg.Score().BergEnabled, ShouldBeTrue)
				So(cfg.Score().SchneiderEnabled, ShouldBeTrue)
				So(cfg.Stroke().Schneider, ShouldEqual, 1)
				So(cfg.KontermatschEnabled(), ShouldBeTrue)
			})
		})

		Convey("When a patch is layered over custom defaults", func() {
			base := gameconfig.DefaultScoreSettings()
			base.Sieg = 1500
			base.SchneiderEnabled = false
			off := false
			cfg, err := gameconfig.New(
				gameconfig.WithScorePatch(base.Patch()),
				gameconfig.WithScorePatch(gameconfig.ScorePatch{BergEnabled: &off}),
			)

			Convey("Then only the named field changes", func() {
				So(err, ShouldBeNil)
				So(cfg.Score().Sieg, ShouldEqual, 1500)
				So(cfg.Score().SchneiderEnabled, ShouldBeFalse)
				So(cfg.Score().BergEnabled, ShouldBeFalse)
				So(cfg.Score().Berg, ShouldEqual, gameconfig.DefaultBerg)
			})
		})

		Convey("When an unknown trump is configured", func() {
			_, err := gameconfig.New(gameconfig.WithFarbeSettings(gameconfig.FarbeSettings{
				Multipliers: map[model.TrumpID]int{"spades": 2},
			}))
			So(errors.Is(err, model.ErrUnknownTrump), ShouldBeTrue)
		})
	})
}
