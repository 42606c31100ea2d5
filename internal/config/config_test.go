package config_test

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/okian/jasstafel/internal/config"
	"github.com/okian/jasstafel/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 4096)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			convey.So(cfg.StoreDriver, convey.ShouldEqual, "memory")
			convey.So(cfg.ScoreSieg, convey.ShouldEqual, 2500)
			convey.So(cfg.ScoreBerg, convey.ShouldEqual, 1250)
			convey.So(cfg.ScoreSchneider, convey.ShouldEqual, 1250)
			convey.So(cfg.TrumpMultipliers["une"], convey.ShouldEqual, 6)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the game config mirrors the defaults", func() {
			gc, err := cfg.GameConfig()
			convey.So(err, convey.ShouldBeNil)
			convey.So(gc.Score().Sieg, convey.ShouldEqual, 2500)
			convey.So(gc.HighestMultiplier(), convey.ShouldEqual, 6)
			convey.So(gc.KontermatschEnabled(), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a config with custom rules", t, func() {
		cfg := config.New(context.Background())
		cfg.ScoreSieg = 1000
		cfg.ScoreBerg = 500
		cfg.SchneiderEnabled = false
		cfg.StrokeKontermatsch = 0
		cfg.TrumpMultipliers = map[string]int{"Quer": 7}

		convey.Convey("Then the game config applies them", func() {
			gc, err := cfg.GameConfig()
			convey.So(err, convey.ShouldBeNil)
			convey.So(gc.Score().Sieg, convey.ShouldEqual, 1000)
			convey.So(gc.Score().SchneiderEnabled, convey.ShouldBeFalse)
			convey.So(gc.KontermatschEnabled(), convey.ShouldBeFalse)
			convey.So(gc.Trump(model.TrumpQuer).Multiplier, convey.ShouldEqual, 7)
			convey.So(gc.HighestMultiplier(), convey.ShouldEqual, 7)
		})
	})

	convey.Convey("Given invalid rules", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("When a trump is unknown", func() {
			cfg.TrumpMultipliers = map[string]int{"joker": 2}
			_, err := cfg.GameConfig()

			convey.Convey("Then it is rejected as invalid config", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(errors.Is(err, model.ErrUnknownTrump), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When berg is not below sieg", func() {
			cfg.ScoreBerg = cfg.ScoreSieg
			err := cfg.Validate()

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When sqlite is selected without a path", func() {
			cfg.StoreDriver = "sqlite"
			cfg.StorePath = " "
			err := cfg.Validate()

			convey.Convey("Then validation fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "store_path")
			})
		})

		convey.Convey("When the store driver is unknown", func() {
			cfg.StoreDriver = "redis"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the log format is unknown", func() {
			cfg.LogFormat = "xml"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}
