package service_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/okian/jasstafel/internal/adapters/repository"
	service "github.com/okian/jasstafel/internal/app"
	"github.com/okian/jasstafel/internal/domain/gameconfig"
	"github.com/okian/jasstafel/internal/domain/ledger"
	"github.com/okian/jasstafel/internal/domain/model"
	"github.com/okian/jasstafel/internal/domain/session"
	"github.com/okian/jasstafel/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service syncing into a memory store", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		store := repository.NewMemoryStore()
		// One worker keeps the snapshots of a game in order.
		svc := service.New(
			service.WithWorkerCount(1),
			service.WithQueueSize(1000),
			service.WithStore(store),
			service.WithLogger(logger.Get()),
		)
		So(svc.Start(ctx), ShouldBeNil)

		v, err := svc.StartGame(ctx, gameconfig.Overrides{})
		So(err, ShouldBeNil)
		id := v.GameID

		Convey("When rounds are played and the service stops", func() {
			for i, pts := range []int{100, 120, 90} {
				_, _, err := svc.FinalizeRound(ctx, id, fmt.Sprintf("req-%d", i), eicheln(model.TeamTop, pts))
				So(err, ShouldBeNil)
			}
			want, err := svc.View(ctx, id)
			So(err, ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then the store holds the latest snapshot", func() {
				snap, err := svc.Synced(ctx, id)
				So(err, ShouldBeNil)
				So(snap.State, ShouldEqual, string(session.StateLive))
				So(snap.Rounds, ShouldHaveLength, 3)
				So(snap.Aggregate, ShouldResemble, want.Aggregate)
				So(snap.Version, ShouldEqual, 4)
			})
		})

		Convey("When the game is aborted", func() {
			_, _, err := svc.FinalizeRound(ctx, id, "", eicheln(model.TeamTop, 100))
			So(err, ShouldBeNil)
			snap, err := svc.AbortGame(ctx, id)
			So(err, ShouldBeNil)
			So(snap.State, ShouldEqual, string(session.StateAborted))
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then the workers removed it from the store", func() {
				_, err := svc.Synced(ctx, id)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(store.Count(ctx), ShouldEqual, 0)
			})
		})

		Convey("When the game is ended", func() {
			_, _, err := svc.FinalizeRound(ctx, id, "", eicheln(model.TeamBottom, 157))
			So(err, ShouldBeNil)
			_, err = svc.EndGame(ctx, id)
			So(err, ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then its final snapshot is kept", func() {
				snap, err := svc.Synced(ctx, id)
				So(err, ShouldBeNil)
				So(snap.State, ShouldEqual, string(session.StateEnded))
				So(snap.Aggregate.Scores.Bottom, ShouldEqual, 157)
			})
		})
	})

	Convey("Given a service syncing into SQLite", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "jass.db")
		store, err := repository.OpenSQLite(path)
		So(err, ShouldBeNil)

		svc := service.New(service.WithWorkerCount(1), service.WithStore(store))
		So(svc.Start(ctx), ShouldBeNil)

		v, err := svc.StartGame(ctx, gameconfig.Overrides{})
		So(err, ShouldBeNil)
		_, _, err = svc.FinalizeRound(ctx, v.GameID, "", eicheln(model.TeamTop, 100))
		So(err, ShouldBeNil)
		_, err = svc.EndGame(ctx, v.GameID)
		So(err, ShouldBeNil)
		So(svc.Stop(ctx), ShouldBeNil)

		Convey("When the database is reopened", func() {
			reopened, err := repository.OpenSQLite(path)
			So(err, ShouldBeNil)
			defer func() { _ = reopened.Close() }()

			snap, err := reopened.Latest(ctx, v.GameID)

			Convey("Then the ended game survived", func() {
				So(err, ShouldBeNil)
				So(snap.State, ShouldEqual, string(session.StateEnded))
				So(snap.Rounds, ShouldHaveLength, 1)
				So(snap.Aggregate.Scores.Top, ShouldEqual, 100)
			})
		})
	})
}

func TestServiceConcurrency(t *testing.T) {
	Convey("Given a service with concurrent players", t, func() {
		ctx := context.Background()
		svc := startedService(service.WithWorkerCount(4))
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When many games are played in parallel", func() {
			const games, rounds = 8, 10
			ids := make([]string, games)
			var wg sync.WaitGroup
			errs := make(chan error, games*rounds)
			for g := 0; g < games; g++ {
				v, err := svc.StartGame(ctx, gameconfig.Overrides{})
				So(err, ShouldBeNil)
				ids[g] = v.GameID
				wg.Add(1)
				go func(id string) {
					defer wg.Done()
					for r := 0; r < rounds; r++ {
						if _, _, err := svc.FinalizeRound(ctx, id, "", eicheln(model.TeamTop, 10+r)); err != nil {
							errs <- err
						}
					}
				}(ids[g])
			}
			wg.Wait()
			close(errs)

			Convey("Then every game has its own contiguous ledger", func() {
				So(len(errs), ShouldEqual, 0)
				for _, id := range ids {
					v, err := svc.View(ctx, id)
					So(err, ShouldBeNil)
					So(v.Rounds, ShouldHaveLength, rounds)
					So(v.Aggregate, ShouldResemble, ledger.FoldPrefix(v.Rounds, len(v.Rounds)))
				}
			})
		})

		Convey("When one game receives submissions from many goroutines", func() {
			v, err := svc.StartGame(ctx, gameconfig.Overrides{})
			So(err, ShouldBeNil)

			var wg sync.WaitGroup
			for g := 0; g < 4; g++ {
				wg.Add(1)
				go func(g int) {
					defer wg.Done()
					for r := 0; r < 5; r++ {
						// Duplicates across goroutines collapse into one round.
						_, _, _ = svc.FinalizeRound(ctx, v.GameID, fmt.Sprintf("req-%d", r), eicheln(model.TeamBottom, 50))
						_, _, _ = svc.FinalizeRound(ctx, v.GameID, fmt.Sprintf("g%d-req-%d", g, r), eicheln(model.TeamTop, 50))
					}
				}(g)
			}
			wg.Wait()

			Convey("Then access is serialized per game", func() {
				got, err := svc.View(ctx, v.GameID)
				So(err, ShouldBeNil)
				So(got.Rounds, ShouldHaveLength, 5+4*5)
				for i, rec := range got.Rounds {
					So(rec.SequenceNumber, ShouldEqual, i)
				}
			})
		})
	})
}
