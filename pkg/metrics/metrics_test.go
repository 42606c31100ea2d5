package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

func counterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return -1
	}
	return m.GetCounter().GetValue()
}

func gaugeValue(g prometheus.Gauge) float64 {
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		return -1
	}
	return m.GetGauge().GetValue()
}

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When a manager registers on it with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithSyncBuckets([]float64{1, 5, 10}),
				WithHTTPBuckets([]float64{10, 100}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			m.roundsFinalized.Inc()

			Convey("Then its collectors are gathered with the custom names", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_unit_rounds_finalized_total"], ShouldBeTrue)
			})
		})

		Convey("When two managers share the registry", func() {
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then the second registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		g := globalManager

		Convey("When a round with strokes is finalized", func() {
			before := counterValue(g.roundsFinalized)
			matsch := counterValue(g.strokesAwarded.WithLabelValues("matsch"))
			RecordRoundFinalized(map[string]int{"matsch": 1})

			Convey("Then the round and the marks are counted", func() {
				So(counterValue(g.roundsFinalized), ShouldEqual, before+1)
				So(counterValue(g.strokesAwarded.WithLabelValues("matsch")), ShouldEqual, matsch+1)
			})
		})

		Convey("When games start and close", func() {
			active := gaugeValue(g.activeSessions)
			RecordGameStarted()
			RecordGameStarted()
			RecordGameClosed("ended")
			So(gaugeValue(g.activeSessions), ShouldEqual, active+1)
		})

		Convey("When the queue reports its size", func() {
			UpdateQueueCapacity(10)
			UpdateQueueSize(5, 10)
			So(gaugeValue(g.queueUtilization), ShouldEqual, 0.5)
		})

		Convey("When no rounds are discarded", func() {
			before := counterValue(g.roundsDiscarded)
			RecordRoundsDiscarded(0)
			RecordRoundsDiscarded(3)
			So(counterValue(g.roundsDiscarded), ShouldEqual, before+3)
		})

		Convey("Then every recorder is safe to call", func() {
			So(func() {
				RecordEdit("requested")
				RecordStrokeConflict()
				RecordInvalidDeclaration()
				RecordDuplicateRequest()
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				UpdateWorkerActiveCount(2)
				RecordSyncLatency(1.5)
				RecordSnapshotPersisted()
				RecordSyncError()
				UpdateStoredGames(4)
				RecordHTTPRequest("/games", "POST", "201")
				RecordHTTPRequestDuration("/games", "POST", "201", 3)
				RecordErrorByComponent("worker", "store")
			}, ShouldNotPanic)
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
