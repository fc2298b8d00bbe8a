package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then every collector is registered under the namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.rankingsLoaded.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)

				found := false
				for _, f := range families {
					if f.GetName() == "test_unit_rankings_loaded_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When creating two managers on the same registry", func() {
			registry := prometheus.NewRegistry()
			_ = NewManager(WithPrometheusRegistry(registry))

			Convey("Then the second registration panics", func() {
				So(func() { _ = NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		Convey("When recording ranking loads", func() {
			before := testutil.ToFloat64(globalManager.rankingsLoaded)
			RecordRankingLoaded()
			RecordRankingLoaded()

			Convey("Then the counter grows", func() {
				So(testutil.ToFloat64(globalManager.rankingsLoaded), ShouldEqual, before+2)
			})
		})

		Convey("When updating gauges", func() {
			UpdateRankingsTotal(4)
			UpdateAthletesTotal(120)
			UpdateQueueSize(3)
			UpdateQueueCapacity(64)
			UpdateWorkerCount(8)

			Convey("Then the gauges hold the last value", func() {
				So(testutil.ToFloat64(globalManager.rankingsTotal), ShouldEqual, 4)
				So(testutil.ToFloat64(globalManager.athletesTotal), ShouldEqual, 120)
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 64)
				So(testutil.ToFloat64(globalManager.workerCount), ShouldEqual, 8)
			})
		})

		Convey("When recording labelled counters", func() {
			before := testutil.ToFloat64(globalManager.rowsSkipped.WithLabelValues("year_filter"))
			RecordRowSkipped("year_filter")
			RecordQueueEnqueueError("closed")
			RecordHTTPRequest("rankings", "GET", "200")
			RecordErrorByEndpoint("rankings", "GET", "not_found")
			RecordErrorByType("not_found", "medium")

			Convey("Then the labelled series are incremented", func() {
				So(testutil.ToFloat64(globalManager.rowsSkipped.WithLabelValues("year_filter")), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.queueEnqueueErrors.WithLabelValues("closed")), ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(globalManager.httpRequests.WithLabelValues("rankings", "GET", "200")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When observing histograms", func() {
			Convey("Then nothing panics", func() {
				So(func() {
					RecordRankingLoadLatency(12)
					RecordWorkerProcessingLatency(3)
					RecordHTTPRequestDuration("rankings", "GET", "200", 1.5)
					RecordSystemGCPauseTime(0.2)
					UpdateSystemMemoryUsage(1 << 20)
					UpdateSystemGoroutineCount(10)
				}, ShouldNotPanic)
			})
		})

		Convey("When reading the registry", func() {
			Convey("Then it is the custom one", func() {
				So(GetRegistry(), ShouldEqual, customRegistry)
			})
		})
	})
}
