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
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "moments")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 2, 3}),
				WithPrometheusRegistry(registry),
			)
			manager.commonsFallbacks.Inc()

			Convey("Then series carry the namespace and subsystem", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_unit_commons_fallbacks_total" {
						found = true
						So(f.GetMetric()[0].GetCounter().GetValue(), ShouldEqual, 1.0)
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When empty options are given", func() {
			manager := NewManager(WithNamespace(""), WithSubsystem(""), WithHistogramBuckets(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()))

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "moments")
				So(manager.subsystem, ShouldEqual, "proxy")
				So(manager.histogramBuckets, ShouldNotBeEmpty)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording pipeline metrics", func() {
			before := testutil.ToFloat64(globalManager.listingsDropped.WithLabelValues("duplicate"))
			RecordListingsDropped("duplicate", 3)
			RecordListingsDropped("duplicate", 0)

			Convey("Then non-positive drops are ignored", func() {
				after := testutil.ToFloat64(globalManager.listingsDropped.WithLabelValues("duplicate"))
				So(after-before, ShouldEqual, 3)
			})
		})

		Convey("When recording upstream metrics", func() {
			before := testutil.ToFloat64(globalManager.upstreamStatusErrors.WithLabelValues("503"))
			RecordUpstreamStatusError(503)
			RecordUpstreamRequest("primary", "status", 12)

			So(testutil.ToFloat64(globalManager.upstreamStatusErrors.WithLabelValues("503"))-before, ShouldEqual, 1)
		})

		Convey("Then every helper can be called without panicking", func() {
			So(func() {
				RecordListingsServed("mixed-v3", 20)
				RecordPipelineFailure("insufficient_data")
				RecordCommonsFallback()
				RecordHTTPRequest("moments", "GET", "200")
				RecordHTTPRequestDuration("moments", "GET", "200", 10)
				RecordErrorByType("server_error", "high")
				RecordErrorByEndpoint("moments", "GET", "server_error")
				RecordErrorLatency("http", "server_error", 5)
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(10)
				RecordSystemGCPauseTime(0.5)
			}, ShouldNotPanic)
		})

		Convey("Then the registry exposes the recorded series", func() {
			RecordCommonsFallback()
			n, err := testutil.GatherAndCount(GetRegistry(), "moments_proxy_commons_fallbacks_total")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
		})
	})
}
