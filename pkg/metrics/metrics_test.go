package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

func findFamily(reg *prometheus.Registry, name string) *dto.MetricFamily {
	families, err := reg.Gather()
	So(err, ShouldBeNil)
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When applied to a manager", func() {
			registry := prometheus.NewRegistry()
			m := NewManager(
				WithNamespace("school"),
				WithSubsystem("grades"),
				WithMetricPrefix("test"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithMetricsEnabled(false),
				WithRefreshInterval(5*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the manager reflects them", func() {
				So(m.namespace, ShouldEqual, "school")
				So(m.subsystem, ShouldEqual, "grades")
				So(m.histogramBuckets, ShouldResemble, []float64{1, 10, 100})
				So(m.Enabled(), ShouldBeFalse)
				So(m.RefreshInterval(), ShouldEqual, 5*time.Second)
			})

			Convey("And metric names carry the prefix and constant labels", func() {
				m.evaluationsNormalized.Add(2)
				f := findFamily(registry, "school_grades_test_evaluations_normalized_total")
				So(f, ShouldNotBeNil)
				So(f.GetMetric()[0].GetCounter().GetValue(), ShouldEqual, 2)
				labels := f.GetMetric()[0].GetLabel()
				So(len(labels), ShouldEqual, 1)
				So(labels[0].GetName(), ShouldEqual, "env")
				So(labels[0].GetValue(), ShouldEqual, "test")
			})
		})

		Convey("When empty values are passed", func() {
			m := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithRefreshInterval(0),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults are kept", func() {
				So(m.namespace, ShouldEqual, defaultNamespace)
				So(m.subsystem, ShouldEqual, defaultSubsystem)
				So(m.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
				So(m.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		reg := GetRegistry()

		Convey("When recording analysis metrics", func() {
			before := findFamily(reg, "brevet_analyzer_evaluations_normalized_total")
			var start float64
			if before != nil {
				start = before.GetMetric()[0].GetCounter().GetValue()
			}

			RecordAnalysis(OutcomeSuccess)
			RecordEvaluationsNormalized(3)
			RecordEvaluationsNormalized(0)
			RecordEvaluationSkipped("invalid_grade")
			RecordAnalysisLatency(1.5)
			UpdateLastSocle(320)
			UpdateLastSubjectCount(4)

			Convey("Then the registry exposes them", func() {
				f := findFamily(reg, "brevet_analyzer_evaluations_normalized_total")
				So(f, ShouldNotBeNil)
				So(f.GetMetric()[0].GetCounter().GetValue(), ShouldEqual, start+3)

				g := findFamily(reg, "brevet_analyzer_last_socle_points")
				So(g, ShouldNotBeNil)
				So(g.GetMetric()[0].GetGauge().GetValue(), ShouldEqual, 320)

				So(findFamily(reg, "brevet_analyzer_analyses_total"), ShouldNotBeNil)
				So(findFamily(reg, "brevet_analyzer_evaluations_skipped_total"), ShouldNotBeNil)
				So(findFamily(reg, "brevet_analyzer_analysis_latency_milliseconds"), ShouldNotBeNil)
			})
		})

		Convey("When recording HTTP and error metrics", func() {
			So(func() {
				RecordHTTPRequest("/analyze", "POST", "200")
				RecordHTTPRequestDuration("/analyze", "POST", "200", 3.2)
				RecordErrorByType("invalid_grade", "warning")
				RecordErrorByEndpoint("/analyze", "POST", "insufficient_data")
				RecordErrorLatency("api", "bad_request", 0.4)
			}, ShouldNotPanic)

			Convey("Then the HTTP counter is present", func() {
				So(findFamily(reg, "brevet_analyzer_http_requests_total"), ShouldNotBeNil)
				So(findFamily(reg, "brevet_analyzer_errors_by_endpoint_total"), ShouldNotBeNil)
			})
		})

		Convey("When recording system metrics", func() {
			So(func() {
				UpdateSystemMemoryUsage(1024 * 1024)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.2)
			}, ShouldNotPanic)

			Convey("Then the goroutine gauge holds the last value", func() {
				f := findFamily(reg, "brevet_analyzer_system_goroutine_count")
				So(f, ShouldNotBeNil)
				So(f.GetMetric()[0].GetGauge().GetValue(), ShouldEqual, 12)
			})
		})

		Convey("Then Global returns the registered manager", func() {
			So(Global(), ShouldNotBeNil)
			So(Global().Enabled(), ShouldBeTrue)
		})
	})
}

func TestConfigure(t *testing.T) {
	Convey("Given a configured global manager", t, func() {
		Reset(func() { Configure() })

		m := Configure(
			WithNamespace("college"),
			WithSubsystem("grades"),
			WithMetricsEnabled(false),
			WithRefreshInterval(time.Minute),
			WithCustomLabels(map[string]string{"school": "jules_ferry"}),
		)

		Convey("Then Global and GetRegistry follow the new manager", func() {
			So(Global(), ShouldEqual, m)
			So(Global().RefreshInterval(), ShouldEqual, time.Minute)
			So(findFamily(GetRegistry(), "brevet_analyzer_evaluations_normalized_total"), ShouldBeNil)
		})

		Convey("Then disabled recorders leave the counters untouched", func() {
			RecordAnalysis(OutcomeSuccess)
			RecordEvaluationsNormalized(4)
			f := findFamily(GetRegistry(), "college_grades_evaluations_normalized_total")
			So(f, ShouldNotBeNil)
			So(f.GetMetric()[0].GetCounter().GetValue(), ShouldEqual, 0)
			So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "jules_ferry")
		})

		Convey("When configured again with the same names", func() {
			So(func() { Configure(WithNamespace("college"), WithSubsystem("grades")) }, ShouldNotPanic)

			Convey("Then recording is back on", func() {
				RecordEvaluationsNormalized(2)
				f := findFamily(GetRegistry(), "college_grades_evaluations_normalized_total")
				So(f.GetMetric()[0].GetCounter().GetValue(), ShouldEqual, 2)
			})
		})
	})
}
