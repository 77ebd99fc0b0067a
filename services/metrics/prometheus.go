package metricsvc

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/shule/core"
)

const namespace = "shule"

// PrometheusMetrics keeps its collectors on a private registry so several instances (tests) can coexist.
type PrometheusMetrics struct {
	registry   *prometheus.Registry
	activities *prometheus.CounterVec
	attendance *prometheus.CounterVec
}

var _ core.Metrics = (*PrometheusMetrics)(nil)

func NewPrometheusMetrics() *PrometheusMetrics {
	m := &PrometheusMetrics{
		registry: prometheus.NewRegistry(),
		activities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activities_total",
			Help:      "Activities logged, by kind.",
		}, []string{"kind"}),
		attendance: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attendance_records_total",
			Help:      "Attendance records saved, by presence.",
		}, []string{"status"}),
	}
	m.registry.MustRegister(
		m.activities,
		m.attendance,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *PrometheusMetrics) ActivityLogged(kind string) {
	m.activities.WithLabelValues(kind).Inc()
}

func (m *PrometheusMetrics) AttendanceRecorded(present, absent int) {
	m.attendance.WithLabelValues("present").Add(float64(present))
	m.attendance.WithLabelValues("absent").Add(float64(absent))
}

// Handler exposes the registry in the Prometheus text format.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Nop discards everything.
type Nop struct{}

var _ core.Metrics = Nop{}

func (Nop) ActivityLogged(string)       {}
func (Nop) AttendanceRecorded(int, int) {}
