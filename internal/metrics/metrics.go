package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like.
// All methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	simulations        prometheus.Counter
	validationFailures *prometheus.CounterVec
	reportsRendered    prometheus.Counter
	mailDispatches     *prometheus.CounterVec
	cacheLookups       *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roi_http_requests_total",
				Help: "Total number of HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "roi_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		simulations: factory.NewCounter(prometheus.CounterOpts{
			Name: "roi_simulations_total",
			Help: "Total number of successful ROI calculations",
		}),
		validationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roi_validation_failures_total",
				Help: "Total number of rejected inputs by endpoint",
			},
			[]string{"endpoint"},
		),
		reportsRendered: factory.NewCounter(prometheus.CounterOpts{
			Name: "roi_reports_rendered_total",
			Help: "Total number of PDF reports rendered",
		}),
		mailDispatches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roi_mail_dispatches_total",
				Help: "Total number of report mails by outcome",
			},
			[]string{"outcome"},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roi_scenario_cache_lookups_total",
				Help: "Scenario cache lookups by result",
			},
			[]string{"result"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func (m *Metrics) SimulationComputed() {
	if m == nil {
		return
	}
	m.simulations.Inc()
}

func (m *Metrics) ValidationFailed(endpoint string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) ReportRendered() {
	if m == nil {
		return
	}
	m.reportsRendered.Inc()
}

// MailDispatched records "sent", "failed" or "skipped".
func (m *Metrics) MailDispatched(outcome string) {
	if m == nil {
		return
	}
	m.mailDispatches.WithLabelValues(outcome).Inc()
}

// CacheLookup records "hit", "miss" or "error".
func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
