package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors. A nil *Metrics is valid and records nothing,
// so callers never need to guard.
type Metrics struct {
	registry *prometheus.Registry

	events   *prometheus.CounterVec
	upserts  *prometheus.CounterVec
	storage  *prometheus.HistogramVec
	listings *prometheus.CounterVec
}

// New builds collectors on a dedicated registry, plus Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "call_ingest_events_total",
			Help: "Webhook deliveries by event type and outcome.",
		}, []string{"event", "outcome"}),
		upserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "call_ingest_upserts_total",
			Help: "Successful upserts split into created and updated rows.",
		}, []string{"result"}),
		storage: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "call_ingest_storage_seconds",
			Help:    "Latency of storage round trips.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		listings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "call_ingest_list_requests_total",
			Help: "Listing requests by data source.",
		}, []string{"source"}),
	}
	reg.MustRegister(
		m.events,
		m.upserts,
		m.storage,
		m.listings,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer is the underlying registry, for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.registry }

// knownEvents bounds the event label; the value comes straight from the
// request body.
var knownEvents = map[string]bool{
	"call_started":  true,
	"call_ended":    true,
	"call_analyzed": true,
}

// Event counts a delivery. Empty events record as "unknown" and any event
// outside the platform's lifecycle records as "other".
func (m *Metrics) Event(event, outcome string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(eventLabel(event), outcome).Inc()
}

func eventLabel(event string) string {
	switch {
	case event == "":
		return "unknown"
	case knownEvents[event]:
		return event
	default:
		return "other"
	}
}

func (m *Metrics) Upsert(created bool) {
	if m == nil {
		return
	}
	result := "updated"
	if created {
		result = "created"
	}
	m.upserts.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveStorage(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.storage.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) Listing(source string) {
	if m == nil {
		return
	}
	m.listings.WithLabelValues(source).Inc()
}
