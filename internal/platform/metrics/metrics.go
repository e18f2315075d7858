package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fortuna/stintstats/internal/stints"
)

// Game outcomes.
const (
	OutcomeProcessed = "processed"
	OutcomeNotReady  = "not_ready"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

// Metrics holds the Prometheus collectors of the service.
type Metrics struct {
	registry               *prometheus.Registry
	gamesTotal             *prometheus.CounterVec
	substitutionWarnings   *prometheus.CounterVec
	reconciliationMismatch prometheus.Counter
	requestsTotal          *prometheus.CounterVec
	gameDuration           prometheus.Histogram
	activeBackfillJobs     prometheus.Gauge
	websocketClients       prometheus.Gauge
}

// New creates and registers the collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		gamesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stintstats_games_total",
			Help: "Games handled by the batch, by outcome",
		}, []string{"outcome"}),
		substitutionWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stintstats_substitution_warnings_total",
			Help: "Inconsistent substitution records seen while segmenting, by kind",
		}, []string{"kind"}),
		reconciliationMismatch: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stintstats_reconciliation_mismatches_total",
			Help: "Processed games whose totals disagree with the final score or roster",
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stintstats_http_requests_total",
			Help: "HTTP requests served, by status class",
		}, []string{"class"}),
		gameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stintstats_game_processing_seconds",
			Help:    "Time to fetch, process and store one game",
			Buckets: prometheus.DefBuckets,
		}),
		activeBackfillJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stintstats_backfill_active_jobs",
			Help: "Backfill jobs currently running",
		}),
		websocketClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stintstats_websocket_clients",
			Help: "Connected websocket clients",
		}),
	}

	registry.MustRegister(
		m.gamesTotal,
		m.substitutionWarnings,
		m.reconciliationMismatch,
		m.requestsTotal,
		m.gameDuration,
		m.activeBackfillJobs,
		m.websocketClients,
		prometheus.NewGoCollector(),
	)

	return m
}

// Registry exposes the registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// IncGame counts a game outcome.
func (m *Metrics) IncGame(outcome string) {
	m.gamesTotal.WithLabelValues(outcome).Inc()
}

// ObserveGame records how long a game took, in seconds.
func (m *Metrics) ObserveGame(seconds float64) {
	m.gameDuration.Observe(seconds)
}

// IncReconciliationMismatch counts a game that failed reconciliation.
func (m *Metrics) IncReconciliationMismatch() {
	m.reconciliationMismatch.Inc()
}

// SetActiveBackfillJobs sets the running job gauge.
func (m *Metrics) SetActiveBackfillJobs(n int) {
	m.activeBackfillJobs.Set(float64(n))
}

// SetWebsocketClients sets the websocket client gauge.
func (m *Metrics) SetWebsocketClients(n int) {
	m.websocketClients.Set(float64(n))
}

// WarningSink counts substitution warnings by kind.
func (m *Metrics) WarningSink() stints.WarningSink {
	return stints.WarningSinkFunc(func(w stints.Warning) {
		m.substitutionWarnings.WithLabelValues(string(w.Kind)).Inc()
	})
}

// Handler serves the registry. updateGauges runs before each scrape.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	inner := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		inner.ServeHTTP(w, r)
	})
}
