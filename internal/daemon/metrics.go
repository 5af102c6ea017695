package daemon

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"printq/internal/retention"
	"printq/internal/store"
)

// metrics holds the daemon's Prometheus instrumentation. Each daemon owns its
// registry so repeated construction in tests does not collide.
type metrics struct {
	registry *prometheus.Registry

	requests         *prometheus.GaugeVec
	archivedRequests prometheus.Gauge
	cleanupRuns      prometheus.Counter
	cleanupArchived  prometheus.Counter
	cleanupPurged    prometheus.Counter
	artifactsExpired prometheus.Counter
	backupsWritten   prometheus.Counter
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(registry)

	return &metrics{
		registry: registry,
		requests: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "printq_active_requests",
			Help: "Active requests by status.",
		}, []string{"status"}),
		archivedRequests: factory.NewGauge(prometheus.GaugeOpts{
			Name: "printq_archived_requests",
			Help: "Requests currently held in the archive.",
		}),
		cleanupRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "printq_cleanup_runs_total",
			Help: "Completed retention passes.",
		}),
		cleanupArchived: factory.NewCounter(prometheus.CounterOpts{
			Name: "printq_cleanup_archived_total",
			Help: "Requests moved to the archive by retention passes.",
		}),
		cleanupPurged: factory.NewCounter(prometheus.CounterOpts{
			Name: "printq_cleanup_purged_total",
			Help: "Archived requests purged by retention passes.",
		}),
		artifactsExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "printq_artifacts_expired_total",
			Help: "Payload artifacts removed after their expiry window.",
		}),
		backupsWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "printq_backups_written_total",
			Help: "CSV backups written by the scheduler.",
		}),
	}
}

func (m *metrics) observeSummary(summary store.Summary) {
	m.requests.WithLabelValues("queued").Set(float64(summary.Queued))
	m.requests.WithLabelValues("in_progress").Set(float64(summary.InProgress))
	m.requests.WithLabelValues("done").Set(float64(summary.Done))
	m.archivedRequests.Set(float64(summary.Archived))
}

func (m *metrics) observeCleanup(result retention.Result, expired int) {
	m.cleanupRuns.Inc()
	m.cleanupArchived.Add(float64(result.Archived))
	m.cleanupPurged.Add(float64(result.Purged))
	m.artifactsExpired.Add(float64(expired))
}

func (m *metrics) observeBackup() {
	m.backupsWritten.Inc()
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
