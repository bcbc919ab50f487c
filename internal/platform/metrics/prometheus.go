package metrics

import (
	"net/http"

	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsManager holds the service's Prometheus metrics.
type MetricsManager struct {
	Registry                 *prometheus.Registry
	TransitionsTotal         *prometheus.CounterVec
	TransitionsRejectedTotal prometheus.Counter
	CounterDeltasTotal       *prometheus.CounterVec
	NotificationsTotal       *prometheus.CounterVec
	AlertSweepErrorsTotal    prometheus.Counter
	MessagesPostedTotal      prometheus.Counter
}

// NewMetricsManager initializes and registers the custom metrics on a fresh
// registry alongside the standard Go and process collectors.
func NewMetricsManager(serviceName string) *MetricsManager {
	registry := prometheus.NewRegistry()

	transitionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "listing_transitions_total",
		Help:      "Total number of applied listing lifecycle transitions.",
	}, []string{"action"})
	transitionsRejectedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "listing_transitions_rejected_total",
		Help:      "Total number of rejected lifecycle transitions.",
	})
	counterDeltasTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "counter_deltas_applied_total",
		Help:      "Total number of counter deltas applied by the ledger.",
	}, []string{"owner"})
	notificationsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "notifications_emitted_total",
		Help:      "Total number of notifications emitted by type.",
	}, []string{"type"})
	alertSweepErrorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "alert_sweep_errors_total",
		Help:      "Total number of errors during saved-search sweeps.",
	})
	messagesPostedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "messages_posted_total",
		Help:      "Total number of conversation messages posted.",
	})

	registry.MustRegister(
		transitionsTotal,
		transitionsRejectedTotal,
		counterDeltasTotal,
		notificationsTotal,
		alertSweepErrorsTotal,
		messagesPostedTotal,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return &MetricsManager{
		Registry:                 registry,
		TransitionsTotal:         transitionsTotal,
		TransitionsRejectedTotal: transitionsRejectedTotal,
		CounterDeltasTotal:       counterDeltasTotal,
		NotificationsTotal:       notificationsTotal,
		AlertSweepErrorsTotal:    alertSweepErrorsTotal,
		MessagesPostedTotal:      messagesPostedTotal,
	}
}

// StartMetricsServer exposes the registry on /metrics. Blocks; run it in its
// own goroutine.
func StartMetricsServer(port string, appLogger *logger.Logger, registry *prometheus.Registry) error {
	if port == "" {
		appLogger.Info("Prometheus metrics server port not configured, server will not start.")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	appLogger.Info("Prometheus metrics server starting", zap.String("port", port), zap.String("path", "/metrics"))

	server := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}
	return server.ListenAndServe()
}
