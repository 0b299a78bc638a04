package alert

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"nids-alert-engine/internal/model"
)

// Metrics holds the engine's Prometheus instruments, registered on their
// own registry so the exporter exposes only engine metrics.
type Metrics struct {
	registry *prometheus.Registry

	EventsTotal     prometheus.Counter
	AlertsTotal     *prometheus.CounterVec
	SuppressedTotal prometheus.Counter
	DispatchErrors  prometheus.Counter
	Subscribers     prometheus.Gauge
}

// NewMetrics creates and registers the engine metric set.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		EventsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "nids_alert_events_total",
			Help: "Classification events processed by the alert engine",
		}),
		AlertsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nids_alerts_total",
			Help: "Alerts generated, by severity and category",
		}, []string{"severity", "category"}),
		SuppressedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "nids_alerts_suppressed_total",
			Help: "Duplicate alerts suppressed from the live feed",
		}),
		DispatchErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "nids_alert_dispatch_errors_total",
			Help: "Alert action failures (persistence, notification channels)",
		}),
		Subscribers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "nids_alert_subscribers",
			Help: "Currently connected live alert subscribers",
		}),
	}
}

// ObserveAlert records one generated alert.
func (m *Metrics) ObserveAlert(a *model.Alert) {
	m.AlertsTotal.WithLabelValues(string(a.Severity), string(a.Category)).Inc()
}

// MetricsExporter serves the engine metrics over HTTP
type MetricsExporter struct {
	server *http.Server
	logger *logrus.Logger
	port   string
}

// NewMetricsExporter creates the exporter for the given metric set
func NewMetricsExporter(port string, metrics *Metrics, logger *logrus.Logger) *MetricsExporter {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	return &MetricsExporter{
		server: server,
		logger: logger,
		port:   port,
	}
}

// Start runs the exporter until the context is cancelled
func (e *MetricsExporter) Start(ctx context.Context) error {
	e.logger.Infof("Starting metrics exporter on port %s", e.port)
	e.logger.Infof("Metrics available at: http://localhost:%s/metrics", e.port)

	go func() {
		if err := e.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			e.logger.Errorf("Failed to start metrics exporter: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	e.logger.Info("Shutting down metrics exporter...")
	return e.server.Shutdown(shutdownCtx)
}
