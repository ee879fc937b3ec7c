package metrics

import (
	"net/http"

	"contrib.go.opencensus.io/exporter/prometheus"
	"go.opencensus.io/stats/view"

	"go-relay-hub/internal/infrastructure/logger"
)

// NewPrometheusHandler registers a Prometheus exporter for the relay views and
// returns the handler that serves the scrape endpoint. The caller mounts it;
// no listener is started here.
func NewPrometheusHandler(prefix string, log logger.Logger) (http.Handler, error) {
	if err := RegisterViews(); err != nil {
		return nil, err
	}
	if prefix == "" {
		prefix = defaultMetricsPrefix
	}

	metricsLogger := log.WithField("component", "metrics")
	exporter, err := prometheus.NewExporter(prometheus.Options{
		Namespace: prefix,
		OnError: func(e error) {
			metricsLogger.Errorf("Prometheus exporter error: %s", e)
		},
	})
	if err != nil {
		return nil, err
	}

	view.RegisterExporter(exporter)
	return exporter, nil
}
