package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	// AuthAttemptsTotal counts authentication outcomes by the method that
	// resolved them ("external", "internal", "unauthorized", "forbidden").
	AuthAttemptsTotal *prometheus.CounterVec

	// TokenRefreshesTotal counts successful service-account token exchanges.
	TokenRefreshesTotal prometheus.Counter

	// SheetOperationsTotal counts spreadsheet calls by operation and outcome.
	SheetOperationsTotal *prometheus.CounterVec
}

// New creates and registers the service metrics on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		AuthAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sheetgate_auth_attempts_total",
				Help: "Authentication outcomes by resolving method",
			},
			[]string{"result"},
		),
		TokenRefreshesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sheetgate_token_refreshes_total",
				Help: "Successful service-account token exchanges",
			},
		),
		SheetOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sheetgate_sheet_operations_total",
				Help: "Spreadsheet operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
	}

	registry.MustRegister(
		m.AuthAttemptsTotal,
		m.TokenRefreshesTotal,
		m.SheetOperationsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler exposes the registry for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAuth records an authentication outcome.
func (m *Metrics) ObserveAuth(result string) {
	m.AuthAttemptsTotal.WithLabelValues(result).Inc()
}

// ObserveSheetOp records a spreadsheet operation outcome.
func (m *Metrics) ObserveSheetOp(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.SheetOperationsTotal.WithLabelValues(operation, outcome).Inc()
}
