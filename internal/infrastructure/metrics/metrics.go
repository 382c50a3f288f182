// Package metrics expone las métricas Prometheus del libro de stock y del servidor HTTP.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

var _ inventory.Metrics = (*Metrics)(nil)

// Metrics agrupa los collectors sobre un registry propio.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	MovementsRecorded    *prometheus.CounterVec
	MovementsRejected    *prometheus.CounterVec
	MovementsReversed    *prometheus.CounterVec
	ReconciliationDrifts *prometheus.CounterVec
	ReconciliationUnits  *prometheus.CounterVec
}

// New crea y registra todas las métricas bajo el namespace dado.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)
	m.MovementsRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_movements_recorded_total",
			Help:      "Ledger rows written, by movement kind",
		},
		[]string{"kind"},
	)
	m.MovementsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_movements_rejected_total",
			Help:      "Movement operations rejected, by operation and error code",
		},
		[]string{"operation", "code"},
	)
	m.MovementsReversed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_movements_reversed_total",
			Help:      "Ledger rows reversed, by movement kind",
		},
		[]string{"kind"},
	)
	m.ReconciliationDrifts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliation_drifts_total",
			Help:      "Products found with total_stock different from the warehouse sum",
		},
		[]string{"tenant_id"},
	)
	m.ReconciliationUnits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliation_drift_units_total",
			Help:      "Absolute stock units corrected by reconciliation",
		},
		[]string{"tenant_id"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal, m.HTTPRequestDuration,
		m.MovementsRecorded, m.MovementsRejected, m.MovementsReversed,
		m.ReconciliationDrifts, m.ReconciliationUnits,
	)
	return m
}

// MovementRecorded cuenta una fila nueva del libro.
func (m *Metrics) MovementRecorded(kind entity.MovementKind) {
	m.MovementsRecorded.WithLabelValues(string(kind)).Inc()
}

// MovementRejected cuenta una operación rechazada por su código de error.
func (m *Metrics) MovementRejected(operation string, err error) {
	m.MovementsRejected.WithLabelValues(operation, domain.Code(err)).Inc()
}

// MovementReversed cuenta una fila revertida.
func (m *Metrics) MovementReversed(kind entity.MovementKind) {
	m.MovementsReversed.WithLabelValues(string(kind)).Inc()
}

// ReconciliationDrift registra un descuadre encontrado.
func (m *Metrics) ReconciliationDrift(tenantID string, delta int64) {
	m.ReconciliationDrifts.WithLabelValues(tenantID).Inc()
	if delta < 0 {
		delta = -delta
	}
	m.ReconciliationUnits.WithLabelValues(tenantID).Add(float64(delta))
}

// Handler devuelve el handler HTTP de /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry devuelve el registry (tests).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// FiberMiddleware mide cada request por ruta registrada (no por URL, para no explotar cardinalidad).
func (m *Metrics) FiberMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		path := c.Route().Path
		m.HTTPRequestsTotal.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		return err
	}
}
