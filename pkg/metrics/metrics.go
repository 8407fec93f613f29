package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics набор коллекторов сервиса.
// Регистрируются в собственном реестре, чтобы несколько экземпляров не конфликтовали.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DBQueryDuration   *prometheus.HistogramVec
	DBOpenConnections prometheus.Gauge
	DBInUse           prometheus.Gauge
	DBIdle            prometheus.Gauge
	DBWaitCount       prometheus.Gauge

	BookingsTotal        *prometheus.CounterVec
	BookingConflicts     prometheus.Counter
	ReconciliationsTotal *prometheus.CounterVec
	UnknownTransactions  prometheus.Counter
	GatewayCallsTotal    *prometheus.CounterVec
	SettlementJobsTotal  *prometheus.CounterVec
}

// New создает и регистрирует коллекторы с префиксом serviceName
func New(serviceName string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		DBQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Name:      "db_query_duration_seconds",
			Help:      "Database query latency",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		DBOpenConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Name:      "db_open_connections",
			Help:      "Open database connections",
		}),
		DBInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Name:      "db_in_use_connections",
			Help:      "Database connections in use",
		}),
		DBIdle: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Name:      "db_idle_connections",
			Help:      "Idle database connections",
		}),
		DBWaitCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Name:      "db_wait_count",
			Help:      "Total number of connections waited for",
		}),
		BookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "booking_transitions_total",
			Help:      "Applied booking transitions",
		}, []string{"transition"}),
		BookingConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "booking_conflicts_total",
			Help:      "Booking attempts rejected because the slot was taken",
		}),
		ReconciliationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "reconciliations_total",
			Help:      "Processed payment notifications by outcome",
		}, []string{"outcome"}),
		UnknownTransactions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "unknown_transactions_total",
			Help:      "Notifications without a matching payment record",
		}),
		GatewayCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "gateway_calls_total",
			Help:      "Payment gateway calls by provider and result",
		}, []string{"provider", "result"}),
		SettlementJobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "settlement_jobs_total",
			Help:      "Settlement job lifecycle events",
		}, []string{"event"}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueryDuration,
		m.DBOpenConnections,
		m.DBInUse,
		m.DBIdle,
		m.DBWaitCount,
		m.BookingsTotal,
		m.BookingConflicts,
		m.ReconciliationsTotal,
		m.UnknownTransactions,
		m.GatewayCallsTotal,
		m.SettlementJobsTotal,
	)

	return m
}

// Handler отдает метрики в формате Prometheus
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry нужен тестам для чтения значений
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Методы ниже безопасны для nil, чтобы сервис работал с выключенными метриками.

func (m *Metrics) IncBookingTransition(transition string) {
	if m == nil {
		return
	}
	m.BookingsTotal.WithLabelValues(transition).Inc()
}

func (m *Metrics) IncBookingConflict() {
	if m == nil {
		return
	}
	m.BookingConflicts.Inc()
}

func (m *Metrics) IncReconciliation(outcome string) {
	if m == nil {
		return
	}
	m.ReconciliationsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncUnknownTransaction() {
	if m == nil {
		return
	}
	m.UnknownTransactions.Inc()
}

func (m *Metrics) IncGatewayCall(provider, result string) {
	if m == nil {
		return
	}
	m.GatewayCallsTotal.WithLabelValues(provider, result).Inc()
}

func (m *Metrics) IncSettlementJob(event string) {
	if m == nil {
		return
	}
	m.SettlementJobsTotal.WithLabelValues(event).Inc()
}
