// Package metrics holds the Prometheus collectors exported on /metrics.
//
// All methods are safe on a nil *Metrics so core packages can be built
// without instrumentation in tests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "splitmate"

// Metrics owns a private registry and the service collectors.
type Metrics struct {
	registry *prometheus.Registry

	rpcDuration      *prometheus.HistogramVec
	joins            *prometheus.CounterVec
	groupsCreated    prometheus.Counter
	codeCollisions   prometheus.Counter
	expensesCreated  prometheus.Counter
	paymentChanges   *prometheus.CounterVec
	broadcastDropped prometheus.Counter
	emailsSent       *prometheus.CounterVec
}

// New creates and registers all collectors, including Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC latency by procedure and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure", "code"}),
		joins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "group_joins_total",
			Help:      "Group join attempts by outcome.",
		}, []string{"outcome"}),
		groupsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "groups_created_total",
			Help:      "Groups created.",
		}),
		codeCollisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "group_code_collisions_total",
			Help:      "Generated group codes rejected by the store as duplicates.",
		}),
		expensesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expenses_created_total",
			Help:      "Expenses created.",
		}),
		paymentChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_status_changes_total",
			Help:      "Payment entry status writes by resulting status.",
		}, []string{"status"}),
		broadcastDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_dropped_total",
			Help:      "Broadcast messages dropped for slow or closed subscribers.",
		}),
		emailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_total",
			Help:      "Outgoing emails by template and result.",
		}, []string{"template", "result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.rpcDuration,
		m.joins,
		m.groupsCreated,
		m.codeCollisions,
		m.expensesCreated,
		m.paymentChanges,
		m.broadcastDropped,
		m.emailsSent,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRPC(procedure, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.rpcDuration.WithLabelValues(procedure, code).Observe(d.Seconds())
}

// Join outcomes.
const (
	JoinOK       = "ok"
	JoinFull     = "full"
	JoinRejected = "rejected"
)

func (m *Metrics) GroupJoin(outcome string) {
	if m == nil {
		return
	}
	m.joins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) GroupCreated() {
	if m == nil {
		return
	}
	m.groupsCreated.Inc()
}

func (m *Metrics) CodeCollision() {
	if m == nil {
		return
	}
	m.codeCollisions.Inc()
}

func (m *Metrics) ExpenseCreated() {
	if m == nil {
		return
	}
	m.expensesCreated.Inc()
}

func (m *Metrics) PaymentStatusChanged(status string) {
	if m == nil {
		return
	}
	m.paymentChanges.WithLabelValues(status).Inc()
}

func (m *Metrics) BroadcastDropped() {
	if m == nil {
		return
	}
	m.broadcastDropped.Inc()
}

func (m *Metrics) EmailSent(template string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.emailsSent.WithLabelValues(template, result).Inc()
}
