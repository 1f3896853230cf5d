package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the stock ledger collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	TransactionsRecorded *prometheus.CounterVec
	PartitionRebuilds    *prometheus.CounterVec
	RebuildRows          prometheus.Histogram
	BalanceDrift         prometheus.Counter
}

func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		TransactionsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stock",
			Name:      "transactions_recorded_total",
			Help:      "Stock transactions appended to the ledger",
		}, []string{"entry_type"}),
		PartitionRebuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stock",
			Name:      "partition_rebuilds_total",
			Help:      "Running balance rebuilds per outcome",
		}, []string{"outcome"}),
		RebuildRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "stock",
			Name:      "rebuild_rows_updated",
			Help:      "Rows whose running balance changed in one rebuild",
			Buckets:   []float64{0, 1, 5, 25, 100, 500, 2500},
		}),
		BalanceDrift: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stock",
			Name:      "balance_drift_total",
			Help:      "Stored running balances that disagreed with a replay",
		}),
	}

	registry.MustRegister(m.TransactionsRecorded, m.PartitionRebuilds, m.RebuildRows, m.BalanceDrift)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
