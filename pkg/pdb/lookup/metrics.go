package lookup

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/grafana/pdbsym/pkg/util"
)

const (
	resultHit      = "hit"
	resultFound    = "found"
	resultNotFound = "not_found"
	resultError    = "error"

	statusSuccess = "success"
	statusError   = "error"
)

type metrics struct {
	lookups       *prometheus.CounterVec
	engineQueries prometheus.Counter
	connections   *prometheus.CounterVec
	cachedPaths   prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pyroscope_pdb_lookup_total",
			Help: "Total number of single symbol lookups by result",
		}, []string{"result"}),
		engineQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pyroscope_pdb_lookup_engine_queries_total",
			Help: "Total number of symbol queries sent to the query engine",
		}),
		connections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pyroscope_pdb_lookup_connections_total",
			Help: "Total number of query engine connection attempts by status",
		}, []string{"status"}),
		cachedPaths: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pyroscope_pdb_lookup_cached_databases",
			Help: "Number of databases with an open query engine connection",
		}),
	}

	if reg != nil {
		m.lookups = util.RegisterOrGet(reg, m.lookups)
		m.engineQueries = util.RegisterOrGet(reg, m.engineQueries)
		m.connections = util.RegisterOrGet(reg, m.connections)
		m.cachedPaths = util.RegisterOrGet(reg, m.cachedPaths)
	}

	return m
}
