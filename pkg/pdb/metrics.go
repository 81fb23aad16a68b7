package pdb

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/grafana/pdbsym/pkg/util"
)

const (
	statusSuccess = "success"

	statusErrorPrefix     = "error:"
	statusErrorOpen       = statusErrorPrefix + "open"
	statusErrorValidation = statusErrorPrefix + "validation"
	statusErrorStream     = statusErrorPrefix + "stream_unavailable"
	statusErrorEmpty      = statusErrorPrefix + "empty"
	statusErrorOther      = statusErrorPrefix + "other"

	sourceModule = "module"
	sourcePublic = "public"

	methodGap          = "gap"
	methodContribution = "contribution"
	methodUnresolved   = "unresolved"
)

type metrics struct {
	parseDuration *prometheus.HistogramVec
	symbols       *prometheus.CounterVec
	inferredSizes *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		parseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pyroscope_pdb_parse_duration_seconds",
			Help:    "Time spent building function symbol tables from debug databases by status",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		}, []string{"status"}),
		symbols: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pyroscope_pdb_symbols_total",
			Help: "Total number of function symbols collected by source stream",
		}, []string{"source"}),
		inferredSizes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pyroscope_pdb_inferred_sizes_total",
			Help: "Total number of function sizes inferred by method",
		}, []string{"method"}),
	}

	if reg != nil {
		m.parseDuration = util.RegisterOrGet(reg, m.parseDuration)
		m.symbols = util.RegisterOrGet(reg, m.symbols)
		m.inferredSizes = util.RegisterOrGet(reg, m.inferredSizes)
	}

	return m
}

func (m *metrics) collected(source string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.symbols.WithLabelValues(source).Add(float64(n))
}

func (m *metrics) inferred(method string) {
	if m == nil {
		return
	}
	m.inferredSizes.WithLabelValues(method).Inc()
}
