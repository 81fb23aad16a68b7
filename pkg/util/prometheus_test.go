package util

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestRegisterOrGet(t *testing.T) {
	newCounter := func() prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: "test_total", Help: "test"})
	}

	reg := prometheus.NewRegistry()
	first := RegisterOrGet(reg, newCounter())
	second := RegisterOrGet(reg, newCounter())
	assert.Same(t, first, second)

	unregistered := newCounter()
	assert.Same(t, unregistered, RegisterOrGet(nil, unregistered))

	assert.Panics(t, func() {
		RegisterOrGet(reg, prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_total", Help: "other"}))
	})
}
