package runtime

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

type metrics struct {
	operations  *prometheus.CounterVec
	invocations *prometheus.CounterVec
}

func newMetrics(namespace string, registerer prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Transactions executed, by operation and outcome.",
			},
			[]string{"op", "outcome"},
		),
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invocations_total",
				Help:      "Cross-program calls, by target program and outcome.",
			},
			[]string{"program", "outcome"},
		),
	}
	return m, errors.Join(
		registerer.Register(m.operations),
		registerer.Register(m.invocations),
	)
}

func outcome(err error) string {
	if err != nil {
		return outcomeError
	}
	return outcomeOK
}
