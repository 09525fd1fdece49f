package service

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	apperrors "github.com/utafrali/catalog/pkg/errors"
)

// Metrics counts product writes by operation and outcome.
type Metrics struct {
	writes *prometheus.CounterVec
}

// NewMetrics registers the write counter on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	writes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalog",
		Name:      "product_writes_total",
		Help:      "Product writes by operation and outcome.",
	}, []string{"operation", "outcome"})

	if err := reg.Register(writes); err != nil {
		return nil, err
	}
	return &Metrics{writes: writes}, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperrors.ErrInternal):
		return "error"
	case errors.Is(err, apperrors.ErrConflict):
		return "conflict"
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperrors.ErrInvalidInput):
		return "invalid"
	default:
		return "error"
	}
}

// observe records one write. A nil receiver is a no-op.
func (m *Metrics) observe(operation string, err error) {
	if m == nil {
		return
	}
	m.writes.WithLabelValues(operation, outcome(err)).Inc()
}
