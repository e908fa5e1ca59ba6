// Package metrics exports persist cache operations as Prometheus metrics.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/goforj/persist"
)

// Observer is a persist.Observer backed by Prometheus collectors.
type Observer struct {
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ persist.Observer = (*Observer)(nil)

// New creates the collectors and registers them with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) (*Observer, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &Observer{
		ops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "persist_operations_total",
				Help: "Total number of persist cache operations",
			},
			[]string{"op", "driver", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "persist_operation_duration_seconds",
				Help:    "Persist cache operation duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"op", "driver"},
		),
	}
	for _, c := range []prometheus.Collector{o.ops, o.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// OnPersistOp implements persist.Observer.
func (o *Observer) OnPersistOp(_ context.Context, op string, _ string, hit bool, err error, dur time.Duration, driver persist.Driver) {
	o.ops.WithLabelValues(op, string(driver), result(op, hit, err)).Inc()
	o.duration.WithLabelValues(op, string(driver)).Observe(dur.Seconds())
}

// result labels an outcome: "error", or for get/load "hit" or "miss".
func result(op string, hit bool, err error) string {
	switch {
	case err != nil:
		return "error"
	case op == persist.OpGet || op == persist.OpLoad:
		if hit {
			return "hit"
		}
		return "miss"
	default:
		return "ok"
	}
}
