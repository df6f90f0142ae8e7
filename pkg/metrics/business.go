package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

const subsystemPayment = "payment"

// Business records payment flow metrics. A nil *Business is a no-op so
// services can be constructed without a registry in tests.
type Business struct {
	checkout *prometheus.CounterVec
	callback *prometheus.CounterVec
	process  *prometheus.HistogramVec
}

func NewBusiness(reg prometheus.Registerer) *Business {
	return &Business{
		checkout: register(reg, MetricsCheckout).(*prometheus.CounterVec),
		callback: register(reg, MetricsCallback).(*prometheus.CounterVec),
		process:  register(reg, MetricsBusinessProcess).(*prometheus.HistogramVec),
	}
}

func register(reg prometheus.Registerer, m *Metric) prometheus.Collector {
	c := NewMetric(m, subsystemPayment)
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			c = are.ExistingCollector
		}
	}
	m.MetricCollector = c
	return c
}

func (b *Business) ObserveCheckout(result string) {
	if b == nil {
		return
	}
	b.checkout.WithLabelValues(result).Inc()
}

func (b *Business) ObserveCallback(outcome, state string) {
	if b == nil {
		return
	}
	b.callback.WithLabelValues(outcome, state).Inc()
}

// ObserveProcess records the latency of a named step, e.g. ("gateway", "verify").
func (b *Business) ObserveProcess(typ, subtype string, start time.Time) {
	if b == nil {
		return
	}
	b.process.WithLabelValues(typ, subtype).Observe(MillisecondsSince(start))
}

var Module = fx.Options(
	fx.Provide(func() *Business { return NewBusiness(prometheus.DefaultRegisterer) }),
)
