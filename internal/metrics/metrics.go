package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	grants           *prometheus.CounterVec
	consumes         prometheus.Counter
	idempotentHits   *prometheus.CounterVec
	promoRedemptions prometheus.Counter
	engineErrors     *prometheus.CounterVec
}

func newMetrics(registry *prometheus.Registry) *metrics {
	m := &metrics{
		grants: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sitescope_credit_grants_total",
			Help: "Credit grants recorded in the ledger, by reason.",
		}, []string{"reason"}),
		consumes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sitescope_credit_consumes_total",
			Help: "Credit debits recorded in the ledger.",
		}),
		idempotentHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sitescope_credit_idempotent_replays_total",
			Help: "Mutating credit operations answered from a prior record.",
		}, []string{"operation"}),
		promoRedemptions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sitescope_promo_redemptions_total",
			Help: "Successful promo code redemptions.",
		}),
		engineErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sitescope_credit_engine_errors_total",
			Help: "Unexpected credit engine failures, by operation.",
		}, []string{"operation"}),
	}

	registry.MustRegister(
		m.grants,
		m.consumes,
		m.idempotentHits,
		m.promoRedemptions,
		m.engineErrors,
	)

	return m
}
