package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the ledger engine's collectors.
type Metrics struct {
	PostingsDerived    *prometheus.CounterVec
	DerivationsSkipped *prometheus.CounterVec
	InstallmentBatches prometheus.Counter
	LoadDuration       prometheus.Histogram
	CacheLookups       *prometheus.CounterVec
	PairingViolations  prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PostingsDerived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "razao_postings_derived_total",
				Help: "Postings derived from movements, by posting kind.",
			},
			[]string{"kind"},
		),
		DerivationsSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "razao_derivations_skipped_total",
				Help: "Transactions skipped because a required reference did not resolve.",
			},
			[]string{"reason"},
		),
		InstallmentBatches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "razao_installment_batches_total",
			Help: "Installment fetches issued by the movement loader.",
		}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "razao_ledger_load_seconds",
			Help:    "Full ledger load latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "razao_derivation_cache_lookups_total",
				Help: "Derivation cache lookups, by result.",
			},
			[]string{"result"},
		),
		PairingViolations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "razao_pairing_violations_total",
			Help: "Posting groups that are not one debit and one credit of the same positive amount.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.PostingsDerived, m.DerivationsSkipped, m.InstallmentBatches, m.LoadDuration, m.CacheLookups, m.PairingViolations)
	}
	return m
}
