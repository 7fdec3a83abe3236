package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Redemption outcomes.
const (
	OutcomeRedeemed    = "redeemed"
	OutcomeUnavailable = "unavailable"
	OutcomeForbidden   = "forbidden"
	OutcomeMissingDoc  = "document_missing"
	OutcomeError       = "error"
)

// PrintMetrics counts print link issuance and redemption.
// A nil *PrintMetrics is valid and records nothing.
type PrintMetrics struct {
	issued      prometheus.Counter
	redemptions *prometheus.CounterVec
}

// NewPrintMetrics creates the collectors and registers them on reg.
func NewPrintMetrics(reg prometheus.Registerer) (*PrintMetrics, error) {
	m := &PrintMetrics{
		issued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "printdesk",
			Name:      "print_links_issued_total",
			Help:      "Total number of one-time print links issued.",
		}),
		redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "printdesk",
			Name:      "print_redemptions_total",
			Help:      "Total number of print link redemption attempts by outcome.",
		}, []string{"outcome"}),
	}

	for _, c := range []prometheus.Collector{m.issued, m.redemptions} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Issued records one issued link.
func (m *PrintMetrics) Issued() {
	if m == nil {
		return
	}
	m.issued.Inc()
}

// Redemption records one redemption attempt with the given outcome.
func (m *PrintMetrics) Redemption(outcome string) {
	if m == nil {
		return
	}
	m.redemptions.WithLabelValues(outcome).Inc()
}
