// Package metrics exposes Prometheus instrumentation for rule evaluation and
// token issuance. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	TokensIssued         *prometheus.CounterVec
	RuleFailures         *prometheus.CounterVec
	IdentifierCollisions *prometheus.CounterVec
	RedemptionFailures   *prometheus.CounterVec
	DecryptFailures      *prometheus.CounterVec
	ValidationDuration   prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TokensIssued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "oidcop_tokens_issued_total",
			Help: "Protocol artifacts issued, by artifact and grant",
		}, []string{"artifact", "grant"}),
		RuleFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "oidcop_rule_failures_total",
			Help: "Authorization request rule failures, by rule and OAuth error code",
		}, []string{"rule", "error"}),
		IdentifierCollisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "oidcop_identifier_collisions_total",
			Help: "Identifier collisions retried during issuance",
		}, []string{"artifact"}),
		RedemptionFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "oidcop_redemption_failures_total",
			Help: "Failed code and refresh token redemptions, by grant and OAuth error code",
		}, []string{"grant", "error"}),
		DecryptFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "oidcop_payload_decrypt_failures_total",
			Help: "Presented codes or refresh tokens that could not be opened",
		}, []string{"artifact"}),
		ValidationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "oidcop_rule_chain_duration_seconds",
			Help:    "Time spent running a rule chain",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}),
	}
}

func (m *Metrics) IncTokenIssued(artifact, grant string) {
	if m == nil {
		return
	}
	m.TokensIssued.WithLabelValues(artifact, grant).Inc()
}

func (m *Metrics) IncRuleFailure(rule, code string) {
	if m == nil {
		return
	}
	m.RuleFailures.WithLabelValues(rule, code).Inc()
}

func (m *Metrics) IncIdentifierCollision(artifact string) {
	if m == nil {
		return
	}
	m.IdentifierCollisions.WithLabelValues(artifact).Inc()
}

func (m *Metrics) IncRedemptionFailure(grant, code string) {
	if m == nil {
		return
	}
	m.RedemptionFailures.WithLabelValues(grant, code).Inc()
}

func (m *Metrics) IncDecryptFailure(artifact string) {
	if m == nil {
		return
	}
	m.DecryptFailures.WithLabelValues(artifact).Inc()
}

func (m *Metrics) ObserveValidation(d time.Duration) {
	if m == nil {
		return
	}
	m.ValidationDuration.Observe(d.Seconds())
}
