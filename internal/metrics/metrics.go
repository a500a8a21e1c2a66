// Package metrics collects Prometheus counters for authentication outcomes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the service layer reports to.
type Recorder interface {
	RecordLogin(outcome string)
	RecordRegistration(outcome string)
	RecordTokenIssued(origin string)
	RecordImpersonation(outcome string)
	RecordExternalLogin(outcome string)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	logins         *prometheus.CounterVec
	registrations  *prometheus.CounterVec
	tokensIssued   *prometheus.CounterVec
	impersonations *prometheus.CounterVec
	externalLogins *prometheus.CounterVec
}

var _ Recorder = (*Collector)(nil)

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unidos_login_total",
			Help: "Password login attempts by outcome.",
		}, []string{"outcome"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unidos_registration_total",
			Help: "Registration attempts by outcome.",
		}, []string{"outcome"}),
		tokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unidos_tokens_issued_total",
			Help: "Access tokens issued by originating operation.",
		}, []string{"origin"}),
		impersonations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unidos_impersonation_total",
			Help: "Become attempts by outcome.",
		}, []string{"outcome"}),
		externalLogins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unidos_external_login_total",
			Help: "External identity logins by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		c.logins,
		c.registrations,
		c.tokensIssued,
		c.impersonations,
		c.externalLogins,
	)
	return c
}

func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordRegistration(outcome string) {
	c.registrations.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordTokenIssued(origin string) {
	c.tokensIssued.WithLabelValues(origin).Inc()
}

func (c *Collector) RecordImpersonation(outcome string) {
	c.impersonations.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordExternalLogin(outcome string) {
	c.externalLogins.WithLabelValues(outcome).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards every record.
type Nop struct{}

var _ Recorder = Nop{}

func (Nop) RecordLogin(string)         {}
func (Nop) RecordRegistration(string)  {}
func (Nop) RecordTokenIssued(string)   {}
func (Nop) RecordImpersonation(string) {}
func (Nop) RecordExternalLogin(string) {}
