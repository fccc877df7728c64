// Package metrics defines the Prometheus collectors of the account service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Token purposes.
const (
	PurposeVerification = "verification"
	PurposeReset        = "reset"
)

type Metrics struct {
	registry *prometheus.Registry

	Registrations *prometheus.CounterVec
	Logins        *prometheus.CounterVec
	TokenChecks   *prometheus.CounterVec
	MailEnqueued  *prometheus.CounterVec
}

// New creates the collectors on a private registry, together with Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		Registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "account_registrations_total",
				Help: "Total number of registration attempts by outcome",
			},
			[]string{"outcome"},
		),
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "account_logins_total",
				Help: "Total number of login attempts by outcome",
			},
			[]string{"outcome"},
		),
		TokenChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "account_token_checks_total",
				Help: "Total number of verification and reset token checks",
			},
			[]string{"purpose", "outcome"},
		),
		MailEnqueued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "account_mail_enqueued_total",
				Help: "Total number of notification mails handed to the queue",
			},
			[]string{"kind"},
		),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Registrations,
		m.Logins,
		m.TokenChecks,
		m.MailEnqueued,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func outcome(ok bool) string {
	if ok {
		return OutcomeSuccess
	}
	return OutcomeFailure
}

// The helpers below accept a nil receiver so callers without metrics need no guard.

func (m *Metrics) ObserveRegistration(ok bool) {
	if m != nil {
		m.Registrations.WithLabelValues(outcome(ok)).Inc()
	}
}

func (m *Metrics) ObserveLogin(ok bool) {
	if m != nil {
		m.Logins.WithLabelValues(outcome(ok)).Inc()
	}
}

func (m *Metrics) ObserveTokenCheck(purpose string, ok bool) {
	if m != nil {
		m.TokenChecks.WithLabelValues(purpose, outcome(ok)).Inc()
	}
}

func (m *Metrics) ObserveMailEnqueued(kind string) {
	if m != nil {
		m.MailEnqueued.WithLabelValues(kind).Inc()
	}
}
