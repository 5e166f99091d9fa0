package auth

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// ActivityMetrics is an ActivitySink that counts auth events.
type ActivityMetrics struct {
	loginAttempts *prometheus.CounterVec
	accessDenied  *prometheus.CounterVec
	registrations prometheus.Counter
}

// NewActivityMetrics creates the counters and registers them on reg when
// reg is not nil.
func NewActivityMetrics(reg prometheus.Registerer) *ActivityMetrics {
	m := &ActivityMetrics{
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		accessDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_access_denied_total",
			Help: "Protected resource requests rejected by the role gate.",
		}, []string{"decision"}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_identities_registered_total",
			Help: "Identities registered since start.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.loginAttempts, m.accessDenied, m.registrations)
	}
	return m
}

func (m *ActivityMetrics) Record(_ context.Context, event ActivityEvent) error {
	switch event.EventType {
	case ActivityEventLoginSuccess:
		m.loginAttempts.WithLabelValues("success").Inc()
	case ActivityEventLoginFailure:
		m.loginAttempts.WithLabelValues("failure").Inc()
	case ActivityEventIdentityRegistered:
		m.registrations.Inc()
	case ActivityEventAccessDenied:
		decision, _ := event.Metadata["decision"].(string)
		m.accessDenied.WithLabelValues(decision).Inc()
	}
	return nil
}
