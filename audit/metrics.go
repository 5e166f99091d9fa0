package audit

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts interceptor activity.
type Metrics struct {
	records       *prometheus.CounterVec
	writeFailures prometheus.Counter
	bodySkipped   prometheus.Counter
}

// NewMetrics creates the audit counters and registers them on reg when reg
// is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_records_total",
			Help: "Audit records persisted by direction.",
		}, []string{"direction"}),
		writeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "audit_write_failures_total",
			Help: "Audit records that could not be persisted.",
		}),
		bodySkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "audit_body_capture_skipped_total",
			Help: "Requests whose body was not replayable and was not captured.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.records, m.writeFailures, m.bodySkipped)
	}
	return m
}

func (m *Metrics) persisted(d Direction) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(string(d)).Inc()
}

func (m *Metrics) failed() {
	if m == nil {
		return
	}
	m.writeFailures.Inc()
}

func (m *Metrics) skipped() {
	if m == nil {
		return
	}
	m.bodySkipped.Inc()
}
