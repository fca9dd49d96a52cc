package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the member module.
type Metrics struct {
	MembersRegistered prometheus.Counter

	// Rejected form fields by form and field name
	FieldRejections *prometheus.CounterVec

	// Self-enrollment attempts by outcome: enrolled, underage, conflict
	SelfEnrollments *prometheus.CounterVec
}

// New registers the member metrics on reg. A nil reg uses the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		MembersRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "sportclub_members_registered_total",
			Help: "Total number of members registered",
		}),
		FieldRejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sportclub_form_field_rejections_total",
			Help: "Form fields rejected by validation, by form and field",
		}, []string{"form", "field"}),
		SelfEnrollments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sportclub_club_self_enrollments_total",
			Help: "Club self-enrollment attempts by outcome",
		}, []string{"outcome"}),
	}
}

// IncrementRegistered records a successful registration.
func (m *Metrics) IncrementRegistered() {
	if m != nil {
		m.MembersRegistered.Inc()
	}
}

// ObserveRejectedFields records one rejection per failing field.
func (m *Metrics) ObserveRejectedFields(form string, fields map[string]string) {
	if m == nil {
		return
	}
	for field := range fields {
		m.FieldRejections.WithLabelValues(form, field).Inc()
	}
}

// IncrementSelfEnrollment records a self-enrollment outcome.
func (m *Metrics) IncrementSelfEnrollment(outcome string) {
	if m != nil {
		m.SelfEnrollments.WithLabelValues(outcome).Inc()
	}
}
