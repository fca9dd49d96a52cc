package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for clubs and their directive slates.
type Metrics struct {
	ClubsCreated prometheus.Counter
	DraftsSaved  prometheus.Counter

	// Slate commit attempts by outcome: committed, duplicate, ineligible
	SlateCommits *prometheus.CounterVec
}

// New registers the club metrics on reg. A nil reg uses the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		ClubsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "sportclub_clubs_created_total",
			Help: "Total number of clubs created",
		}),
		DraftsSaved: f.NewCounter(prometheus.CounterOpts{
			Name: "sportclub_slate_drafts_saved_total",
			Help: "Total number of directive slate drafts saved",
		}),
		SlateCommits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sportclub_slate_commits_total",
			Help: "Directive slate commit attempts by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) IncrementClubsCreated() {
	if m != nil {
		m.ClubsCreated.Inc()
	}
}

func (m *Metrics) IncrementDraftsSaved() {
	if m != nil {
		m.DraftsSaved.Inc()
	}
}

// IncrementSlateCommit records a commit outcome.
func (m *Metrics) IncrementSlateCommit(outcome string) {
	if m != nil {
		m.SlateCommits.WithLabelValues(outcome).Inc()
	}
}
