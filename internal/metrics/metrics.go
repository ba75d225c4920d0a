// Package metrics holds the domain counters exported next to the HTTP metrics at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "holidaylights"

// Recorder counts vote outcomes. The zero value is not usable; use New or Default.
type Recorder struct {
	applied   *prometheus.CounterVec
	rejected  *prometheus.CounterVec
	conflicts prometheus.Counter
}

var defaultRecorder = New(prometheus.DefaultRegisterer)

// Default returns the recorder registered on the default prometheus registry
func Default() *Recorder {
	return defaultRecorder
}

// New registers the vote counters on reg
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		applied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_applied_total",
			Help:      "Votes and retractions committed to the ledger.",
		}, []string{"category", "direction"}),
		rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_rejected_total",
			Help:      "Vote requests declined by the allowance policy.",
		}, []string{"reason"}),
		conflicts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_conflicts_total",
			Help:      "Vote transactions that lost a race and were retried or surfaced.",
		}),
	}
}

// Applied counts a committed vote; delta is +1 or -1
func (r *Recorder) Applied(category string, delta int) {
	if r == nil {
		return
	}
	direction := "cast"
	if delta < 0 {
		direction = "retract"
	}
	r.applied.WithLabelValues(category, direction).Inc()
}

// Rejected counts a policy rejection
func (r *Recorder) Rejected(reason string) {
	if r == nil {
		return
	}
	r.rejected.WithLabelValues(reason).Inc()
}

// Conflict counts a conflicting transaction attempt
func (r *Recorder) Conflict() {
	if r == nil {
		return
	}
	r.conflicts.Inc()
}
