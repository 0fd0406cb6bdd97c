package wizard

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tbxark/formwizard/types"
)

// Metrics counts controller activity. A nil *Metrics records nothing, and
// one instance may be shared by many controllers.
type Metrics struct {
	transitions *prometheus.CounterVec
	blocked     *prometheus.CounterVec
	submissions *prometheus.CounterVec
	draftErrors *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg. A nil reg leaves them
// unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Subsystem: "wizard",
			Name:      "step_transitions_total",
			Help:      "Step changes by origin and destination step.",
		}, []string{"from", "to"}),
		blocked: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Subsystem: "wizard",
			Name:      "blocked_advances_total",
			Help:      "Attempts to leave a step that failed validation.",
		}, []string{"step"}),
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Subsystem: "wizard",
			Name:      "submissions_total",
			Help:      "Submission attempts by result.",
		}, []string{"result"}),
		draftErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Subsystem: "wizard",
			Name:      "draft_errors_total",
			Help:      "Draft store failures that were logged and ignored.",
		}, []string{"op"}),
	}
}

func stepLabel(s types.Step) string {
	return strconv.Itoa(int(s))
}

func (m *Metrics) transition(from, to types.Step) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(stepLabel(from), stepLabel(to)).Inc()
}

func (m *Metrics) blockedAdvance(step types.Step) {
	if m == nil {
		return
	}
	m.blocked.WithLabelValues(stepLabel(step)).Inc()
}

func (m *Metrics) submission(result string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(result).Inc()
}

func (m *Metrics) draftError(op string) {
	if m == nil {
		return
	}
	m.draftErrors.WithLabelValues(op).Inc()
}
