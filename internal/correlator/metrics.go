package correlator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commandsTracked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cmdrelay_commands_tracked_total",
			Help: "Total command submissions armed for correlation.",
		},
	)
	commandOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cmdrelay_command_outcomes_total",
			Help: "Resolved command outcomes by kind.",
		},
		[]string{"outcome"},
	)
	feedbackSignals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cmdrelay_feedback_signals_total",
			Help: "Feedback signal handling results.",
		},
		[]string{"result"},
	)
)
