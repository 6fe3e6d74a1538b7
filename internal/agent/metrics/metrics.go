package metrics

import (
	"time"

	"github.com/anthanhphan/go-dataset-agent/internal/agent/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// IterationsTotal tracks finished convergence iterations by result.
var IterationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dataset_agent_iterations_total",
		Help: "Total convergence iterations by result",
	},
	[]string{"hostname", "result"},
)

// IterationDuration tracks wall time of one discover-diff-plan-execute pass.
var IterationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "dataset_agent_iteration_duration_seconds",
		Help:    "Convergence iteration duration",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"hostname"},
)

// LeafActionsTotal tracks leaf actions by kind and status.
var LeafActionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dataset_agent_leaf_actions_total",
		Help: "Total leaf actions by kind and status",
	},
	[]string{"hostname", "action", "status"},
)

// LeafActionDuration tracks backend call latency per action kind.
var LeafActionDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "dataset_agent_leaf_action_duration_seconds",
		Help:    "Leaf action latency",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"hostname", "action"},
)

// AnomaliesTotal tracks datasets observed primary on more than one node.
var AnomaliesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dataset_agent_dual_primary_anomalies_total",
		Help: "Datasets reported primary on more than one node",
	},
	[]string{"hostname"},
)

// PendingChanges tracks the size of each change category in the latest diff.
var PendingChanges = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "dataset_agent_pending_changes",
		Help: "Datasets per change category in the latest diff",
	},
	[]string{"hostname", "category"},
)

// Manifestations tracks locally held manifestations by role.
var Manifestations = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "dataset_agent_manifestations",
		Help: "Local manifestations by role",
	},
	[]string{"hostname", "role"},
)

// AgentPhase tracks the agent phase (value 1 for current phase, 0 otherwise).
var AgentPhase = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "dataset_agent_phase",
		Help: "Agent phase (1 for current phase, 0 otherwise)",
	},
	[]string{"hostname", "phase"},
)

var phases = []domain.AgentPhase{
	domain.PhaseIdle,
	domain.PhaseDiscovering,
	domain.PhasePlanning,
	domain.PhaseExecuting,
}

// SetPhase flips the phase gauge for hostname.
func SetPhase(hostname string, current domain.AgentPhase) {
	for _, p := range phases {
		v := 0.0
		if p == current {
			v = 1
		}
		AgentPhase.WithLabelValues(hostname, string(p)).Set(v)
	}
}

// ObserveLeaf records one finished leaf action.
func ObserveLeaf(hostname string, kind domain.ActionKind, status domain.DatasetStatus, elapsed time.Duration) {
	LeafActionsTotal.WithLabelValues(hostname, kind.String(), string(status)).Inc()
	if status != domain.StatusSkipped {
		LeafActionDuration.WithLabelValues(hostname, kind.String()).Observe(elapsed.Seconds())
	}
}

// ObserveChanges records the category sizes of a diff.
func ObserveChanges(hostname string, changes domain.DatasetChanges) {
	for category, ids := range changes.Categories() {
		PendingChanges.WithLabelValues(hostname, category).Set(float64(len(ids)))
	}
}

// ObserveNodeState records manifestation counts by role.
func ObserveNodeState(state domain.NodeState) {
	var primaries, replicas int
	for _, m := range state.Manifestations {
		if m.Primary {
			primaries++
		} else {
			replicas++
		}
	}
	Manifestations.WithLabelValues(state.Hostname, "primary").Set(float64(primaries))
	Manifestations.WithLabelValues(state.Hostname, "replica").Set(float64(replicas))
}

// ObserveIteration records a finished iteration report.
func ObserveIteration(report domain.IterationReport) {
	result := "success"
	switch {
	case report.Error != "":
		result = "aborted"
	case !report.Succeeded():
		result = "partial_failure"
	}
	IterationsTotal.WithLabelValues(report.Hostname, result).Inc()
	if !report.StartedAt.IsZero() && !report.FinishedAt.IsZero() {
		IterationDuration.WithLabelValues(report.Hostname).Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
	}
	if n := len(report.Anomalies); n > 0 {
		AnomaliesTotal.WithLabelValues(report.Hostname).Add(float64(n))
	}
}
