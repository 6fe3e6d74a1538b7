package metrics

import (
	"testing"
	"time"

	"github.com/anthanhphan/go-dataset-agent/internal/agent/domain"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSetPhase_OnlyCurrentIsSet(t *testing.T) {
	SetPhase("phase-host", domain.PhaseExecuting)

	assert.Equal(t, float64(1), testutil.ToFloat64(AgentPhase.WithLabelValues("phase-host", "executing")))
	assert.Equal(t, float64(0), testutil.ToFloat64(AgentPhase.WithLabelValues("phase-host", "idle")))

	SetPhase("phase-host", domain.PhaseIdle)
	assert.Equal(t, float64(0), testutil.ToFloat64(AgentPhase.WithLabelValues("phase-host", "executing")))
	assert.Equal(t, float64(1), testutil.ToFloat64(AgentPhase.WithLabelValues("phase-host", "idle")))
}

func TestObserveLeaf_Increment(t *testing.T) {
	before := testutil.ToFloat64(LeafActionsTotal.WithLabelValues("leaf-host", "create", "failed"))
	ObserveLeaf("leaf-host", domain.ActionCreate, domain.StatusFailed, 20*time.Millisecond)
	after := testutil.ToFloat64(LeafActionsTotal.WithLabelValues("leaf-host", "create", "failed"))

	assert.Equal(t, before+1, after)
	assert.Greater(t, testutil.CollectAndCount(LeafActionDuration), 0)
}

func TestObserveIteration_Result(t *testing.T) {
	start := time.Now()
	ok := domain.IterationReport{Hostname: "iter-host", StartedAt: start, FinishedAt: start.Add(time.Second)}
	aborted := domain.IterationReport{Hostname: "iter-host", Error: "bad config"}
	partial := domain.IterationReport{
		Hostname:  "iter-host",
		Outcomes:  []domain.DatasetOutcome{{DatasetID: uuid.New(), Action: "wait", Status: domain.StatusFailed}},
		Anomalies: []domain.Anomaly{{DatasetID: uuid.New(), Primaries: []string{"a", "b"}}},
	}

	ObserveIteration(ok)
	ObserveIteration(aborted)
	ObserveIteration(partial)

	assert.Equal(t, float64(1), testutil.ToFloat64(IterationsTotal.WithLabelValues("iter-host", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(IterationsTotal.WithLabelValues("iter-host", "aborted")))
	assert.Equal(t, float64(1), testutil.ToFloat64(IterationsTotal.WithLabelValues("iter-host", "partial_failure")))
	assert.Equal(t, float64(1), testutil.ToFloat64(AnomaliesTotal.WithLabelValues("iter-host")))
}

func TestObserveNodeState_CountsRoles(t *testing.T) {
	state := domain.NewNodeState("roles-host",
		domain.Manifestation{Dataset: domain.Dataset{DatasetID: uuid.New()}, Primary: true},
		domain.Manifestation{Dataset: domain.Dataset{DatasetID: uuid.New()}, Primary: false},
		domain.Manifestation{Dataset: domain.Dataset{DatasetID: uuid.New()}, Primary: true},
	)

	ObserveNodeState(state)

	assert.Equal(t, float64(2), testutil.ToFloat64(Manifestations.WithLabelValues("roles-host", "primary")))
	assert.Equal(t, float64(1), testutil.ToFloat64(Manifestations.WithLabelValues("roles-host", "replica")))
}

func TestObserveChanges_SetsEveryCategory(t *testing.T) {
	changes := domain.DatasetChanges{Creating: []domain.Dataset{{DatasetID: uuid.New()}}}

	ObserveChanges("changes-host", changes)

	assert.Equal(t, float64(1), testutil.ToFloat64(PendingChanges.WithLabelValues("changes-host", "creating")))
	assert.Equal(t, float64(0), testutil.ToFloat64(PendingChanges.WithLabelValues("changes-host", "deleting")))
}
