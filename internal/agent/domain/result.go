package domain

import (
	"time"

	"github.com/google/uuid"
)

// LeafOutcome is the successful result of one leaf action.
// Manifestation is set for create and resize.
type LeafOutcome struct {
	Action        Action
	Manifestation *Manifestation
}

// LeafFailure is a failed leaf action.
type LeafFailure struct {
	Action Action
	Err    error
}

// ExecutionResult aggregates one executor run.
type ExecutionResult struct {
	Completed []LeafOutcome
	Failures  []LeafFailure
	// Skipped lists leaves that never ran because an earlier step failed.
	Skipped []Action
}

// OK reports full success.
func (r ExecutionResult) OK() bool {
	return len(r.Failures) == 0
}

// Merge appends other into r.
func (r ExecutionResult) Merge(other ExecutionResult) ExecutionResult {
	r.Completed = append(r.Completed, other.Completed...)
	r.Failures = append(r.Failures, other.Failures...)
	r.Skipped = append(r.Skipped, other.Skipped...)
	return r
}

// DatasetStatus is the per-dataset verdict for one iteration.
type DatasetStatus string

const (
	StatusSucceeded DatasetStatus = "succeeded"
	StatusFailed    DatasetStatus = "failed"
	StatusSkipped   DatasetStatus = "skipped"
)

// DatasetOutcome is a leaf-level line of an iteration report.
type DatasetOutcome struct {
	DatasetID uuid.UUID     `json:"dataset_id"`
	Action    string        `json:"action"`
	Status    DatasetStatus `json:"status"`
	Error     string        `json:"error,omitempty"`
}

// IterationReport is what one convergence iteration reports to the aggregation
// collaborator and operator-facing surfaces.
type IterationReport struct {
	IterationID int64            `json:"iteration_id"`
	Hostname    string           `json:"hostname"`
	StartedAt   time.Time        `json:"started_at"`
	FinishedAt  time.Time        `json:"finished_at"`
	Fingerprint uint64           `json:"configuration_fingerprint"`
	Outcomes    []DatasetOutcome `json:"outcomes,omitempty"`
	Anomalies   []Anomaly        `json:"anomalies,omitempty"`
	// Error is set when the iteration aborted before planning.
	Error string `json:"error,omitempty"`
}

// Succeeded reports whether the iteration completed without any failure.
func (r IterationReport) Succeeded() bool {
	if r.Error != "" {
		return false
	}
	for _, o := range r.Outcomes {
		if o.Status != StatusSucceeded {
			return false
		}
	}
	return true
}

// DatasetStatuses folds leaf outcomes into one status per dataset.
// failed wins over skipped, which wins over succeeded.
func (r IterationReport) DatasetStatuses() map[uuid.UUID]DatasetStatus {
	rank := map[DatasetStatus]int{StatusSucceeded: 0, StatusSkipped: 1, StatusFailed: 2}
	out := make(map[uuid.UUID]DatasetStatus, len(r.Outcomes))
	for _, o := range r.Outcomes {
		cur, ok := out[o.DatasetID]
		if !ok || rank[o.Status] > rank[cur] {
			out[o.DatasetID] = o.Status
		}
	}
	return out
}

// NewDatasetOutcomes flattens an execution result into report lines.
func NewDatasetOutcomes(result ExecutionResult) []DatasetOutcome {
	out := make([]DatasetOutcome, 0, len(result.Completed)+len(result.Failures)+len(result.Skipped))
	for _, c := range result.Completed {
		out = append(out, DatasetOutcome{
			DatasetID: c.Action.Dataset.DatasetID,
			Action:    c.Action.Kind.String(),
			Status:    StatusSucceeded,
		})
	}
	for _, f := range result.Failures {
		msg := ""
		if f.Err != nil {
			msg = f.Err.Error()
		}
		out = append(out, DatasetOutcome{
			DatasetID: f.Action.Dataset.DatasetID,
			Action:    f.Action.Kind.String(),
			Status:    StatusFailed,
			Error:     msg,
		})
	}
	for _, s := range result.Skipped {
		out = append(out, DatasetOutcome{
			DatasetID: s.Dataset.DatasetID,
			Action:    s.Kind.String(),
			Status:    StatusSkipped,
		})
	}
	return out
}
