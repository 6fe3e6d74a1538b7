package port

import (
	"context"
	"errors"

	"github.com/anthanhphan/go-dataset-agent/internal/agent/domain"
)

//go:generate mockgen -destination=../service/mocks/cluster_mock.go -package=mocks -source=cluster.go

// ClusterStateSource supplies the latest aggregated ClusterState. Snapshots may be stale.
type ClusterStateSource interface {
	ClusterState(ctx context.Context) (domain.ClusterState, error)
}

// StateReporter accepts this node's state and iteration outcomes.
type StateReporter interface {
	// ReportNodeState publishes the node's current state, replacing the previous one.
	ReportNodeState(ctx context.Context, state domain.NodeState) error

	// ReportOutcome publishes the outcome of one iteration.
	ReportOutcome(ctx context.Context, report domain.IterationReport) error
}

// ErrNoDesiredConfiguration is returned when no configuration was ever published.
// Treating it as empty would delete every local dataset.
var ErrNoDesiredConfiguration = errors.New("no desired configuration published")

// ConfigurationSource supplies DesiredConfiguration snapshots.
type ConfigurationSource interface {
	DesiredConfiguration(ctx context.Context) (domain.DesiredConfiguration, error)
}
