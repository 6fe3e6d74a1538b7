package port

import (
	"context"
	"errors"

	"github.com/anthanhphan/go-dataset-agent/internal/agent/domain"
)

// ErrIterationInProgress is returned when RunOnce would overlap a running iteration.
var ErrIterationInProgress = errors.New("convergence iteration already in progress")

//go:generate mockgen -destination=../service/mocks/service_mock.go -package=mocks -source=service.go

// AgentService is the convergence agent as seen by inbound adapters.
type AgentService interface {
	// RunOnce performs one discover-diff-plan-execute iteration.
	RunOnce(ctx context.Context) (domain.IterationReport, error)

	// Run repeats iterations until ctx is cancelled.
	Run(ctx context.Context)

	// LocalState returns the node state owned by this agent.
	LocalState() domain.NodeState

	// LastReport returns the most recent iteration report, if any.
	LastReport() (domain.IterationReport, bool)

	// Phase returns where the agent currently is in its iteration.
	Phase() domain.AgentPhase
}
