package service

import (
	"context"
	"fmt"
	"time"

	"github.com/anthanhphan/go-dataset-agent/internal/agent/domain"
	"github.com/anthanhphan/go-dataset-agent/internal/agent/metrics"
	"github.com/anthanhphan/gosdk/logger"
)

// iterationService runs one discover-diff-plan-execute pass.
type iterationService struct {
	core *AgentServiceImpl
}

func newIterationService(core *AgentServiceImpl) *iterationService {
	return &iterationService{core: core}
}

// iterationInputs is everything one diff needs.
type iterationInputs struct {
	local   domain.NodeState
	cluster domain.ClusterState
	desired domain.DesiredConfiguration
}

func (s *iterationService) runOnce(ctx context.Context) (domain.IterationReport, error) {
	core := s.core
	hostname := core.cfg.Hostname

	report := domain.IterationReport{
		IterationID: s.nextID(),
		Hostname:    hostname,
		StartedAt:   time.Now().UTC(),
	}
	defer core.setPhase(domain.PhaseIdle)

	core.setPhase(domain.PhaseDiscovering)
	inputs, err := s.gather(ctx)
	if err != nil {
		return s.abort(ctx, report, err)
	}
	report.Fingerprint = inputs.desired.Fingerprint()

	// Fresh discovery replaces the agent's state wholesale.
	core.replaceLocal(inputs.local)

	core.setPhase(domain.PhasePlanning)
	view := inputs.cluster.WithNode(inputs.local)
	changes, anomalies := CalculateChanges(hostname, view, inputs.desired)
	for _, a := range anomalies {
		logger.Warnw("Dataset reported primary on more than one node",
			"iteration_id", report.IterationID,
			"dataset_id", a.DatasetID.String(),
			"primaries", a.Primaries,
		)
	}
	report.Anomalies = anomalies

	changes = ExcludeLeased(changes, hostname, inputs.desired)
	metrics.ObserveChanges(hostname, changes)
	plan := PlanActions(changes, core.backend)

	if plan.IsEmpty() {
		logger.Debugw("Node already converged", "iteration_id", report.IterationID, "hostname", hostname)
	} else {
		logger.Infow("Executing convergence plan",
			"iteration_id", report.IterationID,
			"hostname", hostname,
			"creating", len(changes.Creating),
			"resizing", len(changes.Resizing),
			"going", len(changes.Going),
			"coming", len(changes.Coming),
			"deleting", len(changes.Deleting),
		)
		core.setPhase(domain.PhaseExecuting)
		result := core.executor.Execute(ctx, plan, s.foldLeaf(ctx, report.IterationID))
		report.Outcomes = domain.NewDatasetOutcomes(result)
	}

	state := core.LocalState()
	metrics.ObserveNodeState(state)
	s.publishState(ctx, report.IterationID, state)

	report.FinishedAt = time.Now().UTC()
	s.finish(ctx, report)

	if !report.Succeeded() {
		logger.Warnw("Convergence iteration finished with failures",
			"iteration_id", report.IterationID,
			"hostname", hostname,
			"outcomes", len(report.Outcomes),
		)
	}
	return report, nil
}

// gather collects local, cluster and desired state. Any error is fatal to the iteration.
func (s *iterationService) gather(ctx context.Context) (iterationInputs, error) {
	core := s.core

	local, err := core.backend.DiscoverState(ctx)
	if err != nil {
		return iterationInputs{}, fmt.Errorf("failed to discover local state: %w", err)
	}
	local.Hostname = core.cfg.Hostname
	if local.Manifestations == nil {
		local = domain.NewNodeState(core.cfg.Hostname)
	}

	cluster, err := core.cluster.ClusterState(ctx)
	if err != nil {
		return iterationInputs{}, fmt.Errorf("failed to read cluster state: %w", err)
	}

	desired, err := core.desired.DesiredConfiguration(ctx)
	if err != nil {
		return iterationInputs{}, fmt.Errorf("failed to read desired configuration: %w", err)
	}
	if err := desired.Validate(); err != nil {
		return iterationInputs{}, err
	}

	return iterationInputs{local: local, cluster: cluster, desired: desired}, nil
}

// abort ends an iteration before planning. The previous local state is kept.
func (s *iterationService) abort(ctx context.Context, report domain.IterationReport, err error) (domain.IterationReport, error) {
	logger.Errorw("Convergence iteration aborted",
		"iteration_id", report.IterationID,
		"hostname", report.Hostname,
		"error", err.Error(),
	)
	report.Error = err.Error()
	report.FinishedAt = time.Now().UTC()
	s.finish(ctx, report)
	return report, err
}

func (s *iterationService) finish(ctx context.Context, report domain.IterationReport) {
	s.core.storeReport(report)
	metrics.ObserveIteration(report)
	if s.core.reporter == nil {
		return
	}
	if err := s.core.reporter.ReportOutcome(ctx, report); err != nil {
		logger.Warnw("Failed to report iteration outcome",
			"iteration_id", report.IterationID,
			"error", err.Error(),
		)
	}
}

func (s *iterationService) publishState(ctx context.Context, iterationID int64, state domain.NodeState) {
	if s.core.reporter == nil {
		return
	}
	if err := s.core.reporter.ReportNodeState(ctx, state); err != nil {
		logger.Warnw("Failed to report node state",
			"iteration_id", iterationID,
			"hostname", state.Hostname,
			"error", err.Error(),
		)
	}
}

// foldLeaf applies each successful leaf to the local state. A handoff is
// published right away so the destination's wait can finish in this iteration.
func (s *iterationService) foldLeaf(ctx context.Context, iterationID int64) LeafObserver {
	return func(outcome domain.LeafOutcome) {
		action := outcome.Action
		id := action.Dataset.DatasetID

		state := s.core.updateLocal(func(local domain.NodeState) domain.NodeState {
			switch action.Kind {
			case domain.ActionCreate, domain.ActionResize:
				if outcome.Manifestation != nil {
					return local.WithManifestation(*outcome.Manifestation)
				}
			case domain.ActionHandoff:
				if m, ok := local.Manifestation(id); ok {
					m.Primary = false
					return local.WithManifestation(m)
				}
			case domain.ActionDelete:
				return local.WithoutDataset(id)
			}
			return local
		})

		if action.Kind == domain.ActionHandoff {
			s.publishState(ctx, iterationID, state)
		}
	}
}

func (s *iterationService) nextID() int64 {
	id, err := s.core.ids.Next()
	if err != nil {
		logger.Warnw("Failed to generate iteration id, using wall clock", "error", err.Error())
		return time.Now().UnixNano()
	}
	return id
}
