package service

import (
	"github.com/anthanhphan/go-dataset-agent/internal/agent/domain"
	"github.com/anthanhphan/go-dataset-agent/internal/agent/port"
)

// Plan is an action tree bound to the backend its leaves run against.
type Plan struct {
	Root    domain.Sequentially
	Backend port.Backend
}

// IsEmpty reports whether the plan has no leaf to run.
func (p Plan) IsEmpty() bool {
	return len(p.Root.Steps) == 0
}

// Leaves returns every leaf in execution order.
func (p Plan) Leaves() []domain.Action {
	return p.Root.Leaves()
}

// PlanActions orders changes into phases:
// resize, hand off, wait for arrivals, promote arrivals, create, delete.
// A peer waiting on a dataset only sees it released once this host's handoff
// phase finished, so two hosts never both claim the primary.
func PlanActions(changes domain.DatasetChanges, backend port.Backend) Plan {
	phases := [][]domain.Action{
		leafActions(domain.ActionResize, changes.Resizing),
		handoffActions(changes.Going),
		leafActions(domain.ActionWait, changes.Coming),
		leafActions(domain.ActionResize, changes.Coming),
		leafActions(domain.ActionCreate, changes.Creating),
		leafActions(domain.ActionDelete, changes.Deleting),
	}

	plan := Plan{Backend: backend}
	for _, leaves := range phases {
		if len(leaves) == 0 {
			continue
		}
		branches := make([]domain.ActionTree, 0, len(leaves))
		for _, leaf := range leaves {
			branches = append(branches, leaf)
		}
		plan.Root.Steps = append(plan.Root.Steps, domain.InParallel{Branches: branches})
	}
	return plan
}

func leafActions(kind domain.ActionKind, datasets []domain.Dataset) []domain.Action {
	out := make([]domain.Action, 0, len(datasets))
	for _, d := range datasets {
		out = append(out, domain.Action{Kind: kind, Dataset: d})
	}
	return out
}

func handoffActions(going []domain.DatasetHandoff) []domain.Action {
	out := make([]domain.Action, 0, len(going))
	for _, h := range going {
		out = append(out, domain.Action{Kind: domain.ActionHandoff, Dataset: h.Dataset, Hostname: h.Hostname})
	}
	return out
}
