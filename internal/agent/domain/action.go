package domain

import "fmt"

// ActionKind tags a leaf action with the backend operation it performs.
type ActionKind int

const (
	ActionCreate ActionKind = iota + 1
	ActionResize
	ActionHandoff
	ActionWait
	ActionDelete
)

func (k ActionKind) String() string {
	switch k {
	case ActionCreate:
		return "create"
	case ActionResize:
		return "resize"
	case ActionHandoff:
		return "handoff"
	case ActionWait:
		return "wait"
	case ActionDelete:
		return "delete"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// ActionTree is a plan node: a leaf Action, Sequentially or InParallel.
type ActionTree interface {
	// Leaves returns every leaf action below this node in plan order.
	Leaves() []Action
	isActionTree()
}

// Action is a leaf: one backend call bound to one dataset.
// Hostname is only set for handoffs (the destination).
type Action struct {
	Kind     ActionKind
	Dataset  Dataset
	Hostname string
}

func (a Action) Leaves() []Action { return []Action{a} }
func (Action) isActionTree()      {}

func (a Action) String() string {
	if a.Hostname != "" {
		return fmt.Sprintf("%s(%s -> %s)", a.Kind, a.Dataset.DatasetID, a.Hostname)
	}
	return fmt.Sprintf("%s(%s)", a.Kind, a.Dataset.DatasetID)
}

// Sequentially runs steps in order; a step starts only after the previous
// step's whole subtree completed without failure.
type Sequentially struct {
	Steps []ActionTree
}

func (s Sequentially) Leaves() []Action {
	var out []Action
	for _, step := range s.Steps {
		out = append(out, step.Leaves()...)
	}
	return out
}

func (Sequentially) isActionTree() {}

// InParallel starts every branch together.
type InParallel struct {
	Branches []ActionTree
}

func (p InParallel) Leaves() []Action {
	var out []Action
	for _, b := range p.Branches {
		out = append(out, b.Leaves()...)
	}
	return out
}

func (InParallel) isActionTree() {}
