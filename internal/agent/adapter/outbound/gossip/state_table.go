package gossip

import (
	"sort"
	"sync"

	"github.com/anthanhphan/go-dataset-agent/internal/agent/domain"
)

// envelope is one node's state stamped with a per-origin version.
type envelope struct {
	Hostname string           `json:"hostname"`
	Version  uint64           `json:"version"`
	State    domain.NodeState `json:"state"`
}

// stateTable keeps the newest envelope per hostname.
type stateTable struct {
	mu     sync.RWMutex
	states map[string]envelope
}

func newStateTable() *stateTable {
	return &stateTable{states: make(map[string]envelope)}
}

// merge stores env unless a newer or equal version is already known.
func (t *stateTable) merge(env envelope) bool {
	if env.Hostname == "" {
		return false
	}
	env.State.Hostname = env.Hostname

	t.mu.Lock()
	defer t.mu.Unlock()

	if cur, ok := t.states[env.Hostname]; ok && cur.Version >= env.Version {
		return false
	}
	t.states[env.Hostname] = env
	return true
}

func (t *stateTable) envelopes() []envelope {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]envelope, 0, len(t.states))
	for _, env := range t.states {
		out = append(out, env)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hostname < out[j].Hostname })
	return out
}

func (t *stateTable) clusterState() domain.ClusterState {
	envs := t.envelopes()
	nodes := make([]domain.NodeState, 0, len(envs))
	for _, env := range envs {
		nodes = append(nodes, env.State)
	}
	return domain.ClusterState{Nodes: nodes}
}
