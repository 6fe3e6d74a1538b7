package domain

import (
	"maps"
	"sort"

	"github.com/google/uuid"
)

// Dataset is a logical storage resource. Identity is DatasetID.
type Dataset struct {
	DatasetID uuid.UUID `json:"dataset_id"`
	// MaximumSize is the size bound in bytes. Zero means no particular bound.
	MaximumSize uint64            `json:"maximum_size,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Equal reports structural equality.
func (d Dataset) Equal(other Dataset) bool {
	return d.DatasetID == other.DatasetID &&
		d.MaximumSize == other.MaximumSize &&
		maps.Equal(d.Metadata, other.Metadata)
}

// WithMaximumSize returns a copy of d with a different size bound.
func (d Dataset) WithMaximumSize(size uint64) Dataset {
	d.Metadata = maps.Clone(d.Metadata)
	d.MaximumSize = size
	return d
}

// Manifestation is a physical copy of a dataset on one node.
type Manifestation struct {
	Dataset Dataset `json:"dataset"`
	Primary bool    `json:"primary"`
}

// Equal reports structural equality.
func (m Manifestation) Equal(other Manifestation) bool {
	return m.Primary == other.Primary && m.Dataset.Equal(other.Dataset)
}

// NodeState is the observed state of one node. It is replaced wholesale, never
// mutated in place: the With* helpers return copies.
type NodeState struct {
	Hostname       string                      `json:"hostname"`
	Manifestations map[uuid.UUID]Manifestation `json:"manifestations"`
}

// NewNodeState builds a NodeState from a list of manifestations.
func NewNodeState(hostname string, manifestations ...Manifestation) NodeState {
	byID := make(map[uuid.UUID]Manifestation, len(manifestations))
	for _, m := range manifestations {
		byID[m.Dataset.DatasetID] = m
	}
	return NodeState{Hostname: hostname, Manifestations: byID}
}

// Manifestation returns the local manifestation of a dataset, if any.
func (n NodeState) Manifestation(id uuid.UUID) (Manifestation, bool) {
	m, ok := n.Manifestations[id]
	return m, ok
}

// WithManifestation returns a copy of n holding m (replacing any copy of the same dataset).
func (n NodeState) WithManifestation(m Manifestation) NodeState {
	next := n.clone()
	next.Manifestations[m.Dataset.DatasetID] = m
	return next
}

// WithoutDataset returns a copy of n without any manifestation of id.
func (n NodeState) WithoutDataset(id uuid.UUID) NodeState {
	next := n.clone()
	delete(next.Manifestations, id)
	return next
}

// DatasetIDs returns the ids held by this node in ascending order.
func (n NodeState) DatasetIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(n.Manifestations))
	for id := range n.Manifestations {
		ids = append(ids, id)
	}
	SortIDs(ids)
	return ids
}

// Equal reports structural equality.
func (n NodeState) Equal(other NodeState) bool {
	if n.Hostname != other.Hostname || len(n.Manifestations) != len(other.Manifestations) {
		return false
	}
	for id, m := range n.Manifestations {
		o, ok := other.Manifestations[id]
		if !ok || !m.Equal(o) {
			return false
		}
	}
	return true
}

func (n NodeState) clone() NodeState {
	cp := make(map[uuid.UUID]Manifestation, len(n.Manifestations)+1)
	for id, m := range n.Manifestations {
		cp[id] = m
	}
	return NodeState{Hostname: n.Hostname, Manifestations: cp}
}

// ClusterState is the aggregated view of every node. Read-only input to the core.
type ClusterState struct {
	Nodes []NodeState `json:"nodes"`
}

// Node returns the state reported for hostname.
func (c ClusterState) Node(hostname string) (NodeState, bool) {
	for _, n := range c.Nodes {
		if n.Hostname == hostname {
			return n, true
		}
	}
	return NodeState{}, false
}

// WithNode returns a copy of c in which the state for node.Hostname is replaced by node.
func (c ClusterState) WithNode(node NodeState) ClusterState {
	nodes := make([]NodeState, 0, len(c.Nodes)+1)
	for _, n := range c.Nodes {
		if n.Hostname != node.Hostname {
			nodes = append(nodes, n)
		}
	}
	nodes = append(nodes, node)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Hostname < nodes[j].Hostname })
	return ClusterState{Nodes: nodes}
}

// PrimaryHolders lists the hostnames reporting a primary manifestation of id.
func (c ClusterState) PrimaryHolders(id uuid.UUID) []string {
	var holders []string
	for _, n := range c.Nodes {
		if m, ok := n.Manifestations[id]; ok && m.Primary {
			holders = append(holders, n.Hostname)
		}
	}
	sort.Strings(holders)
	return holders
}

// HasManifestation reports whether any node holds a copy of id.
func (c ClusterState) HasManifestation(id uuid.UUID) bool {
	for _, n := range c.Nodes {
		if _, ok := n.Manifestations[id]; ok {
			return true
		}
	}
	return false
}

// DatasetIDs returns every dataset id referenced by any node, ascending.
func (c ClusterState) DatasetIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	for _, n := range c.Nodes {
		for id := range n.Manifestations {
			seen[id] = struct{}{}
		}
	}
	ids := make([]uuid.UUID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	SortIDs(ids)
	return ids
}

// SortIDs orders dataset ids by their string form.
func SortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
}
