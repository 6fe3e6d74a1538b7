package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeState_WithManifestationDoesNotMutate(t *testing.T) {
	d1 := Dataset{DatasetID: uuid.New(), MaximumSize: 10}
	original := NewNodeState("h1")

	next := original.WithManifestation(Manifestation{Dataset: d1, Primary: true})

	assert.Empty(t, original.Manifestations)
	m, ok := next.Manifestation(d1.DatasetID)
	require.True(t, ok)
	assert.True(t, m.Primary)

	removed := next.WithoutDataset(d1.DatasetID)
	assert.Empty(t, removed.Manifestations)
	assert.Len(t, next.Manifestations, 1)
}

func TestNodeState_Equal(t *testing.T) {
	id := uuid.New()
	a := NewNodeState("h1", Manifestation{Dataset: Dataset{DatasetID: id, Metadata: map[string]string{"k": "v"}}, Primary: true})
	b := NewNodeState("h1", Manifestation{Dataset: Dataset{DatasetID: id, Metadata: map[string]string{"k": "v"}}, Primary: true})
	c := NewNodeState("h1", Manifestation{Dataset: Dataset{DatasetID: id}, Primary: false})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestClusterState_WithNodeReplacesHost(t *testing.T) {
	id := uuid.New()
	stale := NewNodeState("h1", Manifestation{Dataset: Dataset{DatasetID: id}, Primary: true})
	other := NewNodeState("h2")
	cluster := ClusterState{Nodes: []NodeState{stale, other}}

	fresh := NewNodeState("h1", Manifestation{Dataset: Dataset{DatasetID: id}, Primary: false})
	next := cluster.WithNode(fresh)

	require.Len(t, next.Nodes, 2)
	got, ok := next.Node("h1")
	require.True(t, ok)
	assert.False(t, got.Manifestations[id].Primary)
	assert.Equal(t, []string{"h1"}, cluster.PrimaryHolders(id))
	assert.Empty(t, next.PrimaryHolders(id))
	assert.True(t, next.HasManifestation(id))
}

func TestDesiredConfiguration_Validate(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name    string
		cfg     DesiredConfiguration
		wantErr bool
	}{
		{
			name: "Valid",
			cfg: DesiredConfiguration{
				Datasets: map[uuid.UUID]DesiredDataset{id: {PrimaryHostname: "h1"}},
				Leases:   map[uuid.UUID]string{id: "h1"},
			},
		},
		{
			name:    "MissingPrimary",
			cfg:     DesiredConfiguration{Datasets: map[uuid.UUID]DesiredDataset{id: {}}},
			wantErr: true,
		},
		{
			name:    "NilID",
			cfg:     DesiredConfiguration{Datasets: map[uuid.UUID]DesiredDataset{uuid.Nil: {PrimaryHostname: "h1"}}},
			wantErr: true,
		},
		{
			name: "DesiredAndDeleted",
			cfg: DesiredConfiguration{
				Datasets: map[uuid.UUID]DesiredDataset{id: {PrimaryHostname: "h1"}},
				Deleted:  []uuid.UUID{id},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidConfiguration), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDesiredConfiguration_Fingerprint(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	cfg1 := DesiredConfiguration{Datasets: map[uuid.UUID]DesiredDataset{
		a: {PrimaryHostname: "h1", MaximumSize: 10, Metadata: map[string]string{"x": "1", "y": "2"}},
		b: {PrimaryHostname: "h2"},
	}}
	cfg2 := DesiredConfiguration{Datasets: map[uuid.UUID]DesiredDataset{
		b: {PrimaryHostname: "h2"},
		a: {PrimaryHostname: "h1", MaximumSize: 10, Metadata: map[string]string{"y": "2", "x": "1"}},
	}}
	assert.Equal(t, cfg1.Fingerprint(), cfg2.Fingerprint())

	moved := DesiredConfiguration{Datasets: map[uuid.UUID]DesiredDataset{
		a: {PrimaryHostname: "h2", MaximumSize: 10, Metadata: map[string]string{"x": "1", "y": "2"}},
		b: {PrimaryHostname: "h2"},
	}}
	assert.NotEqual(t, cfg1.Fingerprint(), moved.Fingerprint())
}

func TestIterationReport_DatasetStatuses(t *testing.T) {
	id := uuid.New()
	other := uuid.New()
	report := IterationReport{Outcomes: []DatasetOutcome{
		{DatasetID: id, Action: "wait", Status: StatusSucceeded},
		{DatasetID: id, Action: "resize", Status: StatusFailed, Error: "boom"},
		{DatasetID: other, Action: "create", Status: StatusSucceeded},
	}}

	statuses := report.DatasetStatuses()
	assert.Equal(t, StatusFailed, statuses[id])
	assert.Equal(t, StatusSucceeded, statuses[other])
	assert.False(t, report.Succeeded())
	assert.True(t, IterationReport{}.Succeeded())
}

func TestActionTree_Leaves(t *testing.T) {
	d1 := Dataset{DatasetID: uuid.New()}
	d2 := Dataset{DatasetID: uuid.New()}
	tree := Sequentially{Steps: []ActionTree{
		InParallel{Branches: []ActionTree{Action{Kind: ActionWait, Dataset: d1}}},
		InParallel{Branches: []ActionTree{Action{Kind: ActionResize, Dataset: d1}, Action{Kind: ActionCreate, Dataset: d2}}},
	}}

	leaves := tree.Leaves()
	require.Len(t, leaves, 3)
	assert.Equal(t, ActionWait, leaves[0].Kind)
	assert.Equal(t, "create", leaves[2].Kind.String())
}
