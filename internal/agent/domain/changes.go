package domain

import "github.com/google/uuid"

// DatasetHandoff pairs a locally primary dataset with the host it is moving to.
type DatasetHandoff struct {
	Dataset  Dataset `json:"dataset"`
	Hostname string  `json:"hostname"`
}

// DatasetChanges classifies per-dataset work for one host. The categories are
// pairwise disjoint in dataset id.
type DatasetChanges struct {
	Creating []Dataset        `json:"creating,omitempty"`
	Resizing []Dataset        `json:"resizing,omitempty"`
	Going    []DatasetHandoff `json:"going,omitempty"`
	Coming   []Dataset        `json:"coming,omitempty"`
	Deleting []Dataset        `json:"deleting,omitempty"`
}

// IsEmpty reports whether no work is needed.
func (c DatasetChanges) IsEmpty() bool {
	return len(c.Creating) == 0 && len(c.Resizing) == 0 && len(c.Going) == 0 &&
		len(c.Coming) == 0 && len(c.Deleting) == 0
}

// Categories returns the dataset ids in each category keyed by category name.
func (c DatasetChanges) Categories() map[string][]uuid.UUID {
	ids := func(ds []Dataset) []uuid.UUID {
		out := make([]uuid.UUID, 0, len(ds))
		for _, d := range ds {
			out = append(out, d.DatasetID)
		}
		return out
	}
	going := make([]uuid.UUID, 0, len(c.Going))
	for _, h := range c.Going {
		going = append(going, h.Dataset.DatasetID)
	}
	return map[string][]uuid.UUID{
		"creating": ids(c.Creating),
		"resizing": ids(c.Resizing),
		"going":    going,
		"coming":   ids(c.Coming),
		"deleting": ids(c.Deleting),
	}
}

// Anomaly records a cluster-state inconsistency observed while diffing.
// The calculator reports it and carries on with the local view.
type Anomaly struct {
	DatasetID uuid.UUID `json:"dataset_id"`
	Primaries []string  `json:"primaries"`
}
