package domain

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/spaolacci/murmur3"
)

var (
	// ErrInvalidConfiguration marks a desired configuration that cannot be diffed.
	ErrInvalidConfiguration = errors.New("invalid desired configuration")
)

// DesiredDataset is the desired placement of one dataset.
type DesiredDataset struct {
	PrimaryHostname string            `json:"primary_hostname"`
	MaximumSize     uint64            `json:"maximum_size,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// DesiredConfiguration is an immutable snapshot of what the cluster should look like.
type DesiredConfiguration struct {
	Datasets map[uuid.UUID]DesiredDataset `json:"datasets"`
	// Deleted lists datasets explicitly removed from the configuration.
	Deleted []uuid.UUID `json:"deleted,omitempty"`
	// Leases maps a dataset to the hostname currently using it.
	Leases map[uuid.UUID]string `json:"leases,omitempty"`
}

// Desired returns the desired placement of id.
func (c DesiredConfiguration) Desired(id uuid.UUID) (DesiredDataset, bool) {
	d, ok := c.Datasets[id]
	return d, ok
}

// Dataset returns the desired Dataset value for id.
func (c DesiredConfiguration) Dataset(id uuid.UUID) (Dataset, bool) {
	d, ok := c.Datasets[id]
	if !ok {
		return Dataset{}, false
	}
	return Dataset{DatasetID: id, MaximumSize: d.MaximumSize, Metadata: d.Metadata}, true
}

// IsLeasedOn reports whether id is leased by hostname.
func (c DesiredConfiguration) IsLeasedOn(id uuid.UUID, hostname string) bool {
	holder, ok := c.Leases[id]
	return ok && holder == hostname
}

// DatasetIDs returns every dataset id the configuration mentions, ascending.
func (c DesiredConfiguration) DatasetIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(c.Datasets)+len(c.Deleted))
	for id := range c.Datasets {
		seen[id] = struct{}{}
	}
	for _, id := range c.Deleted {
		seen[id] = struct{}{}
	}
	ids := make([]uuid.UUID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	SortIDs(ids)
	return ids
}

// Validate rejects configurations that cannot be diffed at all.
func (c DesiredConfiguration) Validate() error {
	for id, d := range c.Datasets {
		if id == uuid.Nil {
			return fmt.Errorf("%w: nil dataset id", ErrInvalidConfiguration)
		}
		if d.PrimaryHostname == "" {
			return fmt.Errorf("%w: dataset %s has no primary hostname", ErrInvalidConfiguration, id)
		}
	}
	for _, id := range c.Deleted {
		if _, ok := c.Datasets[id]; ok {
			return fmt.Errorf("%w: dataset %s is both desired and deleted", ErrInvalidConfiguration, id)
		}
	}
	for id, holder := range c.Leases {
		if holder == "" {
			return fmt.Errorf("%w: lease on dataset %s has no hostname", ErrInvalidConfiguration, id)
		}
	}
	return nil
}

// Fingerprint hashes the configuration independent of map ordering.
func (c DesiredConfiguration) Fingerprint() uint64 {
	h := murmur3.New64()
	var buf [8]byte

	for _, id := range c.DatasetIDs() {
		_, _ = h.Write(id[:])
		d, ok := c.Datasets[id]
		if !ok {
			_, _ = h.Write([]byte{0})
			continue
		}
		_, _ = h.Write([]byte{1})
		_, _ = h.Write([]byte(d.PrimaryHostname))
		binary.BigEndian.PutUint64(buf[:], d.MaximumSize)
		_, _ = h.Write(buf[:])

		keys := make([]string, 0, len(d.Metadata))
		for k := range d.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			_, _ = h.Write([]byte(k))
			_, _ = h.Write([]byte{'='})
			_, _ = h.Write([]byte(d.Metadata[k]))
		}
	}

	leased := make([]uuid.UUID, 0, len(c.Leases))
	for id := range c.Leases {
		leased = append(leased, id)
	}
	SortIDs(leased)
	for _, id := range leased {
		_, _ = h.Write(id[:])
		_, _ = h.Write([]byte(c.Leases[id]))
	}

	return h.Sum64()
}
