package filecfg

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/anthanhphan/go-dataset-agent/internal/agent/domain"
	"github.com/anthanhphan/go-dataset-agent/internal/agent/port"
	"github.com/anthanhphan/gosdk/conflux"
	"github.com/google/uuid"
)

// Document is the on-disk desired configuration, YAML or JSON.
type Document struct {
	Datasets []DatasetEntry    `json:"datasets" yaml:"datasets"`
	Deleted  []string          `json:"deleted" yaml:"deleted"`
	Leases   map[string]string `json:"leases" yaml:"leases"`
}

type DatasetEntry struct {
	ID              string            `json:"id" yaml:"id"`
	PrimaryHostname string            `json:"primary_hostname" yaml:"primary_hostname"`
	MaximumSize     uint64            `json:"maximum_size" yaml:"maximum_size"`
	Metadata        map[string]string `json:"metadata" yaml:"metadata"`
}

// Source re-reads the document on every call so edits apply on the next iteration.
type Source struct {
	path string
}

var _ port.ConfigurationSource = (*Source)(nil)

func NewSource(path string) *Source {
	return &Source{path: path}
}

func (s *Source) DesiredConfiguration(ctx context.Context) (domain.DesiredConfiguration, error) {
	if err := ctx.Err(); err != nil {
		return domain.DesiredConfiguration{}, err
	}

	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return domain.DesiredConfiguration{}, fmt.Errorf("%w: %s does not exist", port.ErrNoDesiredConfiguration, s.path)
	}

	doc, err := conflux.ParseConfig(s.path, &Document{})
	if err != nil {
		return domain.DesiredConfiguration{}, fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, err)
	}
	return doc.ToDesired()
}

// ToDesired converts string ids into a DesiredConfiguration.
func (d Document) ToDesired() (domain.DesiredConfiguration, error) {
	cfg := domain.DesiredConfiguration{
		Datasets: make(map[uuid.UUID]domain.DesiredDataset, len(d.Datasets)),
		Leases:   make(map[uuid.UUID]string, len(d.Leases)),
	}

	for _, entry := range d.Datasets {
		id, err := parseID(entry.ID)
		if err != nil {
			return domain.DesiredConfiguration{}, err
		}
		if _, dup := cfg.Datasets[id]; dup {
			return domain.DesiredConfiguration{}, fmt.Errorf("%w: dataset %s listed twice", domain.ErrInvalidConfiguration, id)
		}
		cfg.Datasets[id] = domain.DesiredDataset{
			PrimaryHostname: entry.PrimaryHostname,
			MaximumSize:     entry.MaximumSize,
			Metadata:        entry.Metadata,
		}
	}
	for _, raw := range d.Deleted {
		id, err := parseID(raw)
		if err != nil {
			return domain.DesiredConfiguration{}, err
		}
		cfg.Deleted = append(cfg.Deleted, id)
	}
	for raw, holder := range d.Leases {
		id, err := parseID(raw)
		if err != nil {
			return domain.DesiredConfiguration{}, err
		}
		cfg.Leases[id] = holder
	}

	if err := cfg.Validate(); err != nil {
		return domain.DesiredConfiguration{}, err
	}
	return cfg, nil
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad dataset id %q", domain.ErrInvalidConfiguration, raw)
	}
	return id, nil
}
