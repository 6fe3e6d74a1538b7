package loopback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/anthanhphan/go-dataset-agent/internal/agent/domain"
	"github.com/anthanhphan/go-dataset-agent/internal/agent/port"
	"github.com/anthanhphan/gosdk/logger"
	"github.com/google/uuid"
)

const (
	ImageSuffix    = ".img"
	ManifestSuffix = ".json"
)

var (
	ErrDatasetNotFound = errors.New("dataset not found on this node")
	ErrSizeTooLarge    = errors.New("maximum size exceeds what an image file can hold")
)

// manifestRecord is the on-disk description of one local manifestation.
type manifestRecord struct {
	Dataset domain.Dataset `json:"dataset"`
	Primary bool           `json:"primary"`
}

// Backend stores each dataset as a sparse image file sized to its maximum
// size, next to a manifest recording whether this node is primary.
type Backend struct {
	hostname string
	dirPath  string
	waiter   port.ReleaseWaiter

	mu sync.Mutex
}

// Ensure Backend implements port.Backend.
var _ port.Backend = (*Backend)(nil)

// NewBackend prepares rootDir and returns a backend rooted there.
func NewBackend(hostname, rootDir string, waiter port.ReleaseWaiter) (*Backend, error) {
	if rootDir == "" {
		return nil, fmt.Errorf("loopback root directory is required")
	}
	if err := os.MkdirAll(rootDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create loopback directory: %w", err)
	}
	return &Backend{hostname: hostname, dirPath: filepath.Clean(rootDir), waiter: waiter}, nil
}

func (b *Backend) imagePath(id uuid.UUID) string {
	return filepath.Join(b.dirPath, id.String()+ImageSuffix)
}

func (b *Backend) manifestPath(id uuid.UUID) string {
	return filepath.Join(b.dirPath, id.String()+ManifestSuffix)
}

// DiscoverState scans manifests. A manifest without its image is ignored.
func (b *Backend) DiscoverState(ctx context.Context) (domain.NodeState, error) {
	if err := ctx.Err(); err != nil {
		return domain.NodeState{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	entries, err := os.ReadDir(b.dirPath)
	if err != nil {
		return domain.NodeState{}, fmt.Errorf("failed to list loopback directory: %w", err)
	}

	var ms []domain.Manifestation
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ManifestSuffix) {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(name, ManifestSuffix))
		if err != nil {
			continue
		}

		record, err := b.readManifest(id)
		if err != nil {
			return domain.NodeState{}, err
		}
		if _, err := os.Stat(b.imagePath(id)); err != nil {
			logger.Warnw("Manifest without image, ignoring", "dataset_id", id.String(), "error", err.Error())
			continue
		}
		ms = append(ms, domain.Manifestation{Dataset: record.Dataset, Primary: record.Primary})
	}
	return domain.NewNodeState(b.hostname, ms...), nil
}

func (b *Backend) CreateDataset(ctx context.Context, dataset domain.Dataset) (domain.Manifestation, error) {
	return b.sizePrimary(ctx, dataset)
}

// ResizeDataset also promotes a dataset that arrived from another node.
func (b *Backend) ResizeDataset(ctx context.Context, dataset domain.Dataset) (domain.Manifestation, error) {
	return b.sizePrimary(ctx, dataset)
}

func (b *Backend) HandoffDataset(ctx context.Context, dataset domain.Dataset, hostname string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	record, err := b.readManifest(dataset.DatasetID)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrDatasetNotFound, dataset.DatasetID)
	}
	if err != nil {
		return err
	}
	record.Primary = false
	if err := b.writeManifest(record); err != nil {
		return err
	}

	logger.Infow("Released primary", "dataset_id", dataset.DatasetID.String(), "destination", hostname)
	return nil
}

func (b *Backend) WaitForDataset(ctx context.Context, dataset domain.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.waiter == nil {
		return nil
	}
	return b.waiter.WaitForRelease(ctx, dataset.DatasetID)
}

func (b *Backend) DeleteDataset(ctx context.Context, datasetID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Manifest first so a half-deleted dataset is never rediscovered.
	for _, path := range []string{b.manifestPath(datasetID), b.imagePath(datasetID)} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

func (b *Backend) sizePrimary(ctx context.Context, dataset domain.Dataset) (domain.Manifestation, error) {
	if err := ctx.Err(); err != nil {
		return domain.Manifestation{}, err
	}
	if dataset.MaximumSize > math.MaxInt64 {
		return domain.Manifestation{}, fmt.Errorf("%w: dataset %s wants %d bytes", ErrSizeTooLarge, dataset.DatasetID, dataset.MaximumSize)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	f, err := os.OpenFile(b.imagePath(dataset.DatasetID), os.O_RDWR|os.O_CREATE, 0640)
	if err != nil {
		return domain.Manifestation{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer func() { _ = f.Close() }()

	if dataset.MaximumSize > 0 {
		if err := f.Truncate(int64(dataset.MaximumSize)); err != nil {
			return domain.Manifestation{}, fmt.Errorf("failed to size image: %w", err)
		}
	}

	record := manifestRecord{Dataset: dataset, Primary: true}
	if err := b.writeManifest(record); err != nil {
		return domain.Manifestation{}, err
	}
	return domain.Manifestation{Dataset: dataset, Primary: true}, nil
}

func (b *Backend) readManifest(id uuid.UUID) (manifestRecord, error) {
	var record manifestRecord
	data, err := os.ReadFile(b.manifestPath(id))
	if err != nil {
		return record, err
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return record, fmt.Errorf("failed to decode manifest %s: %w", id, err)
	}
	return record, nil
}

// writeManifest replaces the manifest through a rename so readers never see a torn file.
func (b *Backend) writeManifest(record manifestRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	target := b.manifestPath(record.Dataset.DatasetID)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0640); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("failed to commit manifest: %w", err)
	}
	return nil
}
