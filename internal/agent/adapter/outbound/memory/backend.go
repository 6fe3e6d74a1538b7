package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/anthanhphan/go-dataset-agent/internal/agent/domain"
	"github.com/anthanhphan/go-dataset-agent/internal/agent/port"
	"github.com/google/uuid"
)

var ErrDatasetNotFound = errors.New("dataset not found on this node")

// Backend keeps manifestations in memory. Used for development and tests.
type Backend struct {
	hostname string
	waiter   port.ReleaseWaiter

	mu             sync.RWMutex
	manifestations map[uuid.UUID]domain.Manifestation
	failures       map[domain.ActionKind]error
}

// Ensure Backend implements port.Backend.
var _ port.Backend = (*Backend)(nil)

// NewBackend creates an empty backend. A nil waiter makes waits return at once.
func NewBackend(hostname string, waiter port.ReleaseWaiter) *Backend {
	return &Backend{
		hostname:       hostname,
		waiter:         waiter,
		manifestations: make(map[uuid.UUID]domain.Manifestation),
		failures:       make(map[domain.ActionKind]error),
	}
}

// Seed installs manifestations as if they had been discovered on disk.
func (b *Backend) Seed(manifestations ...domain.Manifestation) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, m := range manifestations {
		b.manifestations[m.Dataset.DatasetID] = m
	}
}

// FailWith makes every later call of kind fail with err. A nil err clears it.
func (b *Backend) FailWith(kind domain.ActionKind, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.failures, kind)
		return
	}
	b.failures[kind] = err
}

func (b *Backend) DiscoverState(ctx context.Context) (domain.NodeState, error) {
	if err := ctx.Err(); err != nil {
		return domain.NodeState{}, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	ms := make([]domain.Manifestation, 0, len(b.manifestations))
	for _, m := range b.manifestations {
		ms = append(ms, m)
	}
	return domain.NewNodeState(b.hostname, ms...), nil
}

func (b *Backend) CreateDataset(ctx context.Context, dataset domain.Dataset) (domain.Manifestation, error) {
	return b.upsertPrimary(ctx, domain.ActionCreate, dataset)
}

func (b *Backend) ResizeDataset(ctx context.Context, dataset domain.Dataset) (domain.Manifestation, error) {
	return b.upsertPrimary(ctx, domain.ActionResize, dataset)
}

func (b *Backend) HandoffDataset(ctx context.Context, dataset domain.Dataset, hostname string) error {
	if err := b.check(ctx, domain.ActionHandoff); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	m, ok := b.manifestations[dataset.DatasetID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrDatasetNotFound, dataset.DatasetID)
	}
	m.Primary = false
	b.manifestations[dataset.DatasetID] = m
	return nil
}

func (b *Backend) WaitForDataset(ctx context.Context, dataset domain.Dataset) error {
	if err := b.check(ctx, domain.ActionWait); err != nil {
		return err
	}
	if b.waiter == nil {
		return nil
	}
	return b.waiter.WaitForRelease(ctx, dataset.DatasetID)
}

func (b *Backend) DeleteDataset(ctx context.Context, datasetID uuid.UUID) error {
	if err := b.check(ctx, domain.ActionDelete); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.manifestations, datasetID)
	return nil
}

func (b *Backend) upsertPrimary(ctx context.Context, kind domain.ActionKind, dataset domain.Dataset) (domain.Manifestation, error) {
	if err := b.check(ctx, kind); err != nil {
		return domain.Manifestation{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	m := domain.Manifestation{Dataset: dataset.WithMaximumSize(dataset.MaximumSize), Primary: true}
	b.manifestations[dataset.DatasetID] = m
	return m, nil
}

func (b *Backend) check(ctx context.Context, kind domain.ActionKind) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.failures[kind]
}
