package port

import (
	"context"

	"github.com/anthanhphan/go-dataset-agent/internal/agent/domain"
	"github.com/google/uuid"
)

//go:generate mockgen -destination=../service/mocks/backend_mock.go -package=mocks -source=backend.go

// Backend is the storage technology the agent converges. Every call may be
// re-issued on a later iteration and must be safely retryable.
type Backend interface {
	// DiscoverState reports the manifestations physically present on this node.
	DiscoverState(ctx context.Context) (domain.NodeState, error)

	// CreateDataset creates a new primary manifestation.
	CreateDataset(ctx context.Context, dataset domain.Dataset) (domain.Manifestation, error)

	// ResizeDataset resizes a local dataset and leaves it primary here.
	// It is also how an arrived dataset is promoted after a wait.
	ResizeDataset(ctx context.Context, dataset domain.Dataset) (domain.Manifestation, error)

	// HandoffDataset releases local primary status in favour of hostname.
	HandoffDataset(ctx context.Context, dataset domain.Dataset, hostname string) error

	// WaitForDataset blocks until no other node claims the primary.
	WaitForDataset(ctx context.Context, dataset domain.Dataset) error

	// DeleteDataset removes every local copy of the dataset.
	DeleteDataset(ctx context.Context, datasetID uuid.UUID) error
}

// ReleaseWaiter blocks until no node other than the local one claims a
// dataset's primary. Backends delegate WaitForDataset to it.
type ReleaseWaiter interface {
	WaitForRelease(ctx context.Context, datasetID uuid.UUID) error
}
