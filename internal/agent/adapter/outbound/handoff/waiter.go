package handoff

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/anthanhphan/go-dataset-agent/internal/agent/port"
	"github.com/anthanhphan/gosdk/logger"
	"github.com/google/uuid"
)

const defaultPollInterval = 500 * time.Millisecond

// Waiter polls aggregated cluster state until no node other than hostname
// holds the primary of a dataset.
type Waiter struct {
	hostname     string
	source       port.ClusterStateSource
	pollInterval time.Duration
}

func NewWaiter(hostname string, source port.ClusterStateSource, pollInterval time.Duration) *Waiter {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Waiter{hostname: hostname, source: source, pollInterval: pollInterval}
}

// WaitForRelease returns once the dataset is released or ctx ends.
// Read errors are retried on the next poll.
func (w *Waiter) WaitForRelease(ctx context.Context, datasetID uuid.UUID) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	var holders []string
	for {
		cluster, err := w.source.ClusterState(ctx)
		if err == nil {
			holders = slices.DeleteFunc(cluster.PrimaryHolders(datasetID), func(h string) bool {
				return h == w.hostname
			})
			if len(holders) == 0 {
				return nil
			}
			logger.Debugw("Dataset still primary elsewhere",
				"dataset_id", datasetID.String(),
				"holders", holders,
			)
		} else if ctx.Err() == nil {
			logger.Debugw("Failed to read cluster state while waiting",
				"dataset_id", datasetID.String(),
				"error", err.Error(),
			)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("dataset %s still primary on %v: %w", datasetID, holders, ctx.Err())
		case <-ticker.C:
		}
	}
}
