package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anthanhphan/go-dataset-agent/internal/agent/domain"
	"github.com/anthanhphan/go-dataset-agent/internal/agent/service/mocks"
	"github.com/anthanhphan/go-dataset-agent/pkg/resilience"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newDataset() domain.Dataset {
	return domain.Dataset{DatasetID: uuid.New(), MaximumSize: gib}
}

func TestActionExecutor_ParallelFailureIsolation(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockBackend(ctrl)

	ok1, bad, ok2 := newDataset(), newDataset(), newDataset()
	boom := errors.New("disk full")

	backend.EXPECT().CreateDataset(gomock.Any(), ok1).Return(domain.Manifestation{Dataset: ok1, Primary: true}, nil).Times(1)
	backend.EXPECT().CreateDataset(gomock.Any(), bad).Return(domain.Manifestation{}, boom).Times(1)
	backend.EXPECT().CreateDataset(gomock.Any(), ok2).Return(domain.Manifestation{Dataset: ok2, Primary: true}, nil).Times(1)

	var (
		mu       sync.Mutex
		observed []uuid.UUID
	)
	plan := PlanActions(domain.DatasetChanges{Creating: []domain.Dataset{ok1, bad, ok2}}, backend)
	result := NewActionExecutor(ExecutorConfig{Hostname: "h1"}).Execute(context.Background(), plan, func(o domain.LeafOutcome) {
		mu.Lock()
		defer mu.Unlock()
		if assert.NotNil(t, o.Manifestation) {
			observed = append(observed, o.Manifestation.Dataset.DatasetID)
		}
	})

	require.Len(t, result.Failures, 1)
	assert.Equal(t, bad.DatasetID, result.Failures[0].Action.Dataset.DatasetID)
	assert.ErrorIs(t, result.Failures[0].Err, boom)
	assert.Len(t, result.Completed, 2)
	assert.Empty(t, result.Skipped)
	assert.ElementsMatch(t, []uuid.UUID{ok1.DatasetID, ok2.DatasetID}, observed)
}

func TestActionExecutor_SequentialShortCircuit(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockBackend(ctrl)

	going, coming, created := newDataset(), newDataset(), newDataset()
	backend.EXPECT().HandoffDataset(gomock.Any(), going, "h2").Return(errors.New("peer unreachable"))
	// No expectation for wait, resize or create: gomock fails the test if they run.

	plan := PlanActions(domain.DatasetChanges{
		Going:    []domain.DatasetHandoff{{Dataset: going, Hostname: "h2"}},
		Coming:   []domain.Dataset{coming},
		Creating: []domain.Dataset{created},
	}, backend)

	result := NewActionExecutor(ExecutorConfig{}).Execute(context.Background(), plan, nil)

	assert.False(t, result.OK())
	require.Len(t, result.Failures, 1)
	assert.Equal(t, domain.ActionHandoff, result.Failures[0].Action.Kind)

	kinds := make([]domain.ActionKind, 0, len(result.Skipped))
	for _, a := range result.Skipped {
		kinds = append(kinds, a.Kind)
	}
	assert.Equal(t, []domain.ActionKind{domain.ActionWait, domain.ActionResize, domain.ActionCreate}, kinds)
}

func TestActionExecutor_WaitTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockBackend(ctrl)

	coming := newDataset()
	backend.EXPECT().WaitForDataset(gomock.Any(), coming).DoAndReturn(func(ctx context.Context, _ domain.Dataset) error {
		<-ctx.Done()
		return ctx.Err()
	})

	plan := PlanActions(domain.DatasetChanges{Coming: []domain.Dataset{coming}}, backend)
	result := NewActionExecutor(ExecutorConfig{WaitTimeout: 20 * time.Millisecond}).Execute(context.Background(), plan, nil)

	require.Len(t, result.Failures, 1)
	assert.ErrorIs(t, result.Failures[0].Err, context.DeadlineExceeded)
	assert.Contains(t, result.Failures[0].Err.Error(), "timed out")
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, domain.ActionResize, result.Skipped[0].Kind)
}

func TestActionExecutor_RecoversPanics(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockBackend(ctrl)

	d := newDataset()
	backend.EXPECT().DeleteDataset(gomock.Any(), d.DatasetID).DoAndReturn(func(context.Context, uuid.UUID) error {
		panic("driver bug")
	})

	plan := PlanActions(domain.DatasetChanges{Deleting: []domain.Dataset{d}}, backend)
	result := NewActionExecutor(ExecutorConfig{}).Execute(context.Background(), plan, nil)

	require.Len(t, result.Failures, 1)
	assert.ErrorIs(t, result.Failures[0].Err, ErrLeafPanicked)
}

func TestActionExecutor_BreakerIsolatesDatasets(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockBackend(ctrl)

	bad, healthy := newDataset(), newDataset()
	backend.EXPECT().ResizeDataset(gomock.Any(), bad).Return(domain.Manifestation{}, errors.New("api down")).Times(5)
	backend.EXPECT().ResizeDataset(gomock.Any(), healthy).Return(domain.Manifestation{Dataset: healthy, Primary: true}, nil).Times(1)

	executor := NewActionExecutor(ExecutorConfig{
		Breakers: resilience.NewBreakerGroup(resilience.CircuitBreakerConfig{FailureThreshold: 5, OpenTimeout: 10 * time.Second}),
	})
	resizeOnly := func(d domain.Dataset) Plan {
		return PlanActions(domain.DatasetChanges{Resizing: []domain.Dataset{d}}, backend)
	}

	for i := 0; i < 5; i++ {
		r := executor.Execute(context.Background(), resizeOnly(bad), nil)
		require.Len(t, r.Failures, 1)
	}

	// The bad dataset now fails fast without reaching the backend.
	r := executor.Execute(context.Background(), resizeOnly(bad), nil)
	require.Len(t, r.Failures, 1)
	assert.ErrorIs(t, r.Failures[0].Err, resilience.ErrCircuitOpen)

	r = executor.Execute(context.Background(), resizeOnly(healthy), nil)
	assert.Empty(t, r.Failures)
	assert.Len(t, r.Completed, 1)
}

func TestActionExecutor_PoolBoundsConcurrency(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockBackend(ctrl)

	var running, peak int32
	backend.EXPECT().ResizeDataset(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, d domain.Dataset) (domain.Manifestation, error) {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return domain.Manifestation{Dataset: d, Primary: true}, nil
	}).Times(4)

	pool := resilience.NewWorkerPool(2, 0)
	defer func() {
		pool.Close()
		pool.Wait()
	}()

	plan := PlanActions(domain.DatasetChanges{Resizing: []domain.Dataset{newDataset(), newDataset(), newDataset(), newDataset()}}, backend)
	result := NewActionExecutor(ExecutorConfig{Pool: pool}).Execute(context.Background(), plan, nil)

	assert.True(t, result.OK())
	assert.Len(t, result.Completed, 4)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestActionExecutor_CancelledContextDoesNotInterruptPlan(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockBackend(ctrl)

	d := newDataset()
	backend.EXPECT().CreateDataset(gomock.Any(), d).DoAndReturn(func(ctx context.Context, d domain.Dataset) (domain.Manifestation, error) {
		if err := ctx.Err(); err != nil {
			return domain.Manifestation{}, err
		}
		return domain.Manifestation{Dataset: d, Primary: true}, nil
	}).Times(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	plan := PlanActions(domain.DatasetChanges{Creating: []domain.Dataset{d}}, backend)
	result := NewActionExecutor(ExecutorConfig{LeafTimeout: time.Second}).Execute(ctx, plan, nil)

	assert.Empty(t, result.Failures)
	assert.Len(t, result.Completed, 1)
}
