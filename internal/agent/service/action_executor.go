package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/anthanhphan/go-dataset-agent/internal/agent/domain"
	"github.com/anthanhphan/go-dataset-agent/internal/agent/metrics"
	"github.com/anthanhphan/go-dataset-agent/internal/agent/port"
	"github.com/anthanhphan/go-dataset-agent/pkg/resilience"
	"github.com/anthanhphan/gosdk/logger"
)

var (
	ErrUnknownAction = errors.New("unknown action kind")
	ErrLeafPanicked  = errors.New("leaf action panicked")
)

// LeafObserver is told about every successful leaf as soon as it finishes.
// Leaves of one InParallel phase report from separate goroutines.
type LeafObserver func(domain.LeafOutcome)

// ExecutorConfig tunes leaf execution. Zero values disable the matching limit.
type ExecutorConfig struct {
	// Hostname labels metrics and logs.
	Hostname string
	// LeafTimeout bounds every backend call except waits.
	LeafTimeout time.Duration
	// WaitTimeout bounds a wait leaf.
	WaitTimeout time.Duration
	// Pool caps concurrently running leaves.
	Pool *resilience.WorkerPool
	// Breakers fail a leaf fast while its action kind keeps failing. Waits bypass them.
	Breakers *resilience.BreakerGroup
}

type leafHandler func(ctx context.Context, backend port.Backend, action domain.Action) (*domain.Manifestation, error)

// ActionExecutor walks a plan. Sequentially stops at the first failed step,
// InParallel always waits for every branch. No error escapes Execute.
type ActionExecutor struct {
	cfg      ExecutorConfig
	handlers map[domain.ActionKind]leafHandler
}

func NewActionExecutor(cfg ExecutorConfig) *ActionExecutor {
	return &ActionExecutor{
		cfg: cfg,
		handlers: map[domain.ActionKind]leafHandler{
			domain.ActionCreate:  createLeaf,
			domain.ActionResize:  resizeLeaf,
			domain.ActionHandoff: handoffLeaf,
			domain.ActionWait:    waitLeaf,
			domain.ActionDelete:  deleteLeaf,
		},
	}
}

// Execute runs plan and aggregates every leaf result. Cancelling ctx does not
// interrupt a running plan; leaf timeouts are the only way a leaf is cut short.
func (e *ActionExecutor) Execute(ctx context.Context, plan Plan, observe LeafObserver) domain.ExecutionResult {
	if observe == nil {
		observe = func(domain.LeafOutcome) {}
	}
	return e.run(context.WithoutCancel(ctx), plan.Backend, plan.Root, observe)
}

func (e *ActionExecutor) run(ctx context.Context, backend port.Backend, tree domain.ActionTree, observe LeafObserver) domain.ExecutionResult {
	switch node := tree.(type) {
	case domain.Action:
		return e.runLeaf(ctx, backend, node, observe)
	case domain.Sequentially:
		return e.runSequentially(ctx, backend, node, observe)
	case domain.InParallel:
		return e.runInParallel(ctx, backend, node, observe)
	default:
		var result domain.ExecutionResult
		for _, leaf := range tree.Leaves() {
			result.Failures = append(result.Failures, domain.LeafFailure{
				Action: leaf,
				Err:    fmt.Errorf("unsupported plan node %T", tree),
			})
		}
		return result
	}
}

func (e *ActionExecutor) runSequentially(ctx context.Context, backend port.Backend, seq domain.Sequentially, observe LeafObserver) domain.ExecutionResult {
	var result domain.ExecutionResult
	for i, step := range seq.Steps {
		stepResult := e.run(ctx, backend, step, observe)
		result = result.Merge(stepResult)
		if stepResult.OK() {
			continue
		}

		for _, rest := range seq.Steps[i+1:] {
			for _, leaf := range rest.Leaves() {
				result.Skipped = append(result.Skipped, leaf)
				metrics.ObserveLeaf(e.cfg.Hostname, leaf.Kind, domain.StatusSkipped, 0)
			}
		}
		return result
	}
	return result
}

func (e *ActionExecutor) runInParallel(ctx context.Context, backend port.Backend, par domain.InParallel, observe LeafObserver) domain.ExecutionResult {
	results := make([]domain.ExecutionResult, len(par.Branches))

	var wg sync.WaitGroup
	for i, branch := range par.Branches {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = e.run(ctx, backend, branch, observe)
		}()
	}
	wg.Wait()

	var merged domain.ExecutionResult
	for _, r := range results {
		merged = merged.Merge(r)
	}
	return merged
}

func (e *ActionExecutor) runLeaf(ctx context.Context, backend port.Backend, action domain.Action, observe LeafObserver) domain.ExecutionResult {
	start := time.Now()

	var (
		manifestation *domain.Manifestation
		err           error
	)
	call := func(ctx context.Context) error {
		manifestation, err = e.invoke(ctx, backend, action)
		return err
	}

	guarded := func() {
		if e.cfg.Breakers != nil && action.Kind != domain.ActionWait {
			err = e.cfg.Breakers.Execute(ctx, breakerKey(action), call)
			return
		}
		err = call(ctx)
	}

	if e.cfg.Pool != nil {
		if poolErr := e.cfg.Pool.Do(ctx, guarded); poolErr != nil {
			err = fmt.Errorf("failed to schedule %s: %w", action, poolErr)
		}
	} else {
		guarded()
	}

	elapsed := time.Since(start)
	if err != nil {
		logger.Warnw("Leaf action failed",
			"hostname", e.cfg.Hostname,
			"action", action.Kind.String(),
			"dataset_id", action.Dataset.DatasetID.String(),
			"elapsed", elapsed.String(),
			"error", err.Error(),
		)
		metrics.ObserveLeaf(e.cfg.Hostname, action.Kind, domain.StatusFailed, elapsed)
		return domain.ExecutionResult{Failures: []domain.LeafFailure{{Action: action, Err: err}}}
	}

	logger.Debugw("Leaf action succeeded",
		"hostname", e.cfg.Hostname,
		"action", action.Kind.String(),
		"dataset_id", action.Dataset.DatasetID.String(),
		"elapsed", elapsed.String(),
	)
	metrics.ObserveLeaf(e.cfg.Hostname, action.Kind, domain.StatusSucceeded, elapsed)

	outcome := domain.LeafOutcome{Action: action, Manifestation: manifestation}
	observe(outcome)
	return domain.ExecutionResult{Completed: []domain.LeafOutcome{outcome}}
}

// breakerKey scopes a breaker to one dataset's action kind so a failing
// dataset never rejects calls for another.
func breakerKey(action domain.Action) string {
	return action.Kind.String() + ":" + action.Dataset.DatasetID.String()
}

// invoke dispatches one leaf under its timeout and turns panics into errors.
func (e *ActionExecutor) invoke(ctx context.Context, backend port.Backend, action domain.Action) (m *domain.Manifestation, err error) {
	handler, ok := e.handlers[action.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, action.Kind)
	}
	timeout := e.cfg.LeafTimeout
	if action.Kind == domain.ActionWait {
		timeout = e.cfg.WaitTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("%w: %s: %v", ErrLeafPanicked, action, r)
		}
	}()

	m, err = handler(ctx, backend, action)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && timeout > 0 {
		err = fmt.Errorf("%s timed out after %s: %w", action, timeout, err)
	}
	return m, err
}

func createLeaf(ctx context.Context, backend port.Backend, action domain.Action) (*domain.Manifestation, error) {
	m, err := backend.CreateDataset(ctx, action.Dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset %s: %w", action.Dataset.DatasetID, err)
	}
	return &m, nil
}

func resizeLeaf(ctx context.Context, backend port.Backend, action domain.Action) (*domain.Manifestation, error) {
	m, err := backend.ResizeDataset(ctx, action.Dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to resize dataset %s: %w", action.Dataset.DatasetID, err)
	}
	return &m, nil
}

func handoffLeaf(ctx context.Context, backend port.Backend, action domain.Action) (*domain.Manifestation, error) {
	if err := backend.HandoffDataset(ctx, action.Dataset, action.Hostname); err != nil {
		return nil, fmt.Errorf("failed to hand off dataset %s to %s: %w", action.Dataset.DatasetID, action.Hostname, err)
	}
	return nil, nil
}

func waitLeaf(ctx context.Context, backend port.Backend, action domain.Action) (*domain.Manifestation, error) {
	if err := backend.WaitForDataset(ctx, action.Dataset); err != nil {
		return nil, fmt.Errorf("failed to wait for dataset %s: %w", action.Dataset.DatasetID, err)
	}
	return nil, nil
}

func deleteLeaf(ctx context.Context, backend port.Backend, action domain.Action) (*domain.Manifestation, error) {
	if err := backend.DeleteDataset(ctx, action.Dataset.DatasetID); err != nil {
		return nil, fmt.Errorf("failed to delete dataset %s: %w", action.Dataset.DatasetID, err)
	}
	return nil, nil
}
