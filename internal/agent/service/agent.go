package service

import (
	"context"
	"sync"
	"time"

	"github.com/anthanhphan/go-dataset-agent/internal/agent/domain"
	"github.com/anthanhphan/go-dataset-agent/internal/agent/metrics"
	"github.com/anthanhphan/go-dataset-agent/internal/agent/port"
)

var ErrIterationInProgress = port.ErrIterationInProgress

// IDGenerator hands out iteration identifiers.
type IDGenerator interface {
	Next() (int64, error)
}

// AgentConfig holds the loop cadence for one node.
type AgentConfig struct {
	Hostname   string
	Interval   time.Duration
	MaxBackoff time.Duration
}

func (c AgentConfig) withDefaults() AgentConfig {
	if c.Interval <= 0 {
		c.Interval = time.Second
	}
	if c.MaxBackoff < c.Interval {
		c.MaxBackoff = c.Interval
	}
	return c
}

// AgentServiceImpl is a facade that composes the convergence use-case services.
type AgentServiceImpl struct {
	cfg      AgentConfig
	backend  port.Backend
	cluster  port.ClusterStateSource
	reporter port.StateReporter
	desired  port.ConfigurationSource
	executor *ActionExecutor
	ids      IDGenerator

	running sync.Mutex

	mu         sync.RWMutex
	local      domain.NodeState
	lastReport *domain.IterationReport
	phase      domain.AgentPhase

	iteration *iterationService
	schedule  *scheduleService
}

// Ensure AgentServiceImpl implements port.AgentService.
var _ port.AgentService = (*AgentServiceImpl)(nil)

// AgentDeps groups the collaborators of one agent.
type AgentDeps struct {
	Backend  port.Backend
	Cluster  port.ClusterStateSource
	Reporter port.StateReporter
	Desired  port.ConfigurationSource
	Executor *ActionExecutor
	IDs      IDGenerator
}

// NewAgentService builds the agent facade and all use-case services.
func NewAgentService(cfg AgentConfig, deps AgentDeps) *AgentServiceImpl {
	cfg = cfg.withDefaults()
	if deps.Executor == nil {
		deps.Executor = NewActionExecutor(ExecutorConfig{Hostname: cfg.Hostname})
	}
	if deps.IDs == nil {
		deps.IDs = &clockIDs{}
	}

	svc := &AgentServiceImpl{
		cfg:      cfg,
		backend:  deps.Backend,
		cluster:  deps.Cluster,
		reporter: deps.Reporter,
		desired:  deps.Desired,
		executor: deps.Executor,
		ids:      deps.IDs,
		local:    domain.NewNodeState(cfg.Hostname),
		phase:    domain.PhaseIdle,
	}

	svc.iteration = newIterationService(svc)
	svc.schedule = newScheduleService(svc)

	return svc
}

// RunOnce performs one iteration. It fails with ErrIterationInProgress
// instead of overlapping a running one.
func (s *AgentServiceImpl) RunOnce(ctx context.Context) (domain.IterationReport, error) {
	if !s.running.TryLock() {
		return domain.IterationReport{}, ErrIterationInProgress
	}
	defer s.running.Unlock()

	return s.iteration.runOnce(ctx)
}

// Run repeats iterations with backoff until ctx is cancelled.
func (s *AgentServiceImpl) Run(ctx context.Context) {
	s.schedule.run(ctx)
}

// LocalState returns the node state owned by this agent.
func (s *AgentServiceImpl) LocalState() domain.NodeState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.local
}

// LastReport returns the most recent iteration report.
func (s *AgentServiceImpl) LastReport() (domain.IterationReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastReport == nil {
		return domain.IterationReport{}, false
	}
	return *s.lastReport, true
}

// Phase returns the agent's current phase.
func (s *AgentServiceImpl) Phase() domain.AgentPhase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

func (s *AgentServiceImpl) setPhase(phase domain.AgentPhase) {
	s.mu.Lock()
	s.phase = phase
	s.mu.Unlock()
	metrics.SetPhase(s.cfg.Hostname, phase)
}

func (s *AgentServiceImpl) replaceLocal(state domain.NodeState) {
	s.mu.Lock()
	s.local = state
	s.mu.Unlock()
}

// updateLocal applies fn to the local state and returns the result.
func (s *AgentServiceImpl) updateLocal(fn func(domain.NodeState) domain.NodeState) domain.NodeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.local = fn(s.local)
	return s.local
}

func (s *AgentServiceImpl) storeReport(report domain.IterationReport) {
	s.mu.Lock()
	s.lastReport = &report
	s.mu.Unlock()
}

// clockIDs is the fallback id source when no snowflake generator is wired.
type clockIDs struct {
	mu   sync.Mutex
	last int64
}

func (c *clockIDs) Next() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := time.Now().UnixNano()
	if id <= c.last {
		id = c.last + 1
	}
	c.last = id
	return id, nil
}
