package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/anthanhphan/go-dataset-agent/internal/agent/domain"
	"github.com/anthanhphan/go-dataset-agent/internal/agent/port"
)

const maxReportsPerHost = 64

// ClusterStore is an in-process aggregation point shared by agents in one
// process. It stands in for the redis and gossip collaborators.
type ClusterStore struct {
	mu      sync.RWMutex
	nodes   map[string]domain.NodeState
	reports map[string][]domain.IterationReport
	desired *domain.DesiredConfiguration
}

var (
	_ port.ClusterStateSource  = (*ClusterStore)(nil)
	_ port.StateReporter       = (*ClusterStore)(nil)
	_ port.ConfigurationSource = (*ClusterStore)(nil)
)

func NewClusterStore() *ClusterStore {
	return &ClusterStore{
		nodes:   make(map[string]domain.NodeState),
		reports: make(map[string][]domain.IterationReport),
	}
}

func (s *ClusterStore) ClusterState(ctx context.Context) (domain.ClusterState, error) {
	if err := ctx.Err(); err != nil {
		return domain.ClusterState{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]domain.NodeState, 0, len(s.nodes))
	for _, n := range s.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Hostname < nodes[j].Hostname })
	return domain.ClusterState{Nodes: nodes}, nil
}

func (s *ClusterStore) ReportNodeState(ctx context.Context, state domain.NodeState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[state.Hostname] = state
	return nil
}

func (s *ClusterStore) ReportOutcome(ctx context.Context, report domain.IterationReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reports := append(s.reports[report.Hostname], report)
	if len(reports) > maxReportsPerHost {
		reports = reports[len(reports)-maxReportsPerHost:]
	}
	s.reports[report.Hostname] = reports
	return nil
}

// Reports returns the retained iteration reports of hostname, oldest first.
func (s *ClusterStore) Reports(hostname string) []domain.IterationReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.IterationReport(nil), s.reports[hostname]...)
}

func (s *ClusterStore) DesiredConfiguration(ctx context.Context) (domain.DesiredConfiguration, error) {
	if err := ctx.Err(); err != nil {
		return domain.DesiredConfiguration{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.desired == nil {
		return domain.DesiredConfiguration{}, port.ErrNoDesiredConfiguration
	}
	return *s.desired, nil
}

// SetDesiredConfiguration replaces the configuration handed to the next iterations.
func (s *ClusterStore) SetDesiredConfiguration(cfg domain.DesiredConfiguration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.desired = &cfg
}
