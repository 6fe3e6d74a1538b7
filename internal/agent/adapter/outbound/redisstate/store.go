package redisstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/anthanhphan/go-dataset-agent/internal/agent/domain"
	"github.com/anthanhphan/go-dataset-agent/internal/agent/port"
	"github.com/anthanhphan/gosdk/logger"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultKeyPrefix  = "dataset-agent"
	DefaultMaxReports = 64
)

// Options configures the redis collaborator.
type Options struct {
	KeyPrefix  string
	MaxReports int
	Timeout    time.Duration
}

// Store aggregates cluster state in redis:
//
//	<prefix>:nodes              hash hostname -> NodeState JSON
//	<prefix>:reports:<hostname> list of IterationReport JSON, newest first
//	<prefix>:desired            DesiredConfiguration JSON
type Store struct {
	client     redis.Cmdable
	prefix     string
	maxReports int
	timeout    time.Duration
}

var (
	_ port.ClusterStateSource  = (*Store)(nil)
	_ port.StateReporter       = (*Store)(nil)
	_ port.ConfigurationSource = (*Store)(nil)
)

func NewStore(client redis.Cmdable, opts Options) *Store {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultKeyPrefix
	}
	if opts.MaxReports <= 0 {
		opts.MaxReports = DefaultMaxReports
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Second
	}
	return &Store{
		client:     client,
		prefix:     opts.KeyPrefix,
		maxReports: opts.MaxReports,
		timeout:    opts.Timeout,
	}
}

func (s *Store) nodesKey() string   { return s.prefix + ":nodes" }
func (s *Store) desiredKey() string { return s.prefix + ":desired" }
func (s *Store) reportsKey(hostname string) string {
	return s.prefix + ":reports:" + hostname
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// ClusterState reads every reported node. Undecodable entries are skipped.
func (s *Store) ClusterState(ctx context.Context) (domain.ClusterState, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	raw, err := s.client.HGetAll(ctx, s.nodesKey()).Result()
	if err != nil {
		return domain.ClusterState{}, fmt.Errorf("failed to read cluster state: %w", err)
	}

	nodes := make([]domain.NodeState, 0, len(raw))
	for hostname, payload := range raw {
		var node domain.NodeState
		if err := json.Unmarshal([]byte(payload), &node); err != nil {
			logger.Warnw("Skipping undecodable node state", "hostname", hostname, "error", err.Error())
			continue
		}
		node.Hostname = hostname
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Hostname < nodes[j].Hostname })
	return domain.ClusterState{Nodes: nodes}, nil
}

func (s *Store) ReportNodeState(ctx context.Context, state domain.NodeState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode node state: %w", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.client.HSet(ctx, s.nodesKey(), state.Hostname, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish node state: %w", err)
	}
	return nil
}

// ReportOutcome prepends the report and trims the host's history.
func (s *Store) ReportOutcome(ctx context.Context, report domain.IterationReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode iteration report: %w", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	key := s.reportsKey(report.Hostname)
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, payload)
		pipe.LTrim(ctx, key, 0, int64(s.maxReports-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to publish iteration report: %w", err)
	}
	return nil
}

// Reports returns up to limit recent reports of hostname, newest first.
func (s *Store) Reports(ctx context.Context, hostname string, limit int) ([]domain.IterationReport, error) {
	if limit <= 0 {
		limit = s.maxReports
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	raw, err := s.client.LRange(ctx, s.reportsKey(hostname), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read iteration reports: %w", err)
	}

	reports := make([]domain.IterationReport, 0, len(raw))
	for _, payload := range raw {
		var r domain.IterationReport
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			continue
		}
		reports = append(reports, r)
	}
	return reports, nil
}

func (s *Store) DesiredConfiguration(ctx context.Context) (domain.DesiredConfiguration, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	payload, err := s.client.Get(ctx, s.desiredKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.DesiredConfiguration{}, port.ErrNoDesiredConfiguration
	}
	if err != nil {
		return domain.DesiredConfiguration{}, fmt.Errorf("failed to read desired configuration: %w", err)
	}

	var cfg domain.DesiredConfiguration
	if err := json.Unmarshal(payload, &cfg); err != nil {
		return domain.DesiredConfiguration{}, fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, err)
	}
	return cfg, nil
}

// SetDesiredConfiguration publishes a new configuration for every agent.
func (s *Store) SetDesiredConfiguration(ctx context.Context, cfg domain.DesiredConfiguration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode desired configuration: %w", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.client.Set(ctx, s.desiredKey(), payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to publish desired configuration: %w", err)
	}
	return nil
}
