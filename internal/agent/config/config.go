package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/anthanhphan/gosdk/conflux"
	"github.com/anthanhphan/gosdk/logger"
)

const (
	BackendMemory   = "memory"
	BackendLoopback = "loopback"

	AggregationMemory = "memory"
	AggregationRedis  = "redis"
	AggregationGossip = "gossip"
)

var ErrInvalidConfig = errors.New("invalid agent configuration")

// DefaultDesiredConfigPath is read by memory and gossip aggregation when no path is set.
var DefaultDesiredConfigPath = filepath.Join("internal", "agent", "config", "desired.yaml")

// Config holds Dataset Agent configuration
type Config struct {
	Agent   AgentConfig   `json:"agent" yaml:"agent"`
	Backend BackendConfig `json:"backend" yaml:"backend"`
	Cluster ClusterConfig `json:"cluster" yaml:"cluster"`
	Gossip  GossipConfig  `json:"gossip" yaml:"gossip"`
	Redis   RedisConfig   `json:"redis" yaml:"redis"`
	Server  ServerConfig  `json:"server" yaml:"server"`
	Logger  logger.Config `json:"logger" yaml:"logger"`
}

type AgentConfig struct {
	Hostname                string `json:"hostname" yaml:"hostname"`
	IntervalMS              int    `json:"interval_ms" yaml:"interval_ms"`
	MaxBackoffMS            int    `json:"max_backoff_ms" yaml:"max_backoff_ms"`
	LeafTimeoutMS           int    `json:"leaf_timeout_ms" yaml:"leaf_timeout_ms"` // 0 disables
	WaitTimeoutMS           int    `json:"wait_timeout_ms" yaml:"wait_timeout_ms"`
	WaitPollIntervalMS      int    `json:"wait_poll_interval_ms" yaml:"wait_poll_interval_ms"`
	MaxParallelActions      int    `json:"max_parallel_actions" yaml:"max_parallel_actions"` // 0 is unbounded
	BreakerFailureThreshold int    `json:"breaker_failure_threshold" yaml:"breaker_failure_threshold"`
	BreakerOpenTimeoutMS    int    `json:"breaker_open_timeout_ms" yaml:"breaker_open_timeout_ms"`
}

type BackendConfig struct {
	Name    string `json:"name" yaml:"name"`
	RootDir string `json:"root_dir" yaml:"root_dir"`
}

type ClusterConfig struct {
	Aggregation       string `json:"aggregation" yaml:"aggregation"` // "memory", "redis", "gossip"
	DesiredConfigPath string `json:"desired_config_path" yaml:"desired_config_path"` // redis reads its desired key when empty
}

type GossipConfig struct {
	BindAddr           string   `json:"bind_addr" yaml:"bind_addr"`
	Port               int      `json:"port" yaml:"port"`
	Seeds              []string `json:"seeds" yaml:"seeds"`
	PushPullIntervalMS int      `json:"push_pull_interval_ms" yaml:"push_pull_interval_ms"`
}

type RedisConfig struct {
	Addr       string `json:"addr" yaml:"addr"`
	Password   string `json:"password" yaml:"password"`
	DB         int    `json:"db" yaml:"db"`
	KeyPrefix  string `json:"key_prefix" yaml:"key_prefix"`
	MaxReports int    `json:"max_reports" yaml:"max_reports"`
}

type ServerConfig struct {
	HTTPAddr string `json:"http_addr" yaml:"http_addr"`
	GRPCPort int    `json:"grpc_port" yaml:"grpc_port"`
}

func millis(ms int) time.Duration { return time.Duration(ms) * time.Millisecond }

func (c AgentConfig) Interval() time.Duration         { return millis(c.IntervalMS) }
func (c AgentConfig) MaxBackoff() time.Duration       { return millis(c.MaxBackoffMS) }
func (c AgentConfig) LeafTimeout() time.Duration      { return millis(c.LeafTimeoutMS) }
func (c AgentConfig) WaitTimeout() time.Duration      { return millis(c.WaitTimeoutMS) }
func (c AgentConfig) WaitPollInterval() time.Duration { return millis(c.WaitPollIntervalMS) }
func (c AgentConfig) BreakerOpenTimeout() time.Duration {
	return millis(c.BreakerOpenTimeoutMS)
}

// DesiredFile returns the desired configuration document to read, or "" when
// the redis desired key is the source.
func (c ClusterConfig) DesiredFile() string {
	if c.DesiredConfigPath != "" || c.Aggregation == AggregationRedis {
		return c.DesiredConfigPath
	}
	return DefaultDesiredConfigPath
}

func (c GossipConfig) PushPullInterval() time.Duration { return millis(c.PushPullIntervalMS) }

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Agent: AgentConfig{
			IntervalMS:              1000,
			MaxBackoffMS:            30000,
			LeafTimeoutMS:           120000,
			WaitTimeoutMS:           60000,
			WaitPollIntervalMS:      500,
			BreakerFailureThreshold: 5,
			BreakerOpenTimeoutMS:    10000,
		},
		Backend: BackendConfig{
			Name:    BackendMemory,
			RootDir: "./data/datasets",
		},
		Cluster: ClusterConfig{
			Aggregation: AggregationMemory,
		},
		Gossip: GossipConfig{
			BindAddr:           "0.0.0.0",
			Port:               7946,
			PushPullIntervalMS: 5000,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			KeyPrefix:  "dataset-agent",
			MaxReports: 64,
		},
		Server: ServerConfig{
			HTTPAddr: ":8090",
			GRPCPort: 9090,
		},
		Logger: logger.Config{
			LogLevel:    logger.LevelInfo,
			LogEncoding: logger.EncodingJSON,
		},
	}
}

// Validate rejects settings the agent cannot start with.
func (c *Config) Validate() error {
	a := c.Agent
	if a.IntervalMS <= 0 {
		return fmt.Errorf("%w: agent.interval_ms must be positive", ErrInvalidConfig)
	}
	if a.MaxBackoffMS < a.IntervalMS {
		return fmt.Errorf("%w: agent.max_backoff_ms must not be below agent.interval_ms", ErrInvalidConfig)
	}
	if a.LeafTimeoutMS < 0 || a.WaitTimeoutMS < 0 || a.WaitPollIntervalMS < 0 {
		return fmt.Errorf("%w: timeouts must not be negative", ErrInvalidConfig)
	}
	if a.MaxParallelActions < 0 {
		return fmt.Errorf("%w: agent.max_parallel_actions must not be negative", ErrInvalidConfig)
	}

	switch c.Backend.Name {
	case BackendMemory:
	case BackendLoopback:
		if c.Backend.RootDir == "" {
			return fmt.Errorf("%w: backend.root_dir is required for the loopback backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: %q is neither a built-in backend nor registered", ErrInvalidConfig, c.Backend.Name)
	}

	switch c.Cluster.Aggregation {
	case AggregationMemory, AggregationGossip:
	case AggregationRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("%w: redis.addr is required for redis aggregation", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown aggregation %q", ErrInvalidConfig, c.Cluster.Aggregation)
	}

	if c.Cluster.Aggregation == AggregationGossip && c.Gossip.Port < 0 {
		return fmt.Errorf("%w: gossip.port must not be negative", ErrInvalidConfig)
	}
	if c.Server.HTTPAddr == "" || c.Server.GRPCPort <= 0 {
		return fmt.Errorf("%w: server.http_addr and server.grpc_port are required", ErrInvalidConfig)
	}
	return nil
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	configPath := path
	if configPath == "" {
		env := os.Getenv("ENV")
		if env == "" {
			env = "local"
		}
		configPath = filepath.Join("internal", "agent", "config", env+".yaml")
	}

	cfg := DefaultConfig()

	parsedCfg, err := conflux.ParseConfig(configPath, cfg)
	if err != nil {
		log.Printf("Config file not found or failed to parse, using defaults if file not specified. Path: %s, Error: %v", configPath, err)
		if path != "" {
			return nil, err
		}
		parsedCfg = cfg
	}

	if err := parsedCfg.Validate(); err != nil {
		return nil, err
	}
	return parsedCfg, nil
}

// MustLoad loads configuration or exits on error
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}
