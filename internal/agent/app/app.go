package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"google.golang.org/grpc"

	grpcHandler "github.com/anthanhphan/go-dataset-agent/internal/agent/adapter/inbound/grpc"
	httpHandler "github.com/anthanhphan/go-dataset-agent/internal/agent/adapter/inbound/http"
	"github.com/anthanhphan/go-dataset-agent/internal/agent/adapter/outbound/filecfg"
	"github.com/anthanhphan/go-dataset-agent/internal/agent/adapter/outbound/gossip"
	"github.com/anthanhphan/go-dataset-agent/internal/agent/adapter/outbound/handoff"
	"github.com/anthanhphan/go-dataset-agent/internal/agent/adapter/outbound/memory"
	"github.com/anthanhphan/go-dataset-agent/internal/agent/adapter/outbound/redisstate"
	"github.com/anthanhphan/go-dataset-agent/internal/agent/config"
	"github.com/anthanhphan/go-dataset-agent/internal/agent/port"
	"github.com/anthanhphan/go-dataset-agent/internal/agent/service"
	"github.com/anthanhphan/go-dataset-agent/pkg/idgen"
	"github.com/anthanhphan/go-dataset-agent/pkg/resilience"
	"github.com/anthanhphan/gosdk/logger"
	"github.com/redis/go-redis/v9"
)

type App struct {
	cfg        *config.Config
	hostname   string
	agent      *service.AgentServiceImpl
	httpServer *httpHandler.Server
	grpcServer *grpc.Server
	status     *grpcHandler.Server
	gossip     *gossip.GossipAdapter
	redis      *redis.Client
	pool       *resilience.WorkerPool
}

// aggregation bundles the collaborators one aggregation mode provides.
type aggregation struct {
	cluster  port.ClusterStateSource
	reporter port.StateReporter
	desired  port.ConfigurationSource
}

func New(configPath string) (*App, error) {
	// 1. Load Config
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Initialize Logger
	logger.InitLogger(&cfg.Logger)

	a := &App{cfg: cfg}

	a.hostname = cfg.Agent.Hostname
	if a.hostname == "" {
		if a.hostname, err = os.Hostname(); err != nil {
			return nil, fmt.Errorf("failed to resolve hostname: %w", err)
		}
	}

	// 3. Redis (aggregation and iteration clock)
	if cfg.Cluster.Aggregation == config.AggregationRedis {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	// 4. Aggregation collaborator
	agg, err := a.newAggregation()
	if err != nil {
		return nil, err
	}

	// 5. Backend
	waiter := handoff.NewWaiter(a.hostname, agg.cluster, cfg.Agent.WaitPollInterval())
	backend, err := newBackend(cfg.Backend, a.hostname, waiter)
	if err != nil {
		return nil, err
	}

	// 6. Iteration ids
	var clock idgen.Clock = idgen.SystemClock{}
	if a.redis != nil {
		clock = idgen.NewRedisClock(a.redis)
	}
	ids, err := idgen.New(idgen.NodeIDFromHostname(a.hostname), clock)
	if err != nil {
		return nil, fmt.Errorf("failed to init snowflake: %w", err)
	}

	// 7. Executor
	if n := cfg.Agent.MaxParallelActions; n > 0 {
		a.pool = resilience.NewWorkerPool(n, n*4)
	}
	executor := service.NewActionExecutor(service.ExecutorConfig{
		Hostname:    a.hostname,
		LeafTimeout: cfg.Agent.LeafTimeout(),
		WaitTimeout: cfg.Agent.WaitTimeout(),
		Pool:        a.pool,
		Breakers: resilience.NewBreakerGroup(resilience.CircuitBreakerConfig{
			FailureThreshold: cfg.Agent.BreakerFailureThreshold,
			OpenTimeout:      cfg.Agent.BreakerOpenTimeout(),
		}),
	})

	// 8. Agent
	reporter := &observedReporter{StateReporter: agg.reporter}
	agentSvc := service.NewAgentService(service.AgentConfig{
		Hostname:   a.hostname,
		Interval:   cfg.Agent.Interval(),
		MaxBackoff: cfg.Agent.MaxBackoff(),
	}, service.AgentDeps{
		Backend:  backend,
		Cluster:  agg.cluster,
		Reporter: reporter,
		Desired:  agg.desired,
		Executor: executor,
		IDs:      ids,
	})
	a.agent = agentSvc

	// 9. Reporting surfaces
	a.status = grpcHandler.NewServer(agentSvc)
	a.grpcServer = grpc.NewServer()
	a.status.Register(a.grpcServer)
	reporter.observers = append(reporter.observers, a.status)
	a.httpServer = httpHandler.NewServer(cfg, agentSvc)

	return a, nil
}

func (a *App) newAggregation() (aggregation, error) {
	cfg := a.cfg
	var desired port.ConfigurationSource
	if path := cfg.Cluster.DesiredFile(); path != "" {
		desired = filecfg.NewSource(path)
	}

	switch cfg.Cluster.Aggregation {
	case config.AggregationRedis:
		store := redisstate.NewStore(a.redis, redisstate.Options{
			KeyPrefix:  cfg.Redis.KeyPrefix,
			MaxReports: cfg.Redis.MaxReports,
		})
		if desired == nil {
			desired = store
		}
		return aggregation{cluster: store, reporter: store, desired: desired}, nil

	case config.AggregationGossip:
		adapter, err := gossip.NewGossipAdapter(gossip.Options{
			Hostname:         a.hostname,
			BindAddr:         cfg.Gossip.BindAddr,
			BindPort:         cfg.Gossip.Port,
			GRPCPort:         cfg.Server.GRPCPort,
			PushPullInterval: cfg.Gossip.PushPullInterval(),
		})
		if err != nil {
			return aggregation{}, fmt.Errorf("failed to init gossip: %w", err)
		}
		a.gossip = adapter
		return aggregation{cluster: adapter, reporter: adapter, desired: desired}, nil

	default:
		store := memory.NewClusterStore()
		return aggregation{cluster: store, reporter: store, desired: desired}, nil
	}
}

func (a *App) Run() error {
	// Start Gossip
	if a.gossip != nil {
		a.joinGossip()
	}

	// Start gRPC
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", a.cfg.Server.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", a.cfg.Server.GRPCPort, err)
	}

	logger.Infow("Dataset agent starting",
		"hostname", a.hostname,
		"backend", a.cfg.Backend.Name,
		"aggregation", a.cfg.Cluster.Aggregation,
		"http", a.cfg.Server.HTTPAddr,
		"grpc", a.cfg.Server.GRPCPort)

	serverErrCh := make(chan error, 2)
	go func() {
		if err := a.grpcServer.Serve(listener); err != nil {
			serverErrCh <- fmt.Errorf("gRPC server failed: %w", err)
		}
	}()
	go func() {
		if err := a.httpServer.Start(); err != nil {
			serverErrCh <- fmt.Errorf("http server failed: %w", err)
		}
	}()

	// Start convergence loop
	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		a.agent.Run(loopCtx)
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	var runErr error
	select {
	case sig := <-stop:
		logger.Infow("Shutdown signal received", "signal", sig.String())
	case err := <-serverErrCh:
		errMsg := err.Error()
		if !strings.Contains(errMsg, "use of closed network connection") && !errors.Is(err, grpc.ErrServerStopped) {
			runErr = err
			logger.Errorw("Agent server exited unexpectedly", "error", errMsg)
		}
	}

	logger.Info("Shutting down dataset agent")
	stopLoop()
	<-loopDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		logger.Warnw("HTTP shutdown error", "error", err.Error())
	}
	a.status.Shutdown()
	a.grpcServer.GracefulStop()
	if a.gossip != nil {
		if err := a.gossip.Leave(); err != nil {
			logger.Warnw("Gossip leave failed", "error", err.Error())
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logger.Warnw("Redis close failed", "error", err.Error())
		}
	}

	return runErr
}

func (a *App) joinGossip() {
	seeds := make([]string, 0, len(a.cfg.Gossip.Seeds))
	for _, seed := range a.cfg.Gossip.Seeds {
		if seed != "" {
			seeds = append(seeds, seed)
		}
	}
	if len(seeds) == 0 {
		return
	}

	var joinErr error
	for i := 0; i < 5; i++ {
		joinErr = a.gossip.Join(seeds)
		if joinErr == nil {
			return
		}
		logger.Warnw("Failed to join cluster, retrying...", "attempt", i+1, "error", joinErr.Error())
		time.Sleep(2 * time.Second)
	}
	logger.Errorw("Failed to join cluster after retries", "error", joinErr.Error())
}
