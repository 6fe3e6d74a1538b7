package gossip

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/anthanhphan/go-dataset-agent/internal/agent/domain"
	"github.com/anthanhphan/go-dataset-agent/internal/agent/port"
	"github.com/anthanhphan/gosdk/logger"
	"github.com/hashicorp/memberlist"
)

// maxBroadcastSize is what reliably fits a gossip UDP packet. Larger states
// are also pushed over TCP to every member.
const maxBroadcastSize = 1024

// Options configures the gossip collaborator.
type Options struct {
	Hostname         string
	BindAddr         string
	BindPort         int
	GRPCPort         int
	PushPullInterval time.Duration
}

// GossipAdapter spreads NodeState between agents with memberlist. Each node
// publishes its own state; everyone keeps the newest version per host.
type GossipAdapter struct {
	list       *memberlist.Memberlist
	conf       *memberlist.Config
	broadcasts *memberlist.TransmitLimitedQueue

	hostname string
	grpcPort int
	table    *stateTable
	version  atomic.Uint64
}

var (
	_ memberlist.Delegate      = (*GossipAdapter)(nil)
	_ memberlist.EventDelegate = (*GossipAdapter)(nil)
	_ port.ClusterStateSource  = (*GossipAdapter)(nil)
	_ port.StateReporter       = (*GossipAdapter)(nil)
)

// NewGossipAdapter starts the memberlist agent. Call Join to reach peers.
func NewGossipAdapter(opts Options) (*GossipAdapter, error) {
	config := memberlist.DefaultLANConfig()
	config.Name = opts.Hostname
	config.BindAddr = opts.BindAddr
	config.BindPort = opts.BindPort
	if opts.BindPort > 0 {
		config.AdvertisePort = opts.BindPort
	}
	if opts.PushPullInterval > 0 {
		config.PushPullInterval = opts.PushPullInterval
	}
	config.LogOutput = io.Discard

	adapter := &GossipAdapter{
		conf:     config,
		hostname: opts.Hostname,
		grpcPort: opts.GRPCPort,
		table:    newStateTable(),
	}
	// Versions start at wall-clock time so a restarted agent supersedes its old incarnation.
	adapter.version.Store(uint64(time.Now().UnixNano()))

	config.Events = adapter
	config.Delegate = adapter

	list, err := memberlist.Create(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create memberlist: %w", err)
	}
	adapter.list = list
	adapter.broadcasts = &memberlist.TransmitLimitedQueue{
		NumNodes:       list.NumMembers,
		RetransmitMult: config.RetransmitMult,
	}

	return adapter, nil
}

// Join joins the cluster using seed nodes.
func (g *GossipAdapter) Join(seeds []string) error {
	if len(seeds) > 0 {
		if _, err := g.list.Join(seeds); err != nil {
			return fmt.Errorf("failed to join cluster: %w", err)
		}
	}
	return nil
}

// Leave leaves the cluster.
func (g *GossipAdapter) Leave() error {
	if err := g.list.Leave(5 * time.Second); err != nil {
		return err
	}
	return g.list.Shutdown()
}

// Addr returns the address peers use to join this node.
func (g *GossipAdapter) Addr() string {
	return g.list.LocalNode().Address()
}

func (g *GossipAdapter) ClusterState(ctx context.Context) (domain.ClusterState, error) {
	if err := ctx.Err(); err != nil {
		return domain.ClusterState{}, err
	}
	return g.table.clusterState(), nil
}

// ReportNodeState stamps a new version, keeps it locally and spreads it.
func (g *GossipAdapter) ReportNodeState(ctx context.Context, state domain.NodeState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := envelope{Hostname: g.hostname, Version: g.version.Add(1), State: state}
	g.table.merge(env)

	msg, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode node state: %w", err)
	}

	g.broadcasts.QueueBroadcast(&stateBroadcast{hostname: g.hostname, msg: msg})
	if len(msg) <= maxBroadcastSize {
		return nil
	}

	for _, member := range g.list.Members() {
		if member.Name == g.hostname {
			continue
		}
		if err := g.list.SendReliable(member, msg); err != nil {
			logger.Warnw("Failed to push node state", "peer", member.Name, "error", err.Error())
		}
	}
	return nil
}

// ReportOutcome only logs. Reports are not gossiped.
func (g *GossipAdapter) ReportOutcome(ctx context.Context, report domain.IterationReport) error {
	logger.Debugw("Iteration outcome recorded",
		"iteration_id", report.IterationID,
		"succeeded", report.Succeeded(),
	)
	return nil
}

// NodeMeta advertises where this agent serves its status RPC.
func (g *GossipAdapter) NodeMeta(limit int) []byte {
	data, err := json.Marshal(nodeMeta{GRPCPort: g.grpcPort})
	if err != nil || len(data) > limit {
		return nil
	}
	return data
}

// NotifyMsg merges a state broadcast or direct push from a peer.
func (g *GossipAdapter) NotifyMsg(buf []byte) {
	var env envelope
	if err := json.Unmarshal(buf, &env); err != nil {
		logger.Warnw("Failed to decode gossip message", "error", err.Error())
		return
	}
	if env.Hostname == g.hostname {
		return
	}
	if g.table.merge(env) {
		logger.Debugw("Merged peer state", "hostname", env.Hostname, "version", env.Version)
	}
}

func (g *GossipAdapter) GetBroadcasts(overhead, limit int) [][]byte {
	return g.broadcasts.GetBroadcasts(overhead, limit)
}

// LocalState hands every known envelope to a push/pull peer.
func (g *GossipAdapter) LocalState(join bool) []byte {
	data, err := json.Marshal(g.table.envelopes())
	if err != nil {
		logger.Warnw("Failed to encode gossip state", "error", err.Error())
		return nil
	}
	return data
}

// MergeRemoteState folds a peer's full table into ours. Our own entry is authoritative.
func (g *GossipAdapter) MergeRemoteState(buf []byte, join bool) {
	var envs []envelope
	if err := json.Unmarshal(buf, &envs); err != nil {
		logger.Warnw("Failed to decode remote gossip state", "error", err.Error())
		return
	}
	for _, env := range envs {
		if env.Hostname == g.hostname {
			continue
		}
		g.table.merge(env)
	}
}

// NotifyJoin is invoked when a node joins.
func (g *GossipAdapter) NotifyJoin(node *memberlist.Node) {
	logger.Infow("Node joined", "hostname", node.Name, "addr", node.Address(), "grpc_port", decodeMeta(node.Meta).GRPCPort)
}

// NotifyLeave keeps the node's last state: a departed node has not
// necessarily released its primaries.
func (g *GossipAdapter) NotifyLeave(node *memberlist.Node) {
	logger.Warnw("Node left, keeping its last known state", "hostname", node.Name)
}

// NotifyUpdate is invoked when a node's metadata changes.
func (g *GossipAdapter) NotifyUpdate(node *memberlist.Node) {
	g.NotifyJoin(node)
}

type nodeMeta struct {
	GRPCPort int `json:"grpc_port"`
}

func decodeMeta(meta []byte) nodeMeta {
	var m nodeMeta
	if len(meta) == 0 {
		return m
	}
	if err := json.Unmarshal(meta, &m); err != nil {
		logger.Warnw("failed to decode node metadata", "error", err.Error())
	}
	return m
}

// stateBroadcast is a queued NodeState; a newer one from the same host replaces it.
type stateBroadcast struct {
	hostname string
	msg      []byte
}

func (b *stateBroadcast) Invalidates(other memberlist.Broadcast) bool {
	o, ok := other.(*stateBroadcast)
	return ok && o.hostname == b.hostname
}

func (b *stateBroadcast) Message() []byte { return b.msg }
func (b *stateBroadcast) Finished()       {}
