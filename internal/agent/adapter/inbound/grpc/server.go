package grpc_handler

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/anthanhphan/go-dataset-agent/internal/agent/domain"
	"github.com/anthanhphan/go-dataset-agent/internal/agent/port"
	"github.com/anthanhphan/gosdk/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Server implements AgentStatus and tracks agent health.
type Server struct {
	service port.AgentService
	health  *health.Server
}

var _ AgentStatusServer = (*Server)(nil)

// NewServer creates a new gRPC server. Health starts NOT_SERVING until an
// iteration fully succeeds.
func NewServer(service port.AgentService) *Server {
	s := &Server{
		service: service,
		health:  health.NewServer(),
	}
	s.setServing(false)
	return s
}

// Register attaches AgentStatus and the health service to gs.
func (s *Server) Register(gs *grpc.Server) {
	RegisterAgentStatusServer(gs, s)
	healthpb.RegisterHealthServer(gs, s.health)
}

// ObserveReport flips health according to the iteration outcome.
func (s *Server) ObserveReport(report domain.IterationReport) {
	s.setServing(report.Succeeded())
}

// Shutdown marks every service NOT_SERVING ahead of GracefulStop.
func (s *Server) Shutdown() {
	s.health.Shutdown()
}

func (s *Server) setServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

func (s *Server) GetReport(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	report, ok := s.service.LastReport()
	if !ok {
		return nil, status.Error(codes.NotFound, "no iteration has completed yet")
	}

	out, err := toStruct(report)
	if err != nil {
		logger.Warnw("Failed to encode iteration report", "iteration_id", report.IterationID, "error", err.Error())
		return nil, status.Errorf(codes.Internal, "encode report: %v", err)
	}
	// Snowflake ids and fingerprints exceed float64 precision.
	out.Fields["iteration_id"] = structpb.NewStringValue(strconv.FormatInt(report.IterationID, 10))
	out.Fields["configuration_fingerprint"] = structpb.NewStringValue(strconv.FormatUint(report.Fingerprint, 10))
	return out, nil
}

func (s *Server) GetState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	out, err := toStruct(s.service.LocalState())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode state: %v", err)
	}
	return out, nil
}

func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to build struct: %w", err)
	}
	return out, nil
}
