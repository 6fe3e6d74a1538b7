package grpc_handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "convergence.v1.AgentStatus"

	getReportMethod = "/convergence.v1.AgentStatus/GetReport"
	getStateMethod  = "/convergence.v1.AgentStatus/GetState"
)

// AgentStatusServer is the server API for the AgentStatus service.
type AgentStatusServer interface {
	GetReport(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// AgentStatus_ServiceDesc describes AgentStatus using well-known payload types.
var AgentStatus_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AgentStatusServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetReport", Handler: getReportHandler},
		{MethodName: "GetState", Handler: getStateHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "convergence/v1/agent_status.proto",
}

func RegisterAgentStatusServer(s grpc.ServiceRegistrar, srv AgentStatusServer) {
	s.RegisterService(&AgentStatus_ServiceDesc, srv)
}

func getReportHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AgentStatusServer).GetReport(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getReportMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AgentStatusServer).GetReport(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getStateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AgentStatusServer).GetState(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getStateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AgentStatusServer).GetState(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// AgentStatusClient calls AgentStatus on a remote agent.
type AgentStatusClient struct {
	cc grpc.ClientConnInterface
}

func NewAgentStatusClient(cc grpc.ClientConnInterface) *AgentStatusClient {
	return &AgentStatusClient{cc: cc}
}

func (c *AgentStatusClient) GetReport(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getReportMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AgentStatusClient) GetState(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getStateMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
