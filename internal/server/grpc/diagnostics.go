package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// The Diagnostics service uses well-known protobuf types only, so its
// descriptor is written out here rather than generated.
const (
	DiagnosticsServiceName = "socialnet.diagnostics.Diagnostics"

	PingMethod        = "/" + DiagnosticsServiceName + "/Ping"
	ListClientsMethod = "/" + DiagnosticsServiceName + "/ListClients"
)

// DiagnosticsServer is implemented by GRPCServer.
type DiagnosticsServer interface {
	// Ping returns the server clock.
	Ping(context.Context, *emptypb.Empty) (*timestamppb.Timestamp, error)
	// ListClients returns {"count": n, "uptime_seconds": s, "clients": [...]}.
	ListClients(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

func RegisterDiagnosticsServer(s grpc.ServiceRegistrar, srv DiagnosticsServer) {
	s.RegisterService(&diagnosticsServiceDesc, srv)
}

var diagnosticsServiceDesc = grpc.ServiceDesc{
	ServiceName: DiagnosticsServiceName,
	HandlerType: (*DiagnosticsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: pingHandler},
		{MethodName: "ListClients", Handler: listClientsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "socialnet/diagnostics.proto",
}

func pingHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DiagnosticsServer).Ping(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PingMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DiagnosticsServer).Ping(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func listClientsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DiagnosticsServer).ListClients(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListClientsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DiagnosticsServer).ListClients(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// DiagnosticsClient calls the Diagnostics service.
type DiagnosticsClient struct {
	cc grpc.ClientConnInterface
}

func NewDiagnosticsClient(cc grpc.ClientConnInterface) *DiagnosticsClient {
	return &DiagnosticsClient{cc: cc}
}

func (c *DiagnosticsClient) Ping(ctx context.Context, opts ...grpc.CallOption) (*timestamppb.Timestamp, error) {
	out := new(timestamppb.Timestamp)
	if err := c.cc.Invoke(ctx, PingMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *DiagnosticsClient) ListClients(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ListClientsMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
