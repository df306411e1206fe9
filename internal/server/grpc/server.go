// Package grpc exposes operator diagnostics for a running server: the
// standard health service and a small Diagnostics service that lists the
// connected clients. Listing clients requires an operator token.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/socialnet/internal/logging"
	"github.com/dmitrijs2005/socialnet/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ClientLister is the part of the client catalog the endpoint reads.
type ClientLister interface {
	List() []models.ClientInfo
}

type GRPCServer struct {
	address   string
	clients   ClientLister
	health    *health.Server
	logger    logging.Logger
	jwtSecret []byte
	startedAt time.Time
	now       func() time.Time
}

// NewGRPCServer builds the endpoint. jwtSecret is the operator token key.
func NewGRPCServer(a string, l logging.Logger, clients ClientLister, jwtSecret []byte) *GRPCServer {
	now := time.Now
	return &GRPCServer{
		address:   a,
		clients:   clients,
		health:    health.NewServer(),
		logger:    l.With("module", "grpc_server"),
		jwtSecret: jwtSecret,
		startedAt: now(),
		now:       now,
	}
}

// NewServer returns a grpc.Server with the interceptor installed and both
// services registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	srv := grpc.NewServer(opts...)
	healthpb.RegisterHealthServer(srv, s.health)
	RegisterDiagnosticsServer(srv, s)
	s.health.SetServingStatus(DiagnosticsServiceName, healthpb.HealthCheckResponse_SERVING)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve runs the endpoint on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
