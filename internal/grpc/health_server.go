// Package grpc serves the standard gRPC health service next to the HTTP API.
package grpc

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/intrigue/searchforms/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name reported for the search-forms API.
const ServiceName = "searchforms.v1.SearchForms"

// HealthServer represents the health gRPC server
type HealthServer struct {
	address    string
	logger     *logging.Logger
	grpcServer *grpc.Server
	health     *health.Server

	mu       sync.Mutex
	listener net.Listener
}

// NewHealthServer creates a health server for address.
func NewHealthServer(address string, logger *logging.Logger) *HealthServer {
	hs := health.NewServer()
	srv := grpc.NewServer(
		grpc.MaxRecvMsgSize(1024*1024),
		grpc.MaxSendMsgSize(1024*1024),
	)
	healthpb.RegisterHealthServer(srv, hs)

	// Register reflection service (for debugging with grpcurl)
	reflection.Register(srv)

	return &HealthServer{
		address:    address,
		logger:     logger,
		grpcServer: srv,
		health:     hs,
	}
}

// Listen binds the address. Start calls it when it was not called before.
func (s *HealthServer) Listen() (net.Addr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr(), nil
	}
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}
	s.listener = listener
	return listener.Addr(), nil
}

// SetServing reports the API as serving or not.
func (s *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Start serves until ctx is cancelled, then stops gracefully.
func (s *HealthServer) Start(ctx context.Context) error {
	addr, err := s.Listen()
	if err != nil {
		return err
	}

	s.SetServing(true)
	s.logger.Info("gRPC health server starting", "address", addr.String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.grpcServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down gRPC health server")
		s.Stop()
		return nil
	case err := <-errCh:
		if err != nil {
			s.logger.Error("gRPC server error", "error", err)
		}
		return err
	}
}

// Stop marks every service not serving and stops the gRPC server gracefully
func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
