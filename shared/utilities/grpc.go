package utilities

import (
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServer is a standalone gRPC server that only exposes the health check service.
// Orchestrators and the Consul agent probe it while the REST API serves traffic on HTTP.
type HealthServer struct {
	server *grpc.Server
	health *health.Server
}

// RegisterHealthServer registers the gRPC health check service and reports SERVING.
func RegisterHealthServer(grpcServer *grpc.Server) *health.Server {
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	return healthServer
}

// NewHealthServer creates a gRPC server with only the health service registered.
func NewHealthServer() *HealthServer {
	server := grpc.NewServer()
	return &HealthServer{
		server: server,
		health: RegisterHealthServer(server),
	}
}

// Serve blocks serving health checks on lis.
func (s *HealthServer) Serve(lis net.Listener) error {
	if err := s.server.Serve(lis); err != nil {
		return fmt.Errorf("serve grpc health: %w", err)
	}
	return nil
}

// SetServing flips the overall serving status.
func (s *HealthServer) SetServing(serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
}

// Stop marks the service as not serving and stops the server gracefully.
func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
