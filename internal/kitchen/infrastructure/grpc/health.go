package grpc

import (
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const Service = "kitchen"

// Health reports the kitchen serving state over the standard gRPC health API.
type Health struct {
	log *slog.Logger
	srv *health.Server
}

func NewHealth(log *slog.Logger) *Health {
	h := &Health{log: log.With("component", "grpc-health"), srv: health.NewServer()}
	h.srv.SetServingStatus(Service, healthpb.HealthCheckResponse_SERVING)
	return h
}

// Close marks the kitchen NOT_SERVING once the final report is out.
func (h *Health) Close() {
	h.srv.SetServingStatus(Service, healthpb.HealthCheckResponse_NOT_SERVING)
	h.log.Info("kitchen marked not serving")
}

func (h *Health) Server() healthpb.HealthServer { return h.srv }

// Run listens on addr and serves in the background.
func Run(addr string, h *Health) (*grpc.Server, net.Addr, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}
	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, h.srv)
	go func() {
		if err := gs.Serve(lis); err != nil {
			h.log.Error("grpc server stopped", "err", err)
		}
	}()
	h.log.Info("grpc listening", "addr", lis.Addr().String())
	return gs, lis.Addr(), nil
}
