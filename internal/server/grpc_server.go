package server

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/oggyb/rndvu/internal/config"
	"github.com/oggyb/rndvu/internal/logger"
)

// NewGRPCServer builds a gRPC server with every registrar and reflection enabled.
func NewGRPCServer(registrars ...Registrar) *grpc.Server {
	grpcServer := grpc.NewServer()

	for _, r := range registrars {
		r.Register(grpcServer)
	}

	// enable reflection for easier debugging with grpcurl
	reflection.Register(grpcServer)

	return grpcServer
}

// StartGRPCServer serves the ops gRPC endpoint until ctx is done.
func StartGRPCServer(ctx context.Context, cfg *config.Config, registrars ...Registrar) error {
	addr := fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	grpcServer := NewGRPCServer(registrars...)
	go func() {
		<-ctx.Done()
		grpcServer.GracefulStop()
	}()

	logger.Info("starting gRPC server", "addr", addr)
	return grpcServer.Serve(lis)
}
