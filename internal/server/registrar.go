package server

import (
	"github.com/gorilla/mux"
	"google.golang.org/grpc"
)

// Registrar is a common interface for all gRPC service registrars
type Registrar interface {
	Register(s *grpc.Server)
}

// RouteRegistrar is a common interface for all HTTP service registrars.
// public is served without authentication, private behind the auth middleware.
type RouteRegistrar interface {
	RegisterRoutes(public, private *mux.Router)
}
