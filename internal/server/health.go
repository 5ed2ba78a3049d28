package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/oggyb/rndvu/internal/app"
	"github.com/oggyb/rndvu/internal/httpx"
)

// ServiceName is the name reported by the gRPC health service next to "".
const ServiceName = "rndvu"

// Health reports whether the database and Redis answer. It backs both the
// HTTP /health route and the gRPC health service.
type Health struct {
	appCtx *app.AppContext
	srv    *health.Server
}

func NewHealth(appCtx *app.AppContext) *Health {
	return &Health{appCtx: appCtx, srv: health.NewServer()}
}

// Check pings every backing store.
func (h *Health) Check(ctx context.Context) error {
	sqlDB, err := h.appCtx.DB.DB()
	if err != nil {
		return fmt.Errorf("db handle: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	if err := h.appCtx.RedisCache.Ping(ctx); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Register implements Registrar.
func (h *Health) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.srv)
	h.Probe(context.Background())
}

// Probe runs Check once and publishes the result to the gRPC health service.
func (h *Health) Probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := h.Check(ctx); err != nil {
		h.appCtx.Logger.Warn("health check failed", "err", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.srv.SetServingStatus("", status)
	h.srv.SetServingStatus(ServiceName, status)
}

// Run probes every interval until ctx is done, then reports NOT_SERVING.
func (h *Health) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			h.srv.Shutdown()
			return
		case <-t.C:
			h.Probe(ctx)
		}
	}
}

// ServeHTTP serves GET /health.
func (h *Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	if err := h.Check(ctx); err != nil {
		h.appCtx.Logger.Warn("health check failed", "err", err)
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
