package server_test

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/oggyb/rndvu/internal/server"
	"github.com/oggyb/rndvu/internal/service/player"
	"github.com/oggyb/rndvu/internal/testutil"
)

type pingRegistrar struct{}

func (pingRegistrar) RegisterRoutes(public, private *mux.Router) {
	public.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodGet)
	private.HandleFunc("/whoami", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodGet)
}

func send(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	appCtx.Config.Auth.AllowTestMode = true
	appCtx.Config.HTTP.AllowedOrigins = []string{"https://web.telegram.org"}
	h := server.NewRouter(appCtx, server.NewHealth(appCtx), pingRegistrar{}, player.NewRegistrar(appCtx))

	t.Run("health", func(t *testing.T) {
		rec := send(h, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("public route without auth", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, send(h, httptest.NewRequest(http.MethodGet, "/ping", nil)).Code)
	})

	t.Run("private route needs init data", func(t *testing.T) {
		rec := send(h, httptest.NewRequest(http.MethodGet, "/whoami", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), `"code":"unauthorized"`)
	})

	t.Run("test mode reaches a service", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/player-info", nil)
		req.Header.Set("X-Test-Mode", "1")
		rec := send(h, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := testutil.DecodeJSON[map[string]any](t, rec)
		assert.EqualValues(t, 123456789, body["player"].(map[string]any)["tg_id"])
	})

	t.Run("request id is echoed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Request-ID", "req-1")
		assert.Equal(t, "req-1", send(h, req).Header().Get("X-Request-ID"))
	})

	t.Run("unknown route", func(t *testing.T) {
		rec := send(h, httptest.NewRequest(http.MethodGet, "/nope", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("cors preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/whoami", nil)
		req.Header.Set("Origin", "https://web.telegram.org")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		req.Header.Set("Access-Control-Request-Headers", "content-type,x-init-data")
		rec := send(h, req)
		assert.Equal(t, "https://web.telegram.org", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "x-init-data")
	})

	t.Run("cors preflight with unlisted header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/whoami", nil)
		req.Header.Set("Origin", "https://web.telegram.org")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		req.Header.Set("Access-Control-Request-Headers", "x-unknown")
		rec := send(h, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestHealth_RedisDown(t *testing.T) {
	appCtx, mr := testutil.NewAppContext(t)
	h := server.NewRouter(appCtx, server.NewHealth(appCtx))

	mr.Close()
	rec := send(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGRPCHealth(t *testing.T) {
	appCtx, mr := testutil.NewAppContext(t)
	health := server.NewHealth(appCtx)

	lis := bufconn.Listen(1 << 20)
	srv := server.NewGRPCServer(health)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	client := healthpb.NewHealthClient(conn)

	resp, err := client.Check(t.Context(), &healthpb.HealthCheckRequest{Service: server.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	mr.Close()
	health.Probe(t.Context())
	resp, err = client.Check(t.Context(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}
