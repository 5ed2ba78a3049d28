package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/oggyb/rndvu/internal/app"
	"github.com/oggyb/rndvu/internal/auth"
	svcErr "github.com/oggyb/rndvu/internal/errors"
	"github.com/oggyb/rndvu/internal/httpx"
	"github.com/oggyb/rndvu/internal/logger"
)

// NewRouter assembles the HTTP API.
//
// Behavior:
//   - /health and every registrar's public routes need no authentication.
//   - Private routes sit behind the Telegram init data middleware.
//   - Every request gets a request id and a deadline of HTTP_REQUEST_TIMEOUT.
//   - CORS allows HTTP_ALLOWED_ORIGINS plus the auth headers.
func NewRouter(appCtx *app.AppContext, health *Health, registrars ...RouteRegistrar) http.Handler {
	r := mux.NewRouter()
	r.Use(requestContext(appCtx.Config.HTTP.RequestTimeout))
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httpx.Error(w, nil, svcErr.NotFound("Not found"))
	})

	if health != nil {
		r.Handle("/health", health).Methods(http.MethodGet)
	}

	public := r.NewRoute().Subrouter()
	private := r.NewRoute().Subrouter()
	private.Use(auth.NewMiddleware(appCtx.Config, appCtx.RedisCache, appCtx.Logger).Handler)

	for _, reg := range registrars {
		reg.RegisterRoutes(public, private)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   appCtx.Config.HTTP.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-Init-Data", "X-Test-Mode", "X-Admin-Token"},
		AllowCredentials: false,
	})
	return c.Handler(r)
}

// requestContext attaches a request id logger and a deadline to each request.
func requestContext(timeout time.Duration) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", id)

			ctx := logger.NewContext(r.Context(), logger.With("request_id", id))
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			start := time.Now()
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.FromContext(ctx).Debug("request served",
				"method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
		})
	}
}

// StartHTTPServer serves h until ctx is done, then drains in-flight requests.
func StartHTTPServer(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
