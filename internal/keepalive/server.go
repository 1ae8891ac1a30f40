// Package keepalive exposes the small liveness surface that keeps the
// agent's host from idling it out, and runs the periodic heartbeat loop.
package keepalive

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Danyalalam/X-automation/internal/domain"
	logpkg "github.com/Danyalalam/X-automation/internal/logger"
	"github.com/Danyalalam/X-automation/internal/metrics"
	"github.com/Danyalalam/X-automation/internal/usecase/health"
	"github.com/Danyalalam/X-automation/internal/version"
)

// Server answers liveness probes with a short plain-text status page.
type Server struct {
	health   *health.Service
	identity domain.Identity
	logger   *zap.Logger
}

// NewServer creates the liveness server.
func NewServer(h *health.Service, identity domain.Identity, logger *zap.Logger) *Server {
	return &Server{health: h, identity: identity, logger: logger}
}

// Routes assembles the chi router with the shared middleware chain.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(textRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())

	r.Get("/", s.handleStatus)
	r.Get("/health", s.handleStatus)
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		promhttp.Handler().ServeHTTP(w, req)
	})

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	code := http.StatusOK
	if report.Status != health.Healthy {
		// Still alive. A degraded store must not make the host recycle us.
		s.logger.Warn("Health check degraded", zap.Any("checks", report.Checks))
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	fmt.Fprintf(w, "%s is awake on the lily pad.\n", version.Name)
	fmt.Fprintf(w, "account: @%s\n", s.identity.Username)
	fmt.Fprintf(w, "uptime: %s\n", report.Uptime)
	fmt.Fprintf(w, "version: %s\n", version.Version)
	fmt.Fprintf(w, "status: %s\n", report.Status)
}

// textRecoverer is a recovery middleware that returns a plain-text 500
// instead of a stacktrace.
func textRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "text/plain; charset=utf-8")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte("internal error\n"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// Timeouts bound the HTTP server's request handling and graceful shutdown.
type Timeouts struct {
	Read     time.Duration
	Write    time.Duration
	Shutdown time.Duration
}

// ListenAndServe runs the HTTP server until ctx is cancelled, then shuts
// down gracefully within the shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, timeouts Timeouts) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		ReadTimeout:  timeouts.Read,
		WriteTimeout: timeouts.Write,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting liveness server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
