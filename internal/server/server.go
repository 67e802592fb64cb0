// Package server exposes the engine over HTTP: dialect listing, lexicon
// inspection, decoding, reload events and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/incant/internal/engine"
	"github.com/leapstack-labs/incant/internal/observe"
	"github.com/leapstack-labs/incant/internal/watch"
)

// Defaults for Config.
const (
	DefaultAddr              = ":8765"
	DefaultReadHeaderTimeout = 10 * time.Second
	shutdownTimeout          = 5 * time.Second
)

// Config holds configuration for the server.
type Config struct {
	Engine            *engine.Engine
	Addr              string
	ReadHeaderTimeout time.Duration
	// Watch reloads the engine when its dialect directories change.
	Watch    bool
	Debounce time.Duration
	// Metrics instruments requests. Nil disables the middleware.
	Metrics *observe.Metrics
	// MetricsHandler serves /metrics. Defaults to promhttp.Handler().
	MetricsHandler http.Handler
	Logger         *slog.Logger
}

// Server is the HTTP surface.
type Server struct {
	engine            *engine.Engine
	addr              string
	readHeaderTimeout time.Duration
	watch             bool
	debounce          time.Duration
	metrics           *observe.Metrics
	metricsHandler    http.Handler
	logger            *slog.Logger
}

// New creates a server instance.
func New(cfg Config) *Server {
	s := &Server{
		engine:            cfg.Engine,
		addr:              cfg.Addr,
		readHeaderTimeout: cfg.ReadHeaderTimeout,
		watch:             cfg.Watch,
		debounce:          cfg.Debounce,
		metrics:           cfg.Metrics,
		metricsHandler:    cfg.MetricsHandler,
		logger:            cfg.Logger,
	}
	if s.addr == "" {
		s.addr = DefaultAddr
	}
	if s.readHeaderTimeout <= 0 {
		s.readHeaderTimeout = DefaultReadHeaderTimeout
	}
	if s.metricsHandler == nil {
		s.metricsHandler = promhttp.Handler()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// Handler returns the router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		s.logRequests,
		middleware.Recoverer,
	)
	if s.metrics != nil {
		r.Use(observe.Middleware(s.metrics))
	}

	h := NewHandlers(s.engine, s.logger)
	r.Get("/healthz", h.Health)
	r.Handle("/metrics", s.metricsHandler)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/events", h.Events)
		r.Route("/dialects", func(r chi.Router) {
			r.Get("/", h.ListDialects)
			r.Post("/reload", h.Reload)
			r.Get("/{id}", h.GetDialect)
			r.Get("/{id}/lexicon", h.Lexicon)
			r.Post("/{id}/decode", h.Decode)
			r.Post("/{id}/validate", h.Validate)
		})
		r.Get("/runs", h.ListRuns)
		r.Get("/runs/{id}", h.GetRun)
	})
	return r
}

// Serve starts the server and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener is Serve on an existing listener. It takes ownership of ln.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.logger.Info("starting server", slog.String("addr", ln.Addr().String()))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: s.readHeaderTimeout,
	}

	if s.watch {
		w := watch.New(s.engine, watch.Config{
			Dirs:     s.engine.Dirs(),
			Debounce: s.debounce,
			Logger:   s.logger,
		})
		eg.Go(func() error {
			return w.Run(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Debug("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// logRequests logs each request at debug level through the server logger.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Duration("duration", time.Since(start)))
	})
}
