package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/andrescamacho/skamkraft-go/internal/application/session"
	"github.com/andrescamacho/skamkraft-go/internal/infrastructure/logging"
)

// Config holds server configuration
type Config struct {
	Address        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	// EventBuffer is the per-client queue of the /events stream
	EventBuffer int
	MetricsPath string

	Session *session.Session
	// Registry is served on MetricsPath; nil leaves the route out
	Registry *prometheus.Registry
	Logger   *zap.Logger
}

// Server exposes session status, the task queue and fleet events over HTTP
type Server struct {
	server    *http.Server
	session   *session.Session
	logger    *zap.Logger
	validate  *validator.Validate
	upgrader  websocket.Upgrader
	buffer    int
	startTime time.Time
	ready     atomic.Bool

	closing   chan struct{}
	closeOnce sync.Once
}

// New creates the server and its router
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 64
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	s := &Server{
		session:   cfg.Session,
		logger:    cfg.Logger.Named("http"),
		validate:  validator.New(),
		buffer:    cfg.EventBuffer,
		startTime: time.Now(),
		closing:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	// The event stream is long-lived and stays outside the request timeout
	r.Get("/events", s.handleEvents)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.RequestTimeout))

		r.Get("/health", s.handleHealth)
		r.Get("/ready", s.handleReady)
		if cfg.Registry != nil {
			r.Get(cfg.MetricsPath, promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}).ServeHTTP)
		}
		r.Get("/status", s.handleStatus)
		r.Get("/routes", s.handleRoutes)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.handleListTasks)
			r.Post("/", s.handleCreateTask)
			r.Get("/{id}", s.handleGetTask)
			r.Delete("/{id}", s.handleCancelTask)
		})
	})

	s.server = &http.Server{
		Addr:              cfg.Address,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// requestLogger puts a logger tagged with the request ID into the context
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := s.logger.With(zap.String("request_id", middleware.GetReqID(r.Context())))
		next.ServeHTTP(w, r.WithContext(logging.WithLogger(r.Context(), logger)))
	})
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// SetReady marks the session initialized and able to serve tasks
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Start blocks serving until Shutdown or a listener error
func (s *Server) Start() error {
	s.logger.Info("http-server-starting", zap.String("addr", s.server.Addr))

	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}

// Serve is Start on an existing listener
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("http-server-starting", zap.String("addr", l.Addr().String()))

	err := s.server.Serve(l)
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server. Hijacked event streams
// are not tracked by net/http, so they are told to close first.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http-server-shutting-down")
	s.ready.Store(false)
	s.closeOnce.Do(func() { close(s.closing) })

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("http-server-shutdown-complete")
	return nil
}
