// Package server exposes an extracted schema over read-only HTTP endpoints.
//
// The served schema is replaced atomically by Publish, so a rebuild never
// blocks readers and readers never observe a partially built schema.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/koustreak/metaschema/internal/logger"
	"github.com/koustreak/metaschema/internal/schema"
)

// Config holds the HTTP listener settings.
type Config struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// DefaultConfig listens on :8080.
func DefaultConfig() *Config {
	return &Config{
		Addr:            ":8080",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
	}
}

// Server serves the most recently published schema.
type Server struct {
	cfg     *Config
	log     *logger.Logger
	current atomic.Pointer[schema.Result]
	router  chi.Router
}

// New returns a Server with no schema published yet.
func New(cfg *Config, log *logger.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{cfg: cfg, log: log}
	s.router = s.routes()
	return s
}

// Publish makes res the served schema.
func (s *Server) Publish(res *schema.Result) {
	s.current.Store(res)
	stats := res.Schema.Stats()
	s.log.InfoWith("schema published", map[string]any{
		"namespaces": stats.Namespaces,
		"entities":   stats.Entities,
		"warnings":   len(res.Warnings),
	})
}

// Handler returns the HTTP handler, for use with httptest or an outer mux.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.log.Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/schema", s.handleSchema)
	r.Get("/warnings", s.handleWarnings)
	r.Route("/namespaces/{namespace}", func(r chi.Router) {
		r.Get("/", s.handleNamespace)
		r.Get("/entities/{entity}", s.handleEntity)
		r.Get("/entities/{entity}/relationships/{relationship}/opposite", s.handleOpposite)
	})
	return r
}

// Run listens on cfg.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
