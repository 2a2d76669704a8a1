package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/jasmine-go/jasmine/internal/coverage"
	"github.com/jasmine-go/jasmine/internal/event"
	"github.com/jasmine-go/jasmine/internal/logging"
	"github.com/jasmine-go/jasmine/internal/project"
)

// Config holds server configuration.
type Config struct {
	Port         int
	EnableCORS   bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:         8888,
		EnableCORS:   true,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // No write timeout for SSE
	}
}

// Server is the HTTP server.
type Server struct {
	config  *Config
	router  *chi.Mux
	httpSrv *http.Server
	opts    project.Options
	bus     *event.Bus
	log     *zerolog.Logger

	mu       sync.RWMutex
	project  *project.Project
	reporter *coverage.Reporter
	unsub    func()
}

// New loads the project described by opts and creates a Server for it.
func New(cfg *Config, opts project.Options) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if opts.Bus == nil {
		opts.Bus = event.Default()
	}

	s := &Server{
		config: cfg,
		router: chi.NewRouter(),
		opts:   opts,
		bus:    opts.Bus,
		log:    logging.Component("server"),
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	s.unsub = s.bus.Subscribe(event.FilesChanged, s.onFilesChanged)

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// Reload reloads the project config. On failure the previous project keeps
// serving.
func (s *Server) Reload() error {
	p, err := project.New(s.opts)
	if err != nil {
		return fmt.Errorf("server: load project: %w", err)
	}

	s.mu.Lock()
	s.project = p
	s.reporter = p.Reporter(s.bus)
	s.mu.Unlock()
	return nil
}

func (s *Server) onFilesChanged(e event.Event) {
	data, ok := e.Data.(event.FilesChangedData)
	if !ok || data.Path != s.Project().ConfigFile() {
		return
	}
	if err := s.Reload(); err != nil {
		s.log.Error().Err(err).Str("path", data.Path).Msg("config reload failed")
		return
	}
	s.log.Info().Str("path", data.Path).Msg("config reloaded")
}

// Project returns the project currently being served.
func (s *Server) Project() *project.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.project
}

func (s *Server) currentReporter() *coverage.Reporter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reporter
}

// setupMiddleware configures middleware for the server.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RealIP)

	// The runner page may be served from another origin.
	if s.config.EnableCORS {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.log.Info().Int("port", s.config.Port).Str("root", s.Project().ProjectRoot()).Msg("serving")
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.unsub != nil {
		s.unsub()
	}
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
