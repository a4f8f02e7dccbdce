// Package server provides the HTTP API for the knowledge engine.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/hdkg/internal/config"
	"github.com/hyperjump/hdkg/internal/engine"
	"github.com/hyperjump/hdkg/internal/metrics"
	"github.com/hyperjump/hdkg/internal/preprocess"
)

// Server is the HTTP server for the engine API.
type Server struct {
	engine       *engine.Engine
	preprocessor *preprocess.Preprocessor
	metrics      *metrics.Metrics
	config       *config.Config
	version      string
	logger       *zap.Logger

	mu     sync.Mutex
	server *http.Server
}

// NewServer creates a server with the given dependencies. m may be nil, in
// which case /metrics is not mounted.
func NewServer(
	eng *engine.Engine,
	pre *preprocess.Preprocessor,
	m *metrics.Metrics,
	cfg *config.Config,
	version string,
	logger *zap.Logger,
) *Server {
	return &Server{
		engine:       eng,
		preprocessor: pre,
		metrics:      m,
		config:       cfg,
		version:      version,
		logger:       logger,
	}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.config.Server.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Get("/languages", s.handleLanguages)
	r.Post("/preprocess", s.handlePreprocess)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/info", s.handleInfo)
		r.Post("/triples", s.handleAddTriples)
		r.Post("/search", s.handleSearch)
		r.Get("/symbols/{id}/similar", s.handleSimilarTo)
		r.Get("/symbols/{id}/recover", s.handleRecover)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Server.Addr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()
	s.logger.Info("Starting server", zap.String("addr", addr))
	return srv.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

const requestIDHeader = "X-Request-ID"

// requestID echoes the caller's request id or assigns a fresh one.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
