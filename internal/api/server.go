// Package api serves the vecfield HTTP endpoints.
package api

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/hupe1980/vecfield"
	"github.com/hupe1980/vecfield/codec"
	"github.com/hupe1980/vecfield/mapping"
	"github.com/hupe1980/vecfield/vectorstore"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 32 << 20

// Config holds server dependencies.
type Config struct {
	Mapper *vecfield.Mapper
	Store  *vectorstore.Store
	Logger *vecfield.Logger
	// Metrics is served at /metrics when set.
	Metrics http.Handler
	Codec   codec.Codec
}

// Server routes mapping and ingestion requests. Fields registered through
// PUT /_mapping are kept in memory.
type Server struct {
	router *mux.Router
	mapper *vecfield.Mapper
	store  *vectorstore.Store
	logger *vecfield.Logger
	codec  codec.Codec

	mu     sync.RWMutex
	fields map[string]*mapping.Field
}

// NewServer creates a server. A nil Store or Logger is replaced by an empty
// store and a discarding logger.
func NewServer(cfg Config) *Server {
	s := &Server{
		router: mux.NewRouter(),
		mapper: cfg.Mapper,
		store:  cfg.Store,
		logger: cfg.Logger,
		codec:  cfg.Codec,
		fields: make(map[string]*mapping.Field),
	}
	if s.store == nil {
		s.store = vectorstore.New()
	}
	if s.logger == nil {
		s.logger = vecfield.NoopLogger()
	}
	if s.codec == nil {
		s.codec = codec.Default
	}
	if s.mapper == nil {
		s.mapper = vecfield.New(vecfield.WithSink(s.store), vecfield.WithLogger(s.logger))
	}

	s.router.HandleFunc("/_validate", s.handleValidate).Methods("POST")
	s.router.HandleFunc("/_mapping", s.handlePutMapping).Methods("PUT")
	s.router.HandleFunc("/_mapping", s.handleGetMapping).Methods("GET")
	s.router.HandleFunc("/fields/{name}/_ingest", s.handleIngest).Methods("POST")
	s.router.HandleFunc("/fields/{name}/_count", s.handleCount).Methods("GET")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	if cfg.Metrics != nil {
		s.router.Handle("/metrics", cfg.Metrics).Methods("GET")
	}
	s.router.Use(s.loggingMiddleware)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Field returns a registered field.
func (s *Server) Field(name string) (*mapping.Field, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.fields[name]
	return f, ok
}

// ListenAndServe serves on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("api server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		s.logger.Info("api server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) fieldNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.DebugContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}
