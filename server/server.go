// Package server exposes the engine over HTTP: dataset upload, statistics,
// structured and natural language queries, chart data, transformations
// and export.
package server

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/asaidimu/datainsight/core/engine"
	"github.com/asaidimu/datainsight/store"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Translator turns a natural language question into a structured query.
// The returned map either decodes into a query.StructuredQuery or carries
// "clarification_needed", in which case it is passed back to the caller.
type Translator interface {
	Translate(ctx context.Context, question string, columns []string) (map[string]any, error)
}

// TranslatorFunc adapts a function to the Translator interface.
type TranslatorFunc func(ctx context.Context, question string, columns []string) (map[string]any, error)

// Translate calls f.
func (f TranslatorFunc) Translate(ctx context.Context, question string, columns []string) (map[string]any, error) {
	return f(ctx, question, columns)
}

// Option configures an APIServer.
type Option func(*APIServer)

// WithTranslator enables POST /ai/query.
func WithTranslator(t Translator) Option {
	return func(s *APIServer) { s.translator = t }
}

// WithAllowedOrigins sets the origins allowed by CORS. "*" allows any.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *APIServer) { s.allowedOrigins = origins }
}

// WithMaxUploadBytes limits the size of uploads.
func WithMaxUploadBytes(n int64) Option {
	return func(s *APIServer) { s.maxUploadBytes = n }
}

// WithPreviewRows sets how many rows upload and transform responses show.
func WithPreviewRows(n int) Option {
	return func(s *APIServer) { s.previewRows = n }
}

// APIServer serves the HTTP API.
type APIServer struct {
	engine     *engine.Engine
	store      store.Store
	translator Translator
	logger     *zap.Logger
	mux        *http.ServeMux

	allowedOrigins []string
	maxUploadBytes int64
	previewRows    int
}

// NewAPIServer creates a new API server instance.
func NewAPIServer(e *engine.Engine, st store.Store, logger *zap.Logger, opts ...Option) *APIServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &APIServer{
		engine:         e,
		store:          st,
		logger:         logger,
		mux:            http.NewServeMux(),
		allowedOrigins: []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		maxUploadBytes: 32 << 20,
		previewRows:    5,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *APIServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Handler returns the API wrapped in the CORS middleware.
func (s *APIServer) Handler() http.Handler {
	return s.CORSMiddleware(s)
}

func (s *APIServer) setupRoutes() {
	s.mux.HandleFunc("/health", s.method(http.MethodGet, s.handleHealth))
	s.mux.HandleFunc("/upload", s.method(http.MethodPost, s.handleUpload))
	s.mux.HandleFunc("/stats", s.method(http.MethodGet, s.handleStats))
	s.mux.HandleFunc("/profile", s.method(http.MethodGet, s.handleProfile))
	s.mux.HandleFunc("/column-stats", s.method(http.MethodGet, s.handleColumnStats))
	s.mux.HandleFunc("/query", s.method(http.MethodPost, s.handleQuery))
	s.mux.HandleFunc("/ai/query", s.method(http.MethodPost, s.handleAIQuery))
	s.mux.HandleFunc("/plot", s.method(http.MethodPost, s.handlePlot))
	s.mux.HandleFunc("/transform", s.method(http.MethodPost, s.handleTransform))
	s.mux.HandleFunc("/export", s.method(http.MethodGet, s.handleExport))
}

// method rejects requests that do not use the given method.
func (s *APIServer) method(m string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != m {
			w.Header().Set("Allow", m)
			s.writeErrorResponse(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only "+m+" method is supported", "")
			return
		}
		h(w, r)
	}
}

// CORSMiddleware adds CORS headers for allowed origins and answers
// preflight requests.
func (s *APIServer) CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *APIServer) originAllowed(origin string) bool {
	return slices.Contains(s.allowedOrigins, "*") || slices.Contains(s.allowedOrigins, origin)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *APIServer) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting API server", zap.String("address", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "server failed")
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown failed")
	}
	return nil
}
