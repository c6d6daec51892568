// Package api implements the HTTP API server for plugver.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sprite-ai/plugver/internal/analysis"
	"github.com/sprite-ai/plugver/internal/apperr"
	"github.com/sprite-ai/plugver/internal/governance"
	"github.com/sprite-ai/plugver/internal/logger"
	"github.com/sprite-ai/plugver/internal/model"
	"github.com/sprite-ai/plugver/internal/oracle"
)

// Checker runs check mode; *governance.Orchestrator satisfies it.
type Checker interface {
	Check(ctx context.Context, scope model.Scope, opts governance.CheckOptions) (*governance.CheckReport, error)
}

// Server is the plugver HTTP API server.
type Server struct {
	addr    string
	mux     *http.ServeMux
	server  *http.Server
	oracle  oracle.Classifier
	checker Checker
	layout  analysis.Layout
	log     *logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLayout sets the manifest layout /api/analyze classifies against.
func WithLayout(l analysis.Layout) Option {
	return func(s *Server) { s.layout = l }
}

// New creates a new API server. checker may be nil when no repository is
// available, in which case websocket checks report an error.
func New(addr string, classifier oracle.Classifier, checker Checker, log *logger.Logger, opts ...Option) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{
		addr:    addr,
		oracle:  classifier,
		checker: checker,
		layout:  analysis.DefaultLayout,
		log:     log.Component("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mux = http.NewServeMux()
	s.registerRoutes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // classification waits on the oracle
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/classify", s.handleClassify)
	s.mux.HandleFunc("POST /api/requires", s.handleRequires)
	s.mux.HandleFunc("POST /api/next-version", s.handleNextVersion)
	s.mux.HandleFunc("POST /api/parse", s.handleParse)
	s.mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	s.mux.HandleFunc("GET /api/ws", s.handleWebSocket)
}

// ListenAndServe starts the HTTP server and shuts it down when ctx ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("plugver API server listening on %s", s.addr)
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("shutting down API server")
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		s.log.Error("json encode", err)
	}
}

type errorResponse struct {
	Error string      `json:"error"`
	Code  apperr.Code `json:"code"`
}

// writeError writes err as JSON with the status its code maps to.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error(), Code: apperr.CodeOf(err)})
}

// readJSON decodes a JSON request body into v.
func readJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return apperr.New(apperr.CodeInvalidArgument, "empty request body")
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Wrap(err, apperr.CodeInvalidArgument, "invalid request")
	}
	return nil
}
