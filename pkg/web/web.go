// Package web exposes the query processor over a JSON HTTP API plus a
// WebSocket channel for watching a query move through its phases. It is a
// thin presentation layer; all behavior lives in pkg/query.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ahoffer/cogito/pkg/query"
	"github.com/ahoffer/cogito/pkg/thinkmodel"
)

// Server handles HTTP traffic for one query processor.
type Server struct {
	proc *query.Processor
	log  *slog.Logger
	mux  *http.ServeMux
}

// New creates a Server. A nil logger falls back to slog.Default.
func New(proc *query.Processor, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	s := &Server{proc: proc, log: log, mux: http.NewServeMux()}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/query", s.handleQuery)
	s.mux.HandleFunc("GET /api/models", s.handleModels)
	s.mux.HandleFunc("GET /api/models/{id}", s.handleModel)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("POST /api/reload", s.handleReload)
	s.mux.HandleFunc("GET /ws", s.handleWS)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("web server listening", "addr", addr)

	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// --- wire types ---

type queryRequest struct {
	Query string `json:"query"`
}

type queryResponse struct {
	ID             string   `json:"id"`
	Query          string   `json:"query"`
	SelectedModels []string `json:"selected_models"`
	Solution       string   `json:"solution"`
	ProcessingTime float64  `json:"processing_time"` // Seconds.
	Error          string   `json:"error,omitempty"`
}

type statusResponse struct {
	Status       string             `json:"status"`
	LLMConnected bool               `json:"llm_connected"`
	Models       thinkmodel.Summary `json:"models"`
}

type errorBody struct {
	Error string `json:"error"`
}

func toQueryResponse(id string, res query.Result) queryResponse {
	selected := res.SelectedModels
	if selected == nil {
		selected = []string{}
	}

	return queryResponse{
		ID:             id,
		Query:          res.Query,
		SelectedModels: selected,
		Solution:       res.Solution,
		ProcessingTime: res.ProcessingTime.Seconds(),
		Error:          res.Err,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// --- handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query must not be empty")
		return
	}

	id := uuid.NewString()
	s.log.Info("web query accepted", "id", id)

	res := s.proc.Process(r.Context(), req.Query)

	writeJSON(w, http.StatusOK, toQueryResponse(id, res))
}

func (s *Server) handleModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"models": s.proc.Library().All(),
		"count":  s.proc.Library().Len(),
	})
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	m, ok := s.proc.Library().Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "model not found: "+id)
		return
	}

	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:       "ok",
		LLMConnected: s.proc.CheckConnectivity(r.Context()),
		Models:       s.proc.Summary(),
	})
}

func (s *Server) handleReload(w http.ResponseWriter, _ *http.Request) {
	if err := s.proc.Library().Reload(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, s.proc.Summary())
}
