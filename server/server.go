package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/hupe1980/agentpipe/core"
	"github.com/hupe1980/agentpipe/job"
	"github.com/hupe1980/agentpipe/logging"
	"github.com/hupe1980/agentpipe/pipeline"
)

// Options holds configuration overrides passed to New.
type Options struct {
	// SyncTimeout bounds a whole synchronous run, distinct from the
	// per-call model timeout applied inside the executor.
	SyncTimeout time.Duration
	// Logger receives request diagnostics.
	Logger logging.Logger
}

// Server routes the dashboard's pipeline API onto the runner and tracker.
type Server struct {
	runner      *pipeline.Runner
	tracker     *job.Tracker
	catalog     core.Catalog
	syncTimeout time.Duration
	logger      logging.Logger
	mux         *http.ServeMux
}

// New constructs a Server with all routes registered.
func New(runner *pipeline.Runner, tracker *job.Tracker, catalog core.Catalog, optFns ...func(o *Options)) *Server {
	opts := Options{
		SyncTimeout: 600 * time.Second,
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{
		runner:      runner,
		tracker:     tracker,
		catalog:     catalog,
		syncTimeout: opts.SyncTimeout,
		logger:      opts.Logger,
		mux:         http.NewServeMux(),
	}

	s.mux.HandleFunc("POST /api/agent-pipeline/run", s.handleRun)
	s.mux.HandleFunc("POST /api/agent-pipeline/run-async", s.handleRunAsync)
	s.mux.HandleFunc("GET /api/agent-pipeline/status/{id}", s.handleStatus)
	s.mux.HandleFunc("GET /api/agent-pipeline/result/{id}", s.handleResult)
	s.mux.HandleFunc("GET /api/agent-pipeline/list", s.handleList)
	s.mux.HandleFunc("GET /api/agent-sets", s.handleAgentSets)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.syncTimeout)
	defer cancel()

	result, err := s.runner.Execute(ctx, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRunAsync(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	id, err := s.tracker.Submit(req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"pipeline_id": id})
}

type statusResponse struct {
	PipelineID      string         `json:"pipeline_id"`
	Status          core.JobStatus `json:"status"`
	Progress        int            `json:"progress"`
	ProgressMessage string         `json:"progress_message,omitempty"`
	Error           string         `json:"error,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	j, err := s.tracker.Status(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, statusResponse{
		PipelineID:      j.ID,
		Status:          j.Status,
		Progress:        j.Progress,
		ProgressMessage: j.ProgressMessage,
		Error:           j.Error,
	})
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	result, err := s.tracker.Result(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, core.ErrInvalidInput)
			return
		}
		limit = n
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"pipelines": s.tracker.List(limit)})
}

func (s *Server) handleAgentSets(w http.ResponseWriter, r *http.Request) {
	sets, err := s.catalog.ListAgentSets(true)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"agent_sets": sets})
}

func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (pipeline.Request, bool) {
	var req pipeline.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return pipeline.Request{}, false
	}
	if req.SectionMode == "" {
		req.SectionMode = core.SectionModeSingle
	}
	return req, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encoding failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrNotReady):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
