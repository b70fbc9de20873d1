// Package server exposes the HTTP API. Routing uses the standard mux with
// method patterns; every handler is user-scoped through the single-user
// auth middleware except /api/status and /api/init.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"metaconscious/internal/config"
	"metaconscious/internal/llm"
	"metaconscious/internal/planner"
	"metaconscious/internal/store"
)

const maxRequestBodySize = 1 << 20

// Server hosts the API. The llm client may be nil when no API key is
// configured; handlers that need it refuse up front.
type Server struct {
	cfg    *config.Config
	store  *store.Store
	engine *planner.Engine
	llm    llm.Client
	logger *zap.Logger
	http   *http.Server
}

// New assembles the server and its routes.
func New(cfg *config.Config, st *store.Store, engine *planner.Engine, client llm.Client, logger *zap.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		store:  st,
		engine: engine,
		llm:    client,
		logger: logger,
	}

	mux := http.NewServeMux()
	s.routes(mux)

	s.http = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.cors(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", s.handleRoot)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/init", s.handleInit)

	mux.HandleFunc("GET /api/goals", s.auth(s.handleListGoals))
	mux.HandleFunc("POST /api/goals", s.auth(s.handleCreateGoal))
	mux.HandleFunc("GET /api/goals/{id}", s.auth(s.handleGetGoal))
	mux.HandleFunc("PUT /api/goals/{id}", s.auth(s.handleUpdateGoal))
	mux.HandleFunc("DELETE /api/goals/{id}", s.auth(s.handleDeleteGoal))

	mux.HandleFunc("GET /api/tasks", s.auth(s.handleListTasks))
	mux.HandleFunc("POST /api/tasks", s.auth(s.handleCreateTask))
	mux.HandleFunc("GET /api/tasks/{id}", s.auth(s.handleGetTask))
	mux.HandleFunc("PUT /api/tasks/{id}", s.auth(s.handleUpdateTask))
	mux.HandleFunc("DELETE /api/tasks/{id}", s.auth(s.handleDeleteTask))

	mux.HandleFunc("GET /api/calendar", s.auth(s.handleListEvents))
	mux.HandleFunc("POST /api/calendar", s.auth(s.handleCreateEvent))
	mux.HandleFunc("GET /api/calendar/{id}", s.auth(s.handleGetEvent))
	mux.HandleFunc("PUT /api/calendar/{id}", s.auth(s.handleUpdateEvent))
	mux.HandleFunc("DELETE /api/calendar/{id}", s.auth(s.handleDeleteEvent))

	mux.HandleFunc("GET /api/relationships", s.auth(s.handleListRelationships))
	mux.HandleFunc("POST /api/relationships", s.auth(s.handleCreateRelationship))
	mux.HandleFunc("GET /api/relationships/{id}", s.auth(s.handleGetRelationship))
	mux.HandleFunc("PUT /api/relationships/{id}", s.auth(s.handleUpdateRelationship))
	mux.HandleFunc("DELETE /api/relationships/{id}", s.auth(s.handleDeleteRelationship))

	mux.HandleFunc("GET /api/plans", s.auth(s.handleGetPlan))
	mux.HandleFunc("POST /api/generate-plan", s.auth(s.handleGeneratePlan))
	mux.HandleFunc("GET /api/overrides", s.auth(s.handleGetOverrides))
	mux.HandleFunc("PUT /api/override-plan/{id}", s.auth(s.handleOverridePlan))
	mux.HandleFunc("POST /api/reschedule-task", s.auth(s.handleRescheduleTask))
	mux.HandleFunc("POST /api/chat", s.auth(s.handleChat))
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler returns the routed handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "MetaConscious Backend",
		"status":  "running",
	})
}

// cors applies the permissive browser policy and short-circuits preflight.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authedHandler receives the resolved user ID alongside the request.
type authedHandler func(w http.ResponseWriter, r *http.Request, userID string)

// auth resolves the sole provisioned user. Requests before initialization
// get a 401 pointing at /api/init.
func (s *Server) auth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.store.GetUser(r.Context())
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				s.writeError(w, http.StatusUnauthorized, "User not initialized. Call /api/init first")
				return
			}
			s.writeError(w, http.StatusInternalServerError, "database error")
			return
		}
		next(w, r, user.ID)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps typed domain errors onto HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var limitErr *planner.OverrideLimitError
	switch {
	case errors.As(err, &limitErr):
		s.writeJSON(w, http.StatusForbidden, map[string]any{
			"error":     fmt.Sprintf("Weekly override limit reached (%d)", limitErr.Status.Limit),
			"overrides": limitErr.Status,
		})
	case llm.IsNotConfigured(err):
		s.writeError(w, http.StatusBadRequest, "LLM not configured. Set LLM_API_KEY in .env file")
	case errors.Is(err, store.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "not found")
	default:
		s.logger.Error("request failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeOptional reads a JSON body into v if one is present. An empty or
// absent body is not an error.
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBodySize)).Decode(v)
}

// decodeBody reads a bounded JSON request body into v.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
