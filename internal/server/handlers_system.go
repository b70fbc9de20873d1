package server

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"metaconscious/internal/store"
)

const (
	defaultUsername = "user"
	defaultPassword = "password"
)

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// handleStatus reports liveness, whether a user exists and whether the
// completion client is configured. No connectivity probe: that burns a
// provider call on every poll.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":         "operational",
		"user":           nil,
		"llm_configured": s.llm != nil,
	}

	user, err := s.store.GetUser(r.Context())
	switch {
	case err == nil:
		resp["user"] = map[string]string{"id": user.ID, "username": user.Username}
	case errors.Is(err, store.ErrNotFound):
	default:
		s.writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleInit provisions the single account. Idempotent: a second call
// reports the existing user instead of failing.
func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	existing, err := s.store.GetUser(r.Context())
	if err == nil {
		s.writeJSON(w, http.StatusOK, map[string]any{
			"message": "User already initialized",
			"user":    map[string]string{"id": existing.ID, "username": existing.Username},
		})
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	// Empty body is fine; defaults apply.
	_ = decodeOptional(r, &body)
	if body.Username == "" {
		body.Username = defaultUsername
	}
	if body.Password == "" {
		body.Password = defaultPassword
	}

	user, err := s.store.CreateUser(r.Context(), body.Username, hashPassword(body.Password))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.logger.Info("user initialized", zap.String("username", user.Username))
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "User created",
		"user":    map[string]string{"id": user.ID, "username": user.Username},
	})
}

// handleChat forwards the message with the user's current plan and goal
// context to the completion client. No interpretation of the reply happens
// here; the assistant's text goes back verbatim.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, userID string) {
	if s.llm == nil {
		s.writeError(w, http.StatusBadRequest, "LLM not configured. Set LLM_API_KEY in .env file")
		return
	}

	var body struct {
		Message string `json:"message"`
	}
	if !s.decodeBody(w, r, &body) {
		return
	}
	if body.Message == "" {
		s.writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := s.engine.Chat(r.Context(), userID, body.Message)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"response":  reply,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
