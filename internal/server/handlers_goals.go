package server

import (
	"net/http"

	"metaconscious/internal/types"
)

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request, userID string) {
	goals, err := s.store.ListGoals(r.Context(), userID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if goals == nil {
		goals = []types.Goal{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"goals": goals})
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request, userID string) {
	goal, err := s.store.GetGoal(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"goal": goal})
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request, userID string) {
	var goal types.Goal
	if !s.decodeBody(w, r, &goal) {
		return
	}
	if goal.Title == "" || goal.Priority < 1 || goal.Priority > 5 || goal.PriorityReasoning == "" {
		s.writeError(w, http.StatusBadRequest, "title, priority (1-5) and priority_reasoning are required")
		return
	}
	goal.UserID = userID
	if err := s.store.CreateGoal(r.Context(), &goal); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"goal": goal})
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request, userID string) {
	var goal types.Goal
	if !s.decodeBody(w, r, &goal) {
		return
	}
	if goal.Title == "" || goal.Priority < 1 || goal.Priority > 5 {
		s.writeError(w, http.StatusBadRequest, "title and priority (1-5) are required")
		return
	}
	goal.ID = r.PathValue("id")
	goal.UserID = userID
	if err := s.store.UpdateGoal(r.Context(), &goal); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"goal": goal})
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.store.DeleteGoal(r.Context(), userID, r.PathValue("id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Goal deleted"})
}
