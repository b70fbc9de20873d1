package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"metaconscious/internal/planner"
	"metaconscious/internal/store"
)

// handleGetPlan returns the plan for ?date= (default today). The stored
// payload is returned as the domain plan object, with the row's plan_date
// winning over whatever date the model wrote inside the payload.
func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request, userID string) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	row, err := s.store.GetPlanByDate(r.Context(), userID, date)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeJSON(w, http.StatusOK, map[string]any{"plan": nil})
			return
		}
		s.writeDomainError(w, err)
		return
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(row.PlanJSON), &payload); err != nil {
		s.writeDomainError(w, err)
		return
	}
	payload["date"] = row.PlanDate
	s.writeJSON(w, http.StatusOK, map[string]any{"plan": payload})
}

// handleGeneratePlan runs the full pipeline for the requested date. The
// configuration check happens here, before any context gathering or
// network traffic.
func (s *Server) handleGeneratePlan(w http.ResponseWriter, r *http.Request, userID string) {
	if s.llm == nil {
		s.writeError(w, http.StatusBadRequest, "LLM not configured. Set LLM_API_KEY in .env file")
		return
	}

	var body struct {
		Date string `json:"date"`
	}
	_ = decodeOptional(r, &body)
	if body.Date == "" {
		body.Date = time.Now().Format("2006-01-02")
	}

	generated, _, err := s.engine.GenerateDailyPlan(r.Context(), userID, body.Date)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"plan":    generated,
		"message": "Plan generated successfully",
	})
}

func (s *Server) handleGetOverrides(w http.ResponseWriter, r *http.Request, userID string) {
	status, err := s.engine.CheckWeeklyOverrides(r.Context(), userID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"overrides": status})
}

// handleOverridePlan enforces the weekly quota, then logs the override.
// The check and the log are deliberately separate operations: the log is
// append-only and never refuses.
func (s *Server) handleOverridePlan(w http.ResponseWriter, r *http.Request, userID string) {
	planID := r.PathValue("id")
	if _, err := s.store.GetPlanByID(r.Context(), userID, planID); err != nil {
		s.writeDomainError(w, err)
		return
	}

	var body struct {
		OverrideType string `json:"override_type"`
		Reason       string `json:"reason"`
	}
	_ = decodeOptional(r, &body)
	if body.OverrideType == "" {
		body.OverrideType = "manual"
	}

	status, err := s.engine.CheckWeeklyOverrides(r.Context(), userID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if !status.CanOverride {
		s.writeDomainError(w, &planner.OverrideLimitError{Status: status})
		return
	}

	if err := s.engine.LogOverride(r.Context(), userID, planID, body.OverrideType, body.Reason); err != nil {
		s.writeDomainError(w, err)
		return
	}
	if err := s.store.MarkPlanOverridden(r.Context(), userID, planID); err != nil {
		s.writeDomainError(w, err)
		return
	}

	updated, err := s.engine.CheckWeeklyOverrides(r.Context(), userID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Override logged",
		"overrides": updated,
	})
}

// handleRescheduleTask moves a task and regenerates the affected plan.
func (s *Server) handleRescheduleTask(w http.ResponseWriter, r *http.Request, userID string) {
	if s.llm == nil {
		s.writeError(w, http.StatusBadRequest, "LLM not configured. Set LLM_API_KEY in .env file")
		return
	}

	var body struct {
		TaskID  string `json:"task_id"`
		NewDate string `json:"new_date"`
		Reason  string `json:"reason"`
	}
	if !s.decodeBody(w, r, &body) {
		return
	}
	if body.TaskID == "" || body.NewDate == "" {
		s.writeError(w, http.StatusBadRequest, "task_id and new_date are required")
		return
	}

	if err := s.engine.RescheduleTask(r.Context(), userID, body.TaskID, body.NewDate, body.Reason); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Task rescheduled"})
}
