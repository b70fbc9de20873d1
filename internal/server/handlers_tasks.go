package server

import (
	"net/http"

	"metaconscious/internal/types"
)

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request, userID string) {
	tasks, err := s.store.ListTasks(r.Context(), userID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if tasks == nil {
		tasks = []types.Task{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request, userID string) {
	task, err := s.store.GetTask(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"task": task})
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request, userID string) {
	var task types.Task
	if !s.decodeBody(w, r, &task) {
		return
	}
	if task.Title == "" || task.Priority < 1 || task.Priority > 5 || task.PriorityReasoning == "" {
		s.writeError(w, http.StatusBadRequest, "title, priority (1-5) and priority_reasoning are required")
		return
	}
	task.UserID = userID
	if err := s.store.CreateTask(r.Context(), &task); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"task": task})
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request, userID string) {
	var task types.Task
	if !s.decodeBody(w, r, &task) {
		return
	}
	if task.Title == "" || task.Priority < 1 || task.Priority > 5 {
		s.writeError(w, http.StatusBadRequest, "title and priority (1-5) are required")
		return
	}
	task.ID = r.PathValue("id")
	task.UserID = userID
	if err := s.store.UpdateTask(r.Context(), &task); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"task": task})
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.store.DeleteTask(r.Context(), userID, r.PathValue("id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted"})
}
