package server

import (
	"net/http"

	"metaconscious/internal/types"
)

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request, userID string) {
	var events []types.CalendarEvent
	var err error
	if date := r.URL.Query().Get("date"); date != "" {
		events, err = s.store.EventsForDate(r.Context(), userID, date)
	} else {
		events, err = s.store.ListEvents(r.Context(), userID)
	}
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if events == nil {
		events = []types.CalendarEvent{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request, userID string) {
	event, err := s.store.GetEvent(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"event": event})
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request, userID string) {
	var event types.CalendarEvent
	if !s.decodeBody(w, r, &event) {
		return
	}
	if event.Title == "" || event.StartTime.IsZero() || event.EndTime.IsZero() {
		s.writeError(w, http.StatusBadRequest, "title, start_time and end_time are required")
		return
	}
	event.UserID = userID
	if err := s.store.CreateEvent(r.Context(), &event); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"event": event})
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request, userID string) {
	var event types.CalendarEvent
	if !s.decodeBody(w, r, &event) {
		return
	}
	if event.Title == "" || event.StartTime.IsZero() || event.EndTime.IsZero() {
		s.writeError(w, http.StatusBadRequest, "title, start_time and end_time are required")
		return
	}
	event.ID = r.PathValue("id")
	event.UserID = userID
	if err := s.store.UpdateEvent(r.Context(), &event); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"event": event})
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.store.DeleteEvent(r.Context(), userID, r.PathValue("id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Event deleted"})
}
