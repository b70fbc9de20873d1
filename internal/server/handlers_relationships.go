package server

import (
	"net/http"

	"metaconscious/internal/types"
)

func (s *Server) handleListRelationships(w http.ResponseWriter, r *http.Request, userID string) {
	rels, err := s.store.ListRelationships(r.Context(), userID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if rels == nil {
		rels = []types.Relationship{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"relationships": rels})
}

func (s *Server) handleGetRelationship(w http.ResponseWriter, r *http.Request, userID string) {
	rel, err := s.store.GetRelationship(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"relationship": rel})
}

func (s *Server) handleCreateRelationship(w http.ResponseWriter, r *http.Request, userID string) {
	var rel types.Relationship
	if !s.decodeBody(w, r, &rel) {
		return
	}
	if rel.Name == "" || rel.Priority < 1 || rel.Priority > 5 {
		s.writeError(w, http.StatusBadRequest, "name and priority (1-5) are required")
		return
	}
	rel.UserID = userID
	if err := s.store.CreateRelationship(r.Context(), &rel); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"relationship": rel})
}

func (s *Server) handleUpdateRelationship(w http.ResponseWriter, r *http.Request, userID string) {
	var rel types.Relationship
	if !s.decodeBody(w, r, &rel) {
		return
	}
	if rel.Name == "" || rel.Priority < 1 || rel.Priority > 5 {
		s.writeError(w, http.StatusBadRequest, "name and priority (1-5) are required")
		return
	}
	rel.ID = r.PathValue("id")
	rel.UserID = userID
	if err := s.store.UpdateRelationship(r.Context(), &rel); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"relationship": rel})
}

func (s *Server) handleDeleteRelationship(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.store.DeleteRelationship(r.Context(), userID, r.PathValue("id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Relationship deleted"})
}
