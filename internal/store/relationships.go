package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"metaconscious/internal/types"
)

const relationshipColumns = `id, user_id, name, relationship_type, priority,
	time_budget_hours, last_interaction, notes, created_at, updated_at`

func scanRelationship(row interface{ Scan(...any) error }) (*types.Relationship, error) {
	var r types.Relationship
	var budget sql.NullFloat64
	var lastInteraction, notes sql.NullString
	var createdAt, updatedAt string
	err := row.Scan(&r.ID, &r.UserID, &r.Name, &r.Type, &r.Priority,
		&budget, &lastInteraction, &notes, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	r.TimeBudgetHours = floatPtr(budget)
	r.LastInteraction = timePtr(lastInteraction)
	r.Notes = notes.String
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)
	return &r, nil
}

// ListRelationships returns every relationship, priority-descending. The
// planning context embeds them all; the set is small by nature.
func (s *Store) ListRelationships(ctx context.Context, userID string) ([]types.Relationship, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+relationshipColumns+` FROM relationships WHERE user_id = ?
		 ORDER BY priority DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("database query error: %w", err)
	}
	defer rows.Close()

	var rels []types.Relationship
	for rows.Next() {
		r, err := scanRelationship(rows)
		if err != nil {
			return nil, fmt.Errorf("database scan error: %w", err)
		}
		rels = append(rels, *r)
	}
	return rels, rows.Err()
}

// GetRelationship fetches one relationship scoped by owner.
func (s *Store) GetRelationship(ctx context.Context, userID, relID string) (*types.Relationship, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+relationshipColumns+` FROM relationships WHERE id = ? AND user_id = ?`,
		relID, userID)
	r, err := scanRelationship(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database query error: %w", err)
	}
	return r, nil
}

// CreateRelationship inserts a relationship, filling ID and timestamps.
func (s *Store) CreateRelationship(ctx context.Context, r *types.Relationship) error {
	r.ID = uuid.NewString()
	if r.Type == "" {
		r.Type = types.RelationshipOther
	}
	ts := now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO relationships (id, user_id, name, relationship_type,
			priority, time_budget_hours, last_interaction, notes,
			created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.Name, r.Type, r.Priority,
		nullFloat(r.TimeBudgetHours), nullTime(r.LastInteraction),
		nullStr(r.Notes), ts, ts)
	if err != nil {
		return fmt.Errorf("failed to create relationship: %w", err)
	}
	r.CreatedAt = parseTime(ts)
	r.UpdatedAt = r.CreatedAt
	return nil
}

// UpdateRelationship overwrites the mutable fields of a relationship.
func (s *Store) UpdateRelationship(ctx context.Context, r *types.Relationship) error {
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE relationships SET name = ?, relationship_type = ?, priority = ?,
			time_budget_hours = ?, last_interaction = ?, notes = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		r.Name, r.Type, r.Priority, nullFloat(r.TimeBudgetHours),
		nullTime(r.LastInteraction), nullStr(r.Notes), ts, r.ID, r.UserID)
	if err != nil {
		return fmt.Errorf("failed to update relationship: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	r.UpdatedAt = parseTime(ts)
	return nil
}

// DeleteRelationship removes a relationship.
func (s *Store) DeleteRelationship(ctx context.Context, userID, relID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM relationships WHERE id = ? AND user_id = ?`, relID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete relationship: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
