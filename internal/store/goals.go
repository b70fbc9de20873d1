package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"metaconscious/internal/types"
)

const goalColumns = `id, user_id, title, description, priority, priority_reasoning,
	status, target_date, created_at, updated_at`

func scanGoal(row interface{ Scan(...any) error }) (*types.Goal, error) {
	var g types.Goal
	var description, targetDate sql.NullString
	var createdAt, updatedAt string
	err := row.Scan(&g.ID, &g.UserID, &g.Title, &description, &g.Priority,
		&g.PriorityReasoning, &g.Status, &targetDate, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	g.Description = description.String
	g.TargetDate = targetDate.String
	g.CreatedAt = parseTime(createdAt)
	g.UpdatedAt = parseTime(updatedAt)
	return &g, nil
}

// ListGoals returns all of the user's goals, priority-descending then
// newest first.
func (s *Store) ListGoals(ctx context.Context, userID string) ([]types.Goal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = ?
		 ORDER BY priority DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("database query error: %w", err)
	}
	defer rows.Close()

	var goals []types.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("database scan error: %w", err)
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

// ActiveGoals returns up to limit active goals, priority-descending. This
// is the bounded slice the planning context embeds.
func (s *Store) ActiveGoals(ctx context.Context, userID string, limit int) ([]types.Goal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM goals
		 WHERE user_id = ? AND status = ?
		 ORDER BY priority DESC LIMIT ?`,
		userID, types.GoalStatusActive, limit)
	if err != nil {
		return nil, fmt.Errorf("database query error: %w", err)
	}
	defer rows.Close()

	var goals []types.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("database scan error: %w", err)
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

// GetGoal fetches one goal scoped by owner.
func (s *Store) GetGoal(ctx context.Context, userID, goalID string) (*types.Goal, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE id = ? AND user_id = ?`, goalID, userID)
	g, err := scanGoal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database query error: %w", err)
	}
	return g, nil
}

// CreateGoal inserts a goal, filling ID and timestamps.
func (s *Store) CreateGoal(ctx context.Context, g *types.Goal) error {
	g.ID = uuid.NewString()
	if g.Status == "" {
		g.Status = types.GoalStatusActive
	}
	ts := now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (id, user_id, title, description, priority,
			priority_reasoning, status, target_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Title, nullStr(g.Description), g.Priority,
		g.PriorityReasoning, g.Status, nullStr(g.TargetDate), ts, ts)
	if err != nil {
		return fmt.Errorf("failed to create goal: %w", err)
	}
	g.CreatedAt = parseTime(ts)
	g.UpdatedAt = g.CreatedAt
	return nil
}

// UpdateGoal overwrites the mutable fields of an existing goal.
func (s *Store) UpdateGoal(ctx context.Context, g *types.Goal) error {
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE goals SET title = ?, description = ?, priority = ?,
			priority_reasoning = ?, status = ?, target_date = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		g.Title, nullStr(g.Description), g.Priority, g.PriorityReasoning,
		g.Status, nullStr(g.TargetDate), ts, g.ID, g.UserID)
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	g.UpdatedAt = parseTime(ts)
	return nil
}

// DeleteGoal removes a goal and its task links (cascade).
func (s *Store) DeleteGoal(ctx context.Context, userID, goalID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM goals WHERE id = ? AND user_id = ?`, goalID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
