package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"metaconscious/internal/types"
)

const taskColumns = `id, user_id, title, description, priority, priority_reasoning,
	status, estimated_duration, actual_duration, due_date, completed_at,
	created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (*types.Task, error) {
	var t types.Task
	var description, dueDate, completedAt sql.NullString
	var estimated, actual sql.NullInt64
	var createdAt, updatedAt string
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &description, &t.Priority,
		&t.PriorityReasoning, &t.Status, &estimated, &actual, &dueDate,
		&completedAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	t.Description = description.String
	t.EstimatedDuration = intPtr(estimated)
	t.ActualDuration = intPtr(actual)
	t.DueDate = dueDate.String
	t.CompletedAt = timePtr(completedAt)
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return &t, nil
}

// ListTasks returns all of the user's tasks with their goal links attached.
func (s *Store) ListTasks(ctx context.Context, userID string) ([]types.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = ?
		 ORDER BY priority DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("database query error: %w", err)
	}
	defer rows.Close()

	tasks, err := collectTasks(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachGoalIDs(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// PendingTasks returns pending and in-progress tasks, highest priority
// first and earliest due date first within a priority, with goal links.
// This is the slice the planning context embeds.
func (s *Store) PendingTasks(ctx context.Context, userID string) ([]types.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE user_id = ? AND status IN (?, ?)
		 ORDER BY priority DESC, due_date ASC`,
		userID, types.TaskStatusPending, types.TaskStatusInProgress)
	if err != nil {
		return nil, fmt.Errorf("database query error: %w", err)
	}
	defer rows.Close()

	tasks, err := collectTasks(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachGoalIDs(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func collectTasks(rows *sql.Rows) ([]types.Task, error) {
	var tasks []types.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("database scan error: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *Store) attachGoalIDs(ctx context.Context, tasks []types.Task) error {
	for i := range tasks {
		rows, err := s.db.QueryContext(ctx,
			`SELECT goal_id FROM goal_tasks WHERE task_id = ?`, tasks[i].ID)
		if err != nil {
			return fmt.Errorf("database query error: %w", err)
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("database scan error: %w", err)
			}
			tasks[i].GoalIDs = append(tasks[i].GoalIDs, id)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()
	}
	return nil
}

// GetTask fetches one task with its goal links, scoped by owner.
func (s *Store) GetTask(ctx context.Context, userID, taskID string) (*types.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`, taskID, userID)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database query error: %w", err)
	}
	tasks := []types.Task{*t}
	if err := s.attachGoalIDs(ctx, tasks); err != nil {
		return nil, err
	}
	return &tasks[0], nil
}

// CreateTask inserts a task and its goal links, filling ID and timestamps.
func (s *Store) CreateTask(ctx context.Context, t *types.Task) error {
	t.ID = uuid.NewString()
	if t.Status == "" {
		t.Status = types.TaskStatusPending
	}
	ts := now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO tasks (id, user_id, title, description, priority,
			priority_reasoning, status, estimated_duration, actual_duration,
			due_date, completed_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Title, nullStr(t.Description), t.Priority,
		t.PriorityReasoning, t.Status, nullInt(t.EstimatedDuration),
		nullInt(t.ActualDuration), nullStr(t.DueDate), nullTime(t.CompletedAt),
		ts, ts)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	for _, goalID := range t.GoalIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO goal_tasks (goal_id, task_id) VALUES (?, ?)`,
			goalID, t.ID); err != nil {
			return fmt.Errorf("failed to link task to goal: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit task: %w", err)
	}

	t.CreatedAt = parseTime(ts)
	t.UpdatedAt = t.CreatedAt
	return nil
}

// UpdateTask overwrites the mutable fields of a task and replaces its goal
// links. CompletedAt is set on the first transition into completed and
// never touched again.
func (s *Store) UpdateTask(ctx context.Context, t *types.Task) error {
	existing, err := s.GetTask(ctx, t.UserID, t.ID)
	if err != nil {
		return err
	}

	completedAt := existing.CompletedAt
	if t.Status == types.TaskStatusCompleted && completedAt == nil {
		c := time.Now().UTC()
		completedAt = &c
	}
	t.CompletedAt = completedAt

	ts := now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, priority = ?,
			priority_reasoning = ?, status = ?, estimated_duration = ?,
			actual_duration = ?, due_date = ?, completed_at = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		t.Title, nullStr(t.Description), t.Priority, t.PriorityReasoning,
		t.Status, nullInt(t.EstimatedDuration), nullInt(t.ActualDuration),
		nullStr(t.DueDate), nullTime(completedAt), ts, t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM goal_tasks WHERE task_id = ?`, t.ID); err != nil {
		return fmt.Errorf("failed to clear task goal links: %w", err)
	}
	for _, goalID := range t.GoalIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO goal_tasks (goal_id, task_id) VALUES (?, ?)`,
			goalID, t.ID); err != nil {
			return fmt.Errorf("failed to link task to goal: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit task update: %w", err)
	}

	t.UpdatedAt = parseTime(ts)
	return nil
}

// UpdateTaskDueDate moves a task's due date without touching anything else.
func (s *Store) UpdateTaskDueDate(ctx context.Context, userID, taskID, dueDate string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET due_date = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		dueDate, now(), taskID, userID)
	if err != nil {
		return fmt.Errorf("failed to update task due date: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTask removes a task and its goal links.
func (s *Store) DeleteTask(ctx context.Context, userID, taskID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = ? AND user_id = ?`, taskID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// PerformanceStats aggregates task outcomes since the cutoff: completion
// and cancellation counts plus the mean actual/estimated duration ratio
// where both durations are known.
func (s *Store) PerformanceStats(ctx context.Context, userID string, since time.Time) (types.PerformanceSnapshot, error) {
	var snap types.PerformanceSnapshot
	cutoff := since.UTC().Format(timeFormat)

	row := s.db.QueryRowContext(ctx,
		`SELECT
			COUNT(CASE WHEN status = ? THEN 1 END),
			COUNT(CASE WHEN status = ? THEN 1 END),
			AVG(CASE WHEN actual_duration IS NOT NULL
				AND estimated_duration IS NOT NULL AND estimated_duration > 0
				THEN CAST(actual_duration AS REAL) / estimated_duration END)
		 FROM tasks WHERE user_id = ? AND updated_at >= ?`,
		types.TaskStatusCompleted, types.TaskStatusCancelled, userID, cutoff)

	var ratio sql.NullFloat64
	if err := row.Scan(&snap.CompletedTasks, &snap.CancelledTasks, &ratio); err != nil {
		return snap, fmt.Errorf("database query error: %w", err)
	}
	snap.AvgDurationRatio = floatPtr(ratio)
	return snap, nil
}
