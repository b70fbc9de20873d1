package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"metaconscious/internal/types"
)

const planColumns = `id, user_id, plan_date, plan_json, reasoning,
	generated_at, modified_at, is_override`

func scanPlan(row interface{ Scan(...any) error }) (*types.DailyPlan, error) {
	var p types.DailyPlan
	var generatedAt, modifiedAt string
	var override int
	err := row.Scan(&p.ID, &p.UserID, &p.PlanDate, &p.PlanJSON, &p.Reasoning,
		&generatedAt, &modifiedAt, &override)
	if err != nil {
		return nil, err
	}
	p.GeneratedAt = parseTime(generatedAt)
	p.ModifiedAt = parseTime(modifiedAt)
	p.IsOverride = override != 0
	return &p, nil
}

// GetPlanByDate fetches the plan for a YYYY-MM-DD date.
func (s *Store) GetPlanByDate(ctx context.Context, userID, date string) (*types.DailyPlan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM daily_plans WHERE user_id = ? AND plan_date = ?`,
		userID, date)
	p, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database query error: %w", err)
	}
	return p, nil
}

// GetPlanByID fetches a plan by identifier, scoped by owner.
func (s *Store) GetPlanByID(ctx context.Context, userID, planID string) (*types.DailyPlan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM daily_plans WHERE id = ? AND user_id = ?`,
		planID, userID)
	p, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database query error: %w", err)
	}
	return p, nil
}

// ListPlans returns the user's plans, most recent date first.
func (s *Store) ListPlans(ctx context.Context, userID string, limit int) ([]types.DailyPlan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+planColumns+` FROM daily_plans WHERE user_id = ?
		 ORDER BY plan_date DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("database query error: %w", err)
	}
	defer rows.Close()

	var plans []types.DailyPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("database scan error: %w", err)
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

// UpsertPlan writes the plan for (userID, planDate). A second generation
// for the same date replaces the payload and reasoning in place; the row
// identity, generated_at and is_override flag survive. Fresh inserts are
// never overrides.
func (s *Store) UpsertPlan(ctx context.Context, userID, planDate, planJSON, reasoning string) (*types.DailyPlan, error) {
	ts := now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO daily_plans (id, user_id, plan_date, plan_json, reasoning,
			generated_at, modified_at, is_override)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0)
		 ON CONFLICT (user_id, plan_date) DO UPDATE SET
			plan_json = excluded.plan_json,
			reasoning = excluded.reasoning,
			modified_at = excluded.modified_at`,
		uuid.NewString(), userID, planDate, planJSON, reasoning, ts, ts)
	if err != nil {
		return nil, fmt.Errorf("failed to save plan: %w", err)
	}
	return s.GetPlanByDate(ctx, userID, planDate)
}

// MarkPlanOverridden flags a plan as superseded by a human decision.
func (s *Store) MarkPlanOverridden(ctx context.Context, userID, planID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE daily_plans SET is_override = 1, modified_at = ?
		 WHERE id = ? AND user_id = ?`, now(), planID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark plan overridden: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
