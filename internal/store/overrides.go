package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"metaconscious/internal/types"
)

// CountOverrides returns how many overrides the user has logged in the
// given ISO-style week bucket.
func (s *Store) CountOverrides(ctx context.Context, userID string, weekNumber int) (int, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM override_log WHERE user_id = ? AND week_number = ?`,
		userID, weekNumber)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("database query error: %w", err)
	}
	return count, nil
}

// InsertOverride appends an entry to the override log. The week number is
// stored as given; it records the week the override happened in.
func (s *Store) InsertOverride(ctx context.Context, e *types.OverrideLogEntry) error {
	e.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO override_log (id, user_id, plan_id, override_type,
			override_reason, override_timestamp, week_number)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.PlanID, e.Type, nullStr(e.Reason),
		e.Timestamp.UTC().Format(timeFormat), e.WeekNumber)
	if err != nil {
		return fmt.Errorf("failed to log override: %w", err)
	}
	return nil
}

// ListOverrides returns the user's override history, newest first.
func (s *Store) ListOverrides(ctx context.Context, userID string) ([]types.OverrideLogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, plan_id, override_type, override_reason,
			override_timestamp, week_number
		 FROM override_log WHERE user_id = ?
		 ORDER BY override_timestamp DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("database query error: %w", err)
	}
	defer rows.Close()

	var entries []types.OverrideLogEntry
	for rows.Next() {
		var e types.OverrideLogEntry
		var reason sql.NullString
		var ts string
		if err := rows.Scan(&e.ID, &e.UserID, &e.PlanID, &e.Type, &reason,
			&ts, &e.WeekNumber); err != nil {
			return nil, fmt.Errorf("database scan error: %w", err)
		}
		e.Reason = reason.String
		e.Timestamp = parseTime(ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
