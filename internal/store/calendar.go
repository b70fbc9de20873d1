package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"metaconscious/internal/types"
)

const eventColumns = `id, user_id, title, description, start_time, end_time,
	event_type, is_blocking, external_id, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (*types.CalendarEvent, error) {
	var e types.CalendarEvent
	var description, externalID sql.NullString
	var startTime, endTime, createdAt, updatedAt string
	var blocking int
	err := row.Scan(&e.ID, &e.UserID, &e.Title, &description, &startTime,
		&endTime, &e.EventType, &blocking, &externalID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	e.Description = description.String
	e.StartTime = parseTime(startTime)
	e.EndTime = parseTime(endTime)
	e.IsBlocking = blocking != 0
	e.ExternalID = externalID.String
	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)
	return &e, nil
}

// ListEvents returns all of the user's events in start order.
func (s *Store) ListEvents(ctx context.Context, userID string) ([]types.CalendarEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM calendar_events WHERE user_id = ?
		 ORDER BY start_time ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("database query error: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

// EventsForDate returns events whose start time falls on the given
// YYYY-MM-DD date, in start order. Start times are stored as RFC 3339
// text, so a prefix match on the date is exact.
func (s *Store) EventsForDate(ctx context.Context, userID, date string) ([]types.CalendarEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM calendar_events
		 WHERE user_id = ? AND start_time LIKE ?
		 ORDER BY start_time ASC`, userID, date+"%")
	if err != nil {
		return nil, fmt.Errorf("database query error: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

func collectEvents(rows *sql.Rows) ([]types.CalendarEvent, error) {
	var events []types.CalendarEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("database scan error: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// GetEvent fetches one event scoped by owner.
func (s *Store) GetEvent(ctx context.Context, userID, eventID string) (*types.CalendarEvent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM calendar_events WHERE id = ? AND user_id = ?`,
		eventID, userID)
	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database query error: %w", err)
	}
	return e, nil
}

// CreateEvent inserts an event, filling ID and timestamps.
func (s *Store) CreateEvent(ctx context.Context, e *types.CalendarEvent) error {
	e.ID = uuid.NewString()
	if e.EventType == "" {
		e.EventType = types.EventTypeInternal
	}
	ts := now()
	blocking := 0
	if e.IsBlocking {
		blocking = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO calendar_events (id, user_id, title, description,
			start_time, end_time, event_type, is_blocking, external_id,
			created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Title, nullStr(e.Description),
		e.StartTime.UTC().Format(timeFormat), e.EndTime.UTC().Format(timeFormat),
		e.EventType, blocking, nullStr(e.ExternalID), ts, ts)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	e.CreatedAt = parseTime(ts)
	e.UpdatedAt = e.CreatedAt
	return nil
}

// UpdateEvent overwrites the mutable fields of an event.
func (s *Store) UpdateEvent(ctx context.Context, e *types.CalendarEvent) error {
	ts := now()
	blocking := 0
	if e.IsBlocking {
		blocking = 1
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE calendar_events SET title = ?, description = ?, start_time = ?,
			end_time = ?, event_type = ?, is_blocking = ?, external_id = ?,
			updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		e.Title, nullStr(e.Description), e.StartTime.UTC().Format(timeFormat),
		e.EndTime.UTC().Format(timeFormat), e.EventType, blocking,
		nullStr(e.ExternalID), ts, e.ID, e.UserID)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	e.UpdatedAt = parseTime(ts)
	return nil
}

// DeleteEvent removes an event.
func (s *Store) DeleteEvent(ctx context.Context, userID, eventID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM calendar_events WHERE id = ? AND user_id = ?`, eventID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
