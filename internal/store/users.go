package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"metaconscious/internal/types"
)

// GetUser returns the sole provisioned user, or ErrNotFound when the
// system has not been initialized yet.
func (s *Store) GetUser(ctx context.Context) (*types.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users LIMIT 1`)

	var u types.User
	var createdAt string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database query error: %w", err)
	}
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

// CreateUser provisions the single account.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (*types.User, error) {
	u := &types.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
	}
	created := now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, created)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	u.CreatedAt = parseTime(created)
	return u, nil
}
