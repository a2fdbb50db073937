package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"smsledger/internal/models"
)

// ErrSessionNotFound is returned when a session token does not exist
var ErrSessionNotFound = errors.New("session not found")

// CreateSession stores a session token expiring at expiresAt
func (db *DB) CreateSession(ctx context.Context, token string, expiresAt time.Time) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO sessions (token, created_at, expires_at) VALUES (?, ?, ?)
	`, token, time.Now().UTC(), expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession returns the session for token
func (db *DB) GetSession(ctx context.Context, token string) (*models.Session, error) {
	var s models.Session
	err := db.QueryRowContext(ctx, `
		SELECT token, created_at, expires_at FROM sessions WHERE token = ?
	`, token).Scan(&s.Token, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	return &s, nil
}

// DeleteSession removes a session. Unknown tokens are ignored.
func (db *DB) DeleteSession(ctx context.Context, token string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions that expired before now
func (db *DB) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}
