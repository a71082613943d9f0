package repositories

import (
	"context"

	"github.com/finchsocial/finch/internal/database"
	"github.com/finchsocial/finch/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{pool: db.Pool}
}

// Upsert replaces the user's current session. One session per user: a new
// login displaces the previous one.
func (r *SessionRepository) Upsert(ctx context.Context, session *models.Session) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return database.MapPostgresError(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, session.UserID); err != nil {
		return database.MapPostgresError(err)
	}

	insert := `
		INSERT INTO sessions (session_id, user_id, login_time, ip_address, browser, device, last_activity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = tx.Exec(ctx, insert,
		session.SessionID, session.UserID, session.LoginTime,
		session.IPAddress, session.Browser, session.Device, session.LastActivity)
	if err != nil {
		return database.MapPostgresError(err)
	}

	return tx.Commit(ctx)
}

func (r *SessionRepository) GetByUser(ctx context.Context, userID string) (*models.Session, error) {
	query := `
		SELECT session_id, user_id, login_time, ip_address, browser, device, last_activity
		FROM sessions WHERE user_id = $1
	`

	var s models.Session
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&s.SessionID, &s.UserID, &s.LoginTime, &s.IPAddress, &s.Browser, &s.Device, &s.LastActivity)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &s, nil
}

func (r *SessionRepository) TouchActivity(ctx context.Context, sessionID string) error {
	query := `UPDATE sessions SET last_activity = NOW() WHERE session_id = $1`
	_, err := r.pool.Exec(ctx, query, sessionID)
	return database.MapPostgresError(err)
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	query := `DELETE FROM sessions WHERE session_id = $1`
	_, err := r.pool.Exec(ctx, query, sessionID)
	return database.MapPostgresError(err)
}
