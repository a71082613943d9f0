package repositories

import (
	"context"
	"fmt"

	"github.com/finchsocial/finch/internal/database"
	"github.com/finchsocial/finch/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LoginHistoryRepository struct {
	pool *pgxpool.Pool
}

func NewLoginHistoryRepository(db *database.DB) *LoginHistoryRepository {
	return &LoginHistoryRepository{pool: db.Pool}
}

const loginHistoryColumns = `
	id, user_id, login_time, logout_time, ip_address,
	browser_name, browser_version, os_name, os_version, device,
	country, city, region, timezone,
	access_granted, denied_reason, requires_otp, otp_verified,
	session_id, user_agent`

func scanLoginHistoryRow(scanner rowScanner) (*models.LoginHistoryEntry, error) {
	var e models.LoginHistoryEntry

	err := scanner.Scan(
		&e.ID, &e.UserID, &e.LoginTime, &e.LogoutTime, &e.IPAddress,
		&e.BrowserName, &e.BrowserVersion, &e.OSName, &e.OSVersion, &e.Device,
		&e.Country, &e.City, &e.Region, &e.Timezone,
		&e.AccessGranted, &e.DeniedReason, &e.RequiresOTP, &e.OTPVerified,
		&e.SessionID, &e.UserAgent,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &e, nil
}

// Append records one login attempt and evicts everything beyond the newest
// MaxLoginHistory entries in the same transaction.
func (r *LoginHistoryRepository) Append(ctx context.Context, entry *models.LoginHistoryEntry) error {
	entry.ID = uuid.New().String()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	insert := `
		INSERT INTO login_history (
			id, user_id, login_time, logout_time, ip_address,
			browser_name, browser_version, os_name, os_version, device,
			country, city, region, timezone,
			access_granted, denied_reason, requires_otp, otp_verified,
			session_id, user_agent
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err = tx.Exec(ctx, insert,
		entry.ID, entry.UserID, entry.LoginTime, entry.LogoutTime, entry.IPAddress,
		entry.BrowserName, entry.BrowserVersion, entry.OSName, entry.OSVersion, entry.Device,
		entry.Country, entry.City, entry.Region, entry.Timezone,
		entry.AccessGranted, entry.DeniedReason, entry.RequiresOTP, entry.OTPVerified,
		entry.SessionID, entry.UserAgent,
	)
	if err != nil {
		return database.MapPostgresError(err)
	}

	// Keep only the newest MaxLoginHistory entries per user.
	evict := `
		DELETE FROM login_history
		WHERE user_id = $1 AND id NOT IN (
			SELECT id FROM login_history
			WHERE user_id = $1
			ORDER BY login_time DESC
			LIMIT $2
		)
	`

	if _, err := tx.Exec(ctx, evict, entry.UserID, models.MaxLoginHistory); err != nil {
		return database.MapPostgresError(err)
	}

	return tx.Commit(ctx)
}

// ListByUser returns entries newest first.
func (r *LoginHistoryRepository) ListByUser(ctx context.Context, userID string) ([]*models.LoginHistoryEntry, error) {
	query := `SELECT ` + loginHistoryColumns + `
		FROM login_history
		WHERE user_id = $1
		ORDER BY login_time DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query login history: %w", err)
	}
	return scanLoginHistoryRows(rows)
}

func scanLoginHistoryRows(rows pgx.Rows) ([]*models.LoginHistoryEntry, error) {
	defer rows.Close()

	entries := make([]*models.LoginHistoryEntry, 0)

	for rows.Next() {
		entry, err := scanLoginHistoryRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan login history entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}

// SetLogoutTime backfills the logout timestamp on the newest entry matching
// the session. Returns ErrNotFound when the entry has been evicted.
func (r *LoginHistoryRepository) SetLogoutTime(ctx context.Context, userID, sessionID string) error {
	query := `
		UPDATE login_history
		SET logout_time = NOW()
		WHERE id = (
			SELECT id FROM login_history
			WHERE user_id = $1 AND session_id = $2
			ORDER BY login_time DESC
			LIMIT 1
		)
	`

	tag, err := r.pool.Exec(ctx, query, userID, sessionID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
