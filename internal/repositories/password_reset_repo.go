package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/finchsocial/finch/internal/database"
	"github.com/finchsocial/finch/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PasswordResetRepository struct {
	pool *pgxpool.Pool
}

func NewPasswordResetRepository(db *database.DB) *PasswordResetRepository {
	return &PasswordResetRepository{pool: db.Pool}
}

func (r *PasswordResetRepository) Create(ctx context.Context, reset *models.PasswordReset) (*models.PasswordReset, error) {
	reset.ID = uuid.New().String()
	reset.CreatedAt = time.Now()

	query := `
		INSERT INTO password_resets (id, user_id, email, reset_token, generated_password, used, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		reset.ID, reset.UserID, reset.Email, reset.ResetToken,
		reset.GeneratedPassword, reset.Used, reset.ExpiresAt, reset.CreatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return reset, nil
}

const passwordResetColumns = `id, user_id, email, reset_token, generated_password, used, expires_at, created_at`

func scanPasswordResetRow(scanner rowScanner) (*models.PasswordReset, error) {
	var reset models.PasswordReset
	err := scanner.Scan(
		&reset.ID, &reset.UserID, &reset.Email, &reset.ResetToken,
		&reset.GeneratedPassword, &reset.Used, &reset.ExpiresAt, &reset.CreatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &reset, nil
}

func (r *PasswordResetRepository) GetByToken(ctx context.Context, token string) (*models.PasswordReset, error) {
	query := `SELECT ` + passwordResetColumns + ` FROM password_resets WHERE reset_token = $1`
	return scanPasswordResetRow(r.pool.QueryRow(ctx, query, token))
}

// GetLatestByUser returns the user's most recent reset request, used for the
// once-per-day check.
func (r *PasswordResetRepository) GetLatestByUser(ctx context.Context, userID string) (*models.PasswordReset, error) {
	query := `SELECT ` + passwordResetColumns + `
		FROM password_resets
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	return scanPasswordResetRow(r.pool.QueryRow(ctx, query, userID))
}

func (r *PasswordResetRepository) MarkUsed(ctx context.Context, id string) error {
	query := `UPDATE password_resets SET used = TRUE WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteExpired removes expired unused resets. Used rows are kept for the
// once-per-day check until their day passes.
func (r *PasswordResetRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM password_resets WHERE expires_at < NOW() - INTERVAL '1 day'`

	tag, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired password resets: %w", err)
	}
	return tag.RowsAffected(), nil
}
