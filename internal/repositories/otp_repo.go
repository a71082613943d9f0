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

type OTPRepository struct {
	pool *pgxpool.Pool
}

func NewOTPRepository(db *database.DB) *OTPRepository {
	return &OTPRepository{pool: db.Pool}
}

// Create stores a new standalone OTP after removing any previous one for the
// same user and purpose.
func (r *OTPRepository) Create(ctx context.Context, otp *models.OTP) (*models.OTP, error) {
	otp.ID = uuid.New().String()
	otp.CreatedAt = time.Now()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	del := `DELETE FROM otps WHERE user_id = $1 AND purpose = $2`
	if _, err := tx.Exec(ctx, del, otp.UserID, otp.Purpose); err != nil {
		return nil, database.MapPostgresError(err)
	}

	insert := `
		INSERT INTO otps (id, user_id, email, code, purpose, verified, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = tx.Exec(ctx, insert,
		otp.ID, otp.UserID, otp.Email, otp.Code, otp.Purpose, otp.Verified, otp.ExpiresAt, otp.CreatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, database.MapPostgresError(err)
	}

	return otp, nil
}

func scanOTPRow(scanner rowScanner) (*models.OTP, error) {
	var otp models.OTP
	err := scanner.Scan(
		&otp.ID, &otp.UserID, &otp.Email, &otp.Code, &otp.Purpose,
		&otp.Verified, &otp.ExpiresAt, &otp.CreatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &otp, nil
}

const otpColumns = `id, user_id, email, code, purpose, verified, expires_at, created_at`

func (r *OTPRepository) GetByID(ctx context.Context, id string) (*models.OTP, error) {
	query := `SELECT ` + otpColumns + ` FROM otps WHERE id = $1`
	return scanOTPRow(r.pool.QueryRow(ctx, query, id))
}

// GetPending returns the user's outstanding OTP for a purpose regardless of
// verification state.
func (r *OTPRepository) GetPending(ctx context.Context, userID, purpose string) (*models.OTP, error) {
	query := `SELECT ` + otpColumns + `
		FROM otps
		WHERE user_id = $1 AND purpose = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	return scanOTPRow(r.pool.QueryRow(ctx, query, userID, purpose))
}

func (r *OTPRepository) MarkVerified(ctx context.Context, id string) error {
	query := `UPDATE otps SET verified = TRUE WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrOTPNotFound
	}
	return nil
}

// Delete removes the OTP row; redeeming a capability is a delete so it can
// only happen once.
func (r *OTPRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM otps WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrOTPNotFound
	}
	return nil
}

// DeleteExpired removes all expired OTPs. Used by the background cleanup job.
func (r *OTPRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM otps WHERE expires_at < NOW()`

	tag, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired otps: %w", err)
	}
	return tag.RowsAffected(), nil
}
