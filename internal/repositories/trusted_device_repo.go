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

type TrustedDeviceRepository struct {
	pool *pgxpool.Pool
}

func NewTrustedDeviceRepository(db *database.DB) *TrustedDeviceRepository {
	return &TrustedDeviceRepository{pool: db.Pool}
}

// Record marks a fingerprint as trusted, refreshing last_used if it already
// exists.
func (r *TrustedDeviceRepository) Record(ctx context.Context, userID, fp, browser string) error {
	query := `
		INSERT INTO trusted_devices (id, user_id, fingerprint, browser, added_at, last_used)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (user_id, fingerprint)
		DO UPDATE SET last_used = EXCLUDED.last_used
	`

	_, err := r.pool.Exec(ctx, query, uuid.New().String(), userID, fp, browser, time.Now())
	return database.MapPostgresError(err)
}

func (r *TrustedDeviceRepository) IsTrusted(ctx context.Context, userID, fp string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM trusted_devices WHERE user_id = $1 AND fingerprint = $2)`

	var trusted bool
	if err := r.pool.QueryRow(ctx, query, userID, fp).Scan(&trusted); err != nil {
		return false, database.MapPostgresError(err)
	}
	return trusted, nil
}

func (r *TrustedDeviceRepository) ListByUser(ctx context.Context, userID string) ([]*models.TrustedDevice, error) {
	query := `
		SELECT id, user_id, fingerprint, browser, added_at, last_used
		FROM trusted_devices
		WHERE user_id = $1
		ORDER BY last_used DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trusted devices: %w", err)
	}
	defer rows.Close()

	devices := make([]*models.TrustedDevice, 0)
	for rows.Next() {
		var d models.TrustedDevice
		if err := rows.Scan(&d.ID, &d.UserID, &d.Fingerprint, &d.Browser, &d.AddedAt, &d.LastUsed); err != nil {
			return nil, fmt.Errorf("failed to scan trusted device: %w", err)
		}
		devices = append(devices, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return devices, nil
}

func (r *TrustedDeviceRepository) Delete(ctx context.Context, userID, deviceID string) error {
	query := `DELETE FROM trusted_devices WHERE user_id = $1 AND id = $2`

	tag, err := r.pool.Exec(ctx, query, userID, deviceID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// PruneStale deletes devices not used since the cutoff.
func (r *TrustedDeviceRepository) PruneStale(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM trusted_devices WHERE last_used < $1`

	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return tag.RowsAffected(), nil
}
