package repositories

import (
	"context"
	"fmt"

	"github.com/finchsocial/finch/internal/database"
	"github.com/finchsocial/finch/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FollowRepository struct {
	pool *pgxpool.Pool
}

func NewFollowRepository(db *database.DB) *FollowRepository {
	return &FollowRepository{pool: db.Pool}
}

func (r *FollowRepository) Follow(ctx context.Context, followerID, followeeID string) error {
	query := `INSERT INTO follows (follower_id, followee_id) VALUES ($1, $2)`

	_, err := r.pool.Exec(ctx, query, followerID, followeeID)
	return database.MapPostgresError(err)
}

func (r *FollowRepository) Unfollow(ctx context.Context, followerID, followeeID string) error {
	query := `DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`

	tag, err := r.pool.Exec(ctx, query, followerID, followeeID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFollowing
	}
	return nil
}

func (r *FollowRepository) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id = $1 AND followee_id = $2)`

	var following bool
	if err := r.pool.QueryRow(ctx, query, followerID, followeeID).Scan(&following); err != nil {
		return false, database.MapPostgresError(err)
	}
	return following, nil
}

// Counts returns follower and following totals for a user.
func (r *FollowRepository) Counts(ctx context.Context, userID string) (followers, following int, err error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM follows WHERE followee_id = $1),
			(SELECT COUNT(*) FROM follows WHERE follower_id = $1)
	`

	if err := r.pool.QueryRow(ctx, query, userID).Scan(&followers, &following); err != nil {
		return 0, 0, database.MapPostgresError(err)
	}
	return followers, following, nil
}

func (r *FollowRepository) ListFollowers(ctx context.Context, userID string, limit, offset int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE id IN (SELECT follower_id FROM follows WHERE followee_id = $1)
		ORDER BY username
		LIMIT $2 OFFSET $3
	`
	return r.queryUsers(ctx, query, userID, limit, offset)
}

func (r *FollowRepository) ListFollowing(ctx context.Context, userID string, limit, offset int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE id IN (SELECT followee_id FROM follows WHERE follower_id = $1)
		ORDER BY username
		LIMIT $2 OFFSET $3
	`
	return r.queryUsers(ctx, query, userID, limit, offset)
}

func (r *FollowRepository) queryUsers(ctx context.Context, query string, args ...interface{}) ([]*models.User, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query follows: %w", err)
	}
	return scanUserRowsFromFollows(rows)
}

func scanUserRowsFromFollows(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := make([]*models.User, 0)

	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}
