package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/finchsocial/finch/internal/database"
	"github.com/finchsocial/finch/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SubscriptionRepository struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepository(db *database.DB) *SubscriptionRepository {
	return &SubscriptionRepository{pool: db.Pool}
}

const subscriptionColumns = `
	id, user_id, plan_type, plan_name, amount, tweets_limit, tweets_used, is_active,
	start_date, end_date, order_id, payment_id, signature, payment_status, last_payment_at,
	created_at, updated_at`

func scanSubscriptionRow(scanner rowScanner) (*models.Subscription, error) {
	var s models.Subscription
	err := scanner.Scan(
		&s.ID, &s.UserID, &s.PlanType, &s.PlanName, &s.Amount,
		&s.TweetsLimit, &s.TweetsUsed, &s.IsActive,
		&s.StartDate, &s.EndDate, &s.OrderID, &s.PaymentID, &s.Signature,
		&s.PaymentStatus, &s.LastPaymentAt,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &s, nil
}

func (r *SubscriptionRepository) GetByUser(ctx context.Context, userID string) (*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1`
	return scanSubscriptionRow(r.pool.QueryRow(ctx, query, userID))
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *models.Subscription) (*models.Subscription, error) {
	sub.ID = uuid.New().String()

	now := time.Now()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	query := `
		INSERT INTO subscriptions (
			id, user_id, plan_type, plan_name, amount, tweets_limit, tweets_used, is_active,
			start_date, end_date, order_id, payment_id, signature, payment_status, last_payment_at,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.pool.Exec(ctx, query,
		sub.ID, sub.UserID, sub.PlanType, sub.PlanName, sub.Amount,
		sub.TweetsLimit, sub.TweetsUsed, sub.IsActive,
		sub.StartDate, sub.EndDate, sub.OrderID, sub.PaymentID, sub.Signature,
		sub.PaymentStatus, sub.LastPaymentAt,
		sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return sub, nil
}

// Update overwrites all mutable fields.
func (r *SubscriptionRepository) Update(ctx context.Context, sub *models.Subscription) error {
	query := `
		UPDATE subscriptions
		SET plan_type = $2, plan_name = $3, amount = $4, tweets_limit = $5, tweets_used = $6,
		    is_active = $7, start_date = $8, end_date = $9, order_id = $10, payment_id = $11,
		    signature = $12, payment_status = $13, last_payment_at = $14, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		sub.ID, sub.PlanType, sub.PlanName, sub.Amount, sub.TweetsLimit, sub.TweetsUsed,
		sub.IsActive, sub.StartDate, sub.EndDate, sub.OrderID, sub.PaymentID,
		sub.Signature, sub.PaymentStatus, sub.LastPaymentAt)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// IncrementTweetsUsed atomically consumes one tweet of quota. Returns
// ErrTweetLimitReached when the quota is already exhausted.
func (r *SubscriptionRepository) IncrementTweetsUsed(ctx context.Context, userID string) error {
	query := `
		UPDATE subscriptions
		SET tweets_used = tweets_used + 1, updated_at = NOW()
		WHERE user_id = $1
		  AND (tweets_limit = $2 OR tweets_used < tweets_limit)
	`

	tag, err := r.pool.Exec(ctx, query, userID, models.UnlimitedTweets)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrTweetLimitReached
	}
	return nil
}

// ListExpired returns subscriptions whose paid period has lapsed, for the
// background reconcile sweep.
func (r *SubscriptionRepository) ListExpired(ctx context.Context, now time.Time) ([]*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE end_date IS NOT NULL AND end_date < $1
	`

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired subscriptions: %w", err)
	}
	return scanSubscriptionRows(rows)
}

func scanSubscriptionRows(rows pgx.Rows) ([]*models.Subscription, error) {
	defer rows.Close()

	subs := make([]*models.Subscription, 0)

	for rows.Next() {
		sub, err := scanSubscriptionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return subs, nil
}
