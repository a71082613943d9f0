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

type PaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(db *database.DB) *PaymentRepository {
	return &PaymentRepository{pool: db.Pool}
}

const paymentColumns = `
	id, user_id, order_id, gateway_order_id, gateway_payment_id, gateway_signature,
	plan_type, amount, currency, status, payment_date, created_at, updated_at`

func scanPaymentRow(scanner rowScanner) (*models.Payment, error) {
	var p models.Payment
	err := scanner.Scan(
		&p.ID, &p.UserID, &p.OrderID, &p.GatewayOrderID, &p.GatewayPaymentID, &p.GatewaySignature,
		&p.PlanType, &p.Amount, &p.Currency, &p.Status, &p.PaymentDate, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &p, nil
}

func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	payment.ID = uuid.New().String()

	now := time.Now()
	payment.CreatedAt = now
	payment.UpdatedAt = now

	query := `
		INSERT INTO payments (
			id, user_id, order_id, gateway_order_id, gateway_payment_id, gateway_signature,
			plan_type, amount, currency, status, payment_date, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.pool.Exec(ctx, query,
		payment.ID, payment.UserID, payment.OrderID, payment.GatewayOrderID,
		payment.GatewayPaymentID, payment.GatewaySignature,
		payment.PlanType, payment.Amount, payment.Currency, payment.Status,
		payment.PaymentDate, payment.CreatedAt, payment.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return payment, nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return scanPaymentRow(r.pool.QueryRow(ctx, query, id))
}

func (r *PaymentRepository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE gateway_order_id = $1`
	return scanPaymentRow(r.pool.QueryRow(ctx, query, gatewayOrderID))
}

// SetOutcome records the terminal result of a verification attempt.
func (r *PaymentRepository) SetOutcome(ctx context.Context, id, status, gatewayPaymentID, gatewaySignature string, paymentDate *time.Time) error {
	query := `
		UPDATE payments
		SET status = $2, gateway_payment_id = $3, gateway_signature = $4,
		    payment_date = $5, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, status, gatewayPaymentID, gatewaySignature, paymentDate)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListByUser returns the user's payments newest first.
func (r *PaymentRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	return scanPaymentRows(rows)
}

func scanPaymentRows(rows pgx.Rows) ([]*models.Payment, error) {
	defer rows.Close()

	payments := make([]*models.Payment, 0)

	for rows.Next() {
		payment, err := scanPaymentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return payments, nil
}
