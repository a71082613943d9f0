package models

import "time"

// Payment statuses. A payment is append-only audit state; the subscription
// is only mutated after a payment reaches StatusSuccess.
const (
	PaymentStatusCreated = "created"
	PaymentStatusPending = "pending"
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
)

// Payment is one purchase attempt against the payment gateway.
type Payment struct {
	ID               string
	UserID           string
	OrderID          string // internal receipt id, unique
	GatewayOrderID   string
	GatewayPaymentID string
	GatewaySignature string
	PlanType         string
	Amount           int64
	Currency         string
	Status           string
	PaymentDate      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
