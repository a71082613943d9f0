package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/finchsocial/finch/internal/models"
	"github.com/finchsocial/finch/internal/policy"
	"github.com/oklog/ulid/v2"
	razorpay "github.com/razorpay/razorpay-go"
	qrcode "github.com/skip2/go-qrcode"
)

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error)
	SetOutcome(ctx context.Context, id, status, gatewayPaymentID, gatewaySignature string, paymentDate *time.Time) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Payment, error)
}

// OrderGateway creates orders with the payment gateway.
type OrderGateway interface {
	CreateOrder(amount int64, currency, receipt string) (string, error)
}

// RazorpayGateway implements OrderGateway against the Razorpay API.
type RazorpayGateway struct {
	client *razorpay.Client
}

func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{client: razorpay.NewClient(keyID, keySecret)}
}

func (g *RazorpayGateway) CreateOrder(amount int64, currency, receipt string) (string, error) {
	data := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}

	order, err := g.client.Order.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create gateway order: %w", err)
	}

	id, ok := order["id"].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("gateway order response missing id")
	}
	return id, nil
}

// PaymentService runs the checkout flow: window gate, gateway order,
// signature verification, subscription activation.
type PaymentService struct {
	payments     PaymentRepository
	subs         *SubscriptionService
	users        UserRepository
	email        EmailService
	gateway      OrderGateway
	window       policy.Window
	keyID        string
	keySecret    string
	currency     string
	validityDays int
	logger       *slog.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	payments PaymentRepository,
	subs *SubscriptionService,
	users UserRepository,
	email EmailService,
	gateway OrderGateway,
	window policy.Window,
	keyID, keySecret, currency string,
	validityDays int,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		payments:     payments,
		subs:         subs,
		users:        users,
		email:        email,
		gateway:      gateway,
		window:       window,
		keyID:        keyID,
		keySecret:    keySecret,
		currency:     currency,
		validityDays: validityDays,
		logger:       logger,
	}
}

// PaymentTimeStatus reports whether checkout is currently open.
type PaymentTimeStatus struct {
	Allowed     bool      `json:"allowed"`
	CurrentTime time.Time `json:"current_time"`
	OpensAt     int       `json:"opens_at_hour"`
	ClosesAt    int       `json:"closes_at_hour"`
	NextOpening time.Time `json:"next_opening"`
}

// CheckPaymentTime reports the payment window state.
func (s *PaymentService) CheckPaymentTime(now time.Time) *PaymentTimeStatus {
	return &PaymentTimeStatus{
		Allowed:     s.window.IsOpen(now),
		CurrentTime: now.In(s.window.Location),
		OpensAt:     s.window.Start,
		ClosesAt:    s.window.End,
		NextOpening: s.window.NextOpening(now),
	}
}

// CreateOrderResponse carries what the checkout page needs.
type CreateOrderResponse struct {
	PaymentID      string `json:"payment_id"`
	OrderID        string `json:"order_id"`
	GatewayOrderID string `json:"gateway_order_id"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	KeyID          string `json:"key_id"`
	PlanType       string `json:"plan_type"`
}

// CreateOrder opens a gateway order for a paid plan. Checkout is only
// possible inside the payment window.
func (s *PaymentService) CreateOrder(ctx context.Context, userID, planID string) (*CreateOrderResponse, error) {
	plan, ok := PlanByID(planID)
	if !ok || plan.Amount == 0 {
		return nil, models.ErrBadRequest
	}

	if !s.window.IsOpen(time.Now()) {
		return nil, models.ErrPaymentWindowClosed
	}

	receipt := ulid.Make().String()

	gatewayOrderID, err := s.gateway.CreateOrder(plan.Amount, s.currency, receipt)
	if err != nil {
		s.logger.Error("failed to create gateway order",
			slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	payment, err := s.payments.Create(ctx, &models.Payment{
		UserID:         userID,
		OrderID:        receipt,
		GatewayOrderID: gatewayOrderID,
		PlanType:       plan.ID,
		Amount:         plan.Amount,
		Currency:       s.currency,
		Status:         models.PaymentStatusCreated,
	})
	if err != nil {
		s.logger.Error("failed to store payment",
			slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &CreateOrderResponse{
		PaymentID:      payment.ID,
		OrderID:        receipt,
		GatewayOrderID: gatewayOrderID,
		Amount:         plan.Amount,
		Currency:       s.currency,
		KeyID:          s.keyID,
		PlanType:       plan.ID,
	}, nil
}

// expectedSignature computes HMAC-SHA256 over "orderID|paymentID" with the
// gateway key secret, hex encoded.
func (s *PaymentService) expectedSignature(gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, []byte(s.keySecret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPayment validates the gateway callback signature. A valid signature
// activates the plan; an invalid one marks the payment failed.
func (s *PaymentService) VerifyPayment(ctx context.Context, userID, gatewayOrderID, gatewayPaymentID, signature string) (*SubscriptionResponse, error) {
	payment, err := s.payments.GetByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get payment", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if payment.UserID != userID {
		return nil, models.ErrForbidden
	}

	expected := s.expectedSignature(gatewayOrderID, gatewayPaymentID)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		if err := s.payments.SetOutcome(ctx, payment.ID, models.PaymentStatusFailed, gatewayPaymentID, signature, nil); err != nil {
			s.logger.Error("failed to mark payment failed",
				slog.String("payment_id", payment.ID), slog.Any("error", err))
		}
		s.logger.Warn("payment signature mismatch",
			slog.String("payment_id", payment.ID),
			slog.String("user_id", userID))
		return nil, models.ErrBadRequest
	}

	now := time.Now()
	if err := s.payments.SetOutcome(ctx, payment.ID, models.PaymentStatusSuccess, gatewayPaymentID, signature, &now); err != nil {
		s.logger.Error("failed to mark payment success",
			slog.String("payment_id", payment.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	plan, ok := PlanByID(payment.PlanType)
	if !ok {
		s.logger.Error("payment references unknown plan",
			slog.String("payment_id", payment.ID),
			slog.String("plan_type", payment.PlanType))
		return nil, models.ErrInternalServer
	}

	sub, err := s.subs.Activate(ctx, userID, plan, payment.OrderID, gatewayPaymentID, signature, s.validityDays)
	if err != nil {
		return nil, err
	}

	// Receipt email is best-effort after the subscription commit.
	if user, err := s.users.GetByID(ctx, userID); err == nil {
		if err := s.email.SendPaymentReceipt(ctx, user.Email, plan.Name, payment.OrderID, plan.Amount); err != nil {
			s.logger.Warn("failed to send payment receipt",
				slog.String("user_id", userID), slog.Any("error", err))
		}
	}

	return subscriptionToResponse(sub), nil
}

// OrderQR renders a PNG QR code carrying the checkout reference for a
// payment the user owns.
func (s *PaymentService) OrderQR(ctx context.Context, userID, paymentID string) ([]byte, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get payment", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if payment.UserID != userID {
		return nil, models.ErrForbidden
	}

	payload := fmt.Sprintf("finch://pay?order=%s&amount=%d&currency=%s",
		payment.GatewayOrderID, payment.Amount, payment.Currency)

	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		s.logger.Error("failed to encode qr code", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return png, nil
}

// ListPayments returns the user's payment history newest first.
func (s *PaymentService) ListPayments(ctx context.Context, userID string, limit, offset int) ([]*models.Payment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	payments, err := s.payments.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list payments",
			slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return payments, nil
}
