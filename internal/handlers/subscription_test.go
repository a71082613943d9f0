package handlers_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/finchsocial/finch/internal/handlers"
	"github.com/finchsocial/finch/internal/models"
	"github.com/finchsocial/finch/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestMySubscription_Success(t *testing.T) {
	mockSubs := &handlers.MockSubscriptionReader{
		MySubscriptionFunc: func(ctx context.Context, userID string) (*services.SubscriptionResponse, error) {
			return &services.SubscriptionResponse{
				PlanType:        "bronze",
				TweetsLimit:     3,
				TweetsUsed:      1,
				TweetsRemaining: 2,
				IsActive:        true,
			}, nil
		},
	}

	handler := handlers.NewSubscriptionHandler(mockSubs, &handlers.MockPaymentService{})
	req := handlers.NewTestRequest(t, "GET", "/subscription", nil)
	req = handlers.WithAuthContext(req, "user123", "session123")

	w := httptest.NewRecorder()
	handler.MySubscription(w, req)

	var resp services.SubscriptionResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "bronze", resp.PlanType)
	assert.Equal(t, 2, resp.TweetsRemaining)
}

func TestCreateOrder_Success(t *testing.T) {
	mockPayments := &handlers.MockPaymentService{
		CreateOrderFunc: func(ctx context.Context, userID, planID string) (*services.CreateOrderResponse, error) {
			assert.Equal(t, "silver", planID)
			return &services.CreateOrderResponse{
				PaymentID:      "pay1",
				GatewayOrderID: "order_abc",
				Amount:         30000,
				Currency:       "INR",
				PlanType:       "silver",
			}, nil
		},
	}

	handler := handlers.NewSubscriptionHandler(&handlers.MockSubscriptionReader{}, mockPayments)
	req := handlers.NewTestRequest(t, "POST", "/subscription/order", handlers.CreateOrderRequest{PlanID: "silver"})
	req = handlers.WithAuthContext(req, "user123", "session123")

	w := httptest.NewRecorder()
	handler.CreateOrder(w, req)

	var resp services.CreateOrderResponse
	handlers.AssertJSONResponse(t, w, 201, &resp)
	assert.Equal(t, "order_abc", resp.GatewayOrderID)
	assert.Equal(t, int64(30000), resp.Amount)
}

func TestCreateOrder_WindowClosedIncludesSchedule(t *testing.T) {
	opens := time.Date(2025, 6, 3, 11, 0, 0, 0, time.UTC)
	mockPayments := &handlers.MockPaymentService{
		CreateOrderFunc: func(ctx context.Context, userID, planID string) (*services.CreateOrderResponse, error) {
			return nil, models.ErrPaymentWindowClosed
		},
		CheckPaymentTimeFunc: func(now time.Time) *services.PaymentTimeStatus {
			return &services.PaymentTimeStatus{
				Allowed:     false,
				OpensAt:     11,
				ClosesAt:    12,
				NextOpening: opens,
			}
		},
	}

	handler := handlers.NewSubscriptionHandler(&handlers.MockSubscriptionReader{}, mockPayments)
	req := handlers.NewTestRequest(t, "POST", "/subscription/order", handlers.CreateOrderRequest{PlanID: "gold"})
	req = handlers.WithAuthContext(req, "user123", "session123")

	w := httptest.NewRecorder()
	handler.CreateOrder(w, req)

	var resp services.PaymentTimeStatus
	handlers.AssertJSONResponse(t, w, 403, &resp)
	assert.False(t, resp.Allowed)
	assert.Equal(t, 11, resp.OpensAt)
	assert.True(t, opens.Equal(resp.NextOpening))
}

func TestCreateOrder_UnknownPlan(t *testing.T) {
	handler := handlers.NewSubscriptionHandler(&handlers.MockSubscriptionReader{}, &handlers.MockPaymentService{})
	req := handlers.NewTestRequest(t, "POST", "/subscription/order", handlers.CreateOrderRequest{PlanID: "platinum"})
	req = handlers.WithAuthContext(req, "user123", "session123")

	w := httptest.NewRecorder()
	handler.CreateOrder(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestVerifyPayment_Success(t *testing.T) {
	mockPayments := &handlers.MockPaymentService{
		VerifyPaymentFunc: func(ctx context.Context, userID, gatewayOrderID, gatewayPaymentID, signature string) (*services.SubscriptionResponse, error) {
			assert.Equal(t, "order_abc", gatewayOrderID)
			assert.Equal(t, "pay_xyz", gatewayPaymentID)
			return &services.SubscriptionResponse{PlanType: "gold", IsActive: true}, nil
		},
	}

	handler := handlers.NewSubscriptionHandler(&handlers.MockSubscriptionReader{}, mockPayments)
	req := handlers.NewTestRequest(t, "POST", "/subscription/verify", handlers.VerifyPaymentRequest{
		GatewayOrderID:   "order_abc",
		GatewayPaymentID: "pay_xyz",
		Signature:        "sig",
	})
	req = handlers.WithAuthContext(req, "user123", "session123")

	w := httptest.NewRecorder()
	handler.VerifyPayment(w, req)

	var resp services.SubscriptionResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "gold", resp.PlanType)
	assert.True(t, resp.IsActive)
}

func TestVerifyPayment_BadSignature(t *testing.T) {
	mockPayments := &handlers.MockPaymentService{
		VerifyPaymentFunc: func(ctx context.Context, userID, gatewayOrderID, gatewayPaymentID, signature string) (*services.SubscriptionResponse, error) {
			return nil, models.ErrBadRequest
		},
	}

	handler := handlers.NewSubscriptionHandler(&handlers.MockSubscriptionReader{}, mockPayments)
	req := handlers.NewTestRequest(t, "POST", "/subscription/verify", handlers.VerifyPaymentRequest{
		GatewayOrderID:   "order_abc",
		GatewayPaymentID: "pay_xyz",
		Signature:        "forged",
	})
	req = handlers.WithAuthContext(req, "user123", "session123")

	w := httptest.NewRecorder()
	handler.VerifyPayment(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestOrderQR_ReturnsPNG(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}
	mockPayments := &handlers.MockPaymentService{
		OrderQRFunc: func(ctx context.Context, userID, paymentID string) ([]byte, error) {
			assert.Equal(t, "pay1", paymentID)
			return png, nil
		},
	}

	handler := handlers.NewSubscriptionHandler(&handlers.MockSubscriptionReader{}, mockPayments)

	r := chi.NewRouter()
	r.Get("/subscription/payments/{id}/qr", handler.OrderQR)

	req := handlers.NewTestRequest(t, "GET", "/subscription/payments/pay1/qr", nil)
	req = handlers.WithAuthContext(req, "user123", "session123")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, png, w.Body.Bytes())
}

func TestCheckPaymentTime(t *testing.T) {
	mockPayments := &handlers.MockPaymentService{
		CheckPaymentTimeFunc: func(now time.Time) *services.PaymentTimeStatus {
			return &services.PaymentTimeStatus{Allowed: true, OpensAt: 11, ClosesAt: 12}
		},
	}

	handler := handlers.NewSubscriptionHandler(&handlers.MockSubscriptionReader{}, mockPayments)
	req := handlers.NewTestRequest(t, "GET", "/subscription/payment-time", nil)

	w := httptest.NewRecorder()
	handler.CheckPaymentTime(w, req)

	var resp services.PaymentTimeStatus
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.True(t, resp.Allowed)
}
