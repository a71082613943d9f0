package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/finchsocial/finch/internal/auth"
	"github.com/finchsocial/finch/internal/models"
	"github.com/finchsocial/finch/internal/services"
	pkghttp "github.com/finchsocial/finch/pkg/http"
	"github.com/go-chi/chi/v5"
)

// SubscriptionServiceInterface defines the interface for subscription reads
type SubscriptionServiceInterface interface {
	MySubscription(ctx context.Context, userID string) (*services.SubscriptionResponse, error)
}

// PaymentServiceInterface defines the interface for checkout and verification
type PaymentServiceInterface interface {
	CheckPaymentTime(now time.Time) *services.PaymentTimeStatus
	CreateOrder(ctx context.Context, userID, planID string) (*services.CreateOrderResponse, error)
	VerifyPayment(ctx context.Context, userID, gatewayOrderID, gatewayPaymentID, signature string) (*services.SubscriptionResponse, error)
	OrderQR(ctx context.Context, userID, paymentID string) ([]byte, error)
	ListPayments(ctx context.Context, userID string, limit, offset int) ([]*models.Payment, error)
}

// SubscriptionHandler handles subscription and payment HTTP requests
type SubscriptionHandler struct {
	subs     SubscriptionServiceInterface
	payments PaymentServiceInterface
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(subs SubscriptionServiceInterface, payments PaymentServiceInterface) *SubscriptionHandler {
	return &SubscriptionHandler{
		subs:     subs,
		payments: payments,
	}
}

// CreateOrderRequest represents the request body for opening a checkout order
type CreateOrderRequest struct {
	PlanID string `json:"plan_id" validate:"required,oneof=bronze silver gold"`
}

// VerifyPaymentRequest represents the gateway callback payload
type VerifyPaymentRequest struct {
	GatewayOrderID   string `json:"razorpay_order_id" validate:"required"`
	GatewayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature        string `json:"razorpay_signature" validate:"required"`
}

// MySubscription returns the caller's current plan and quota
func (h *SubscriptionHandler) MySubscription(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	sub, err := h.subs.MySubscription(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, sub)
}

// Plans lists the purchasable tiers along with the payment window state
func (h *SubscriptionHandler) Plans(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"plans":        services.PlanCatalog,
		"payment_time": h.payments.CheckPaymentTime(time.Now()),
	})
}

// CheckPaymentTime reports whether checkout is currently open
func (h *SubscriptionHandler) CheckPaymentTime(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteJSON(w, http.StatusOK, h.payments.CheckPaymentTime(time.Now()))
}

// CreateOrder opens a gateway order for a paid plan
func (h *SubscriptionHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	order, err := h.payments.CreateOrder(r.Context(), claims.UserID, req.PlanID)
	if err != nil {
		if errors.Is(err, models.ErrPaymentWindowClosed) {
			pkghttp.WriteJSON(w, http.StatusForbidden, h.payments.CheckPaymentTime(time.Now()))
			return
		}
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, order)
}

// VerifyPayment validates the gateway signature and activates the plan
func (h *SubscriptionHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	sub, err := h.payments.VerifyPayment(r.Context(), claims.UserID, req.GatewayOrderID, req.GatewayPaymentID, req.Signature)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, sub)
}

// OrderQR returns a PNG QR code encoding the checkout reference
func (h *SubscriptionHandler) OrderQR(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	png, err := h.payments.OrderQR(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// ListPayments returns the caller's payment history
func (h *SubscriptionHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	limit, offset := pagination(r)
	payments, err := h.payments.ListPayments(r.Context(), claims.UserID, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"payments": payments})
}
