package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/finchsocial/finch/internal/models"
	"github.com/finchsocial/finch/internal/services"
	pkghttp "github.com/finchsocial/finch/pkg/http"
	"github.com/go-chi/chi/v5"
)

// PasswordResetServiceInterface defines the interface for password resets
type PasswordResetServiceInterface interface {
	RequestReset(ctx context.Context, email string) (*services.RequestResult, error)
	VerifyToken(ctx context.Context, token string) (bool, error)
	CheckAvailability(ctx context.Context, email string) (*services.AvailabilityResult, error)
	ConfirmReset(ctx context.Context, token, newPassword string) error
}

// PasswordResetHandler handles password reset HTTP requests
type PasswordResetHandler struct {
	service PasswordResetServiceInterface
}

// NewPasswordResetHandler creates a new PasswordResetHandler
func NewPasswordResetHandler(service PasswordResetServiceInterface) *PasswordResetHandler {
	return &PasswordResetHandler{service: service}
}

// RequestResetRequest represents the request body for starting a reset
type RequestResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ConfirmResetRequest represents the request body for completing a reset
type ConfirmResetRequest struct {
	Password string `json:"password" validate:"required"`
}

// Request issues a reset token. Repeat requests on the same calendar day
// are rejected with the time of the next allowed attempt.
func (h *PasswordResetHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req RequestResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.RequestReset(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		// The daily-limit result carries the retry schedule for the client.
		if errors.Is(err, models.ErrResetAlreadyRequested) && result != nil {
			pkghttp.WriteJSON(w, http.StatusTooManyRequests, result)
			return
		}
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}

// VerifyToken reports whether a reset link is still usable
func (h *PasswordResetHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	valid, err := h.service.VerifyToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

// CheckAvailability reports whether a reset can be requested today
func (h *PasswordResetHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("email")))
	if email == "" {
		pkghttp.WriteBadRequest(w, "Missing email")
		return
	}

	result, err := h.service.CheckAvailability(r.Context(), email)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}

// Confirm sets a new password from a valid reset link
func (h *PasswordResetHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req ConfirmResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.ConfirmReset(r.Context(), chi.URLParam(r, "token"), req.Password); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}
