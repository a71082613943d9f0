package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/finchsocial/finch/internal/auth"
	pkghttp "github.com/finchsocial/finch/pkg/http"
)

// OTPServiceInterface defines the interface for audio upload verification codes
type OTPServiceInterface interface {
	RequestAudioUploadOTP(ctx context.Context, userID string) error
	VerifyAudioUploadOTP(ctx context.Context, userID, code string) (string, error)
	CheckAudioUploadOTP(ctx context.Context, userID, otpID string) (bool, error)
}

// OTPHandler handles audio upload verification HTTP requests
type OTPHandler struct {
	service OTPServiceInterface
}

// NewOTPHandler creates a new OTPHandler
func NewOTPHandler(service OTPServiceInterface) *OTPHandler {
	return &OTPHandler{service: service}
}

// VerifyAudioOTPRequest represents the request body for code verification
type VerifyAudioOTPRequest struct {
	Code string `json:"code" validate:"required,len=6"`
}

// Request emails a verification code that unlocks one audio upload
func (h *OTPHandler) Request(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.RequestAudioUploadOTP(r.Context(), claims.UserID); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "verification code sent"})
}

// Verify exchanges the emailed code for an upload capability id
func (h *OTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req VerifyAudioOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	otpID, err := h.service.VerifyAudioUploadOTP(r.Context(), claims.UserID, req.Code)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"otp_id": otpID})
}

// Check reports whether an upload capability id is still valid
func (h *OTPHandler) Check(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	otpID := r.URL.Query().Get("otp_id")
	if otpID == "" {
		pkghttp.WriteBadRequest(w, "Missing otp_id")
		return
	}

	verified, err := h.service.CheckAudioUploadOTP(r.Context(), claims.UserID, otpID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]bool{"verified": verified})
}
