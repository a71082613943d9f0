package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/finchsocial/finch/internal/auth"
	"github.com/finchsocial/finch/internal/models"
	"github.com/finchsocial/finch/internal/services"
	pkghttp "github.com/finchsocial/finch/pkg/http"
)

// LanguageServiceInterface defines the interface for language changes
type LanguageServiceInterface interface {
	RequestChange(ctx context.Context, userID, language string) (*services.ChangeResult, error)
	VerifyChange(ctx context.Context, userID, language, code string) (*services.ChangeResult, error)
}

// LanguageUserInterface reads the current preference for display
type LanguageUserInterface interface {
	Me(ctx context.Context, userID string) (*services.UserResponse, error)
}

// LanguageHandler handles language preference HTTP requests
type LanguageHandler struct {
	service LanguageServiceInterface
	users   LanguageUserInterface
}

// NewLanguageHandler creates a new LanguageHandler
func NewLanguageHandler(service LanguageServiceInterface, users LanguageUserInterface) *LanguageHandler {
	return &LanguageHandler{
		service: service,
		users:   users,
	}
}

// ChangeLanguageRequest represents the request body for a language change
type ChangeLanguageRequest struct {
	Language string `json:"language" validate:"required,oneof=en es hi pt zh fr"`
}

// VerifyLanguageRequest represents the request body for OTP confirmation
type VerifyLanguageRequest struct {
	Language string `json:"language" validate:"required,oneof=en es hi pt zh fr"`
	Code     string `json:"code" validate:"required,len=6"`
}

// Current returns the caller's language preference and the supported codes
func (h *LanguageHandler) Current(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	user, err := h.users.Me(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"language":  user.PreferredLanguage,
		"supported": models.ValidLanguages,
	})
}

// RequestChange starts a language change, issuing a verification code when
// the target language requires one
func (h *LanguageHandler) RequestChange(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req ChangeLanguageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.RequestChange(r.Context(), claims.UserID, req.Language)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}

// VerifyChange confirms a pending language change with the emailed or
// texted code
func (h *LanguageHandler) VerifyChange(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req VerifyLanguageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.VerifyChange(r.Context(), claims.UserID, req.Language, req.Code)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}
