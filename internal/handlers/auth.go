package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/finchsocial/finch/internal/auth"
	"github.com/finchsocial/finch/internal/fingerprint"
	"github.com/finchsocial/finch/internal/middleware"
	"github.com/finchsocial/finch/internal/services"
	pkghttp "github.com/finchsocial/finch/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Register(ctx context.Context, username, email, password, name string, info fingerprint.ClientInfo) (*services.LoginResult, error)
	Login(ctx context.Context, email, password string, info fingerprint.ClientInfo) (*services.LoginResult, error)
	VerifyBrowserOTP(ctx context.Context, email, code string, info fingerprint.ClientInfo) (*services.LoginResult, error)
	Me(ctx context.Context, userID string) (*services.UserResponse, error)
	LoginHistory(ctx context.Context, userID string) (*services.LoginHistoryResponse, error)
	Logout(ctx context.Context, userID, sessionID string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service  AuthServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, ipConfig *pkghttp.IPConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		ipConfig: ipConfig,
	}
}

// Request DTOs

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
}

// LoginRequest represents the request body for login. Browser is the
// client-asserted browser name; Brave cannot be detected from the UA alone.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Browser  string `json:"browser"`
}

// VerifyOTPRequest represents the request body for login OTP verification
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6"`
}

// clientInfo assembles the request fingerprint from headers and the
// client-asserted browser name.
func (h *AuthHandler) clientInfo(r *http.Request, assertedBrowser string) fingerprint.ClientInfo {
	ip := pkghttp.ExtractClientIP(r, h.ipConfig)
	braveHint := strings.EqualFold(strings.TrimSpace(assertedBrowser), "brave")
	return fingerprint.Parse(r.Header.Get("User-Agent"), ip, braveHint)
}

// Register handles account creation and opens the first session
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)

	result, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password, req.Name, h.clientInfo(r, ""))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, result)
}

// Login authenticates credentials and applies the browser access policy
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password, h.clientInfo(r, req.Browser))
	if err != nil {
		middleware.ObserveLoginOutcome("failed")
		writeServiceError(w, err)
		return
	}
	middleware.ObserveLoginOutcome(result.Status)

	status := http.StatusOK
	if result.Status == services.LoginStatusDenied {
		status = http.StatusForbidden
	}
	pkghttp.WriteJSON(w, status, result)
}

// VerifyOTP redeems the browser step-up code and opens the session
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.VerifyBrowserOTP(r.Context(), req.Email, req.Code, h.clientInfo(r, ""))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}

// Me returns the authenticated user's profile
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	user, err := h.service.Me(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, user)
}

// LoginHistory returns recent login attempts plus the current session
func (h *AuthHandler) LoginHistory(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	history, err := h.service.LoginHistory(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, history)
}

// Logout closes the current session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.Logout(r.Context(), claims.UserID, claims.SessionID); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
