package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/finchsocial/finch/internal/auth"
	"github.com/finchsocial/finch/internal/models"
	"github.com/finchsocial/finch/internal/services"
	pkghttp "github.com/finchsocial/finch/pkg/http"
	"github.com/go-chi/chi/v5"
)

// UserServiceInterface defines the interface for profile and follow logic
type UserServiceInterface interface {
	GetProfile(ctx context.Context, username, viewerID string) (*services.ProfileResponse, error)
	UpdateProfile(ctx context.Context, userID string, input services.UpdateProfileInput) (*services.UserResponse, error)
	UpdateSecuritySettings(ctx context.Context, userID string, settings models.SecuritySettings) error
	SetPhoneNumber(ctx context.Context, userID, phone string) error
	Search(ctx context.Context, query string) ([]*services.UserResponse, error)
	Follow(ctx context.Context, followerID, username string) error
	Unfollow(ctx context.Context, followerID, username string) error
	Followers(ctx context.Context, username string, limit, offset int) ([]*services.UserResponse, error)
	Following(ctx context.Context, username string, limit, offset int) ([]*services.UserResponse, error)
}

// UserTweetsInterface lists a user's tweets for the public profile page
type UserTweetsInterface interface {
	ListByAuthor(ctx context.Context, authorID string, limit, offset int) ([]*models.Tweet, error)
}

// UserHandler handles profile and follow HTTP requests
type UserHandler struct {
	service UserServiceInterface
	tweets  UserTweetsInterface
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserServiceInterface, tweets UserTweetsInterface) *UserHandler {
	return &UserHandler{
		service: service,
		tweets:  tweets,
	}
}

// UpdateProfileRequest represents the request body for profile updates
type UpdateProfileRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1,max=100"`
	Bio            *string `json:"bio" validate:"omitempty,max=500"`
	ProfilePicture *string `json:"profile_picture" validate:"omitempty,url"`
	CoverPicture   *string `json:"cover_picture" validate:"omitempty,url"`
}

// SecuritySettingsRequest represents the request body for security settings
type SecuritySettingsRequest struct {
	RequireOTPForChrome    bool `json:"require_otp_for_chrome"`
	MobileAccessRestricted bool `json:"mobile_access_restricted"`
	MobileAccessStartHour  int  `json:"mobile_access_start_hour" validate:"gte=0,lte=23"`
	MobileAccessEndHour    int  `json:"mobile_access_end_hour" validate:"gte=1,lte=24"`
}

// UpdatePhoneRequest represents the request body for phone updates
type UpdatePhoneRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,e164"`
}

func pagination(r *http.Request) (limit, offset int) {
	limit = 20
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

// GetProfile returns a public profile by username
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	username := strings.ToLower(chi.URLParam(r, "username"))

	viewerID := ""
	if claims := auth.GetUserFromContext(r); claims != nil {
		viewerID = claims.UserID
	}

	profile, err := h.service.GetProfile(r.Context(), username, viewerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, profile)
}

// UpdateProfile applies a partial update to the caller's profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), claims.UserID, services.UpdateProfileInput{
		Name:           req.Name,
		Bio:            req.Bio,
		ProfilePicture: req.ProfilePicture,
		CoverPicture:   req.CoverPicture,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, user)
}

// UpdateSecuritySettings replaces the caller's step-up configuration
func (h *UserHandler) UpdateSecuritySettings(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req SecuritySettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	err := h.service.UpdateSecuritySettings(r.Context(), claims.UserID, models.SecuritySettings{
		RequireOTPForChrome:    req.RequireOTPForChrome,
		MobileAccessRestricted: req.MobileAccessRestricted,
		MobileAccessStartHour:  req.MobileAccessStartHour,
		MobileAccessEndHour:    req.MobileAccessEndHour,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "security settings updated"})
}

// UpdatePhone stores a new phone number pending SMS verification
func (h *UserHandler) UpdatePhone(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req UpdatePhoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.SetPhoneNumber(r.Context(), claims.UserID, req.PhoneNumber); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "phone number updated, verification pending"})
}

// Search finds users by username or name substring
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		pkghttp.WriteBadRequest(w, "Missing search query")
		return
	}

	users, err := h.service.Search(r.Context(), query)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

// Follow adds a follow edge to the named user
func (h *UserHandler) Follow(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	username := strings.ToLower(chi.URLParam(r, "username"))
	if err := h.service.Follow(r.Context(), claims.UserID, username); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "followed"})
}

// Unfollow removes a follow edge
func (h *UserHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	username := strings.ToLower(chi.URLParam(r, "username"))
	if err := h.service.Unfollow(r.Context(), claims.UserID, username); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "unfollowed"})
}

// Followers lists the users following the named user
func (h *UserHandler) Followers(w http.ResponseWriter, r *http.Request) {
	username := strings.ToLower(chi.URLParam(r, "username"))
	limit, offset := pagination(r)

	users, err := h.service.Followers(r.Context(), username, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"followers": users})
}

// Following lists the users the named user follows
func (h *UserHandler) Following(w http.ResponseWriter, r *http.Request) {
	username := strings.ToLower(chi.URLParam(r, "username"))
	limit, offset := pagination(r)

	users, err := h.service.Following(r.Context(), username, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"following": users})
}

// Tweets lists the named user's tweets newest first
func (h *UserHandler) Tweets(w http.ResponseWriter, r *http.Request) {
	username := strings.ToLower(chi.URLParam(r, "username"))
	limit, offset := pagination(r)

	profile, err := h.service.GetProfile(r.Context(), username, "")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	tweets, err := h.tweets.ListByAuthor(r.Context(), profile.ID, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"tweets": tweets})
}
