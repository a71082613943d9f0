package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/finchsocial/finch/internal/auth"
	"github.com/finchsocial/finch/internal/models"
	"github.com/finchsocial/finch/internal/services"
	pkghttp "github.com/finchsocial/finch/pkg/http"
	"github.com/go-chi/chi/v5"
)

// TweetServiceInterface defines the interface for tweet business logic
type TweetServiceInterface interface {
	Create(ctx context.Context, authorID string, input services.CreateTweetInput) (*services.TweetWithQuota, error)
	Reply(ctx context.Context, authorID, tweetID string, input services.CreateTweetInput) (*services.TweetWithQuota, error)
	Get(ctx context.Context, tweetID string) (*services.TweetDetail, error)
	List(ctx context.Context, limit, offset int) ([]*models.Tweet, error)
	Feed(ctx context.Context, userID string) ([]*models.Tweet, error)
	Delete(ctx context.Context, tweetID, authorID string) error
	Like(ctx context.Context, tweetID, userID string) error
	Unlike(ctx context.Context, tweetID, userID string) error
	Retweet(ctx context.Context, tweetID, userID string) (*services.TweetWithQuota, error)
}

// TweetHandler handles tweet-related HTTP requests
type TweetHandler struct {
	service TweetServiceInterface
}

// NewTweetHandler creates a new TweetHandler
func NewTweetHandler(service TweetServiceInterface) *TweetHandler {
	return &TweetHandler{service: service}
}

// AudioAttachment is the audio portion of a tweet request
type AudioAttachment struct {
	URL      string `json:"url" validate:"required,url"`
	Duration int    `json:"duration" validate:"required,gte=1,lte=300"`
	Size     int64  `json:"size" validate:"required,gte=1"`
}

// CreateTweetRequest represents the request body for posting a tweet
type CreateTweetRequest struct {
	Content string           `json:"content" validate:"max=280"`
	Images  []string         `json:"images" validate:"omitempty,max=4,dive,url"`
	Audio   *AudioAttachment `json:"audio"`
}

func (req CreateTweetRequest) toInput() services.CreateTweetInput {
	input := services.CreateTweetInput{
		Content: req.Content,
		Images:  req.Images,
	}
	if req.Audio != nil {
		input.Audio = &models.Audio{
			URL:      req.Audio.URL,
			Duration: req.Audio.Duration,
			Size:     req.Audio.Size,
		}
	}
	return input
}

// Create posts a new tweet
func (h *TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req CreateTweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	created, err := h.service.Create(r.Context(), claims.UserID, req.toInput())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, created)
}

// Reply posts a reply to an existing tweet
func (h *TweetHandler) Reply(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	tweetID := chi.URLParam(r, "id")

	var req CreateTweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	created, err := h.service.Reply(r.Context(), claims.UserID, tweetID, req.toInput())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, created)
}

// Get returns a tweet with its replies
func (h *TweetHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, detail)
}

// List returns the public timeline
func (h *TweetHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	tweets, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"tweets": tweets})
}

// Feed returns tweets from the caller and accounts they follow
func (h *TweetHandler) Feed(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	tweets, err := h.service.Feed(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"tweets": tweets})
}

// Delete removes the caller's own tweet
func (h *TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), claims.UserID); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "tweet deleted"})
}

// Like records a like on a tweet
func (h *TweetHandler) Like(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.Like(r.Context(), chi.URLParam(r, "id"), claims.UserID); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "liked"})
}

// Unlike removes a like from a tweet
func (h *TweetHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.Unlike(r.Context(), chi.URLParam(r, "id"), claims.UserID); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "unliked"})
}

// Retweet reposts a tweet under the caller's account
func (h *TweetHandler) Retweet(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	created, err := h.service.Retweet(r.Context(), chi.URLParam(r, "id"), claims.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, created)
}
