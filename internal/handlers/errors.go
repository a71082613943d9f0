package handlers

import (
	"errors"
	"net/http"

	"github.com/finchsocial/finch/internal/models"
	pkghttp "github.com/finchsocial/finch/pkg/http"
)

// writeServiceError maps service sentinel errors to HTTP responses. Endpoints
// with richer payloads (payment window, reset retry) handle those cases before
// falling through to this.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Invalid request")
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, "Authentication failed")
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "Forbidden")
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Resource not found")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "Resource already exists")
	case errors.Is(err, models.ErrOTPNotFound):
		pkghttp.WriteBadRequest(w, "No pending verification code")
	case errors.Is(err, models.ErrOTPExpired):
		pkghttp.WriteBadRequest(w, "Verification code expired, request a new one")
	case errors.Is(err, models.ErrOTPMismatch):
		pkghttp.WriteBadRequest(w, "Incorrect verification code")
	case errors.Is(err, models.ErrPaymentWindowClosed):
		pkghttp.WriteForbidden(w, "Payments are only accepted during the payment window")
	case errors.Is(err, models.ErrUploadWindowClosed):
		pkghttp.WriteForbidden(w, "Audio uploads are only accepted during the upload window")
	case errors.Is(err, models.ErrSubscriptionExpired):
		pkghttp.WriteForbidden(w, "Subscription expired")
	case errors.Is(err, models.ErrTweetLimitReached):
		pkghttp.WriteForbidden(w, "Tweet limit reached for your plan")
	case errors.Is(err, models.ErrSelfFollow):
		pkghttp.WriteBadRequest(w, "You cannot follow yourself")
	case errors.Is(err, models.ErrAlreadyFollowing):
		pkghttp.WriteConflict(w, "Already following this user")
	case errors.Is(err, models.ErrNotFollowing):
		pkghttp.WriteBadRequest(w, "Not following this user")
	case errors.Is(err, models.ErrAlreadyLiked):
		pkghttp.WriteConflict(w, "Tweet already liked")
	case errors.Is(err, models.ErrNotLiked):
		pkghttp.WriteBadRequest(w, "Tweet not liked yet")
	case errors.Is(err, models.ErrAlreadyRetweeted):
		pkghttp.WriteBadRequest(w, "You already retweeted this tweet")
	case errors.Is(err, models.ErrResetAlreadyRequested):
		pkghttp.WriteTooManyRequests(w, "Password reset already requested today")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
