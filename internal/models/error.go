package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Step-up authentication errors
	ErrOTPNotFound = errors.New("no pending verification code")
	ErrOTPExpired  = errors.New("verification code expired")
	ErrOTPMismatch = errors.New("verification code does not match")

	// Policy denial errors
	ErrMobileAccessRestricted = errors.New("mobile access outside allowed hours")
	ErrPaymentWindowClosed    = errors.New("payment window is closed")
	ErrUploadWindowClosed     = errors.New("audio upload window is closed")

	// Subscription errors
	ErrNoSubscription      = errors.New("no subscription found")
	ErrSubscriptionExpired = errors.New("subscription expired")
	ErrTweetLimitReached   = errors.New("tweet limit reached")

	// Password reset errors
	ErrResetAlreadyRequested = errors.New("password reset already requested today")

	// Social graph errors
	ErrSelfFollow       = errors.New("cannot follow yourself")
	ErrAlreadyFollowing = errors.New("already following this user")
	ErrNotFollowing     = errors.New("not following this user")
	ErrAlreadyLiked     = errors.New("tweet already liked")
	ErrNotLiked         = errors.New("tweet not liked yet")
	ErrAlreadyRetweeted = errors.New("already retweeted")
)
