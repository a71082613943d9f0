package routes

import (
	"github.com/finchsocial/finch/internal/auth"
	"github.com/finchsocial/finch/internal/handlers"
	"github.com/finchsocial/finch/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Users         *handlers.UserHandler
	Tweets        *handlers.TweetHandler
	Subscriptions *handlers.SubscriptionHandler
	Language      *handlers.LanguageHandler
	PasswordReset *handlers.PasswordResetHandler
	OTP           *handlers.OTPHandler
	Uploads       *handlers.UploadHandler
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, h Handlers, tokenManager *auth.TokenManager) {
	authRateLimit := middleware.DefaultAuthRateLimit()
	otpRateLimit := middleware.DefaultOTPRateLimit()

	router.Method("GET", "/metrics", middleware.MetricsHandler())

	// Public routes - no authentication required
	router.With(middleware.RateLimitByIP(authRateLimit)).Post("/auth/register", h.Auth.Register)
	router.With(middleware.RateLimitByIP(authRateLimit)).Post("/auth/login", h.Auth.Login)
	router.With(middleware.RateLimitByIP(otpRateLimit)).Post("/auth/verify-otp", h.Auth.VerifyOTP)

	router.With(middleware.RateLimitByIP(authRateLimit)).Post("/password-reset", h.PasswordReset.Request)
	router.Get("/password-reset/availability", h.PasswordReset.CheckAvailability)
	router.Get("/password-reset/{token}", h.PasswordReset.VerifyToken)
	router.With(middleware.RateLimitByIP(authRateLimit)).Post("/password-reset/{token}", h.PasswordReset.Confirm)

	// Public reads; a valid token enriches profile responses with follow state.
	router.Group(func(r chi.Router) {
		r.Use(auth.OptionalAuthMiddleware(tokenManager))

		r.Get("/users/search", h.Users.Search)
		r.Get("/users/{username}", h.Users.GetProfile)
		r.Get("/users/{username}/tweets", h.Users.Tweets)
		r.Get("/users/{username}/followers", h.Users.Followers)
		r.Get("/users/{username}/following", h.Users.Following)

		r.Get("/tweets", h.Tweets.List)
		r.Get("/tweets/{id}", h.Tweets.Get)
	})

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware(tokenManager))

		r.Get("/auth/me", h.Auth.Me)
		r.Get("/auth/login-history", h.Auth.LoginHistory)
		r.Post("/auth/logout", h.Auth.Logout)

		r.Patch("/users/me", h.Users.UpdateProfile)
		r.Put("/users/me/security", h.Users.UpdateSecuritySettings)
		r.Put("/users/me/phone", h.Users.UpdatePhone)
		r.Post("/users/{username}/follow", h.Users.Follow)
		r.Delete("/users/{username}/follow", h.Users.Unfollow)

		r.Post("/tweets", h.Tweets.Create)
		r.Get("/feed", h.Tweets.Feed)
		r.Delete("/tweets/{id}", h.Tweets.Delete)
		r.Post("/tweets/{id}/reply", h.Tweets.Reply)
		r.Post("/tweets/{id}/like", h.Tweets.Like)
		r.Delete("/tweets/{id}/like", h.Tweets.Unlike)
		r.Post("/tweets/{id}/retweet", h.Tweets.Retweet)

		r.Get("/subscription", h.Subscriptions.MySubscription)
		r.Get("/subscription/plans", h.Subscriptions.Plans)
		r.Get("/subscription/payment-time", h.Subscriptions.CheckPaymentTime)
		r.Post("/subscription/order", h.Subscriptions.CreateOrder)
		r.Post("/subscription/verify", h.Subscriptions.VerifyPayment)
		r.Get("/subscription/payments", h.Subscriptions.ListPayments)
		r.Get("/subscription/payments/{id}/qr", h.Subscriptions.OrderQR)

		r.Get("/language", h.Language.Current)
		r.With(middleware.RateLimitByIP(otpRateLimit)).Post("/language", h.Language.RequestChange)
		r.With(middleware.RateLimitByIP(otpRateLimit)).Post("/language/verify", h.Language.VerifyChange)

		r.With(middleware.RateLimitByIP(otpRateLimit)).Post("/otp/audio-upload", h.OTP.Request)
		r.With(middleware.RateLimitByIP(otpRateLimit)).Post("/otp/audio-upload/verify", h.OTP.Verify)
		r.Get("/otp/audio-upload/status", h.OTP.Check)

		r.Post("/uploads/image", h.Uploads.Image)
		r.Post("/uploads/audio", h.Uploads.Audio)
	})
}
