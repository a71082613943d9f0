package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/finchsocial/finch/internal/auth"
	"github.com/finchsocial/finch/internal/fingerprint"
	"github.com/finchsocial/finch/internal/models"
	"github.com/finchsocial/finch/internal/services"
	pkghttp "github.com/finchsocial/finch/pkg/http"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds user claims to request context for testing authenticated endpoints
func WithAuthContext(req *http.Request, userID, sessionID string) *http.Request {
	claims := &models.TokenClaims{
		Type:      "access",
		UserID:    userID,
		SessionID: sessionID,
	}
	ctx := context.WithValue(req.Context(), auth.UserContextKey, claims)
	return req.WithContext(ctx)
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	RegisterFunc         func(ctx context.Context, username, email, password, name string, info fingerprint.ClientInfo) (*services.LoginResult, error)
	LoginFunc            func(ctx context.Context, email, password string, info fingerprint.ClientInfo) (*services.LoginResult, error)
	VerifyBrowserOTPFunc func(ctx context.Context, email, code string, info fingerprint.ClientInfo) (*services.LoginResult, error)
	MeFunc               func(ctx context.Context, userID string) (*services.UserResponse, error)
	LoginHistoryFunc     func(ctx context.Context, userID string) (*services.LoginHistoryResponse, error)
	LogoutFunc           func(ctx context.Context, userID, sessionID string) error
}

func (m *MockAuthService) Register(ctx context.Context, username, email, password, name string, info fingerprint.ClientInfo) (*services.LoginResult, error) {
	if m.RegisterFunc == nil {
		return nil, models.ErrConflict
	}
	return m.RegisterFunc(ctx, username, email, password, name, info)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string, info fingerprint.ClientInfo) (*services.LoginResult, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.LoginFunc(ctx, email, password, info)
}

func (m *MockAuthService) VerifyBrowserOTP(ctx context.Context, email, code string, info fingerprint.ClientInfo) (*services.LoginResult, error) {
	if m.VerifyBrowserOTPFunc == nil {
		return nil, models.ErrOTPNotFound
	}
	return m.VerifyBrowserOTPFunc(ctx, email, code, info)
}

func (m *MockAuthService) Me(ctx context.Context, userID string) (*services.UserResponse, error) {
	if m.MeFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.MeFunc(ctx, userID)
}

func (m *MockAuthService) LoginHistory(ctx context.Context, userID string) (*services.LoginHistoryResponse, error) {
	if m.LoginHistoryFunc == nil {
		return &services.LoginHistoryResponse{}, nil
	}
	return m.LoginHistoryFunc(ctx, userID)
}

func (m *MockAuthService) Logout(ctx context.Context, userID, sessionID string) error {
	if m.LogoutFunc == nil {
		return nil
	}
	return m.LogoutFunc(ctx, userID, sessionID)
}

// MockUserService implements UserServiceInterface for testing
type MockUserService struct {
	GetProfileFunc             func(ctx context.Context, username, viewerID string) (*services.ProfileResponse, error)
	UpdateProfileFunc          func(ctx context.Context, userID string, input services.UpdateProfileInput) (*services.UserResponse, error)
	UpdateSecuritySettingsFunc func(ctx context.Context, userID string, settings models.SecuritySettings) error
	SetPhoneNumberFunc         func(ctx context.Context, userID, phone string) error
	SearchFunc                 func(ctx context.Context, query string) ([]*services.UserResponse, error)
	FollowFunc                 func(ctx context.Context, followerID, username string) error
	UnfollowFunc               func(ctx context.Context, followerID, username string) error
	FollowersFunc              func(ctx context.Context, username string, limit, offset int) ([]*services.UserResponse, error)
	FollowingFunc              func(ctx context.Context, username string, limit, offset int) ([]*services.UserResponse, error)
}

func (m *MockUserService) GetProfile(ctx context.Context, username, viewerID string) (*services.ProfileResponse, error) {
	if m.GetProfileFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetProfileFunc(ctx, username, viewerID)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, userID string, input services.UpdateProfileInput) (*services.UserResponse, error) {
	if m.UpdateProfileFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateProfileFunc(ctx, userID, input)
}

func (m *MockUserService) UpdateSecuritySettings(ctx context.Context, userID string, settings models.SecuritySettings) error {
	if m.UpdateSecuritySettingsFunc == nil {
		return nil
	}
	return m.UpdateSecuritySettingsFunc(ctx, userID, settings)
}

func (m *MockUserService) SetPhoneNumber(ctx context.Context, userID, phone string) error {
	if m.SetPhoneNumberFunc == nil {
		return nil
	}
	return m.SetPhoneNumberFunc(ctx, userID, phone)
}

func (m *MockUserService) Search(ctx context.Context, query string) ([]*services.UserResponse, error) {
	if m.SearchFunc == nil {
		return []*services.UserResponse{}, nil
	}
	return m.SearchFunc(ctx, query)
}

func (m *MockUserService) Follow(ctx context.Context, followerID, username string) error {
	if m.FollowFunc == nil {
		return nil
	}
	return m.FollowFunc(ctx, followerID, username)
}

func (m *MockUserService) Unfollow(ctx context.Context, followerID, username string) error {
	if m.UnfollowFunc == nil {
		return nil
	}
	return m.UnfollowFunc(ctx, followerID, username)
}

func (m *MockUserService) Followers(ctx context.Context, username string, limit, offset int) ([]*services.UserResponse, error) {
	if m.FollowersFunc == nil {
		return []*services.UserResponse{}, nil
	}
	return m.FollowersFunc(ctx, username, limit, offset)
}

func (m *MockUserService) Following(ctx context.Context, username string, limit, offset int) ([]*services.UserResponse, error) {
	if m.FollowingFunc == nil {
		return []*services.UserResponse{}, nil
	}
	return m.FollowingFunc(ctx, username, limit, offset)
}

// MockUserTweets implements UserTweetsInterface for testing
type MockUserTweets struct {
	ListByAuthorFunc func(ctx context.Context, authorID string, limit, offset int) ([]*models.Tweet, error)
}

func (m *MockUserTweets) ListByAuthor(ctx context.Context, authorID string, limit, offset int) ([]*models.Tweet, error) {
	if m.ListByAuthorFunc == nil {
		return []*models.Tweet{}, nil
	}
	return m.ListByAuthorFunc(ctx, authorID, limit, offset)
}

// MockTweetService implements TweetServiceInterface for testing
type MockTweetService struct {
	CreateFunc  func(ctx context.Context, authorID string, input services.CreateTweetInput) (*services.TweetWithQuota, error)
	ReplyFunc   func(ctx context.Context, authorID, tweetID string, input services.CreateTweetInput) (*services.TweetWithQuota, error)
	GetFunc     func(ctx context.Context, tweetID string) (*services.TweetDetail, error)
	ListFunc    func(ctx context.Context, limit, offset int) ([]*models.Tweet, error)
	FeedFunc    func(ctx context.Context, userID string) ([]*models.Tweet, error)
	DeleteFunc  func(ctx context.Context, tweetID, authorID string) error
	LikeFunc    func(ctx context.Context, tweetID, userID string) error
	UnlikeFunc  func(ctx context.Context, tweetID, userID string) error
	RetweetFunc func(ctx context.Context, tweetID, userID string) (*services.TweetWithQuota, error)
}

func (m *MockTweetService) Create(ctx context.Context, authorID string, input services.CreateTweetInput) (*services.TweetWithQuota, error) {
	if m.CreateFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.CreateFunc(ctx, authorID, input)
}

func (m *MockTweetService) Reply(ctx context.Context, authorID, tweetID string, input services.CreateTweetInput) (*services.TweetWithQuota, error) {
	if m.ReplyFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.ReplyFunc(ctx, authorID, tweetID, input)
}

func (m *MockTweetService) Get(ctx context.Context, tweetID string) (*services.TweetDetail, error) {
	if m.GetFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetFunc(ctx, tweetID)
}

func (m *MockTweetService) List(ctx context.Context, limit, offset int) ([]*models.Tweet, error) {
	if m.ListFunc == nil {
		return []*models.Tweet{}, nil
	}
	return m.ListFunc(ctx, limit, offset)
}

func (m *MockTweetService) Feed(ctx context.Context, userID string) ([]*models.Tweet, error) {
	if m.FeedFunc == nil {
		return []*models.Tweet{}, nil
	}
	return m.FeedFunc(ctx, userID)
}

func (m *MockTweetService) Delete(ctx context.Context, tweetID, authorID string) error {
	if m.DeleteFunc == nil {
		return nil
	}
	return m.DeleteFunc(ctx, tweetID, authorID)
}

func (m *MockTweetService) Like(ctx context.Context, tweetID, userID string) error {
	if m.LikeFunc == nil {
		return nil
	}
	return m.LikeFunc(ctx, tweetID, userID)
}

func (m *MockTweetService) Unlike(ctx context.Context, tweetID, userID string) error {
	if m.UnlikeFunc == nil {
		return nil
	}
	return m.UnlikeFunc(ctx, tweetID, userID)
}

func (m *MockTweetService) Retweet(ctx context.Context, tweetID, userID string) (*services.TweetWithQuota, error) {
	if m.RetweetFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.RetweetFunc(ctx, tweetID, userID)
}

// MockSubscriptionReader implements SubscriptionServiceInterface for testing
type MockSubscriptionReader struct {
	MySubscriptionFunc func(ctx context.Context, userID string) (*services.SubscriptionResponse, error)
}

func (m *MockSubscriptionReader) MySubscription(ctx context.Context, userID string) (*services.SubscriptionResponse, error) {
	if m.MySubscriptionFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.MySubscriptionFunc(ctx, userID)
}

// MockPaymentService implements PaymentServiceInterface for testing
type MockPaymentService struct {
	CheckPaymentTimeFunc func(now time.Time) *services.PaymentTimeStatus
	CreateOrderFunc      func(ctx context.Context, userID, planID string) (*services.CreateOrderResponse, error)
	VerifyPaymentFunc    func(ctx context.Context, userID, gatewayOrderID, gatewayPaymentID, signature string) (*services.SubscriptionResponse, error)
	OrderQRFunc          func(ctx context.Context, userID, paymentID string) ([]byte, error)
	ListPaymentsFunc     func(ctx context.Context, userID string, limit, offset int) ([]*models.Payment, error)
}

func (m *MockPaymentService) CheckPaymentTime(now time.Time) *services.PaymentTimeStatus {
	if m.CheckPaymentTimeFunc == nil {
		return &services.PaymentTimeStatus{Allowed: true, CurrentTime: now}
	}
	return m.CheckPaymentTimeFunc(now)
}

func (m *MockPaymentService) CreateOrder(ctx context.Context, userID, planID string) (*services.CreateOrderResponse, error) {
	if m.CreateOrderFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.CreateOrderFunc(ctx, userID, planID)
}

func (m *MockPaymentService) VerifyPayment(ctx context.Context, userID, gatewayOrderID, gatewayPaymentID, signature string) (*services.SubscriptionResponse, error) {
	if m.VerifyPaymentFunc == nil {
		return nil, models.ErrBadRequest
	}
	return m.VerifyPaymentFunc(ctx, userID, gatewayOrderID, gatewayPaymentID, signature)
}

func (m *MockPaymentService) OrderQR(ctx context.Context, userID, paymentID string) ([]byte, error) {
	if m.OrderQRFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.OrderQRFunc(ctx, userID, paymentID)
}

func (m *MockPaymentService) ListPayments(ctx context.Context, userID string, limit, offset int) ([]*models.Payment, error) {
	if m.ListPaymentsFunc == nil {
		return []*models.Payment{}, nil
	}
	return m.ListPaymentsFunc(ctx, userID, limit, offset)
}

// MockLanguageService implements LanguageServiceInterface for testing
type MockLanguageService struct {
	RequestChangeFunc func(ctx context.Context, userID, language string) (*services.ChangeResult, error)
	VerifyChangeFunc  func(ctx context.Context, userID, language, code string) (*services.ChangeResult, error)
}

func (m *MockLanguageService) RequestChange(ctx context.Context, userID, language string) (*services.ChangeResult, error) {
	if m.RequestChangeFunc == nil {
		return nil, models.ErrBadRequest
	}
	return m.RequestChangeFunc(ctx, userID, language)
}

func (m *MockLanguageService) VerifyChange(ctx context.Context, userID, language, code string) (*services.ChangeResult, error) {
	if m.VerifyChangeFunc == nil {
		return nil, models.ErrOTPNotFound
	}
	return m.VerifyChangeFunc(ctx, userID, language, code)
}

// MockPasswordResetService implements PasswordResetServiceInterface for testing
type MockPasswordResetService struct {
	RequestResetFunc      func(ctx context.Context, email string) (*services.RequestResult, error)
	VerifyTokenFunc       func(ctx context.Context, token string) (bool, error)
	CheckAvailabilityFunc func(ctx context.Context, email string) (*services.AvailabilityResult, error)
	ConfirmResetFunc      func(ctx context.Context, token, newPassword string) error
}

func (m *MockPasswordResetService) RequestReset(ctx context.Context, email string) (*services.RequestResult, error) {
	if m.RequestResetFunc == nil {
		return &services.RequestResult{Message: "a reset email has been sent"}, nil
	}
	return m.RequestResetFunc(ctx, email)
}

func (m *MockPasswordResetService) VerifyToken(ctx context.Context, token string) (bool, error) {
	if m.VerifyTokenFunc == nil {
		return false, nil
	}
	return m.VerifyTokenFunc(ctx, token)
}

func (m *MockPasswordResetService) CheckAvailability(ctx context.Context, email string) (*services.AvailabilityResult, error) {
	if m.CheckAvailabilityFunc == nil {
		return &services.AvailabilityResult{Available: true}, nil
	}
	return m.CheckAvailabilityFunc(ctx, email)
}

func (m *MockPasswordResetService) ConfirmReset(ctx context.Context, token, newPassword string) error {
	if m.ConfirmResetFunc == nil {
		return nil
	}
	return m.ConfirmResetFunc(ctx, token, newPassword)
}

// MockOTPHandlerService implements OTPServiceInterface for testing
type MockOTPHandlerService struct {
	RequestAudioUploadOTPFunc func(ctx context.Context, userID string) error
	VerifyAudioUploadOTPFunc  func(ctx context.Context, userID, code string) (string, error)
	CheckAudioUploadOTPFunc   func(ctx context.Context, userID, otpID string) (bool, error)
}

func (m *MockOTPHandlerService) RequestAudioUploadOTP(ctx context.Context, userID string) error {
	if m.RequestAudioUploadOTPFunc == nil {
		return nil
	}
	return m.RequestAudioUploadOTPFunc(ctx, userID)
}

func (m *MockOTPHandlerService) VerifyAudioUploadOTP(ctx context.Context, userID, code string) (string, error) {
	if m.VerifyAudioUploadOTPFunc == nil {
		return "", models.ErrOTPNotFound
	}
	return m.VerifyAudioUploadOTPFunc(ctx, userID, code)
}

func (m *MockOTPHandlerService) CheckAudioUploadOTP(ctx context.Context, userID, otpID string) (bool, error) {
	if m.CheckAudioUploadOTPFunc == nil {
		return false, nil
	}
	return m.CheckAudioUploadOTPFunc(ctx, userID, otpID)
}
