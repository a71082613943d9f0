package services

import (
	"context"
	"io"
	"time"

	"github.com/finchsocial/finch/internal/fingerprint"
	"github.com/finchsocial/finch/internal/models"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc                func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc             func(ctx context.Context, email string) (*models.User, error)
	GetByUsernameFunc          func(ctx context.Context, username string) (*models.User, error)
	CreateFunc                 func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateProfileFunc          func(ctx context.Context, user *models.User) error
	UpdatePasswordFunc         func(ctx context.Context, userID, passwordHash string) error
	SetBrowserOTPFunc          func(ctx context.Context, userID string, otp *models.BrowserOTP) error
	ClearBrowserOTPFunc        func(ctx context.Context, userID string) error
	SetLanguageOTPFunc         func(ctx context.Context, userID string, otp *models.LanguageOTP) error
	ClearLanguageOTPFunc       func(ctx context.Context, userID string) error
	SetLanguageFunc            func(ctx context.Context, userID, language string, markPhoneVerified bool) error
	SetPhoneNumberFunc         func(ctx context.Context, userID, phone string) error
	UpdateSecuritySettingsFunc func(ctx context.Context, userID string, s models.SecuritySettings) error
	SearchFunc                 func(ctx context.Context, query string, limit int) ([]*models.User, error)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, user)
	}
	return nil
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, userID, passwordHash)
	}
	return nil
}

func (m *MockUserRepository) SetBrowserOTP(ctx context.Context, userID string, otp *models.BrowserOTP) error {
	if m.SetBrowserOTPFunc != nil {
		return m.SetBrowserOTPFunc(ctx, userID, otp)
	}
	return nil
}

func (m *MockUserRepository) ClearBrowserOTP(ctx context.Context, userID string) error {
	if m.ClearBrowserOTPFunc != nil {
		return m.ClearBrowserOTPFunc(ctx, userID)
	}
	return nil
}

func (m *MockUserRepository) SetLanguageOTP(ctx context.Context, userID string, otp *models.LanguageOTP) error {
	if m.SetLanguageOTPFunc != nil {
		return m.SetLanguageOTPFunc(ctx, userID, otp)
	}
	return nil
}

func (m *MockUserRepository) ClearLanguageOTP(ctx context.Context, userID string) error {
	if m.ClearLanguageOTPFunc != nil {
		return m.ClearLanguageOTPFunc(ctx, userID)
	}
	return nil
}

func (m *MockUserRepository) SetLanguage(ctx context.Context, userID, language string, markPhoneVerified bool) error {
	if m.SetLanguageFunc != nil {
		return m.SetLanguageFunc(ctx, userID, language, markPhoneVerified)
	}
	return nil
}

func (m *MockUserRepository) SetPhoneNumber(ctx context.Context, userID, phone string) error {
	if m.SetPhoneNumberFunc != nil {
		return m.SetPhoneNumberFunc(ctx, userID, phone)
	}
	return nil
}

func (m *MockUserRepository) UpdateSecuritySettings(ctx context.Context, userID string, s models.SecuritySettings) error {
	if m.UpdateSecuritySettingsFunc != nil {
		return m.UpdateSecuritySettingsFunc(ctx, userID, s)
	}
	return nil
}

func (m *MockUserRepository) Search(ctx context.Context, query string, limit int) ([]*models.User, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, limit)
	}
	return []*models.User{}, nil
}

// MockLoginHistoryRepository implements LoginHistoryRepository for testing
type MockLoginHistoryRepository struct {
	AppendFunc        func(ctx context.Context, entry *models.LoginHistoryEntry) error
	ListByUserFunc    func(ctx context.Context, userID string) ([]*models.LoginHistoryEntry, error)
	SetLogoutTimeFunc func(ctx context.Context, userID, sessionID string) error
}

func (m *MockLoginHistoryRepository) Append(ctx context.Context, entry *models.LoginHistoryEntry) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, entry)
	}
	return nil
}

func (m *MockLoginHistoryRepository) ListByUser(ctx context.Context, userID string) ([]*models.LoginHistoryEntry, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return []*models.LoginHistoryEntry{}, nil
}

func (m *MockLoginHistoryRepository) SetLogoutTime(ctx context.Context, userID, sessionID string) error {
	if m.SetLogoutTimeFunc != nil {
		return m.SetLogoutTimeFunc(ctx, userID, sessionID)
	}
	return nil
}

// MockSessionRepository implements SessionRepository for testing
type MockSessionRepository struct {
	UpsertFunc    func(ctx context.Context, session *models.Session) error
	GetByUserFunc func(ctx context.Context, userID string) (*models.Session, error)
	DeleteFunc    func(ctx context.Context, sessionID string) error
}

func (m *MockSessionRepository) Upsert(ctx context.Context, session *models.Session) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, session)
	}
	return nil
}

func (m *MockSessionRepository) GetByUser(ctx context.Context, userID string) (*models.Session, error) {
	if m.GetByUserFunc != nil {
		return m.GetByUserFunc(ctx, userID)
	}
	return nil, models.ErrNotFound
}

func (m *MockSessionRepository) Delete(ctx context.Context, sessionID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, sessionID)
	}
	return nil
}

// MockTrustedDeviceRepository implements TrustedDeviceRepository for testing
type MockTrustedDeviceRepository struct {
	RecordFunc    func(ctx context.Context, userID, fp, browser string) error
	IsTrustedFunc func(ctx context.Context, userID, fp string) (bool, error)
}

func (m *MockTrustedDeviceRepository) Record(ctx context.Context, userID, fp, browser string) error {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, userID, fp, browser)
	}
	return nil
}

func (m *MockTrustedDeviceRepository) IsTrusted(ctx context.Context, userID, fp string) (bool, error) {
	if m.IsTrustedFunc != nil {
		return m.IsTrustedFunc(ctx, userID, fp)
	}
	return false, nil
}

// MockGeoLocator implements GeoLocator for testing
type MockGeoLocator struct {
	ResolveFunc func(ip string) fingerprint.GeoInfo
}

func (m *MockGeoLocator) Resolve(ip string) fingerprint.GeoInfo {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ip)
	}
	return fingerprint.GeoInfo{Country: "Unknown", City: "Unknown", Region: "Unknown", Timezone: "Unknown"}
}

// MockEmailService implements EmailService for testing
type MockEmailService struct {
	SendLoginOTPFunc       func(ctx context.Context, email, code, browser, ip string) error
	SendLanguageOTPFunc    func(ctx context.Context, email, code, language string) error
	SendAudioUploadOTPFunc func(ctx context.Context, email, code string) error
	SendPasswordResetFunc  func(ctx context.Context, email, resetLink, generatedPassword string) error
	SendPaymentReceiptFunc func(ctx context.Context, email, planName, orderID string, amount int64) error
}

func (m *MockEmailService) SendLoginOTP(ctx context.Context, email, code, browser, ip string) error {
	if m.SendLoginOTPFunc != nil {
		return m.SendLoginOTPFunc(ctx, email, code, browser, ip)
	}
	return nil
}

func (m *MockEmailService) SendLanguageOTP(ctx context.Context, email, code, language string) error {
	if m.SendLanguageOTPFunc != nil {
		return m.SendLanguageOTPFunc(ctx, email, code, language)
	}
	return nil
}

func (m *MockEmailService) SendAudioUploadOTP(ctx context.Context, email, code string) error {
	if m.SendAudioUploadOTPFunc != nil {
		return m.SendAudioUploadOTPFunc(ctx, email, code)
	}
	return nil
}

func (m *MockEmailService) SendPasswordReset(ctx context.Context, email, resetLink, generatedPassword string) error {
	if m.SendPasswordResetFunc != nil {
		return m.SendPasswordResetFunc(ctx, email, resetLink, generatedPassword)
	}
	return nil
}

func (m *MockEmailService) SendPaymentReceipt(ctx context.Context, email, planName, orderID string, amount int64) error {
	if m.SendPaymentReceiptFunc != nil {
		return m.SendPaymentReceiptFunc(ctx, email, planName, orderID, amount)
	}
	return nil
}

// MockSMSService implements SMSService for testing
type MockSMSService struct {
	SendLanguageOTPFunc func(ctx context.Context, phone, code, language string) error
}

func (m *MockSMSService) SendLanguageOTP(ctx context.Context, phone, code, language string) error {
	if m.SendLanguageOTPFunc != nil {
		return m.SendLanguageOTPFunc(ctx, phone, code, language)
	}
	return nil
}

// MockStorageService implements StorageService for testing
type MockStorageService struct {
	UploadFunc func(ctx context.Context, folder, filename, contentType string, body io.Reader, size int64) (string, error)
}

func (m *MockStorageService) Upload(ctx context.Context, folder, filename, contentType string, body io.Reader, size int64) (string, error) {
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, folder, filename, contentType, body, size)
	}
	return "https://media.example.com/object", nil
}

// MockSubscriptionRepository implements SubscriptionRepository for testing
type MockSubscriptionRepository struct {
	GetByUserFunc           func(ctx context.Context, userID string) (*models.Subscription, error)
	CreateFunc              func(ctx context.Context, sub *models.Subscription) (*models.Subscription, error)
	UpdateFunc              func(ctx context.Context, sub *models.Subscription) error
	IncrementTweetsUsedFunc func(ctx context.Context, userID string) error
}

func (m *MockSubscriptionRepository) GetByUser(ctx context.Context, userID string) (*models.Subscription, error) {
	if m.GetByUserFunc != nil {
		return m.GetByUserFunc(ctx, userID)
	}
	return nil, models.ErrNotFound
}

func (m *MockSubscriptionRepository) Create(ctx context.Context, sub *models.Subscription) (*models.Subscription, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, sub)
	}
	sub.ID = "sub-1"
	return sub, nil
}

func (m *MockSubscriptionRepository) Update(ctx context.Context, sub *models.Subscription) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, sub)
	}
	return nil
}

func (m *MockSubscriptionRepository) IncrementTweetsUsed(ctx context.Context, userID string) error {
	if m.IncrementTweetsUsedFunc != nil {
		return m.IncrementTweetsUsedFunc(ctx, userID)
	}
	return nil
}

// MockPaymentRepository implements PaymentRepository for testing
type MockPaymentRepository struct {
	CreateFunc              func(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	GetByIDFunc             func(ctx context.Context, id string) (*models.Payment, error)
	GetByGatewayOrderIDFunc func(ctx context.Context, gatewayOrderID string) (*models.Payment, error)
	SetOutcomeFunc          func(ctx context.Context, id, status, gatewayPaymentID, gatewaySignature string, paymentDate *time.Time) error
	ListByUserFunc          func(ctx context.Context, userID string, limit, offset int) ([]*models.Payment, error)
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, payment)
	}
	payment.ID = "pay-1"
	return payment, nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockPaymentRepository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error) {
	if m.GetByGatewayOrderIDFunc != nil {
		return m.GetByGatewayOrderIDFunc(ctx, gatewayOrderID)
	}
	return nil, models.ErrNotFound
}

func (m *MockPaymentRepository) SetOutcome(ctx context.Context, id, status, gatewayPaymentID, gatewaySignature string, paymentDate *time.Time) error {
	if m.SetOutcomeFunc != nil {
		return m.SetOutcomeFunc(ctx, id, status, gatewayPaymentID, gatewaySignature, paymentDate)
	}
	return nil
}

func (m *MockPaymentRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Payment, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, limit, offset)
	}
	return []*models.Payment{}, nil
}

// MockOrderGateway implements OrderGateway for testing
type MockOrderGateway struct {
	CreateOrderFunc func(amount int64, currency, receipt string) (string, error)
}

func (m *MockOrderGateway) CreateOrder(amount int64, currency, receipt string) (string, error) {
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(amount, currency, receipt)
	}
	return "order_mock", nil
}

// MockOTPRepository implements OTPRepository for testing
type MockOTPRepository struct {
	CreateFunc       func(ctx context.Context, otp *models.OTP) (*models.OTP, error)
	GetByIDFunc      func(ctx context.Context, id string) (*models.OTP, error)
	GetPendingFunc   func(ctx context.Context, userID, purpose string) (*models.OTP, error)
	MarkVerifiedFunc func(ctx context.Context, id string) error
	DeleteFunc       func(ctx context.Context, id string) error
}

func (m *MockOTPRepository) Create(ctx context.Context, otp *models.OTP) (*models.OTP, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, otp)
	}
	otp.ID = "otp-1"
	return otp, nil
}

func (m *MockOTPRepository) GetByID(ctx context.Context, id string) (*models.OTP, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockOTPRepository) GetPending(ctx context.Context, userID, purpose string) (*models.OTP, error) {
	if m.GetPendingFunc != nil {
		return m.GetPendingFunc(ctx, userID, purpose)
	}
	return nil, models.ErrNotFound
}

func (m *MockOTPRepository) MarkVerified(ctx context.Context, id string) error {
	if m.MarkVerifiedFunc != nil {
		return m.MarkVerifiedFunc(ctx, id)
	}
	return nil
}

func (m *MockOTPRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockPasswordResetRepository implements PasswordResetRepository for testing
type MockPasswordResetRepository struct {
	CreateFunc          func(ctx context.Context, reset *models.PasswordReset) (*models.PasswordReset, error)
	GetByTokenFunc      func(ctx context.Context, token string) (*models.PasswordReset, error)
	GetLatestByUserFunc func(ctx context.Context, userID string) (*models.PasswordReset, error)
	MarkUsedFunc        func(ctx context.Context, id string) error
}

func (m *MockPasswordResetRepository) Create(ctx context.Context, reset *models.PasswordReset) (*models.PasswordReset, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, reset)
	}
	reset.ID = "reset-1"
	return reset, nil
}

func (m *MockPasswordResetRepository) GetByToken(ctx context.Context, token string) (*models.PasswordReset, error) {
	if m.GetByTokenFunc != nil {
		return m.GetByTokenFunc(ctx, token)
	}
	return nil, models.ErrNotFound
}

func (m *MockPasswordResetRepository) GetLatestByUser(ctx context.Context, userID string) (*models.PasswordReset, error) {
	if m.GetLatestByUserFunc != nil {
		return m.GetLatestByUserFunc(ctx, userID)
	}
	return nil, models.ErrNotFound
}

func (m *MockPasswordResetRepository) MarkUsed(ctx context.Context, id string) error {
	if m.MarkUsedFunc != nil {
		return m.MarkUsedFunc(ctx, id)
	}
	return nil
}

// MockTweetRepository implements TweetRepository for testing
type MockTweetRepository struct {
	CreateFunc       func(ctx context.Context, tweet *models.Tweet) (*models.Tweet, error)
	GetByIDFunc      func(ctx context.Context, id string) (*models.Tweet, error)
	DeleteFunc       func(ctx context.Context, id, authorID string) error
	ListPublicFunc   func(ctx context.Context, limit, offset int) ([]*models.Tweet, error)
	ListRepliesFunc  func(ctx context.Context, tweetID string) ([]*models.Tweet, error)
	ListByAuthorFunc func(ctx context.Context, authorID string, limit, offset int) ([]*models.Tweet, error)
	ListFeedFunc     func(ctx context.Context, userID string, limit, offset int) ([]*models.Tweet, error)
	LikeFunc         func(ctx context.Context, tweetID, userID string) error
	UnlikeFunc       func(ctx context.Context, tweetID, userID string) error
	HasLikedFunc     func(ctx context.Context, tweetID, userID string) (bool, error)
	GetRetweetFunc   func(ctx context.Context, originalTweetID, userID string) (*models.Tweet, error)
}

func (m *MockTweetRepository) Create(ctx context.Context, tweet *models.Tweet) (*models.Tweet, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tweet)
	}
	tweet.ID = "tweet-1"
	return tweet, nil
}

func (m *MockTweetRepository) GetByID(ctx context.Context, id string) (*models.Tweet, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockTweetRepository) Delete(ctx context.Context, id, authorID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id, authorID)
	}
	return nil
}

func (m *MockTweetRepository) ListPublic(ctx context.Context, limit, offset int) ([]*models.Tweet, error) {
	if m.ListPublicFunc != nil {
		return m.ListPublicFunc(ctx, limit, offset)
	}
	return []*models.Tweet{}, nil
}

func (m *MockTweetRepository) ListReplies(ctx context.Context, tweetID string) ([]*models.Tweet, error) {
	if m.ListRepliesFunc != nil {
		return m.ListRepliesFunc(ctx, tweetID)
	}
	return []*models.Tweet{}, nil
}

func (m *MockTweetRepository) ListByAuthor(ctx context.Context, authorID string, limit, offset int) ([]*models.Tweet, error) {
	if m.ListByAuthorFunc != nil {
		return m.ListByAuthorFunc(ctx, authorID, limit, offset)
	}
	return []*models.Tweet{}, nil
}

func (m *MockTweetRepository) ListFeed(ctx context.Context, userID string, limit, offset int) ([]*models.Tweet, error) {
	if m.ListFeedFunc != nil {
		return m.ListFeedFunc(ctx, userID, limit, offset)
	}
	return []*models.Tweet{}, nil
}

func (m *MockTweetRepository) Like(ctx context.Context, tweetID, userID string) error {
	if m.LikeFunc != nil {
		return m.LikeFunc(ctx, tweetID, userID)
	}
	return nil
}

func (m *MockTweetRepository) Unlike(ctx context.Context, tweetID, userID string) error {
	if m.UnlikeFunc != nil {
		return m.UnlikeFunc(ctx, tweetID, userID)
	}
	return nil
}

func (m *MockTweetRepository) HasLiked(ctx context.Context, tweetID, userID string) (bool, error) {
	if m.HasLikedFunc != nil {
		return m.HasLikedFunc(ctx, tweetID, userID)
	}
	return false, nil
}

func (m *MockTweetRepository) GetRetweet(ctx context.Context, originalTweetID, userID string) (*models.Tweet, error) {
	if m.GetRetweetFunc != nil {
		return m.GetRetweetFunc(ctx, originalTweetID, userID)
	}
	return nil, models.ErrNotFound
}

// MockFollowRepository implements FollowRepository for testing
type MockFollowRepository struct {
	FollowFunc        func(ctx context.Context, followerID, followeeID string) error
	UnfollowFunc      func(ctx context.Context, followerID, followeeID string) error
	IsFollowingFunc   func(ctx context.Context, followerID, followeeID string) (bool, error)
	CountsFunc        func(ctx context.Context, userID string) (int, int, error)
	ListFollowersFunc func(ctx context.Context, userID string, limit, offset int) ([]*models.User, error)
	ListFollowingFunc func(ctx context.Context, userID string, limit, offset int) ([]*models.User, error)
}

func (m *MockFollowRepository) Follow(ctx context.Context, followerID, followeeID string) error {
	if m.FollowFunc != nil {
		return m.FollowFunc(ctx, followerID, followeeID)
	}
	return nil
}

func (m *MockFollowRepository) Unfollow(ctx context.Context, followerID, followeeID string) error {
	if m.UnfollowFunc != nil {
		return m.UnfollowFunc(ctx, followerID, followeeID)
	}
	return nil
}

func (m *MockFollowRepository) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	if m.IsFollowingFunc != nil {
		return m.IsFollowingFunc(ctx, followerID, followeeID)
	}
	return false, nil
}

func (m *MockFollowRepository) Counts(ctx context.Context, userID string) (int, int, error) {
	if m.CountsFunc != nil {
		return m.CountsFunc(ctx, userID)
	}
	return 0, 0, nil
}

func (m *MockFollowRepository) ListFollowers(ctx context.Context, userID string, limit, offset int) ([]*models.User, error) {
	if m.ListFollowersFunc != nil {
		return m.ListFollowersFunc(ctx, userID, limit, offset)
	}
	return []*models.User{}, nil
}

func (m *MockFollowRepository) ListFollowing(ctx context.Context, userID string, limit, offset int) ([]*models.User, error) {
	if m.ListFollowingFunc != nil {
		return m.ListFollowingFunc(ctx, userID, limit, offset)
	}
	return []*models.User{}, nil
}
