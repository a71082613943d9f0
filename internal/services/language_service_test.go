package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/finchsocial/finch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLanguageService(users *MockUserRepository, email *MockEmailService, sms *MockSMSService) *LanguageService {
	if users == nil {
		users = &MockUserRepository{}
	}
	if email == nil {
		email = &MockEmailService{}
	}
	if sms == nil {
		sms = &MockSMSService{}
	}
	return NewLanguageService(users, email, sms, 10*time.Minute, slog.Default())
}

func TestLanguageService_RequestChange_EnglishImmediate(t *testing.T) {
	var setLanguage string
	mockUserRepo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Email: "user@example.com", PreferredLanguage: "fr"}, nil
		},
		SetLanguageFunc: func(ctx context.Context, userID, language string, markPhoneVerified bool) error {
			setLanguage = language
			assert.False(t, markPhoneVerified)
			return nil
		},
	}

	svc := newTestLanguageService(mockUserRepo, nil, nil)

	result, err := svc.RequestChange(context.Background(), "user123", "en")

	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, LanguageChannelNone, result.Channel)
	assert.Equal(t, "en", setLanguage)
}

func TestLanguageService_RequestChange_FrenchViaEmail(t *testing.T) {
	var storedOTP *models.LanguageOTP
	mockUserRepo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Email: "user@example.com"}, nil
		},
		SetLanguageOTPFunc: func(ctx context.Context, userID string, otp *models.LanguageOTP) error {
			storedOTP = otp
			return nil
		},
	}

	var sentCode string
	mockEmail := &MockEmailService{
		SendLanguageOTPFunc: func(ctx context.Context, email, code, language string) error {
			sentCode = code
			return nil
		},
	}

	svc := newTestLanguageService(mockUserRepo, mockEmail, nil)

	result, err := svc.RequestChange(context.Background(), "user123", "fr")

	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, LanguageChannelEmail, result.Channel)

	require.NotNil(t, storedOTP)
	assert.Equal(t, LanguageChannelEmail, storedOTP.Channel)
	assert.Equal(t, storedOTP.Code, sentCode)
}

func TestLanguageService_RequestChange_OtherViaSMS(t *testing.T) {
	mockUserRepo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Email: "user@example.com", PhoneNumber: "+919876543210"}, nil
		},
	}

	var sentPhone string
	mockSMS := &MockSMSService{
		SendLanguageOTPFunc: func(ctx context.Context, phone, code, language string) error {
			sentPhone = phone
			return nil
		},
	}

	svc := newTestLanguageService(mockUserRepo, nil, mockSMS)

	result, err := svc.RequestChange(context.Background(), "user123", "hi")

	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, LanguageChannelPhone, result.Channel)
	assert.Equal(t, "+919876543210", sentPhone)
}

func TestLanguageService_RequestChange_SMSWithoutPhone(t *testing.T) {
	mockUserRepo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Email: "user@example.com"}, nil
		},
	}

	svc := newTestLanguageService(mockUserRepo, nil, nil)

	result, err := svc.RequestChange(context.Background(), "user123", "hi")

	assert.ErrorIs(t, err, models.ErrBadRequest)
	assert.Nil(t, result)
}

func TestLanguageService_RequestChange_UnsupportedLanguage(t *testing.T) {
	svc := newTestLanguageService(nil, nil, nil)

	result, err := svc.RequestChange(context.Background(), "user123", "xx")

	assert.ErrorIs(t, err, models.ErrBadRequest)
	assert.Nil(t, result)
}

func TestLanguageService_VerifyChange_SMSMarksPhoneVerified(t *testing.T) {
	user := &models.User{
		ID:          "user123",
		PhoneNumber: "+919876543210",
		LanguageOTP: &models.LanguageOTP{
			Code:      "123456",
			ExpiresAt: time.Now().Add(5 * time.Minute),
			Channel:   LanguageChannelPhone,
		},
	}

	cleared := false
	var markedVerified bool
	mockUserRepo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
		ClearLanguageOTPFunc: func(ctx context.Context, userID string) error {
			cleared = true
			return nil
		},
		SetLanguageFunc: func(ctx context.Context, userID, language string, markPhoneVerified bool) error {
			markedVerified = markPhoneVerified
			return nil
		},
	}

	svc := newTestLanguageService(mockUserRepo, nil, nil)

	result, err := svc.VerifyChange(context.Background(), "user123", "hi", "123456")

	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.True(t, cleared)
	assert.True(t, markedVerified)
}

func TestLanguageService_VerifyChange_EmailDoesNotTouchPhone(t *testing.T) {
	user := &models.User{
		ID: "user123",
		LanguageOTP: &models.LanguageOTP{
			Code:      "123456",
			ExpiresAt: time.Now().Add(5 * time.Minute),
			Channel:   LanguageChannelEmail,
		},
	}

	var markedVerified bool
	mockUserRepo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
		SetLanguageFunc: func(ctx context.Context, userID, language string, markPhoneVerified bool) error {
			markedVerified = markPhoneVerified
			return nil
		},
	}

	svc := newTestLanguageService(mockUserRepo, nil, nil)

	result, err := svc.VerifyChange(context.Background(), "user123", "fr", "123456")

	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.False(t, markedVerified)
}

func TestLanguageService_VerifyChange_Mismatch(t *testing.T) {
	user := &models.User{
		ID: "user123",
		LanguageOTP: &models.LanguageOTP{
			Code:      "123456",
			ExpiresAt: time.Now().Add(5 * time.Minute),
			Channel:   LanguageChannelEmail,
		},
	}

	cleared := false
	mockUserRepo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
		ClearLanguageOTPFunc: func(ctx context.Context, userID string) error {
			cleared = true
			return nil
		},
	}

	svc := newTestLanguageService(mockUserRepo, nil, nil)

	result, err := svc.VerifyChange(context.Background(), "user123", "fr", "654321")

	assert.ErrorIs(t, err, models.ErrOTPMismatch)
	assert.Nil(t, result)
	assert.False(t, cleared)
}

func TestLanguageService_VerifyChange_Expired(t *testing.T) {
	user := &models.User{
		ID: "user123",
		LanguageOTP: &models.LanguageOTP{
			Code:      "123456",
			ExpiresAt: time.Now().Add(-time.Minute),
			Channel:   LanguageChannelEmail,
		},
	}

	cleared := false
	mockUserRepo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
		ClearLanguageOTPFunc: func(ctx context.Context, userID string) error {
			cleared = true
			return nil
		},
	}

	svc := newTestLanguageService(mockUserRepo, nil, nil)

	result, err := svc.VerifyChange(context.Background(), "user123", "fr", "123456")

	assert.ErrorIs(t, err, models.ErrOTPExpired)
	assert.Nil(t, result)
	assert.True(t, cleared)
}

func TestLanguageService_VerifyChange_NoPending(t *testing.T) {
	mockUserRepo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id}, nil
		},
	}

	svc := newTestLanguageService(mockUserRepo, nil, nil)

	result, err := svc.VerifyChange(context.Background(), "user123", "fr", "123456")

	assert.ErrorIs(t, err, models.ErrOTPNotFound)
	assert.Nil(t, result)
}
