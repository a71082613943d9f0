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

func newTestOTPService(otps *MockOTPRepository, users *MockUserRepository, email *MockEmailService) *OTPService {
	if otps == nil {
		otps = &MockOTPRepository{}
	}
	if users == nil {
		users = &MockUserRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
				return &models.User{ID: id, Email: "user@example.com"}, nil
			},
		}
	}
	if email == nil {
		email = &MockEmailService{}
	}
	return NewOTPService(otps, users, email, 10*time.Minute, slog.Default())
}

func TestOTPService_RequestAudioUploadOTP_Success(t *testing.T) {
	var stored *models.OTP
	mockOTPs := &MockOTPRepository{
		CreateFunc: func(ctx context.Context, otp *models.OTP) (*models.OTP, error) {
			otp.ID = "otp-1"
			stored = otp
			return otp, nil
		},
	}

	var sentCode string
	mockEmail := &MockEmailService{
		SendAudioUploadOTPFunc: func(ctx context.Context, email, code string) error {
			sentCode = code
			return nil
		},
	}

	svc := newTestOTPService(mockOTPs, nil, mockEmail)

	err := svc.RequestAudioUploadOTP(context.Background(), "user123")

	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.OTPPurposeAudioUpload, stored.Purpose)
	assert.Len(t, stored.Code, 6)
	assert.Equal(t, stored.Code, sentCode)
	assert.False(t, stored.Verified)
}

func TestOTPService_VerifyAudioUploadOTP_Success(t *testing.T) {
	marked := false
	mockOTPs := &MockOTPRepository{
		GetPendingFunc: func(ctx context.Context, userID, purpose string) (*models.OTP, error) {
			return &models.OTP{ID: "otp-1", UserID: userID, Code: "123456", Purpose: purpose, ExpiresAt: time.Now().Add(5 * time.Minute)}, nil
		},
		MarkVerifiedFunc: func(ctx context.Context, id string) error {
			marked = true
			return nil
		},
	}

	svc := newTestOTPService(mockOTPs, nil, nil)

	otpID, err := svc.VerifyAudioUploadOTP(context.Background(), "user123", "123456")

	require.NoError(t, err)
	assert.Equal(t, "otp-1", otpID)
	assert.True(t, marked)
}

func TestOTPService_VerifyAudioUploadOTP_Mismatch(t *testing.T) {
	mockOTPs := &MockOTPRepository{
		GetPendingFunc: func(ctx context.Context, userID, purpose string) (*models.OTP, error) {
			return &models.OTP{ID: "otp-1", UserID: userID, Code: "123456", ExpiresAt: time.Now().Add(5 * time.Minute)}, nil
		},
	}

	svc := newTestOTPService(mockOTPs, nil, nil)

	otpID, err := svc.VerifyAudioUploadOTP(context.Background(), "user123", "654321")

	assert.ErrorIs(t, err, models.ErrOTPMismatch)
	assert.Empty(t, otpID)
}

func TestOTPService_VerifyAudioUploadOTP_Expired(t *testing.T) {
	deleted := false
	mockOTPs := &MockOTPRepository{
		GetPendingFunc: func(ctx context.Context, userID, purpose string) (*models.OTP, error) {
			return &models.OTP{ID: "otp-1", UserID: userID, Code: "123456", ExpiresAt: time.Now().Add(-time.Minute)}, nil
		},
		DeleteFunc: func(ctx context.Context, id string) error {
			deleted = true
			return nil
		},
	}

	svc := newTestOTPService(mockOTPs, nil, nil)

	otpID, err := svc.VerifyAudioUploadOTP(context.Background(), "user123", "123456")

	assert.ErrorIs(t, err, models.ErrOTPExpired)
	assert.Empty(t, otpID)
	assert.True(t, deleted)
}

func TestOTPService_VerifyAudioUploadOTP_AlreadyVerifiedIdempotent(t *testing.T) {
	mockOTPs := &MockOTPRepository{
		GetPendingFunc: func(ctx context.Context, userID, purpose string) (*models.OTP, error) {
			return &models.OTP{ID: "otp-1", UserID: userID, Code: "123456", Verified: true, ExpiresAt: time.Now().Add(5 * time.Minute)}, nil
		},
	}

	svc := newTestOTPService(mockOTPs, nil, nil)

	otpID, err := svc.VerifyAudioUploadOTP(context.Background(), "user123", "123456")

	require.NoError(t, err)
	assert.Equal(t, "otp-1", otpID)
}

func TestOTPService_VerifyAudioUploadOTP_NoPending(t *testing.T) {
	svc := newTestOTPService(nil, nil, nil)

	otpID, err := svc.VerifyAudioUploadOTP(context.Background(), "user123", "123456")

	assert.ErrorIs(t, err, models.ErrOTPNotFound)
	assert.Empty(t, otpID)
}

func TestOTPService_CheckAudioUploadOTP(t *testing.T) {
	tests := []struct {
		name string
		otp  *models.OTP
		want bool
	}{
		{
			name: "verified and fresh",
			otp:  &models.OTP{ID: "otp-1", UserID: "user123", Verified: true, ExpiresAt: time.Now().Add(time.Minute)},
			want: true,
		},
		{
			name: "not yet verified",
			otp:  &models.OTP{ID: "otp-1", UserID: "user123", ExpiresAt: time.Now().Add(time.Minute)},
			want: false,
		},
		{
			name: "verified but expired",
			otp:  &models.OTP{ID: "otp-1", UserID: "user123", Verified: true, ExpiresAt: time.Now().Add(-time.Minute)},
			want: false,
		},
		{
			name: "someone else's code",
			otp:  &models.OTP{ID: "otp-1", UserID: "other", Verified: true, ExpiresAt: time.Now().Add(time.Minute)},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockOTPs := &MockOTPRepository{
				GetByIDFunc: func(ctx context.Context, id string) (*models.OTP, error) {
					return tt.otp, nil
				},
			}

			svc := newTestOTPService(mockOTPs, nil, nil)

			ok, err := svc.CheckAudioUploadOTP(context.Background(), "user123", "otp-1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestOTPService_RedeemAudioUploadOTP_ConsumesRow(t *testing.T) {
	deleted := false
	mockOTPs := &MockOTPRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.OTP, error) {
			return &models.OTP{ID: id, UserID: "user123", Verified: true, ExpiresAt: time.Now().Add(time.Minute)}, nil
		},
		DeleteFunc: func(ctx context.Context, id string) error {
			deleted = true
			return nil
		},
	}

	svc := newTestOTPService(mockOTPs, nil, nil)

	err := svc.RedeemAudioUploadOTP(context.Background(), "user123", "otp-1")

	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestOTPService_RedeemAudioUploadOTP_NotVerified(t *testing.T) {
	mockOTPs := &MockOTPRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.OTP, error) {
			return &models.OTP{ID: id, UserID: "user123", ExpiresAt: time.Now().Add(time.Minute)}, nil
		},
	}

	svc := newTestOTPService(mockOTPs, nil, nil)

	err := svc.RedeemAudioUploadOTP(context.Background(), "user123", "otp-1")
	assert.ErrorIs(t, err, models.ErrOTPNotFound)
}

func TestOTPService_RedeemAudioUploadOTP_LostConcurrentRedeem(t *testing.T) {
	mockOTPs := &MockOTPRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.OTP, error) {
			return &models.OTP{ID: id, UserID: "user123", Verified: true, ExpiresAt: time.Now().Add(time.Minute)}, nil
		},
		DeleteFunc: func(ctx context.Context, id string) error {
			return models.ErrOTPNotFound
		},
	}

	svc := newTestOTPService(mockOTPs, nil, nil)

	err := svc.RedeemAudioUploadOTP(context.Background(), "user123", "otp-1")
	assert.ErrorIs(t, err, models.ErrOTPNotFound)
}
