package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/finchsocial/finch/internal/models"
)

// OTPRepository defines the interface for standalone OTP persistence
type OTPRepository interface {
	Create(ctx context.Context, otp *models.OTP) (*models.OTP, error)
	GetByID(ctx context.Context, id string) (*models.OTP, error)
	GetPending(ctx context.Context, userID, purpose string) (*models.OTP, error)
	MarkVerified(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// OTPService issues and redeems the standalone audio-upload codes. A
// verified row becomes a one-shot capability keyed by its id.
type OTPService struct {
	otps      OTPRepository
	users     UserRepository
	email     EmailService
	otpExpiry time.Duration
	logger    *slog.Logger
}

// NewOTPService creates a new OTPService
func NewOTPService(otps OTPRepository, users UserRepository, email EmailService, otpExpiry time.Duration, logger *slog.Logger) *OTPService {
	return &OTPService{
		otps:      otps,
		users:     users,
		email:     email,
		otpExpiry: otpExpiry,
		logger:    logger,
	}
}

// RequestAudioUploadOTP issues a fresh code over email, superseding any
// outstanding one.
func (s *OTPService) RequestAudioUploadOTP(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.Any("error", err))
		return models.ErrInternalServer
	}

	code := GenerateOTPCode()

	_, err = s.otps.Create(ctx, &models.OTP{
		UserID:    userID,
		Email:     user.Email,
		Code:      code,
		Purpose:   models.OTPPurposeAudioUpload,
		ExpiresAt: time.Now().Add(s.otpExpiry),
	})
	if err != nil {
		s.logger.Error("failed to store otp",
			slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.email.SendAudioUploadOTP(ctx, user.Email, code); err != nil {
		return models.ErrInternalServer
	}

	return nil
}

// VerifyAudioUploadOTP checks the code and returns the capability id the
// upload endpoint will redeem.
func (s *OTPService) VerifyAudioUploadOTP(ctx context.Context, userID, code string) (string, error) {
	otp, err := s.otps.GetPending(ctx, userID, models.OTPPurposeAudioUpload)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", models.ErrOTPNotFound
		}
		s.logger.Error("failed to get pending otp", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	now := time.Now()
	if now.After(otp.ExpiresAt) {
		if err := s.otps.Delete(ctx, otp.ID); err != nil && !errors.Is(err, models.ErrOTPNotFound) {
			s.logger.Warn("failed to delete expired otp", slog.Any("error", err))
		}
		return "", models.ErrOTPExpired
	}

	if otp.Verified {
		// Idempotent: re-verifying an already verified code returns its id.
		if otp.Code == code {
			return otp.ID, nil
		}
		return "", models.ErrOTPMismatch
	}

	if otp.Code != code {
		return "", models.ErrOTPMismatch
	}

	if err := s.otps.MarkVerified(ctx, otp.ID); err != nil {
		s.logger.Error("failed to mark otp verified", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	return otp.ID, nil
}

// CheckAudioUploadOTP reports whether the capability id is still redeemable.
// Checking does not consume it.
func (s *OTPService) CheckAudioUploadOTP(ctx context.Context, userID, otpID string) (bool, error) {
	otp, err := s.otps.GetByID(ctx, otpID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		s.logger.Error("failed to get otp", slog.Any("error", err))
		return false, models.ErrInternalServer
	}

	if otp.UserID != userID {
		return false, nil
	}
	return otp.Redeemable(time.Now()), nil
}

// RedeemAudioUploadOTP consumes a verified capability. The row is deleted so
// redemption can only happen once.
func (s *OTPService) RedeemAudioUploadOTP(ctx context.Context, userID, otpID string) error {
	otp, err := s.otps.GetByID(ctx, otpID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrOTPNotFound
		}
		s.logger.Error("failed to get otp", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if otp.UserID != userID {
		return models.ErrOTPNotFound
	}
	if !otp.Redeemable(time.Now()) {
		if otp.Verified {
			return models.ErrOTPExpired
		}
		return models.ErrOTPNotFound
	}

	if err := s.otps.Delete(ctx, otp.ID); err != nil {
		if errors.Is(err, models.ErrOTPNotFound) {
			// Lost a concurrent redemption.
			return models.ErrOTPNotFound
		}
		s.logger.Error("failed to delete otp", slog.Any("error", err))
		return models.ErrInternalServer
	}

	return nil
}
