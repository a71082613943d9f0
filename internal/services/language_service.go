package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/finchsocial/finch/internal/models"
)

// Language change channels.
const (
	LanguageChannelNone  = "none"
	LanguageChannelEmail = "email"
	LanguageChannelPhone = "phone"
)

// LanguageService handles preferred-language changes with channel-dependent
// verification: English applies immediately, French verifies over email,
// every other language verifies over SMS.
type LanguageService struct {
	users     UserRepository
	email     EmailService
	sms       SMSService
	otpExpiry time.Duration
	logger    *slog.Logger
}

// NewLanguageService creates a new LanguageService
func NewLanguageService(users UserRepository, email EmailService, sms SMSService, otpExpiry time.Duration, logger *slog.Logger) *LanguageService {
	return &LanguageService{
		users:     users,
		email:     email,
		sms:       sms,
		otpExpiry: otpExpiry,
		logger:    logger,
	}
}

// ChangeResult reports how a language change request was handled.
type ChangeResult struct {
	Applied bool   `json:"applied"`
	Channel string `json:"channel"`
	Message string `json:"message"`
}

func channelFor(language string) string {
	switch language {
	case "en":
		return LanguageChannelNone
	case "fr":
		return LanguageChannelEmail
	default:
		return LanguageChannelPhone
	}
}

// RequestChange starts a language change. Depending on the target language
// it either applies immediately or issues a verification code.
func (s *LanguageService) RequestChange(ctx context.Context, userID, language string) (*ChangeResult, error) {
	if !models.IsValidLanguage(language) {
		return nil, models.ErrBadRequest
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	channel := channelFor(language)

	if channel == LanguageChannelNone {
		if err := s.users.SetLanguage(ctx, userID, language, false); err != nil {
			s.logger.Error("failed to set language",
				slog.String("user_id", userID), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		return &ChangeResult{
			Applied: true,
			Channel: channel,
			Message: "language updated",
		}, nil
	}

	if channel == LanguageChannelPhone && !IsValidPhoneNumber(user.PhoneNumber) {
		return nil, models.ErrBadRequest
	}

	code := GenerateOTPCode()
	otp := &models.LanguageOTP{
		Code:      code,
		ExpiresAt: time.Now().Add(s.otpExpiry),
		Channel:   channel,
	}

	if err := s.users.SetLanguageOTP(ctx, userID, otp); err != nil {
		s.logger.Error("failed to store language otp",
			slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	switch channel {
	case LanguageChannelEmail:
		err = s.email.SendLanguageOTP(ctx, user.Email, code, language)
	case LanguageChannelPhone:
		err = s.sms.SendLanguageOTP(ctx, user.PhoneNumber, code, language)
	}
	if err != nil {
		return nil, models.ErrInternalServer
	}

	return &ChangeResult{
		Applied: false,
		Channel: channel,
		Message: "a verification code has been sent",
	}, nil
}

// VerifyChange redeems the pending code and commits the language. A change
// confirmed over SMS also marks the phone number verified.
func (s *LanguageService) VerifyChange(ctx context.Context, userID, language, code string) (*ChangeResult, error) {
	if !models.IsValidLanguage(language) {
		return nil, models.ErrBadRequest
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if user.LanguageOTP == nil {
		return nil, models.ErrOTPNotFound
	}

	if time.Now().After(user.LanguageOTP.ExpiresAt) {
		if err := s.users.ClearLanguageOTP(ctx, userID); err != nil {
			s.logger.Warn("failed to clear expired language otp",
				slog.String("user_id", userID), slog.Any("error", err))
		}
		return nil, models.ErrOTPExpired
	}

	if user.LanguageOTP.Code != code {
		return nil, models.ErrOTPMismatch
	}

	viaSMS := user.LanguageOTP.Channel == LanguageChannelPhone

	if err := s.users.ClearLanguageOTP(ctx, userID); err != nil {
		s.logger.Error("failed to clear language otp",
			slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.users.SetLanguage(ctx, userID, language, viaSMS); err != nil {
		s.logger.Error("failed to set language",
			slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &ChangeResult{
		Applied: true,
		Channel: user.LanguageOTP.Channel,
		Message: "language updated",
	}, nil
}
