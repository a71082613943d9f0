package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/finchsocial/finch/internal/models"
	pkgauth "github.com/finchsocial/finch/pkg/auth"
	pkglogger "github.com/finchsocial/finch/pkg/logger"
)

// PasswordResetRepository defines the interface for reset persistence
type PasswordResetRepository interface {
	Create(ctx context.Context, reset *models.PasswordReset) (*models.PasswordReset, error)
	GetByToken(ctx context.Context, token string) (*models.PasswordReset, error)
	GetLatestByUser(ctx context.Context, userID string) (*models.PasswordReset, error)
	MarkUsed(ctx context.Context, id string) error
}

// PasswordResetService enforces the once-per-calendar-day reset policy.
type PasswordResetService struct {
	users       UserRepository
	resets      PasswordResetRepository
	email       EmailService
	resetExpiry time.Duration
	baseURL     string
	loc         *time.Location
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewPasswordResetService creates a new PasswordResetService
func NewPasswordResetService(
	users UserRepository,
	resets PasswordResetRepository,
	email EmailService,
	resetExpiry time.Duration,
	baseURL string,
	loc *time.Location,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *PasswordResetService {
	if loc == nil {
		loc = time.UTC
	}
	return &PasswordResetService{
		users:       users,
		resets:      resets,
		email:       email,
		resetExpiry: resetExpiry,
		baseURL:     baseURL,
		loc:         loc,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// RequestResult reports the outcome of a reset request. CanRetry and
// NextRetryTime are set only when the daily limit blocks the request.
type RequestResult struct {
	Message       string     `json:"message"`
	CanRetry      *bool      `json:"can_retry,omitempty"`
	NextRetryTime *time.Time `json:"next_retry_time,omitempty"`
}

// sameCalendarDay reports whether a and b fall on the same day in loc.
func sameCalendarDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// RequestReset issues a reset token and a generated fallback password. The
// generated password replaces the account password immediately so the email
// alone is sufficient to regain access.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) (*RequestResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Enumeration-safe: report success without doing anything.
			return &RequestResult{Message: "a reset email has been sent"}, nil
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	now := time.Now()

	latest, err := s.resets.GetLatestByUser(ctx, user.ID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to get latest reset",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if latest != nil && sameCalendarDay(latest.CreatedAt, now, s.loc) {
		local := now.In(s.loc)
		next := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc).AddDate(0, 0, 1)
		canRetry := false
		return &RequestResult{
			Message:       "you can only request one password reset per day",
			CanRetry:      &canRetry,
			NextRetryTime: &next,
		}, models.ErrResetAlreadyRequested
	}

	token, err := pkgauth.GenerateResetToken()
	if err != nil {
		s.logger.Error("failed to generate reset token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	generated, err := pkgauth.GenerateReadablePassword()
	if err != nil {
		s.logger.Error("failed to generate password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	generatedHash, err := pkgauth.HashPassword(generated)
	if err != nil {
		s.logger.Error("failed to hash generated password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.users.UpdatePassword(ctx, user.ID, generatedHash); err != nil {
		s.logger.Error("failed to update password",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	reset := &models.PasswordReset{
		UserID:            user.ID,
		Email:             user.Email,
		ResetToken:        token,
		GeneratedPassword: generated,
		ExpiresAt:         now.Add(s.resetExpiry),
	}
	if _, err := s.resets.Create(ctx, reset); err != nil {
		s.logger.Error("failed to store reset",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token)
	if err := s.email.SendPasswordReset(ctx, user.Email, resetLink, generated); err != nil {
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogPasswordChange(user.ID, "", true)

	return &RequestResult{Message: "a reset email has been sent"}, nil
}

// VerifyToken reports whether a reset token can still be redeemed.
func (s *PasswordResetService) VerifyToken(ctx context.Context, token string) (bool, error) {
	reset, err := s.resets.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		s.logger.Error("failed to get reset by token", slog.Any("error", err))
		return false, models.ErrInternalServer
	}
	return reset.Valid(time.Now()), nil
}

// AvailabilityResult reports whether the user may request a reset today.
type AvailabilityResult struct {
	Available     bool       `json:"available"`
	NextRetryTime *time.Time `json:"next_retry_time,omitempty"`
}

// CheckAvailability reports whether a reset can be requested now. Unknown
// emails read as available to avoid account enumeration.
func (s *PasswordResetService) CheckAvailability(ctx context.Context, email string) (*AvailabilityResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return &AvailabilityResult{Available: true}, nil
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	latest, err := s.resets.GetLatestByUser(ctx, user.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return &AvailabilityResult{Available: true}, nil
		}
		s.logger.Error("failed to get latest reset",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	now := time.Now()
	if sameCalendarDay(latest.CreatedAt, now, s.loc) {
		local := now.In(s.loc)
		next := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc).AddDate(0, 0, 1)
		return &AvailabilityResult{Available: false, NextRetryTime: &next}, nil
	}
	return &AvailabilityResult{Available: true}, nil
}

// ConfirmReset redeems the token and sets the chosen password.
func (s *PasswordResetService) ConfirmReset(ctx context.Context, token, newPassword string) error {
	reset, err := s.resets.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get reset by token", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if !reset.Valid(time.Now()) {
		return models.ErrBadRequest
	}

	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return models.ErrBadRequest
	}

	hash, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.users.UpdatePassword(ctx, reset.UserID, hash); err != nil {
		s.logger.Error("failed to update password",
			slog.String("user_id", reset.UserID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.resets.MarkUsed(ctx, reset.ID); err != nil {
		s.logger.Error("failed to mark reset used",
			slog.String("reset_id", reset.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogPasswordChange(reset.UserID, "", true)

	return nil
}
