package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/finchsocial/finch/internal/auth"
	"github.com/finchsocial/finch/internal/fingerprint"
	"github.com/finchsocial/finch/internal/models"
	"github.com/finchsocial/finch/internal/policy"
	pkgauth "github.com/finchsocial/finch/pkg/auth"
	pkglogger "github.com/finchsocial/finch/pkg/logger"
)

// LoginHistoryRepository defines the interface for login history operations
type LoginHistoryRepository interface {
	Append(ctx context.Context, entry *models.LoginHistoryEntry) error
	ListByUser(ctx context.Context, userID string) ([]*models.LoginHistoryEntry, error)
	SetLogoutTime(ctx context.Context, userID, sessionID string) error
}

// SessionRepository defines the interface for session operations
type SessionRepository interface {
	Upsert(ctx context.Context, session *models.Session) error
	GetByUser(ctx context.Context, userID string) (*models.Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// TrustedDeviceRepository defines the interface for trusted device operations
type TrustedDeviceRepository interface {
	Record(ctx context.Context, userID, fp, browser string) error
	IsTrusted(ctx context.Context, userID, fp string) (bool, error)
}

// GeoLocator resolves request IPs to locations for the login history.
type GeoLocator interface {
	Resolve(ip string) fingerprint.GeoInfo
}

// AuthService handles registration, login access decisions, and sessions
type AuthService struct {
	users       UserRepository
	history     LoginHistoryRepository
	sessions    SessionRepository
	trusted     TrustedDeviceRepository
	evaluator   *policy.Evaluator
	geo         GeoLocator
	email       EmailService
	tm          *auth.TokenManager
	otpExpiry   time.Duration
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	users UserRepository,
	history LoginHistoryRepository,
	sessions SessionRepository,
	trusted TrustedDeviceRepository,
	evaluator *policy.Evaluator,
	geo GeoLocator,
	email EmailService,
	tm *auth.TokenManager,
	otpExpiry time.Duration,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *AuthService {
	return &AuthService{
		users:       users,
		history:     history,
		sessions:    sessions,
		trusted:     trusted,
		evaluator:   evaluator,
		geo:         geo,
		email:       email,
		tm:          tm,
		otpExpiry:   otpExpiry,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// Login statuses returned to the client.
const (
	LoginStatusSuccess     = "success"
	LoginStatusOTPRequired = "otp_required"
	LoginStatusDenied      = "denied"
)

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	Email             string `json:"email"`
	Name              string `json:"name"`
	Bio               string `json:"bio"`
	ProfilePicture    string `json:"profile_picture"`
	CoverPicture      string `json:"cover_picture"`
	PreferredLanguage string `json:"preferred_language"`
	PhoneVerified     bool   `json:"phone_verified"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

// LoginResult represents the outcome of a login or OTP verification
type LoginResult struct {
	Status      string        `json:"status"`
	Message     string        `json:"message,omitempty"`
	AccessToken string        `json:"access_token,omitempty"`
	SessionID   string        `json:"session_id,omitempty"`
	Browser     string        `json:"browser,omitempty"`
	User        *UserResponse `json:"user,omitempty"`
}

func userModelToResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:                user.ID,
		Username:          user.Username,
		Email:             user.Email,
		Name:              user.Name,
		Bio:               user.Bio,
		ProfilePicture:    user.ProfilePicture,
		CoverPicture:      user.CoverPicture,
		PreferredLanguage: user.PreferredLanguage,
		PhoneVerified:     user.PhoneVerified,
		CreatedAt:         user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         user.UpdatedAt.Format(time.RFC3339),
	}
}

// Register creates an account and opens the first session. Registration is
// not subject to the browser step-up gate.
func (s *AuthService) Register(ctx context.Context, username, email, password, name string, info fingerprint.ClientInfo) (*LoginResult, error) {
	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, models.ErrBadRequest
	}

	passwordHash, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.users.Create(ctx, &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "register",
		UserID:    user.ID,
		IPAddress: info.IPAddress,
		Success:   true,
	})

	return s.openSession(ctx, user, info, false)
}

// Login authenticates credentials, then runs the access policy over the
// request fingerprint. The outcome is one of grant, step-up OTP, or denial.
func (s *AuthService) Login(ctx context.Context, email, password string, info fingerprint.ClientInfo) (*LoginResult, error) {
	if email = strings.ToLower(strings.TrimSpace(email)); email == "" {
		return nil, models.ErrUnauthorized
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login failed: invalid credentials")
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				IPAddress:     info.IPAddress,
				FailureReason: "invalid_credentials",
				Success:       false,
			})
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		s.logger.Info("login failed: invalid credentials")
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			IPAddress:     info.IPAddress,
			FailureReason: "invalid_credentials",
			Success:       false,
		})
		return nil, models.ErrUnauthorized
	}

	now := time.Now()
	decision := s.evaluator.Evaluate(info, user.Security, now)

	switch decision.Outcome {
	case policy.OutcomeDeny:
		s.appendHistory(ctx, user.ID, info, historyOutcome{
			denied: true, deniedReason: decision.DeniedReason,
		})
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_denied",
			UserID:        user.ID,
			IPAddress:     info.IPAddress,
			UserAgent:     info.UserAgent,
			FailureReason: "mobile_window_closed",
			Success:       false,
		})
		return &LoginResult{
			Status:  LoginStatusDenied,
			Message: decision.DeniedReason,
			Browser: string(info.Browser),
		}, nil

	case policy.OutcomeRequireOTP:
		return s.beginBrowserOTP(ctx, user, info, now)

	default:
		if decision.TrustDevice {
			fp := fingerprint.Hash(info.UserAgent, info.IPAddress)
			if err := s.trusted.Record(ctx, user.ID, fp, info.BrowserName); err != nil {
				s.logger.Warn("failed to record trusted device",
					slog.String("user_id", user.ID), slog.Any("error", err))
			}
		}
		return s.openSession(ctx, user, info, false)
	}
}

// beginBrowserOTP issues the step-up code, replacing any outstanding one.
func (s *AuthService) beginBrowserOTP(ctx context.Context, user *models.User, info fingerprint.ClientInfo, now time.Time) (*LoginResult, error) {
	code := GenerateOTPCode()

	otp := &models.BrowserOTP{
		Code:      code,
		ExpiresAt: now.Add(s.otpExpiry),
		Browser:   info.BrowserName,
		IPAddress: info.IPAddress,
		Device:    info.Device,
	}

	if err := s.users.SetBrowserOTP(ctx, user.ID, otp); err != nil {
		s.logger.Error("failed to store browser otp",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.email.SendLoginOTP(ctx, user.Email, code, info.BrowserName, info.IPAddress); err != nil {
		return nil, models.ErrInternalServer
	}

	s.appendHistory(ctx, user.ID, info, historyOutcome{requiresOTP: true})
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_otp_sent",
		UserID:    user.ID,
		IPAddress: info.IPAddress,
		Success:   true,
	})

	return &LoginResult{
		Status:  LoginStatusOTPRequired,
		Message: "a verification code has been sent to your email",
		Browser: string(info.Browser),
	}, nil
}

// VerifyBrowserOTP redeems the step-up code and opens the session. Codes are
// one-shot: success clears the slot, expiry clears the slot, a mismatch
// leaves it for another attempt.
func (s *AuthService) VerifyBrowserOTP(ctx context.Context, email, code string, info fingerprint.ClientInfo) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrOTPNotFound
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if user.BrowserOTP == nil {
		return nil, models.ErrOTPNotFound
	}

	if time.Now().After(user.BrowserOTP.ExpiresAt) {
		if err := s.users.ClearBrowserOTP(ctx, user.ID); err != nil {
			s.logger.Warn("failed to clear expired browser otp",
				slog.String("user_id", user.ID), slog.Any("error", err))
		}
		return nil, models.ErrOTPExpired
	}

	if user.BrowserOTP.Code != code {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_otp_failed",
			UserID:        user.ID,
			IPAddress:     info.IPAddress,
			FailureReason: "otp_mismatch",
			Success:       false,
		})
		return nil, models.ErrOTPMismatch
	}

	if err := s.users.ClearBrowserOTP(ctx, user.ID); err != nil {
		s.logger.Error("failed to clear browser otp",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return s.openSession(ctx, user, info, true)
}

// openSession creates the session, mints the token, and records history.
func (s *AuthService) openSession(ctx context.Context, user *models.User, info fingerprint.ClientInfo, otpVerified bool) (*LoginResult, error) {
	sessionID, err := fingerprint.NewSessionID()
	if err != nil {
		s.logger.Error("failed to generate session id", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	now := time.Now()
	session := &models.Session{
		UserID:       user.ID,
		SessionID:    sessionID,
		LoginTime:    now,
		IPAddress:    info.IPAddress,
		Browser:      info.BrowserName,
		Device:       info.Device,
		LastActivity: now,
	}

	if err := s.sessions.Upsert(ctx, session); err != nil {
		s.logger.Error("failed to store session",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	accessToken, err := s.tm.GenerateAccessToken(user.ID, user.Email, sessionID)
	if err != nil {
		s.logger.Error("failed to generate access token",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.appendHistory(ctx, user.ID, info, historyOutcome{
		granted: true, otpVerified: otpVerified, sessionID: sessionID,
	})
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		IPAddress: info.IPAddress,
		Success:   true,
	})

	return &LoginResult{
		Status:      LoginStatusSuccess,
		AccessToken: accessToken,
		SessionID:   sessionID,
		Browser:     string(info.Browser),
		User:        userModelToResponse(user),
	}, nil
}

type historyOutcome struct {
	granted      bool
	denied       bool
	deniedReason string
	requiresOTP  bool
	otpVerified  bool
	sessionID    string
}

// appendHistory records a login attempt. History write failures are logged
// but never fail the login itself.
func (s *AuthService) appendHistory(ctx context.Context, userID string, info fingerprint.ClientInfo, outcome historyOutcome) {
	geo := s.geo.Resolve(info.IPAddress)

	entry := &models.LoginHistoryEntry{
		UserID:         userID,
		LoginTime:      time.Now(),
		IPAddress:      info.IPAddress,
		BrowserName:    info.BrowserName,
		BrowserVersion: info.BrowserVersion,
		OSName:         info.OSName,
		OSVersion:      info.OSVersion,
		Device:         info.Device,
		Country:        geo.Country,
		City:           geo.City,
		Region:         geo.Region,
		Timezone:       geo.Timezone,
		AccessGranted:  outcome.granted,
		RequiresOTP:    outcome.requiresOTP || outcome.otpVerified,
		OTPVerified:    outcome.otpVerified,
		SessionID:      outcome.sessionID,
		UserAgent:      info.UserAgent,
	}
	if outcome.denied && outcome.deniedReason != "" {
		entry.DeniedReason = &outcome.deniedReason
	}

	if err := s.history.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append login history",
			slog.String("user_id", userID), slog.Any("error", err))
	}
}

// Me returns the authenticated user's profile.
func (s *AuthService) Me(ctx context.Context, userID string) (*UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return userModelToResponse(user), nil
}

// LoginHistoryResponse bundles past attempts with the current session.
type LoginHistoryResponse struct {
	Entries        []*models.LoginHistoryEntry `json:"entries"`
	CurrentSession *models.Session             `json:"current_session,omitempty"`
}

// LoginHistory returns the user's attempts newest first plus the live
// session, if any.
func (s *AuthService) LoginHistory(ctx context.Context, userID string) (*LoginHistoryResponse, error) {
	entries, err := s.history.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list login history",
			slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	resp := &LoginHistoryResponse{Entries: entries}

	session, err := s.sessions.GetByUser(ctx, userID)
	if err == nil {
		resp.CurrentSession = session
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Warn("failed to load current session",
			slog.String("user_id", userID), slog.Any("error", err))
	}

	return resp, nil
}

// Logout closes the session and backfills the logout timestamp on the
// matching history entry. An evicted entry loses its timestamp silently.
func (s *AuthService) Logout(ctx context.Context, userID, sessionID string) error {
	if err := s.history.SetLogoutTime(ctx, userID, sessionID); err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Warn("failed to set logout time",
				slog.String("user_id", userID), slog.Any("error", err))
		}
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.logger.Error("failed to delete session",
			slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "logout",
		UserID:    userID,
		Success:   true,
	})

	return nil
}
