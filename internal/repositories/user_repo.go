package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/finchsocial/finch/internal/database"
	"github.com/finchsocial/finch/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{pool: db.Pool}
}

// rowScanner interface for scanning rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const userColumns = `
	id, username, email, password_hash, name, bio, profile_picture, cover_picture,
	preferred_language, phone_number, phone_verified,
	require_otp_for_chrome, mobile_access_restricted, mobile_access_start_hour, mobile_access_end_hour,
	browser_otp_code, browser_otp_expires_at, browser_otp_browser, browser_otp_ip, browser_otp_device,
	language_otp_code, language_otp_expires_at, language_otp_channel,
	created_at, updated_at`

// scanUserRow handles the nullable single-slot OTP columns and populates a
// User model from a database row
func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User
	var browserOTPCode, browserOTPBrowser, browserOTPIP, browserOTPDevice *string
	var browserOTPExpires *time.Time
	var languageOTPCode, languageOTPChannel *string
	var languageOTPExpires *time.Time

	err := scanner.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Name,
		&user.Bio, &user.ProfilePicture, &user.CoverPicture,
		&user.PreferredLanguage, &user.PhoneNumber, &user.PhoneVerified,
		&user.Security.RequireOTPForChrome, &user.Security.MobileAccessRestricted,
		&user.Security.MobileAccessStartHour, &user.Security.MobileAccessEndHour,
		&browserOTPCode, &browserOTPExpires, &browserOTPBrowser, &browserOTPIP, &browserOTPDevice,
		&languageOTPCode, &languageOTPExpires, &languageOTPChannel,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if browserOTPCode != nil && browserOTPExpires != nil {
		otp := models.BrowserOTP{Code: *browserOTPCode, ExpiresAt: *browserOTPExpires}
		if browserOTPBrowser != nil {
			otp.Browser = *browserOTPBrowser
		}
		if browserOTPIP != nil {
			otp.IPAddress = *browserOTPIP
		}
		if browserOTPDevice != nil {
			otp.Device = *browserOTPDevice
		}
		user.BrowserOTP = &otp
	}

	if languageOTPCode != nil && languageOTPExpires != nil {
		otp := models.LanguageOTP{Code: *languageOTPCode, ExpiresAt: *languageOTPExpires}
		if languageOTPChannel != nil {
			otp.Channel = *languageOTPChannel
		}
		user.LanguageOTP = &otp
	}

	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, strings.ToLower(email)))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, strings.ToLower(username)))
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()
	user.Username = strings.ToLower(user.Username)
	user.Email = strings.ToLower(user.Email)

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if user.PreferredLanguage == "" {
		user.PreferredLanguage = "en"
	}
	user.Security = models.DefaultSecuritySettings()

	query := `
		INSERT INTO users (
			id, username, email, password_hash, name, preferred_language,
			require_otp_for_chrome, mobile_access_restricted, mobile_access_start_hour, mobile_access_end_hour,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.Name, user.PreferredLanguage,
		user.Security.RequireOTPForChrome, user.Security.MobileAccessRestricted,
		user.Security.MobileAccessStartHour, user.Security.MobileAccessEndHour,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return user, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET name = $2, bio = $3, profile_picture = $4, cover_picture = $5, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		user.ID, user.Name, user.Bio, user.ProfilePicture, user.CoverPicture)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, userID, passwordHash)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SetBrowserOTP stores the pending login step-up code, replacing any
// previous one.
func (r *UserRepository) SetBrowserOTP(ctx context.Context, userID string, otp *models.BrowserOTP) error {
	query := `
		UPDATE users
		SET browser_otp_code = $2, browser_otp_expires_at = $3,
		    browser_otp_browser = $4, browser_otp_ip = $5, browser_otp_device = $6,
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		userID, otp.Code, otp.ExpiresAt, otp.Browser, otp.IPAddress, otp.Device)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ClearBrowserOTP removes the pending login step-up code.
func (r *UserRepository) ClearBrowserOTP(ctx context.Context, userID string) error {
	query := `
		UPDATE users
		SET browser_otp_code = NULL, browser_otp_expires_at = NULL,
		    browser_otp_browser = NULL, browser_otp_ip = NULL, browser_otp_device = NULL,
		    updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query, userID)
	return database.MapPostgresError(err)
}

// SetLanguageOTP stores the pending language-change code, replacing any
// previous one.
func (r *UserRepository) SetLanguageOTP(ctx context.Context, userID string, otp *models.LanguageOTP) error {
	query := `
		UPDATE users
		SET language_otp_code = $2, language_otp_expires_at = $3, language_otp_channel = $4,
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, userID, otp.Code, otp.ExpiresAt, otp.Channel)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ClearLanguageOTP removes the pending language-change code.
func (r *UserRepository) ClearLanguageOTP(ctx context.Context, userID string) error {
	query := `
		UPDATE users
		SET language_otp_code = NULL, language_otp_expires_at = NULL, language_otp_channel = NULL,
		    updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query, userID)
	return database.MapPostgresError(err)
}

// SetLanguage commits the preferred language. markPhoneVerified is set when
// the change was confirmed over SMS.
func (r *UserRepository) SetLanguage(ctx context.Context, userID, language string, markPhoneVerified bool) error {
	query := `
		UPDATE users
		SET preferred_language = $2,
		    phone_verified = phone_verified OR $3,
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, userID, language, markPhoneVerified)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetPhoneNumber(ctx context.Context, userID, phone string) error {
	query := `UPDATE users SET phone_number = $2, phone_verified = FALSE, updated_at = NOW() WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, userID, phone)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdateSecuritySettings(ctx context.Context, userID string, s models.SecuritySettings) error {
	query := `
		UPDATE users
		SET require_otp_for_chrome = $2, mobile_access_restricted = $3,
		    mobile_access_start_hour = $4, mobile_access_end_hour = $5,
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		userID, s.RequireOTPForChrome, s.MobileAccessRestricted,
		s.MobileAccessStartHour, s.MobileAccessEndHour)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Search finds users whose username or name contains the query, case
// insensitive.
func (r *UserRepository) Search(ctx context.Context, query string, limit int) ([]*models.User, error) {
	sql := `SELECT ` + userColumns + `
		FROM users
		WHERE username ILIKE '%' || $1 || '%' OR name ILIKE '%' || $1 || '%'
		ORDER BY username
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, sql, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

// ClearExpiredOTPSlots nulls out expired single-slot OTPs across all users.
// Used by the background cleanup job.
func (r *UserRepository) ClearExpiredOTPSlots(ctx context.Context) (int64, error) {
	query := `
		UPDATE users
		SET browser_otp_code = CASE WHEN browser_otp_expires_at < NOW() THEN NULL ELSE browser_otp_code END,
		    browser_otp_expires_at = CASE WHEN browser_otp_expires_at < NOW() THEN NULL ELSE browser_otp_expires_at END,
		    language_otp_code = CASE WHEN language_otp_expires_at < NOW() THEN NULL ELSE language_otp_code END,
		    language_otp_expires_at = CASE WHEN language_otp_expires_at < NOW() THEN NULL ELSE language_otp_expires_at END
		WHERE browser_otp_expires_at < NOW() OR language_otp_expires_at < NOW()
	`

	tag, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired otp slots: %w", err)
	}
	return tag.RowsAffected(), nil
}
