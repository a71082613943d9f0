package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
	Email    EmailConfig
	SMS      SMSConfig
	Payment  PaymentConfig
	Storage  StorageConfig
	Geo      GeoConfig
	Windows  WindowConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

type AuthConfig struct {
	JWTSecret       string
	TokenExpiry     time.Duration
	OTPExpiry       time.Duration
	ResetExpiry     time.Duration
	CleanupInterval time.Duration
}

type EmailConfig struct {
	AWSRegion    string
	FromAddress  string
	ResetURLBase string
}

type SMSConfig struct {
	TwilioAccountSID string
	TwilioAuthToken  string
	FromNumber       string
}

type PaymentConfig struct {
	RazorpayKeyID     string
	RazorpayKeySecret string
	Currency          string
	ValidityDays      int
}

type StorageConfig struct {
	AWSRegion string
	Bucket    string
}

type GeoConfig struct {
	MMDBPath string // optional; lookups degrade to "Unknown" without it
}

// WindowConfig holds the clock-hour policy windows, all evaluated in
// Timezone (Asia/Kolkata by default).
type WindowConfig struct {
	Timezone         string
	PaymentHour      int // payment allowed in [PaymentHour, PaymentHour+1)
	AudioUploadStart int
	AudioUploadEnd   int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "finch"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
		},
		Auth: AuthConfig{
			JWTSecret:       jwtSecret,
			TokenExpiry:     getEnvAsDuration("TOKEN_EXPIRY", 7*24*time.Hour),
			OTPExpiry:       getEnvAsDuration("OTP_EXPIRY", 10*time.Minute),
			ResetExpiry:     getEnvAsDuration("RESET_EXPIRY", 24*time.Hour),
			CleanupInterval: getEnvAsDuration("CLEANUP_INTERVAL", 1*time.Hour),
		},
		Email: EmailConfig{
			AWSRegion:    getEnv("AWS_REGION", "ap-south-1"),
			FromAddress:  getEnv("EMAIL_FROM", "Finch <no-reply@finch.social>"),
			ResetURLBase: getEnv("RESET_URL_BASE", "http://localhost:3000/reset-password"),
		},
		SMS: SMSConfig{
			TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
			TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
			FromNumber:       getEnv("TWILIO_PHONE_NUMBER", ""),
		},
		Payment: PaymentConfig{
			RazorpayKeyID:     getEnv("RAZORPAY_KEY_ID", ""),
			RazorpayKeySecret: getEnv("RAZORPAY_KEY_SECRET", ""),
			Currency:          getEnv("PAYMENT_CURRENCY", "INR"),
			ValidityDays:      getEnvAsInt("PLAN_VALIDITY_DAYS", 30),
		},
		Storage: StorageConfig{
			AWSRegion: getEnv("AWS_REGION", "ap-south-1"),
			Bucket:    getEnv("S3_BUCKET", "finch-media"),
		},
		Geo: GeoConfig{
			MMDBPath: getEnv("GEOIP_MMDB_PATH", ""),
		},
		Windows: WindowConfig{
			Timezone:         getEnv("POLICY_TIMEZONE", "Asia/Kolkata"),
			PaymentHour:      getEnvAsInt("PAYMENT_HOUR", 11),
			AudioUploadStart: getEnvAsInt("AUDIO_UPLOAD_START_HOUR", 14),
			AudioUploadEnd:   getEnvAsInt("AUDIO_UPLOAD_END_HOUR", 19),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	if _, err := time.LoadLocation(cfg.Windows.Timezone); err != nil {
		return nil, fmt.Errorf("invalid POLICY_TIMEZONE %q: %w", cfg.Windows.Timezone, err)
	}

	return cfg, nil
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Location resolves the policy timezone. Load has already validated it.
func (c *WindowConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		originsStr := getEnv("ALLOWED_ORIGINS", "")
		if originsStr == "" {
			return []string{}
		}
		origins := strings.Split(originsStr, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		return origins
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
}
