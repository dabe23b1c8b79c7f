package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	ETimeTrack ETimeTrackConfig
	Sync       SyncConfig
	Shift      ShiftConfig
	Identity   IdentityConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

// ETimeTrackConfig holds the biometric vendor credentials.
type ETimeTrackConfig struct {
	BaseURL  string
	CorpID   string
	Username string
	Password string
	// Timezone is the wall clock the terminal reports in.
	Timezone string
	// EmployeeFilter narrows the feed to specific codes; empty means all.
	EmployeeFilter string
}

// SyncConfig holds the orchestrator knobs.
type SyncConfig struct {
	Interval   time.Duration
	MaxRetries int
	RetryDelay time.Duration
	RunTimeout time.Duration
}

// ShiftConfig holds the lateness parameters, expressed in the vendor
// timezone's wall clock.
type ShiftConfig struct {
	StartHour    int
	StartMinute  int
	GraceMinutes int
}

// IdentityConfig holds the fuzzy-match thresholds.
type IdentityConfig struct {
	AutoMapThreshold float64
	ReviewFloor      float64
}

func Load() (*Config, error) {
	// Missing .env is fine; environment variables still apply.
	_ = godotenv.Load()

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "attendance_sync"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Biometric vendor configuration
	config.ETimeTrack = ETimeTrackConfig{
		BaseURL:        getEnv("ETIMETRACK_BASE_URL", ""),
		CorpID:         getEnv("ETIMETRACK_CORP_ID", ""),
		Username:       getEnv("ETIMETRACK_USERNAME", ""),
		Password:       getEnv("ETIMETRACK_PASSWORD", ""),
		Timezone:       getEnv("VENDOR_TIMEZONE", "Asia/Kolkata"),
		EmployeeFilter: getEnv("ETIMETRACK_EMPLOYEE_FILTER", ""),
	}

	// Sync configuration
	syncInterval, err := time.ParseDuration(getEnv("SYNC_INTERVAL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_INTERVAL: %w", err)
	}
	maxRetries, err := strconv.Atoi(getEnv("SYNC_MAX_RETRIES", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_MAX_RETRIES: %w", err)
	}
	retryDelay, err := time.ParseDuration(getEnv("SYNC_RETRY_DELAY", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_RETRY_DELAY: %w", err)
	}
	runTimeout, err := time.ParseDuration(getEnv("SYNC_RUN_TIMEOUT", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_RUN_TIMEOUT: %w", err)
	}

	config.Sync = SyncConfig{
		Interval:   syncInterval,
		MaxRetries: maxRetries,
		RetryDelay: retryDelay,
		RunTimeout: runTimeout,
	}

	// Shift configuration
	shiftStart := getEnv("SHIFT_START", "09:00")
	var startHour, startMinute int
	if _, err := fmt.Sscanf(shiftStart, "%d:%d", &startHour, &startMinute); err != nil {
		return nil, fmt.Errorf("invalid SHIFT_START %q: %w", shiftStart, err)
	}
	graceMinutes, err := strconv.Atoi(getEnv("SHIFT_GRACE_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHIFT_GRACE_MINUTES: %w", err)
	}

	config.Shift = ShiftConfig{
		StartHour:    startHour,
		StartMinute:  startMinute,
		GraceMinutes: graceMinutes,
	}

	// Identity matching configuration
	autoMap, err := strconv.ParseFloat(getEnv("AUTO_MAP_THRESHOLD", "0.8"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid AUTO_MAP_THRESHOLD: %w", err)
	}
	reviewFloor, err := strconv.ParseFloat(getEnv("REVIEW_FLOOR", "0.3"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid REVIEW_FLOOR: %w", err)
	}

	config.Identity = IdentityConfig{
		AutoMapThreshold: autoMap,
		ReviewFloor:      reviewFloor,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.ETimeTrack.BaseURL == "" {
		return fmt.Errorf("ETIMETRACK_BASE_URL is required")
	}
	if c.ETimeTrack.CorpID == "" {
		return fmt.Errorf("ETIMETRACK_CORP_ID is required")
	}
	if c.ETimeTrack.Username == "" {
		return fmt.Errorf("ETIMETRACK_USERNAME is required")
	}
	if c.ETimeTrack.Password == "" {
		return fmt.Errorf("ETIMETRACK_PASSWORD is required")
	}
	if c.Identity.ReviewFloor > c.Identity.AutoMapThreshold {
		return fmt.Errorf("REVIEW_FLOOR must not exceed AUTO_MAP_THRESHOLD")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
