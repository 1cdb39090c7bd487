package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the Telegram front end configuration
type Config struct {
	BotToken string
	Services ServicesConfig
	Login    LoginConfig
	Database DatabaseConfig
}

// ServicesConfig holds the addresses of the external services
type ServicesConfig struct {
	AuthRelayURL    string
	OTPServiceURL   string
	NotificationURL string
	FeedbackURL     string
	HTTPTimeout     time.Duration
}

// LoginConfig tunes the login flow
type LoginConfig struct {
	MaxOTPLength      int
	AttemptsPerMinute int
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

// RelayConfig holds the credential relay configuration
type RelayConfig struct {
	Port           string
	SupabaseURL    string
	SupabaseKey    string
	AllowedOrigins []string
	HTTPTimeout    time.Duration
}

// Load reads the bot configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	timeout, err := getDuration("HTTP_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	maxOTP, err := getInt("OTP_MAX_LENGTH", 6)
	if err != nil {
		return nil, err
	}
	perMinute, err := getInt("LOGIN_ATTEMPTS_PER_MINUTE", 5)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		BotToken: os.Getenv("BOT_TOKEN"),
		Services: ServicesConfig{
			AuthRelayURL:    getEnv("AUTH_RELAY_URL", "http://localhost:3001"),
			OTPServiceURL:   getEnv("OTP_SERVICE_URL", "http://localhost:5001"),
			NotificationURL: getEnv("NOTIFICATION_SERVICE_URL", "http://localhost:5001"),
			FeedbackURL:     getEnv("FEEDBACK_SERVICE_URL", "http://localhost:8000/docs"),
			HTTPTimeout:     timeout,
		},
		Login: LoginConfig{
			MaxOTPLength:      maxOTP,
			AttemptsPerMinute: perMinute,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "mfalogin"),
			User:     getEnv("DB_USER", "mfalogin"),
			Password: os.Getenv("DB_PASSWORD"),
		},
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}
	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	if cfg.Login.MaxOTPLength <= 0 {
		return nil, fmt.Errorf("OTP_MAX_LENGTH must be positive")
	}
	if cfg.Login.AttemptsPerMinute <= 0 {
		return nil, fmt.Errorf("LOGIN_ATTEMPTS_PER_MINUTE must be positive")
	}

	return cfg, nil
}

// LoadRelay reads the credential relay configuration from environment variables
func LoadRelay() (*RelayConfig, error) {
	_ = godotenv.Load()

	timeout, err := getDuration("HTTP_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &RelayConfig{
		Port:           getEnv("PORT", "3001"),
		SupabaseURL:    os.Getenv("SUPABASE_URL"),
		SupabaseKey:    os.Getenv("SUPABASE_ANON_KEY"),
		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		HTTPTimeout:    timeout,
	}

	if cfg.SupabaseURL == "" {
		return nil, fmt.Errorf("SUPABASE_URL is required")
	}
	if cfg.SupabaseKey == "" {
		return nil, fmt.Errorf("SUPABASE_ANON_KEY is required")
	}

	return cfg, nil
}

// DSN returns PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}

// Addr returns the listen address of the relay
func (c *RelayConfig) Addr() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
