package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Business hours window for accepting bookings, "HH:mm" local clinic time.
	BusinessHoursOpen  string
	BusinessHoursClose string

	// BookingTimeout bounds each persistence/notification call made while
	// answering a live voice tool invocation.
	BookingTimeout time.Duration

	// DemoMode skips persistence entirely and only broadcasts booking events.
	DemoMode bool

	// DefaultClinicID is used when a vendor payload carries no clinic scope.
	DefaultClinicID string

	RetellAPIKey  string
	RetellAgentID string
	RetellBaseURL string

	StaffJWTSecret     string
	CORSAllowedOrigins []string

	// SendGrid staff notification configuration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	NotifyEmail       string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		BusinessHoursOpen:  getEnv("BUSINESS_HOURS_OPEN", "09:00"),
		BusinessHoursClose: getEnv("BUSINESS_HOURS_CLOSE", "17:00"),

		BookingTimeout: getEnvAsDuration("BOOKING_TIMEOUT", 5*time.Second),
		DemoMode:       getEnvAsBool("BOOKING_DEMO_MODE", false),

		DefaultClinicID: getEnv("DEFAULT_CLINIC_ID", ""),

		RetellAPIKey:  getEnv("RETELL_API_KEY", ""),
		RetellAgentID: getEnv("RETELL_AGENT_ID", ""),
		RetellBaseURL: getEnv("RETELL_BASE_URL", ""),

		StaffJWTSecret:     getEnv("STAFF_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "BrightSmile AI"),
		NotifyEmail:       getEnv("NOTIFY_EMAIL", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
