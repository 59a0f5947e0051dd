package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("BUSINESS_HOURS_OPEN", "")
	t.Setenv("BUSINESS_HOURS_CLOSE", "")
	t.Setenv("BOOKING_DEMO_MODE", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.BusinessHoursOpen != "09:00" || cfg.BusinessHoursClose != "17:00" {
		t.Fatalf("expected default business hours, got %s-%s", cfg.BusinessHoursOpen, cfg.BusinessHoursClose)
	}
	if cfg.BookingTimeout != 5*time.Second {
		t.Fatalf("expected default booking timeout, got %s", cfg.BookingTimeout)
	}
	if cfg.DemoMode {
		t.Fatalf("expected demo mode disabled by default")
	}
	if cfg.SendGridFromName != "BrightSmile AI" {
		t.Fatalf("expected default sendgrid from name, got %s", cfg.SendGridFromName)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("BUSINESS_HOURS_OPEN", "08:30")
	t.Setenv("BUSINESS_HOURS_CLOSE", "18:00")
	t.Setenv("BOOKING_TIMEOUT", "2s")
	t.Setenv("BOOKING_DEMO_MODE", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://staging.example.com")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if cfg.BusinessHoursOpen != "08:30" || cfg.BusinessHoursClose != "18:00" {
		t.Fatalf("expected business hours override, got %s-%s", cfg.BusinessHoursOpen, cfg.BusinessHoursClose)
	}
	if cfg.BookingTimeout != 2*time.Second {
		t.Fatalf("expected booking timeout override, got %s", cfg.BookingTimeout)
	}
	if !cfg.DemoMode {
		t.Fatalf("expected demo mode enabled")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[0] != "https://app.example.com" {
		t.Fatalf("expected parsed cors origins, got %v", cfg.CORSAllowedOrigins)
	}
}
