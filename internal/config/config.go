// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultCMSURL is the local development origin of the content backend.
const DefaultCMSURL = "http://localhost:1337"

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	SiteName string // school name shown in titles and the footer

	// Content backend
	CMSURL           string        // origin of the headless CMS, without /api
	MediaURL         string        // base for relative image paths; defaults to CMSURL
	CMSTimeout       time.Duration // per-request timeout for CMS calls
	CMSWebhookSecret string        // shared secret for cache invalidation webhooks
	PageSize         int           // items per listing page
	CatalogRefresh   time.Duration // background reload interval of the collections

	// PostgreSQL connection (contact messages)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache + sessions)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// Contact form delivery
	MailProvider      string // "emailjs", "smtp" or "" (store only)
	EmailJSServiceID  string
	EmailJSTemplateID string
	EmailJSPublicKey  string
	EmailJSBaseURL    string
	SMTPHost          string
	SMTPPort          int
	SMTPUser          string
	SMTPPassword      string
	MailFrom          string
	ContactTo         string
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. A .env file in the working directory
// is loaded first when present; real environment variables take precedence.
// Returns an error if critical values are missing in production mode.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not read .env file", "error", err)
	}

	cmsURL := strings.TrimRight(envOrDefault("CMS_URL", DefaultCMSURL), "/")

	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		SiteName: envOrDefault("SITE_NAME", "Greenfield Academy"),

		CMSURL:           cmsURL,
		MediaURL:         strings.TrimRight(envOrDefault("MEDIA_URL", cmsURL), "/"),
		CMSTimeout:       durationOrDefault("CMS_TIMEOUT", 10*time.Second),
		CMSWebhookSecret: os.Getenv("CMS_WEBHOOK_SECRET"),
		PageSize:         intOrDefault("PAGE_SIZE", 9),
		CatalogRefresh:   durationOrDefault("CATALOG_REFRESH", 2*time.Minute),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "schoolsite"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "schoolsite"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		MailProvider:      os.Getenv("MAIL_PROVIDER"),
		EmailJSServiceID:  os.Getenv("EMAILJS_SERVICE_ID"),
		EmailJSTemplateID: os.Getenv("EMAILJS_TEMPLATE_ID"),
		EmailJSPublicKey:  os.Getenv("EMAILJS_PUBLIC_KEY"),
		EmailJSBaseURL:    envOrDefault("EMAILJS_BASE_URL", "https://api.emailjs.com"),
		SMTPHost:          os.Getenv("SMTP_HOST"),
		SMTPPort:          intOrDefault("SMTP_PORT", 587),
		SMTPUser:          os.Getenv("SMTP_USER"),
		SMTPPassword:      os.Getenv("SMTP_PASSWORD"),
		MailFrom:          os.Getenv("MAIL_FROM"),
		ContactTo:         envOrDefault("CONTACT_TO", "info@school.local"),
	}

	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("PAGE_SIZE must be positive, got %d", cfg.PageSize)
	}

	switch cfg.MailProvider {
	case "", "emailjs", "smtp":
	default:
		return nil, fmt.Errorf("MAIL_PROVIDER must be emailjs or smtp, got %q", cfg.MailProvider)
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.CMSWebhookSecret == "" {
			return nil, fmt.Errorf("CMS_WEBHOOK_SECRET must be set in production")
		}
	}

	return cfg, nil
}

// APIURL returns the REST base of the CMS (origin + "/api").
func (c *Config) APIURL() string {
	return c.CMSURL + "/api"
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// intOrDefault parses an integer variable. Unparseable values fall back.
func intOrDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", v)
		return fallback
	}
	return n
}

// durationOrDefault accepts Go durations ("10s") or plain milliseconds ("10000").
func durationOrDefault(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	slog.Warn("invalid duration in environment, using default", "key", key, "value", v)
	return fallback
}
