package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Database
		Auth
		Covers
		Books
		Invitations
		Global
	}

	HTTP struct {
		Port int32
		Host string
	}
	Database struct {
		Path string
	}
	Auth struct {
		BcryptCost      int
		SessionLifetime time.Duration
		SecureCookies   bool   // Set to false for local dev without HTTPS
		CSRFSecret      string // Auto-generated when empty
	}
	Covers struct {
		BaseURL         string
		Timeout         time.Duration
		ProbeInterval   time.Duration // Min delay between upstream probes
		RefreshEnabled  bool
		RefreshSchedule string // Cron format: "0 * * * *" = hourly
	}
	Books struct {
		PageSize int
	}
	Invitations struct {
		Codes string // Comma-separated codes seeded at startup
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8199)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Auth defaults
	v.SetDefault("auth_bcrypt_cost", DefaultBcryptCost)
	v.SetDefault("auth_session_lifetime", "168h") // 7 days
	v.SetDefault("auth_secure_cookies", true)
	v.SetDefault("auth_csrf_secret", "")

	// Cover lookup defaults
	v.SetDefault("covers_base_url", DefaultCoversBaseURL)
	v.SetDefault("covers_timeout", "10s")
	v.SetDefault("covers_probe_interval", "1s")
	v.SetDefault("covers_refresh_enabled", true)
	v.SetDefault("covers_refresh_schedule", "0 * * * *") // Hourly at :00

	v.SetDefault("books_page_size", DefaultPageSize)
	v.SetDefault("invitation_codes", "")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Auth: Auth{
			BcryptCost:      v.GetInt("AUTH_BCRYPT_COST"),
			SessionLifetime: v.GetDuration("AUTH_SESSION_LIFETIME"),
			SecureCookies:   v.GetBool("AUTH_SECURE_COOKIES"),
			CSRFSecret:      v.GetString("AUTH_CSRF_SECRET"),
		},
		Covers: Covers{
			BaseURL:         v.GetString("COVERS_BASE_URL"),
			Timeout:         v.GetDuration("COVERS_TIMEOUT"),
			ProbeInterval:   v.GetDuration("COVERS_PROBE_INTERVAL"),
			RefreshEnabled:  v.GetBool("COVERS_REFRESH_ENABLED"),
			RefreshSchedule: v.GetString("COVERS_REFRESH_SCHEDULE"),
		},
		Books: Books{
			PageSize: v.GetInt("BOOKS_PAGE_SIZE"),
		},
		Invitations: Invitations{
			Codes: v.GetString("INVITATION_CODES"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
	}
}
