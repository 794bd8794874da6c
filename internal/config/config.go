package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ashendes/smart-dining/internal/models"
	log "github.com/sirupsen/logrus"
)

// Config holds the dining client configuration
type Config struct {
	BackendURL    string
	ListenAddr    string
	ReturnURLBase string
	CheckoutURL   string
	SessionFile   string
	CustomerPhone string
	PollInterval  time.Duration
	PollWindow    time.Duration
	NoticeTTL     time.Duration
	HTTPTimeout   time.Duration
	LogLevel      log.Level
}

// Load reads configuration from the environment, falling back to defaults
func Load() (*Config, error) {
	cfg := &Config{
		BackendURL:    getEnv("BACKEND_URL", "http://localhost:8090/api"),
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		ReturnURLBase: getEnv("RETURN_URL_BASE", "http://localhost:8080"),
		CheckoutURL:   getEnv("CHECKOUT_URL", ""),
		SessionFile:   getEnv("SESSION_FILE", ".smart-dining/session.json"),
		CustomerPhone: getEnv("CUSTOMER_PHONE", "9876543210"),
	}

	var err error
	if cfg.PollInterval, err = getDuration("POLL_INTERVAL", 3*time.Second); err != nil {
		return nil, err
	}
	if cfg.PollWindow, err = getDuration("POLL_WINDOW", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.NoticeTTL, err = getDuration("NOTICE_TTL", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getDuration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	cfg.LogLevel, err = log.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	if !models.IsPhoneNumber(c.CustomerPhone) {
		return fmt.Errorf("CUSTOMER_PHONE must be exactly 10 digits")
	}
	if c.PollInterval <= 0 || c.PollWindow < c.PollInterval {
		return fmt.Errorf("POLL_WINDOW (%s) must be at least POLL_INTERVAL (%s)", c.PollWindow, c.PollInterval)
	}
	if c.NoticeTTL <= 0 {
		return fmt.Errorf("NOTICE_TTL must be positive")
	}
	return nil
}

// getEnv gets environment variable with fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
