package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Addr      string
	DBPath    string
	JWTSecret string
	// Public base URL for links built by this server (password reset emails).
	BaseURL string
	// Background replay of failed author credits.
	AuthorCreditRetrySec int
	// Revenue split credited to authors on premium chapter sales, in percent.
	AuthorSharePercent int
}

// Load reads environment variables into Config with sane defaults for local dev.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:      getEnv("ADDR", ":8080"),
		DBPath:    getEnv("DB_PATH", "data/webnovel.db"),
		JWTSecret: getEnv("JWT_SECRET", ""),
		BaseURL:   getEnv("BASE_URL", "http://localhost:8080"),
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	retrySec := getEnv("AUTHOR_CREDIT_RETRY_SEC", "60")
	n, err := strconv.Atoi(retrySec)
	if err != nil {
		return nil, fmt.Errorf("invalid AUTHOR_CREDIT_RETRY_SEC: %w", err)
	}
	cfg.AuthorCreditRetrySec = n

	share := getEnv("AUTHOR_SHARE_PERCENT", "70")
	p, err := strconv.Atoi(share)
	if err != nil {
		return nil, fmt.Errorf("invalid AUTHOR_SHARE_PERCENT: %w", err)
	}
	if p < 0 || p > 100 {
		return nil, fmt.Errorf("AUTHOR_SHARE_PERCENT must be between 0 and 100, got %d", p)
	}
	cfg.AuthorSharePercent = p

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
