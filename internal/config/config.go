package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type DuplicatePolicy string

const (
	DuplicateReject        DuplicatePolicy = "reject"
	DuplicateUpsert        DuplicatePolicy = "upsert"
	DuplicateAllowMultiple DuplicatePolicy = "allow-multiple"
)

func (p DuplicatePolicy) Valid() bool {
	switch p {
	case DuplicateReject, DuplicateUpsert, DuplicateAllowMultiple:
		return true
	}
	return false
}

type Config struct {
	Port           string
	DatabaseURL    string
	Storage        string // "postgres" | "memory"
	JWTSecret      string
	AuthProvider   string // "local" | "clerk"
	ClerkSecretKey string

	// ClerkWebhookSecret enables POST /webhooks/clerk when set.
	ClerkWebhookSecret string

	DuplicatePolicy  DuplicatePolicy
	StrictDays       bool
	RateLimitRPS     float64
	RateLimitBurst   int
	MetricsUser      string
	MetricsPass      string
	AllowedOrigins   []string
	FCMKeyFile       string
	InviteLinkPrefix string
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := &Config{
		Port:               getEnv("PORT", "3333"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		Storage:            getEnv("STORAGE", "postgres"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		AuthProvider:       getEnv("AUTH_PROVIDER", "local"),
		ClerkSecretKey:     os.Getenv("CLERK_SECRET_KEY"),
		ClerkWebhookSecret: os.Getenv("CLERK_WEBHOOK_SECRET"),
		DuplicatePolicy:    DuplicatePolicy(getEnv("ENROLLMENT_DUPLICATE_POLICY", string(DuplicateReject))),
		MetricsUser:        os.Getenv("METRICS_USER"),
		MetricsPass:        os.Getenv("METRICS_PASS"),
		AllowedOrigins:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		FCMKeyFile:         getEnv("FCM_KEY_FILE", "./serviceAccountKey.json"),
		InviteLinkPrefix:   getEnv("INVITE_LINK_PREFIX", "fitchallenge://challenges/join/"),
	}

	var err error
	if cfg.StrictDays, err = strconv.ParseBool(getEnv("PROGRESS_STRICT_DAYS", "true")); err != nil {
		return nil, fmt.Errorf("invalid PROGRESS_STRICT_DAYS: %w", err)
	}
	if cfg.RateLimitRPS, err = strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "5"), 64); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(getEnv("RATE_LIMIT_BURST", "30")); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings a server needs before it can start.
func (c *Config) Validate() error {
	if !c.DuplicatePolicy.Valid() {
		return fmt.Errorf("invalid ENROLLMENT_DUPLICATE_POLICY %q: must be reject, upsert or allow-multiple", c.DuplicatePolicy)
	}
	switch c.Storage {
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is not set")
		}
	case "memory":
	default:
		return fmt.Errorf("invalid STORAGE %q: must be postgres or memory", c.Storage)
	}
	switch c.AuthProvider {
	case "local":
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET environment variable is not set")
		}
	case "clerk":
		if c.ClerkSecretKey == "" {
			return fmt.Errorf("CLERK_SECRET_KEY environment variable is not set")
		}
	default:
		return fmt.Errorf("invalid AUTH_PROVIDER %q: must be local or clerk", c.AuthProvider)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
