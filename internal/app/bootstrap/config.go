package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the demo backend.
// It merges file defaults and environment overrides to support both local and
// containerized runs.
type Config struct {
	ServiceID string

	HTTPPort int

	// PostgresURL selects the gorm-backed store when set; empty keeps the
	// in-memory store, which is the single-process default.
	PostgresURL string
	// RedisURL moves 2FA challenges and lockout counters to Redis when set.
	RedisURL string

	JWTSecret string

	TokenTTL        time.Duration
	ChallengeTTL    time.Duration
	LockoutDuration time.Duration
	FailedThreshold int

	BcryptCost int

	// SeedDemoData controls first-boot seeding of the demo accounts.
	SeedDemoData bool
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL string `yaml:"postgres_url"`
		RedisURL    string `yaml:"redis_url"`
	} `yaml:"dependencies"`
	Auth struct {
		JWTSecret            string `yaml:"jwt_secret"`
		TokenExpiryHours     int    `yaml:"token_expiry_hours"`
		ChallengeTTLMinutes  int    `yaml:"challenge_ttl_minutes"`
		LockoutMinutes       int    `yaml:"lockout_minutes"`
		FailedLoginThreshold int    `yaml:"failed_login_threshold"`
		BcryptCost           int    `yaml:"bcrypt_cost"`
	} `yaml:"auth"`
	Seed *bool `yaml:"seed"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// This order keeps local bootstrap simple while allowing environment-specific
// overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:       "digiplot-demoapi",
		HTTPPort:        8090,
		TokenTTL:        24 * time.Hour,
		ChallengeTTL:    5 * time.Minute,
		LockoutDuration: 15 * time.Minute,
		FailedThreshold: 5,
		BcryptCost:      10,
		SeedDemoData:    true,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.PostgresURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if f.Auth.JWTSecret != "" {
			cfg.JWTSecret = f.Auth.JWTSecret
		}
		if f.Auth.TokenExpiryHours > 0 {
			cfg.TokenTTL = time.Duration(f.Auth.TokenExpiryHours) * time.Hour
		}
		if f.Auth.ChallengeTTLMinutes > 0 {
			cfg.ChallengeTTL = time.Duration(f.Auth.ChallengeTTLMinutes) * time.Minute
		}
		if f.Auth.LockoutMinutes > 0 {
			cfg.LockoutDuration = time.Duration(f.Auth.LockoutMinutes) * time.Minute
		}
		if f.Auth.FailedLoginThreshold > 0 {
			cfg.FailedThreshold = f.Auth.FailedLoginThreshold
		}
		if f.Auth.BcryptCost > 0 {
			cfg.BcryptCost = f.Auth.BcryptCost
		}
		if f.Seed != nil {
			cfg.SeedDemoData = *f.Seed
		}
	}

	cfg.PostgresURL = envOrDefault("POSTGRES_URL", envOrDefault("DB_URL", cfg.PostgresURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.JWTSecret = envOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.BcryptCost = envInt("BCRYPT_ROUNDS", cfg.BcryptCost)
	cfg.FailedThreshold = envInt("FAILED_LOGIN_THRESHOLD", cfg.FailedThreshold)
	cfg.TokenTTL = time.Duration(envInt("TOKEN_EXPIRY_HOURS", int(cfg.TokenTTL.Hours()))) * time.Hour
	cfg.ChallengeTTL = time.Duration(envInt("CHALLENGE_TTL_MINUTES", int(cfg.ChallengeTTL.Minutes()))) * time.Minute
	cfg.LockoutDuration = time.Duration(envInt("ACCOUNT_LOCKOUT_MINUTES", int(cfg.LockoutDuration.Minutes()))) * time.Minute
	cfg.SeedDemoData = envBool("SEED_DEMO_DATA", cfg.SeedDemoData)

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envBool parses common boolean env forms while keeping a deterministic fallback.
func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return fallback
	}
}
