package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL           string
	ServerPort            string
	Environment           string
	JWTSecret             string
	TokenTTL              time.Duration
	AdminAPIKey           string
	RedisURL              string
	InitialDeliveryStatus string
	CORSOrigins           []string
	AllowAdminSignup      bool
	UploadsDir            string
	BackupDir             string
	BackupRetention       time.Duration
	BackupHour            int
}

// Load reads the environment, loading .env first when present.
func Load() (*Config, error) {
	// .env file is optional
	_ = godotenv.Load()

	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}

	retention, err := time.ParseDuration(getEnv("BACKUP_RETENTION", "96h"))
	if err != nil {
		return nil, fmt.Errorf("invalid BACKUP_RETENTION: %w", err)
	}
	backupHour, err := strconv.Atoi(getEnv("BACKUP_HOUR", "2"))
	if err != nil || backupHour < 0 || backupHour > 23 {
		return nil, fmt.Errorf("invalid BACKUP_HOUR %q", os.Getenv("BACKUP_HOUR"))
	}

	cfg := &Config{
		DatabaseURL:           databaseURL(),
		ServerPort:            getEnv("PORT", "8080"),
		Environment:           getEnv("ENVIRONMENT", "development"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		TokenTTL:              ttl,
		AdminAPIKey:           os.Getenv("COST_API_KEY"),
		RedisURL:              os.Getenv("REDIS_URL"),
		InitialDeliveryStatus: getEnv("INITIAL_DELIVERY_STATUS", "placed"),
		CORSOrigins:           splitList(getEnv("CORS_ORIGINS", "*")),
		AllowAdminSignup:      getEnv("ALLOW_ADMIN_SIGNUP", "false") == "true",
		UploadsDir:            getEnv("UPLOADS_DIR", "./uploads"),
		BackupDir:             os.Getenv("BACKUP_DIR"),
		BackupRetention:       retention,
		BackupHour:            backupHour,
	}

	if cfg.BackupDir != "" {
		inside, err := within(cfg.UploadsDir, cfg.BackupDir)
		if err != nil {
			return nil, fmt.Errorf("invalid BACKUP_DIR: %w", err)
		}
		if inside {
			return nil, fmt.Errorf("BACKUP_DIR %q must not be inside UPLOADS_DIR %q", cfg.BackupDir, cfg.UploadsDir)
		}
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "dev-secret-change-me"
	}
	return cfg, nil
}

// within reports whether dir is parent itself or somewhere below it.
func within(parent, dir string) (bool, error) {
	absParent, err := filepath.Abs(parent)
	if err != nil {
		return false, err
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(absParent, absDir)
	if err != nil {
		return false, nil
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))), nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// databaseURL prefers DATABASE_URL and falls back to the DB_* variables.
func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_USER", "postgres"),
		os.Getenv("DB_PASSWORD"),
		getEnv("DB_NAME", "technoworld"),
		getEnv("DB_PORT", "5432"),
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
