package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds service configuration.
type Config struct {
	DatabaseURL           string
	ServerAddr            string
	BaseCurrency          string
	MigrationsDir         string
	EscalationInterval    time.Duration
	EscalationBatchSize   int
	FailsafePath          string
	FailsafeDrainInterval time.Duration
}

// Load reads configuration from environment.
func Load() (*Config, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		user := getenv("POSTGRES_USER", "approval_hub")
		pass := getenv("POSTGRES_PASSWORD", "approval_hub_pass")
		db := getenv("POSTGRES_DB", "approval_hub")
		host := getenv("POSTGRES_HOST", "localhost")
		port := getenv("POSTGRES_PORT", "5432")
		sslmode := getenv("DATABASE_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, sslmode)
	}

	return &Config{
		DatabaseURL:           dsn,
		ServerAddr:            getenv("SERVER_ADDR", "0.0.0.0:8080"),
		BaseCurrency:          getenv("BASE_CURRENCY", "INR"),
		MigrationsDir:         getenv("MIGRATIONS_DIR", "internal/migrations"),
		EscalationInterval:    parseDuration(getenv("ESCALATION_INTERVAL", "1m"), time.Minute),
		EscalationBatchSize:   parseInt(getenv("ESCALATION_BATCH_SIZE", "100"), 100),
		FailsafePath:          getenv("AUDIT_FAILSAFE_PATH", "audit_failsafe.db"),
		FailsafeDrainInterval: parseDuration(getenv("AUDIT_FAILSAFE_DRAIN_INTERVAL", "30s"), 30*time.Second),
	}, nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
