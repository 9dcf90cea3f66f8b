package config

import (
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds application configuration values.
type Config struct {
	HTTPPort       string
	DatabaseDSN    string
	SessionTTL     time.Duration
	SessionBackend string
	RedisAddr      string
	MedicineCSV    string
}

// Load reads configuration from environment variables with reasonable defaults.
func Load() Config {
	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}
	// Validate that port is numeric.
	if _, err := strconv.Atoi(port); err != nil {
		logrus.Warnf("invalid HTTP_PORT value %q, defaulting to 8080", port)
		port = "8080"
	}

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = "meditrack.db"
	}

	ttlMinutes := 720
	if raw := os.Getenv("SESSION_TTL_MINUTES"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			logrus.Warnf("invalid SESSION_TTL_MINUTES value %q, defaulting to %d", raw, ttlMinutes)
		} else {
			ttlMinutes = parsed
		}
	}

	backend := os.Getenv("SESSION_BACKEND")
	if backend != "redis" {
		backend = "memory"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	return Config{
		HTTPPort:       port,
		DatabaseDSN:    dsn,
		SessionTTL:     time.Duration(ttlMinutes) * time.Minute,
		SessionBackend: backend,
		RedisAddr:      redisAddr,
		MedicineCSV:    os.Getenv("MEDICINE_CSV"),
	}
}
