// Package config builds runtime configuration from the environment so main
// stays lean.
package config

import (
	"os"
	"strings"
	"time"
)

// Config captures everything the server needs to start.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string

	// DatabaseURL is the Postgres connection string. Empty means run on the
	// in-memory stores (development and tests).
	DatabaseURL string

	// RedisURL enables the allocation list cache when set.
	RedisURL string

	// KafkaBrokers enables the Kafka audit publisher when non-empty.
	KafkaBrokers []string

	// AuditTopic overrides the default audit topic name.
	AuditTopic string

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// FromEnv reads configuration from environment variables, applying defaults
// suitable for local development.
func FromEnv() Config {
	cfg := Config{
		Addr:            envOr("LEGATUM_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("LEGATUM_DATABASE_URL"),
		RedisURL:        os.Getenv("LEGATUM_REDIS_URL"),
		AuditTopic:      os.Getenv("LEGATUM_AUDIT_TOPIC"),
		ShutdownTimeout: 10 * time.Second,
	}
	if brokers := os.Getenv("LEGATUM_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	if timeout := os.Getenv("LEGATUM_SHUTDOWN_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.ShutdownTimeout = d
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
