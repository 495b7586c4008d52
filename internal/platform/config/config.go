// Package config loads process configuration from the environment so main
// stays lean.
package config

import (
	"os"
	"strings"
)

// Config is the full process configuration.
type Config struct {
	Server Server
	Mongo  Mongo
	Redis  Redis
	Kafka  Kafka
	SMTP   SMTP
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
}

// Mongo configures the document store. An empty URI selects the in-memory
// stores (local development, tests).
type Mongo struct {
	URI      string
	Database string
}

// Redis configures the serial-number allocator backend. Optional: when the
// URL is empty the allocator falls back to the Mongo counter (or memory).
type Redis struct {
	URL string
}

// Kafka configures the audit event sink. Optional.
type Kafka struct {
	Brokers []string
	Topic   string
}

// SMTP configures approval email delivery. Optional: an empty host disables
// sending.
type SMTP struct {
	Host      string
	Port      string
	Username  string
	Password  string
	From      string
	PortalURL string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:          envOr("VANSHAVALI_ADDR", ":8080"),
			JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		},
		Mongo: Mongo{
			URI:      os.Getenv("MONGO_URI"),
			Database: envOr("MONGO_DATABASE", "vanshavali"),
		},
		Redis: Redis{
			URL: os.Getenv("REDIS_URL"),
		},
		Kafka: Kafka{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   os.Getenv("KAFKA_AUDIT_TOPIC"),
		},
		SMTP: SMTP{
			Host:      os.Getenv("SMTP_HOST"),
			Port:      envOr("SMTP_PORT", "587"),
			Username:  os.Getenv("SMTP_USERNAME"),
			Password:  os.Getenv("SMTP_PASSWORD"),
			From:      envOr("SMTP_FROM", "no-reply@vanshavali.local"),
			PortalURL: envOr("PORTAL_URL", "https://vanshavali.local"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
