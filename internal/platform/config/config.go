package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration for the compliance engine.
type Server struct {
	Addr          string
	DatabaseURL   string
	JWTSigningKey string
	TokenTTL      time.Duration

	// AuditWindow bounds the fast-access audit retention window (entries).
	AuditWindow int
	// AuditBuffer sizes the async durable-write queue.
	AuditBuffer int

	// Default organization settings, overridable per org at runtime.
	BlockOnPII      bool
	RequireConsent  bool
	NotifyGuardians bool
	RetentionDays   int
}

const (
	defaultAuditWindow   = 1000
	defaultAuditBuffer   = 256
	defaultRetentionDays = 365
	defaultTokenTTL      = 15 * time.Minute
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:            envOr("SAFEGUARD_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		JWTSigningKey:   envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		TokenTTL:        defaultTokenTTL,
		AuditWindow:     envInt("AUDIT_WINDOW", defaultAuditWindow),
		AuditBuffer:     envInt("AUDIT_BUFFER", defaultAuditBuffer),
		BlockOnPII:      envBool("BLOCK_ON_PII", true),
		RequireConsent:  envBool("REQUIRE_CONSENT", true),
		NotifyGuardians: envBool("NOTIFY_GUARDIANS", true),
		RetentionDays:   envInt("RETENTION_DAYS", defaultRetentionDays),
	}
	if ttl := os.Getenv("TOKEN_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.TokenTTL = d
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

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true"
	}
	return fallback
}
