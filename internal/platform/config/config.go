package config

import (
	"os"
	"time"
)

// Server captures gateway level configuration.
type Server struct {
	Addr            string
	Environment     string
	UpstreamBaseURL string
	UpstreamTimeout time.Duration
	JWTSigningKey   string
	TokenTTL        time.Duration
	WizardTTL       time.Duration
	GroupsCacheTTL  time.Duration
}

// Defaults applied when the corresponding environment variable is unset.
var (
	DefaultUpstreamTimeout = 15 * time.Second
	DefaultTokenTTL        = 15 * time.Minute
	DefaultWizardTTL       = 2 * time.Hour
	DefaultGroupsCacheTTL  = 5 * time.Minute
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("COOPGATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	env := os.Getenv("COOPGATE_ENV")
	if env == "" {
		env = "dev"
	}

	upstream := os.Getenv("UPSTREAM_BASE_URL")
	if upstream == "" {
		upstream = "http://localhost:9000"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:            addr,
		Environment:     env,
		UpstreamBaseURL: upstream,
		UpstreamTimeout: durationFromEnv("UPSTREAM_TIMEOUT", DefaultUpstreamTimeout),
		JWTSigningKey:   jwtSigningKey,
		TokenTTL:        durationFromEnv("TOKEN_TTL", DefaultTokenTTL),
		WizardTTL:       durationFromEnv("WIZARD_TTL", DefaultWizardTTL),
		GroupsCacheTTL:  durationFromEnv("GROUPS_CACHE_TTL", DefaultGroupsCacheTTL),
	}
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
