package config

import (
	"strings"
	"time"
)

// SessionConfig configures the signed session cookie.
type SessionConfig struct {
	// Secrets are the cookie signing secrets, newest first and
	// comma-separated. Every secret verifies; the newest signs, so secrets
	// can be rotated without logging everyone out.
	Secrets []string `env:"SESSION_SECRETS,required" envSeparator:","`

	// CookieName is the session cookie name.
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"__session"`

	// MaxAge bounds session validity.
	MaxAge time.Duration `env:"SESSION_MAX_AGE" envDefault:"168h"`

	// Secure marks the cookie HTTPS-only. Enable in any deployment served
	// over TLS.
	Secure bool `env:"SESSION_SECURE" envDefault:"false"`
}

// Sanitize drops empty secret entries left by trailing separators.
func (s *SessionConfig) Sanitize() {
	cleaned := make([]string, 0, len(s.Secrets))
	for _, secret := range s.Secrets {
		if trimmed := strings.TrimSpace(secret); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	s.Secrets = cleaned
	if s.MaxAge <= 0 {
		s.MaxAge = 168 * time.Hour
	}
}
