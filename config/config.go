package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: CAS single-sign-on configuration
//   - session.go: session cookie configuration
//   - directory.go: campus directory lookup configuration
//   - database.go: database and Redis configuration
//   - http.go: HTTP server configuration
type AppConfig struct {
	// IsDev controls development mode behavior (template reloading, seeding).
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// CAS single-sign-on configuration
	CAS CASConfig

	// Session cookie configuration
	Session SessionConfig

	// Campus directory configuration
	Directory DirectoryConfig

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// HTTP server configuration
	HTTP HTTPConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.CAS.Sanitize()
	c.Session.Sanitize()
	c.Directory.Sanitize()

	c.detectDevMode()
}

// Validate rejects configuration that parsed cleanly but cannot work at
// runtime. Called by the loader after Sanitize.
func (c *AppConfig) Validate() error {
	return c.HTTP.Validate()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// This is called by Sanitize() to ensure IsDev is set correctly.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
