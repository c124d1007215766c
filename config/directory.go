package config

import (
	"strings"
	"time"
)

// DirectoryConfig configures the campus people-search client used to
// auto-provision users on first login.
type DirectoryConfig struct {
	// URL is the people-search endpoint. When empty, directory lookups are
	// disabled and every first-time login goes through manual onboarding.
	URL string `env:"DIRECTORY_URL" envDefault:""`

	// APIKey is sent as a bearer token.
	APIKey string `env:"DIRECTORY_API_KEY" envDefault:""`

	// CacheTTL bounds how long directory records are cached in Redis.
	CacheTTL time.Duration `env:"DIRECTORY_CACHE_TTL" envDefault:"1h"`

	// Field expressions are JMESPath paths evaluated against one directory
	// record; deployments disagree on payload shapes.
	FieldFirstName string `env:"DIRECTORY_FIELD_FIRST_NAME" envDefault:"first_name"`
	FieldLastName  string `env:"DIRECTORY_FIELD_LAST_NAME"  envDefault:"last_name"`
	FieldEmail     string `env:"DIRECTORY_FIELD_EMAIL"      envDefault:"email"`
	FieldYear      string `env:"DIRECTORY_FIELD_YEAR"       envDefault:"class_year"`
}

// Enabled reports whether a directory endpoint is configured.
func (d *DirectoryConfig) Enabled() bool {
	return d.URL != ""
}

// Sanitize applies guardrails to directory configuration values.
func (d *DirectoryConfig) Sanitize() {
	d.URL = strings.TrimSpace(d.URL)
	if d.CacheTTL <= 0 {
		d.CacheTTL = time.Hour
	}
}
