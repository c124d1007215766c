package config

import (
	"strings"

	"github.com/courseq/courseq/internal/cas"
)

// CASConfig groups all single-sign-on configuration. The protocol version
// is a closed enum; an unsupported value fails configuration loading rather
// than surfacing on the first login.
type CASConfig struct {
	// BaseURL is the identity provider root, e.g. "https://secure.its.example.edu/cas".
	BaseURL string `env:"CAS_BASE_URL,required"`

	// Version selects the protocol variant spoken with the provider.
	Version cas.Version `env:"CAS_VERSION" envDefault:"CAS3.0"`

	// ValidatePath overrides the version's default validation endpoint
	// when the provider mounts it somewhere non-standard.
	ValidatePath string `env:"CAS_VALIDATE_PATH" envDefault:""`

	// CallbackPath is the application path the provider redirects back to.
	// It is resolved against the public origin to build the service URL.
	CallbackPath string `env:"CAS_CALLBACK_PATH" envDefault:"/login/callback"`
}

// Sanitize applies guardrails to CAS configuration values.
func (c *CASConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.CallbackPath = strings.TrimSpace(c.CallbackPath)
	if c.CallbackPath != "" && !strings.HasPrefix(c.CallbackPath, "/") {
		c.CallbackPath = "/" + c.CallbackPath
	}
}
