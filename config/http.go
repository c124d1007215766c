package config

import (
	"net/url"
	"strings"

	apperrors "github.com/courseq/courseq/internal/errors"
)

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// Origin is the public base URL of the application
	// (e.g., "https://ohq.example.edu"). When set it wins over forwarded
	// headers when resolving the SSO callback URL. Leave empty to derive
	// the origin from the request.
	Origin string `env:"APP_ORIGIN" envDefault:""`

	// CompressionEnabled enables gzip compression for text-based responses.
	CompressionEnabled bool `env:"HTTP_COMPRESSION_ENABLED" envDefault:"false"`

	// CompressionLevel is the gzip compression level (1-9).
	// Default is 6 (standard gzip default).
	CompressionLevel int `env:"HTTP_COMPRESSION_LEVEL" envDefault:"6"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	h.Origin = strings.TrimRight(strings.TrimSpace(h.Origin), "/")

	// Clamp compression level to valid gzip range (1-9)
	if h.CompressionLevel < 1 {
		h.CompressionLevel = 1
	}
	if h.CompressionLevel > 9 {
		h.CompressionLevel = 9
	}
}

// Validate rejects an origin that is not an absolute URL. The SSO callback
// resolver uses the value verbatim, so a malformed origin would produce an
// unregistrable service URL on every login; that has to fail startup instead.
func (h *HTTPConfig) Validate() error {
	if h.Origin == "" {
		return nil
	}
	u, err := url.Parse(h.Origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return apperrors.Configurationf("APP_ORIGIN %q must be an absolute URL with scheme and host", h.Origin)
	}
	return nil
}
