// Package cas implements the campus single-sign-on handshake: versioned
// ticket validation against a CAS identity provider, response parsing for
// the plain-text, XML, and SAML response shapes, and callback URL
// resolution behind proxies.
package cas

import (
	"fmt"
	"strings"
)

// Version selects the protocol variant spoken with the identity provider.
// The set is closed; every switch over it must be exhaustive.
type Version string

const (
	VersionCAS1     Version = "CAS1.0"
	VersionCAS2     Version = "CAS2.0"
	VersionCAS3     Version = "CAS3.0"
	VersionCAS2SAML Version = "CAS2.0-SAML"
	VersionCAS3SAML Version = "CAS3.0-SAML"
)

// Valid reports whether the version is one of the supported variants.
func (v Version) Valid() bool {
	switch v {
	case VersionCAS1, VersionCAS2, VersionCAS3, VersionCAS2SAML, VersionCAS3SAML:
		return true
	default:
		return false
	}
}

// String returns the wire name of the version.
func (v Version) String() string { return string(v) }

// UnmarshalText implements encoding.TextUnmarshaler so the version can be
// set directly from environment configuration.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, ok := ParseVersion(string(text))
	if !ok {
		return fmt.Errorf("unsupported CAS protocol version %q", string(text))
	}
	*v = parsed
	return nil
}

// ParseVersion normalizes a version string and reports whether it is supported.
func ParseVersion(value string) (Version, bool) {
	v := Version(strings.ToUpper(strings.TrimSpace(value)))
	if v.Valid() {
		return v, true
	}
	return "", false
}

// ValidatePath returns the provider-relative validation endpoint for the version.
func (v Version) ValidatePath() string {
	switch v {
	case VersionCAS1:
		return "/validate"
	case VersionCAS2:
		return "/serviceValidate"
	case VersionCAS3:
		return "/p3/serviceValidate"
	case VersionCAS2SAML, VersionCAS3SAML:
		return "/samlValidate"
	default:
		// The enum is closed; reaching this is a programming error, not input.
		panic(fmt.Sprintf("cas: unknown protocol version %q", string(v)))
	}
}

// UsesSAML reports whether validation uses the SOAP/SAML POST exchange
// instead of the GET ticket/service exchange.
func (v Version) UsesSAML() bool {
	return v == VersionCAS2SAML || v == VersionCAS3SAML
}
