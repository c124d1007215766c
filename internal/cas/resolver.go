package cas

import (
	"net/http"
	"net/url"
	"strings"
)

// ServiceResolver computes the callback URL registered with the identity
// provider. The provider requires the service URL on the validate leg to be
// byte-identical to the one sent on the challenge redirect, so both legs go
// through Resolve. Proxies and load balancers rewrite the effective
// host/port, hence the forwarded-header handling.
type ServiceResolver struct {
	// Origin, when set, is used verbatim as the authority
	// (e.g. "https://ohq.example.edu").
	Origin string
	// CallbackPath is resolved against the authority; when empty the
	// request's own path is used.
	CallbackPath string
}

// Resolve derives the service URL for a request. Any query string is
// stripped from the result.
func (s ServiceResolver) Resolve(r *http.Request) string {
	path := s.CallbackPath
	if path == "" {
		path = r.URL.Path
	}

	if s.Origin != "" {
		// The configured origin is validated at load time and is always
		// honored; an operator-set value must never lose to forwarded
		// headers, which any client can write.
		base, err := url.Parse(s.Origin)
		if err != nil || base.Host == "" {
			return strings.TrimRight(s.Origin, "/") + path
		}
		resolved := base.ResolveReference(&url.URL{Path: path})
		resolved.RawQuery = ""
		resolved.Fragment = ""
		return resolved.String()
	}

	u := url.URL{Scheme: requestScheme(r), Path: path}

	if forwarded := r.Header.Get("X-Forwarded-Host"); forwarded != "" {
		u.Host = firstCSV(forwarded)
		u.Scheme = "http"
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			u.Scheme = firstCSV(proto)
		}
		return u.String()
	}

	if r.Host != "" {
		u.Host = r.Host
		return u.String()
	}

	u.Host = r.URL.Hostname()
	return u.String()
}

// requestScheme derives the scheme the request itself arrived on.
func requestScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if r.URL.Scheme != "" {
		return r.URL.Scheme
	}
	return "http"
}

// firstCSV returns the first comma-separated value, trimmed. Forwarding
// proxies append their own value, so the first entry is the client-facing one.
func firstCSV(value string) string {
	if idx := strings.Index(value, ","); idx >= 0 {
		value = value[:idx]
	}
	return strings.TrimSpace(value)
}
