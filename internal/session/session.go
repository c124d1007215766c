// Package session manages the signed, cookie-backed session blob. The
// session lives entirely client-side; the server only verifies and re-signs
// it, so there is no shared in-process session state between requests.
package session

import (
	"net/http"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/courseq/courseq/internal/domain/model"
	apperrors "github.com/courseq/courseq/internal/errors"
)

// DefaultCookieName matches the cookie the web client expects.
const DefaultCookieName = "__session"

const defaultMaxAge = 7 * 24 * time.Hour

// Session is the authenticated state carried in the cookie. User and
// IncumbentNetID are mutually exclusive in normal flow: a login that
// resolves to a known user sets User, a login pending onboarding sets
// IncumbentNetID, and onboarding completion swaps the latter for the former.
type Session struct {
	User           *model.User `json:"user,omitempty"`
	IncumbentNetID string      `json:"incumbentUser,omitempty"`
}

// IsEmpty reports whether the session carries no identity at all.
func (s Session) IsEmpty() bool {
	return s.User == nil && s.IncumbentNetID == ""
}

// WithUser returns a copy carrying the resolved user and no incumbent.
func (s Session) WithUser(u *model.User) Session {
	s.User = u
	s.IncumbentNetID = ""
	return s
}

// WithIncumbent returns a copy carrying a bare external identity awaiting
// onboarding and no resolved user.
func (s Session) WithIncumbent(netID string) Session {
	s.User = nil
	s.IncumbentNetID = netID
	return s
}

// Config configures a Store.
type Config struct {
	// CookieName defaults to DefaultCookieName.
	CookieName string
	// Secrets are the signing secrets, newest first. Every secret verifies
	// incoming cookies; only the newest signs outgoing ones, which is what
	// makes rotation safe: deploy the new secret in front, keep the old one
	// until outstanding cookies expire.
	Secrets []string
	// MaxAge bounds cookie validity; defaults to one week.
	MaxAge time.Duration
	// Secure marks the cookie HTTPS-only.
	Secure bool
}

// Store encodes and decodes the session cookie.
type Store struct {
	name   string
	codecs []securecookie.Codec
	maxAge time.Duration
	secure bool
}

// NewStore builds a Store from one or more signing secrets.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Secrets) == 0 {
		return nil, apperrors.Configuration("at least one session signing secret is required")
	}
	name := cfg.CookieName
	if name == "" {
		name = DefaultCookieName
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = defaultMaxAge
	}

	codecs := make([]securecookie.Codec, 0, len(cfg.Secrets))
	for _, secret := range cfg.Secrets {
		if secret == "" {
			return nil, apperrors.Configuration("session signing secret cannot be empty")
		}
		sc := securecookie.New([]byte(secret), nil)
		sc.SetSerializer(securecookie.JSONEncoder{})
		sc.MaxAge(int(maxAge.Seconds()))
		codecs = append(codecs, sc)
	}

	return &Store{
		name:   name,
		codecs: codecs,
		maxAge: maxAge,
		secure: cfg.Secure,
	}, nil
}

// Get returns the session carried by the request. A missing, expired, or
// tampered cookie yields an empty session, never an error: an unauthenticated
// request is ordinary traffic, not a failure.
func (st *Store) Get(r *http.Request) Session {
	cookie, err := r.Cookie(st.name)
	if err != nil {
		return Session{}
	}
	var s Session
	if err := securecookie.DecodeMulti(st.name, cookie.Value, &s, st.codecs...); err != nil {
		return Session{}
	}
	return s
}

// Commit signs the session with the newest secret and sets the cookie.
func (st *Store) Commit(w http.ResponseWriter, s Session) error {
	encoded, err := securecookie.EncodeMulti(st.name, s, st.codecs...)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "encoding session cookie failed")
	}
	http.SetCookie(w, &http.Cookie{
		Name:     st.name,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(st.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   st.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Destroy sets an immediately-expiring cookie, logging the client out.
func (st *Store) Destroy(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     st.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   st.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
