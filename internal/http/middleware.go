package httpx

import (
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/courseq/courseq/internal/session"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// WithSession returns a middleware that decodes the session cookie into the
// request context. It never rejects: a missing or tampered cookie simply
// yields an empty session.
func WithSession(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := SetSessionInContext(r.Context(), store.Get(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser returns a middleware guarding pages that need a logged-in user.
// Guests are sent to the login flow with the current path as the return
// target; identities mid-onboarding are sent to finish onboarding first.
func RequireUser() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := GetSessionFromContext(r.Context())
			if s.User != nil {
				next.ServeHTTP(w, r)
				return
			}
			if s.IncumbentNetID != "" {
				http.Redirect(w, r, "/onboard", http.StatusSeeOther)
				return
			}
			redirectToLogin(w, r)
		})
	}
}

// redirectToLogin sends the browser to the login flow with the current URL as
// the post-login return target.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := safeRedirectPath(r.URL.RequestURI())
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, "/login?next="+url.QueryEscape(target), http.StatusSeeOther)
}

// safeRedirectPath keeps post-login redirects inside the application: only
// absolute paths are accepted, never scheme-relative or absolute URLs.
func safeRedirectPath(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return ""
	}
	return raw
}
