package httpx

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courseq/courseq/internal/session"
)

func TestSafeRedirectPath(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"relative path", "/courses/7", "/courses/7"},
		{"path with query", "/courses/7?week=2026-09-07", "/courses/7?week=2026-09-07"},
		{"empty", "", ""},
		{"absolute url", "https://evil.example/", ""},
		{"scheme relative", "//evil.example/", ""},
		{"no leading slash", "courses/7", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, safeRedirectPath(tc.in))
		})
	}
}

func TestRequireUser(t *testing.T) {
	store := newTestStore(t)
	var reached bool
	handler := WithSession(store)(RequireUser()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		require.NotNil(t, CurrentUser(r.Context()))
	})))

	t.Run("guest is sent to login with return path", func(t *testing.T) {
		reached = false
		r := httptest.NewRequest(http.MethodGet, "/courses/7/queue", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)

		assert.False(t, reached)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login?next=%2Fcourses%2F7%2Fqueue", rec.Header().Get("Location"))
	})

	t.Run("pending identity is sent to onboarding", func(t *testing.T) {
		reached = false
		r := httptest.NewRequest(http.MethodGet, "/courses/7", nil)
		r.AddCookie(sessionCookie(t, store, session.Session{}.WithIncumbent("zz9")))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)

		assert.False(t, reached)
		assert.Equal(t, "/onboard", rec.Header().Get("Location"))
	})

	t.Run("logged-in user passes", func(t *testing.T) {
		reached = false
		r := httptest.NewRequest(http.MethodGet, "/courses/7", nil)
		r.AddCookie(sessionCookie(t, store, session.Session{}.WithUser(testUser())))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)

		assert.True(t, reached)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("tampered cookie reads as guest", func(t *testing.T) {
		reached = false
		r := httptest.NewRequest(http.MethodGet, "/courses/7", nil)
		r.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: "not-a-real-session"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)

		assert.False(t, reached)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
	})
}

func TestCompression(t *testing.T) {
	payload := strings.Repeat("office hours ", 200)
	handler := Compression(gzip.DefaultCompression)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, payload)
	}))

	t.Run("gzips html for accepting clients", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Accept-Encoding", "gzip")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)

		assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
		assert.Contains(t, rec.Header().Values("Vary"), "Accept-Encoding")

		gz, err := gzip.NewReader(rec.Body)
		require.NoError(t, err)
		body, err := io.ReadAll(gz)
		require.NoError(t, err)
		assert.Equal(t, payload, string(body))
	})

	t.Run("skips clients without gzip", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)

		assert.Empty(t, rec.Header().Get("Content-Encoding"))
		assert.Equal(t, payload, rec.Body.String())
	})

	t.Run("honors q=0 opt-out", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Accept-Encoding", "gzip;q=0")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)

		assert.Empty(t, rec.Header().Get("Content-Encoding"))
	})

	t.Run("leaves non-compressible content alone", func(t *testing.T) {
		binary := Compression(gzip.DefaultCompression)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte{0x89, 0x50, 0x4e, 0x47})
		}))
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Accept-Encoding", "gzip")
		rec := httptest.NewRecorder()
		binary.ServeHTTP(rec, r)

		assert.Empty(t, rec.Header().Get("Content-Encoding"))
	})
}

func TestCSRFProtection(t *testing.T) {
	protected := CSRFProtection(CSRFConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("get issues a token cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, r)

		require.Equal(t, http.StatusNoContent, rec.Code)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, DefaultCSRFCookieName, cookies[0].Name)
		assert.NotEmpty(t, cookies[0].Value)
	})

	t.Run("post without token is rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("post with matching form token passes", func(t *testing.T) {
		token := "fixed-test-token"
		form := strings.NewReader("csrf_token=" + token)
		r := httptest.NewRequest(http.MethodPost, "/", form)
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		r.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: token})
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("post with mismatched token is rejected", func(t *testing.T) {
		form := strings.NewReader("csrf_token=wrong")
		r := httptest.NewRequest(http.MethodPost, "/", form)
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		r.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "right"})
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("header token works for fetch requests", func(t *testing.T) {
		token := "fixed-test-token"
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.Header.Set(DefaultCSRFHeaderName, token)
		r.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: token})
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
