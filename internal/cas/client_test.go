package cas

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/courseq/courseq/internal/errors"
)

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(ClientConfig{BaseURL: "", Version: VersionCAS3})
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))

	_, err = NewClient(ClientConfig{BaseURL: "https://sso.example.edu/cas", Version: Version("CAS9.9")})
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
}

func TestClient_LoginURL(t *testing.T) {
	client, err := NewClient(ClientConfig{BaseURL: "https://sso.example.edu/cas/", Version: VersionCAS3})
	require.NoError(t, err)

	original := url.Values{}
	original.Set("next", "/courses/7")
	original.Set("ticket", "ST-stale") // never forwarded to the provider

	loginURL := client.LoginURL("https://ohq.example.edu/login/callback", original)

	parsed, err := url.Parse(loginURL)
	require.NoError(t, err)
	assert.Equal(t, "https://sso.example.edu/cas/login", parsed.Scheme+"://"+parsed.Host+parsed.Path)

	q := parsed.Query()
	assert.Equal(t, "https://ohq.example.edu/login/callback", q.Get("service"))
	assert.Equal(t, "/courses/7", q.Get("next"))
	assert.Empty(t, q.Get("ticket"))
}

func TestClient_ValidateTicket_GetExchange(t *testing.T) {
	var gotPath string
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`<serviceResponse><authenticationSuccess><user>bm7</user></authenticationSuccess></serviceResponse>`))
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{BaseURL: server.URL, Version: VersionCAS3})
	require.NoError(t, err)

	result, err := client.ValidateTicket(context.Background(), "ST-123", "https://ohq.example.edu/login/callback")
	require.NoError(t, err)
	assert.Equal(t, "bm7", result.ExternalID)

	assert.Equal(t, "/p3/serviceValidate", gotPath)
	assert.Equal(t, "ST-123", gotQuery.Get("ticket"))
	assert.Equal(t, "https://ohq.example.edu/login/callback", gotQuery.Get("service"))
}

func TestClient_ValidateTicket_ValidatePathOverride(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte("yes\nbm7\n"))
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{
		BaseURL:              server.URL,
		Version:              VersionCAS1,
		ValidatePathOverride: "/custom/validate",
	})
	require.NoError(t, err)

	result, err := client.ValidateTicket(context.Background(), "ST-123", "https://ohq.example.edu/login/callback")
	require.NoError(t, err)
	assert.Equal(t, "bm7", result.ExternalID)
	assert.Equal(t, "/custom/validate", gotPath)
}

func TestClient_ValidateTicket_SAMLExchange(t *testing.T) {
	var gotMethod, gotPath, gotBody, gotContentType string
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		_, _ = w.Write([]byte(samlSuccessBody))
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{BaseURL: server.URL, Version: VersionCAS3SAML})
	require.NoError(t, err)
	client.now = func() time.Time { return time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC) }
	client.newRequestID = func() string { return "_req-abc123" }

	result, err := client.ValidateTicket(context.Background(), "ST-456", "https://ohq.example.edu/login/callback")
	require.NoError(t, err)
	assert.Equal(t, "bm7", result.ExternalID)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/samlValidate", gotPath)
	assert.Equal(t, "text/xml", gotContentType)

	// the service travels as TARGET, not service
	assert.Equal(t, "https://ohq.example.edu/login/callback", gotQuery.Get("TARGET"))
	assert.Empty(t, gotQuery.Get("service"))

	assert.Contains(t, gotBody, `RequestID="_req-abc123"`)
	assert.Contains(t, gotBody, `IssueInstant="2026-01-15T10:30:00Z"`)
	assert.Contains(t, gotBody, "<samlp:AssertionArtifact>ST-456</samlp:AssertionArtifact>")
}

func TestClient_ValidateTicket_Non2xxIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{BaseURL: server.URL, Version: VersionCAS2})
	require.NoError(t, err)

	_, err = client.ValidateTicket(context.Background(), "ST-123", "https://ohq.example.edu/login/callback")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeTransport, apperrors.GetCode(err))
	assert.True(t, apperrors.IsAuthenticationFailure(err))
}

func TestClient_ValidateTicket_NetworkFailureIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client, err := NewClient(ClientConfig{BaseURL: server.URL, Version: VersionCAS2})
	require.NoError(t, err)

	_, err = client.ValidateTicket(context.Background(), "ST-123", "https://ohq.example.edu/login/callback")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeTransport, apperrors.GetCode(err))
}

func TestClient_LogoutURL(t *testing.T) {
	client, err := NewClient(ClientConfig{BaseURL: "https://sso.example.edu/cas", Version: VersionCAS2})
	require.NoError(t, err)
	assert.Equal(t, "https://sso.example.edu/cas/logout", client.LogoutURL())
}
