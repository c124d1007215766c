package cas

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/courseq/courseq/internal/errors"
)

// maxResponseBytes bounds the validation response body read.
const maxResponseBytes = 1 << 20

const samlEnvelope = `<SOAP-ENV:Envelope xmlns:SOAP-ENV="http://schemas.xmlsoap.org/soap/envelope/"><SOAP-ENV:Header/><SOAP-ENV:Body><samlp:Request xmlns:samlp="urn:oasis:names:tc:SAML:1.0:protocol" MajorVersion="1" MinorVersion="1" RequestID="%s" IssueInstant="%s"><samlp:AssertionArtifact>%s</samlp:AssertionArtifact></samlp:Request></SOAP-ENV:Body></SOAP-ENV:Envelope>`

// ClientConfig configures a Client.
type ClientConfig struct {
	// BaseURL is the identity provider root, e.g. "https://secure.its.example.edu/cas".
	BaseURL string
	// Version selects the protocol variant.
	Version Version
	// ValidatePathOverride, when set, replaces the version's default validation path.
	ValidatePathOverride string
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Client speaks the ticket-validation side of the CAS protocol.
// A validation call is issued exactly once per ticket: tickets are
// single-use, so transport failures surface to the caller instead of
// being retried.
type Client struct {
	baseURL      string
	version      Version
	validatePath string
	httpc        *http.Client

	// injectable for tests
	now          func() time.Time
	newRequestID func() string
}

// NewClient builds a Client, rejecting unsupported versions at construction
// time so a misconfigured deployment fails on startup rather than on the
// first login.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, apperrors.Configuration("identity provider base URL is required")
	}
	if !cfg.Version.Valid() {
		return nil, apperrors.Configurationf("unsupported CAS protocol version %q", string(cfg.Version))
	}
	validatePath := cfg.ValidatePathOverride
	if validatePath == "" {
		validatePath = cfg.Version.ValidatePath()
	}
	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		version:      cfg.Version,
		validatePath: validatePath,
		httpc:        httpc,
		now:          time.Now,
		newRequestID: func() string { return uuid.NewString() },
	}, nil
}

// Version returns the configured protocol version.
func (c *Client) Version() Version { return c.version }

// LoginURL builds the provider login URL for the challenge redirect. The
// original request's query parameters are preserved and service is set to
// the resolved callback; the provider echoes service back on the return leg.
func (c *Client) LoginURL(service string, original url.Values) string {
	q := url.Values{}
	for key, values := range original {
		if key == "ticket" {
			continue
		}
		q[key] = values
	}
	q.Set("service", service)
	return c.baseURL + "/login?" + q.Encode()
}

// LogoutURL returns the provider's logout endpoint.
func (c *Client) LogoutURL() string {
	return c.baseURL + "/logout"
}

// ValidateTicket exchanges a single-use ticket for an authentication result.
// The service URL must be byte-identical to the one sent on the challenge
// redirect or the provider rejects the ticket.
func (c *Client) ValidateTicket(ctx context.Context, ticket, service string) (*AuthResult, error) {
	req, err := c.buildValidateRequest(ctx, ticket, service)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeTransport, "ticket validation request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.Transportf("validation endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeTransport, "reading validation response failed")
	}

	return ParseResponse(c.version, string(body))
}

// buildValidateRequest constructs the version-appropriate validation request:
// GET with ticket/service for the plain variants, POST with a SOAP envelope
// and TARGET for the SAML variants.
func (c *Client) buildValidateRequest(ctx context.Context, ticket, service string) (*http.Request, error) {
	endpoint := c.baseURL + c.validatePath

	if !c.version.UsesSAML() {
		q := url.Values{}
		q.Set("ticket", ticket)
		q.Set("service", service)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "building validation request failed")
		}
		return req, nil
	}

	q := url.Values{}
	q.Set("TARGET", service)
	envelope := fmt.Sprintf(samlEnvelope, c.newRequestID(), c.now().UTC().Format(time.RFC3339), ticket)
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		endpoint+"?"+q.Encode(),
		strings.NewReader(envelope),
	)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "building validation request failed")
	}
	req.Header.Set("Content-Type", "text/xml")
	return req, nil
}
