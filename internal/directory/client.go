// Package directory looks up people in the campus directory service. The
// login flow uses it to auto-provision users whose identity the SSO provider
// confirmed but who have no application record yet.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"

	apperrors "github.com/courseq/courseq/internal/errors"
)

const maxResponseBytes = 1 << 20

// Person is a directory record for one net ID.
type Person struct {
	NetID     string `json:"net_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Year      *int   `json:"year,omitempty"`
}

// Lookuper is the port the auth flow depends on. Lookup returns (nil, nil)
// when the directory has no record for the net ID.
type Lookuper interface {
	Lookup(ctx context.Context, netID string) (*Person, error)
}

// FieldMap holds JMESPath expressions evaluated against a single directory
// record to extract person fields. Directory deployments disagree on field
// names, so the mapping is configuration.
type FieldMap struct {
	FirstName string
	LastName  string
	Email     string
	Year      string
}

// DefaultFieldMap matches the campus people-search payload.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		FirstName: "first_name",
		LastName:  "last_name",
		Email:     "email",
		Year:      "class_year",
	}
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// URL is the people-search endpoint.
	URL string
	// APIKey is sent as a bearer token.
	APIKey string
	// Fields defaults to DefaultFieldMap.
	Fields FieldMap
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Client queries the directory service over HTTP.
type Client struct {
	url    string
	apiKey string
	fields FieldMap
	httpc  *http.Client
}

// NewClient builds a directory client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, apperrors.Configuration("directory service URL is required")
	}
	fields := cfg.Fields
	if fields == (FieldMap{}) {
		fields = DefaultFieldMap()
	}
	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &Client{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		fields: fields,
		httpc:  httpc,
	}, nil
}

type lookupRequest struct {
	Filters struct {
		NetID string `json:"netid"`
	} `json:"filters"`
}

// Lookup fetches the directory record for a net ID. A missing record is
// (nil, nil); a non-success response from the service aborts the login with
// a directory failure.
func (c *Client) Lookup(ctx context.Context, netID string) (*Person, error) {
	var payload lookupRequest
	payload.Filters.NetID = netID
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "encoding directory request failed")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "building directory request failed")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDirectoryFailure, "directory request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.DirectoryFailure(
			fmt.Sprintf("directory service returned status %d", resp.StatusCode),
		)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDirectoryFailure, "reading directory response failed")
	}

	return c.decodePerson(netID, raw)
}

// decodePerson extracts the first record from the response array, applying
// the configured field expressions. Empty and null arrays are a miss.
func (c *Client) decodePerson(netID string, raw []byte) (*Person, error) {
	var records []any
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDirectoryFailure, "unparseable directory response")
	}
	if len(records) == 0 {
		return nil, nil
	}
	record := records[0]

	person := &Person{NetID: netID}
	person.FirstName = searchString(c.fields.FirstName, record)
	person.LastName = searchString(c.fields.LastName, record)
	person.Email = searchString(c.fields.Email, record)
	person.Year = searchYear(c.fields.Year, record)
	return person, nil
}

// searchString evaluates a JMESPath expression, coercing the result to a string.
func searchString(expr string, record any) string {
	if expr == "" {
		return ""
	}
	value, err := jmespath.Search(expr, record)
	if err != nil || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// searchYear evaluates a JMESPath expression, coercing numeric or numeric-string
// results to a class year. Unset or unparseable values are nil.
func searchYear(expr string, record any) *int {
	if expr == "" {
		return nil
	}
	value, err := jmespath.Search(expr, record)
	if err != nil || value == nil {
		return nil
	}
	switch v := value.(type) {
	case float64:
		year := int(v)
		return &year
	case string:
		if year, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return &year
		}
	}
	return nil
}
