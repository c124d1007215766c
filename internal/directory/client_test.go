package directory

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/courseq/courseq/internal/errors"
)

func TestClient_Lookup_Success(t *testing.T) {
	var gotAuth, gotContentType string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`[{"first_name":"Bob","last_name":"Miller","email":"bob.miller@example.edu","class_year":2027}]`))
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{URL: server.URL, APIKey: "dir-key-123"})
	require.NoError(t, err)

	person, err := client.Lookup(context.Background(), "bm7")
	require.NoError(t, err)
	require.NotNil(t, person)

	assert.Equal(t, "bm7", person.NetID)
	assert.Equal(t, "Bob", person.FirstName)
	assert.Equal(t, "Miller", person.LastName)
	assert.Equal(t, "bob.miller@example.edu", person.Email)
	require.NotNil(t, person.Year)
	assert.Equal(t, 2027, *person.Year)

	assert.Equal(t, "Bearer dir-key-123", gotAuth)
	assert.Equal(t, "application/json", gotContentType)

	var payload map[string]map[string]string
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Equal(t, "bm7", payload["filters"]["netid"])
}

func TestClient_Lookup_Miss(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty array", body: `[]`},
		{name: "null", body: `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := NewClient(ClientConfig{URL: server.URL})
			require.NoError(t, err)

			person, err := client.Lookup(context.Background(), "ghost")
			require.NoError(t, err)
			assert.Nil(t, person)
		})
	}
}

func TestClient_Lookup_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{URL: server.URL})
	require.NoError(t, err)

	_, err = client.Lookup(context.Background(), "bm7")
	require.Error(t, err)
	assert.True(t, apperrors.IsDirectoryFailure(err))
}

func TestClient_Lookup_YearAsString(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"first_name":"Ana","last_name":"Lopez","email":"a@example.edu","class_year":"2028"}]`))
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{URL: server.URL})
	require.NoError(t, err)

	person, err := client.Lookup(context.Background(), "al9")
	require.NoError(t, err)
	require.NotNil(t, person.Year)
	assert.Equal(t, 2028, *person.Year)
}

func TestClient_Lookup_CustomFieldMap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"profile":{"givenName":"Ana","surname":"Lopez"},"contact":{"mail":"a@example.edu"}}]`))
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{
		URL: server.URL,
		Fields: FieldMap{
			FirstName: "profile.givenName",
			LastName:  "profile.surname",
			Email:     "contact.mail",
		},
	})
	require.NoError(t, err)

	person, err := client.Lookup(context.Background(), "al9")
	require.NoError(t, err)
	assert.Equal(t, "Ana", person.FirstName)
	assert.Equal(t, "Lopez", person.LastName)
	assert.Equal(t, "a@example.edu", person.Email)
	assert.Nil(t, person.Year)
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
}

// fakeCache is an in-memory Cache for testing the cached client.
type fakeCache struct {
	entries  map[string][]byte
	getErr   error
	setErr   error
	setCalls int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (f *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.entries[key], nil
}

func (f *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	f.setCalls++
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[key] = value
	return nil
}

// countingLookuper records how many times the underlying directory was hit.
type countingLookuper struct {
	person *Person
	err    error
	calls  int
}

func (c *countingLookuper) Lookup(_ context.Context, _ string) (*Person, error) {
	c.calls++
	return c.person, c.err
}

func TestCachedClient_ServesFromCache(t *testing.T) {
	inner := &countingLookuper{person: &Person{NetID: "bm7", FirstName: "Bob"}}
	cache := newFakeCache()
	client := NewCachedClient(inner, cache, time.Minute, nil)

	first, err := client.Lookup(context.Background(), "bm7")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := client.Lookup(context.Background(), "bm7")
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Equal(t, 1, inner.calls, "second lookup should come from cache")
	assert.Equal(t, *first, *second)
}

func TestCachedClient_DoesNotCacheMisses(t *testing.T) {
	inner := &countingLookuper{person: nil}
	cache := newFakeCache()
	client := NewCachedClient(inner, cache, time.Minute, nil)

	for range 2 {
		person, err := client.Lookup(context.Background(), "ghost")
		require.NoError(t, err)
		assert.Nil(t, person)
	}

	assert.Equal(t, 2, inner.calls)
	assert.Zero(t, cache.setCalls)
}

func TestCachedClient_CacheFailureFallsThrough(t *testing.T) {
	inner := &countingLookuper{person: &Person{NetID: "bm7"}}
	cache := newFakeCache()
	cache.getErr = errors.New("redis down")
	client := NewCachedClient(inner, cache, time.Minute, nil)

	person, err := client.Lookup(context.Background(), "bm7")
	require.NoError(t, err)
	require.NotNil(t, person)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedClient_LookupErrorPropagates(t *testing.T) {
	inner := &countingLookuper{err: apperrors.DirectoryFailure("500")}
	client := NewCachedClient(inner, newFakeCache(), time.Minute, nil)

	_, err := client.Lookup(context.Background(), "bm7")
	require.Error(t, err)
	assert.True(t, apperrors.IsDirectoryFailure(err))
}
