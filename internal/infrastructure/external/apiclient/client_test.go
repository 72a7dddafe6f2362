package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "2022-06-28", r.Header.Get("Notion-Version"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"id":"page-1"}`))
	}))
	defer srv.Close()

	c := New("Notion", srv.URL+"/", nil, time.Second).WithHeader("Authorization", "Bearer tok")
	var out struct {
		ID string `json:"id"`
	}
	err := c.DoJSON(context.Background(), http.MethodPost, "/pages", http.Header{"Notion-Version": {"2022-06-28"}}, map[string]string{"a": "b"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "page-1", out.ID)
}

func TestDoJSON_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bad":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("validation failed\n"))
		case "/empty":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			_, _ = w.Write([]byte("not json"))
		}
	}))
	defer srv.Close()
	c := New("Monday", srv.URL, nil, time.Second)

	err := c.DoJSON(context.Background(), http.MethodGet, "/bad", nil, nil, nil)
	require.Error(t, err)
	assert.Equal(t, "Monday API HTTP 400: validation failed", err.Error())
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))

	err = c.DoJSON(context.Background(), http.MethodGet, "/empty", nil, nil, nil)
	assert.Equal(t, "Monday API HTTP 401: empty response body", err.Error())

	var out map[string]interface{}
	err = c.DoJSON(context.Background(), http.MethodGet, "/text", nil, nil, &out)
	assert.EqualError(t, err, "Monday API returned invalid JSON.")
	assert.Zero(t, StatusCode(err))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab...", Truncate("abcdefgh", 5))
	assert.Equal(t, "ñá...", Truncate("ñáéíóú", 5))
}
