package oauth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type memoryStore struct {
	userID string
	values map[string]string
	err    error
}

func (m *memoryStore) StoreTokens(_ context.Context, userID string, values map[string]string) error {
	m.userID = userID
	m.values = values
	return m.err
}

func tokenServer(t *testing.T, calls *int32, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "rt-1", r.Form.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func testConfig(url string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{TokenURL: url, AuthStyle: oauth2.AuthStyleInParams},
	}
}

func TestAccessToken_RefreshesWhenMissingAndPersists(t *testing.T) {
	var calls int32
	srv := tokenServer(t, &calls, `{"access_token":"at-2","refresh_token":"rt-2","token_type":"Bearer","expires_in":3600}`)
	defer srv.Close()

	store := &memoryStore{}
	s := NewSource(SourceOptions{
		Name:         "Google OAuth",
		Config:       testConfig(srv.URL),
		RefreshToken: "rt-1",
		UserID:       "user-1",
		Keys:         GoogleKeys,
		Store:        store,
	})

	token, err := s.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "at-2", token)

	token, err = s.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "at-2", token)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	assert.Equal(t, "user-1", store.userID)
	assert.Equal(t, map[string]string{
		"GOOGLE_CALENDAR_API_TOKEN":     "at-2",
		"GOOGLE_CALENDAR_REFRESH_TOKEN": "rt-2",
	}, store.values)
}

func TestAccessToken_MissingWithoutRefresh(t *testing.T) {
	s := NewSource(SourceOptions{
		Name:           "Outlook OAuth",
		MissingMessage: "OUTLOOK_CALENDAR_API_TOKEN is missing. Reconnect Outlook Calendar using OAuth.",
	})
	assert.False(t, s.CanRefresh())
	_, err := s.AccessToken(context.Background())
	assert.EqualError(t, err, "OUTLOOK_CALENDAR_API_TOKEN is missing. Reconnect Outlook Calendar using OAuth.")

	_, err = s.Refresh(context.Background())
	assert.EqualError(t, err, "Outlook OAuth refresh token flow is not configured.")
}

func TestRefresh_StoreFailureIsIgnored(t *testing.T) {
	var calls int32
	srv := tokenServer(t, &calls, `{"access_token":"at-3","token_type":"Bearer"}`)
	defer srv.Close()

	s := NewSource(SourceOptions{
		Name:         "Google OAuth",
		Config:       testConfig(srv.URL),
		AccessToken:  "stale",
		RefreshToken: "rt-1",
		UserID:       "user-1",
		Keys:         GoogleKeys,
		Store:        &memoryStore{err: errors.New("db down")},
	})
	token, err := s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "at-3", token)
}

func TestNewConfigs(t *testing.T) {
	assert.Nil(t, NewGoogleConfig("", "secret"))
	g := NewGoogleConfig(" id ", "secret")
	require.NotNil(t, g)
	assert.Equal(t, "id", g.ClientID)

	o := NewOutlookConfig("id", "secret", "")
	require.NotNil(t, o)
	assert.Contains(t, o.Endpoint.TokenURL, "/common/oauth2/v2.0/token")
	assert.Contains(t, o.Scopes, "offline_access")
}
