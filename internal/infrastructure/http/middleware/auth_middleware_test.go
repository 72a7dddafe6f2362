package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-sync/pkg/jwt"
)

func newProtected(manager *jwt.Manager) *echo.Echo {
	e := echo.New()
	e.GET("/p", func(c echo.Context) error {
		return c.String(http.StatusOK, c.Get(UserIDContextKey).(uuid.UUID).String())
	}, EchoAuth(manager), RequireRole(jwt.RoleAdmin))
	return e
}

func TestEchoAuth(t *testing.T) {
	manager := jwt.NewManager("secret", time.Hour, "")
	e := newProtected(manager)
	id := uuid.New()

	token, err := manager.GenerateAccessToken(id, "a@example.com", jwt.RoleAdmin)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id.String(), rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/p", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole_Forbidden(t *testing.T) {
	manager := jwt.NewManager("secret", time.Hour, "")
	e := newProtected(manager)

	token, err := manager.GenerateAccessToken(uuid.New(), "a@example.com", "member")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEchoAuth_TokenErrors(t *testing.T) {
	expired := jwt.NewManager("secret", -time.Minute, "")
	token, err := expired.GenerateAccessToken(uuid.New(), "a@example.com", jwt.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		code  string
	}{
		{"expired", token, "AUTH_TOKEN_EXPIRED"},
		{"garbage", "not-a-jwt", "AUTH_INVALID_TOKEN"},
	}
	e := newProtected(jwt.NewManager("secret", time.Hour, ""))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/p", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.code)
		})
	}
}
