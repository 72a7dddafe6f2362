package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/johnquangdev/meeting-sync/pkg/ai"
)

func newWebhookServer(secrets map[string]string) *echo.Echo {
	e := echo.New()
	e.POST("/hooks/:provider", func(c echo.Context) error {
		body, _ := io.ReadAll(c.Request().Body)
		return c.String(http.StatusAccepted, string(body))
	}, RequireWebhookAuth(secrets))
	return e
}

func post(e *echo.Echo, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequireWebhookAuth_NoSecretPassesThrough(t *testing.T) {
	e := newWebhookServer(map[string]string{ProviderFireflies: ""})
	rec := post(e, "/hooks/fireflies", `{"a":1}`, nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, `{"a":1}`, rec.Body.String())
}

func TestRequireWebhookAuth_FirefliesSignature(t *testing.T) {
	e := newWebhookServer(map[string]string{ProviderFireflies: "s3cret"})
	body := `{"meetingId":"m-1"}`

	rec := post(e, "/hooks/fireflies", body, map[string]string{"x-hub-signature": "sha256=" + ai.SignHMAC("s3cret", []byte(body))})
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, body, rec.Body.String())

	rec = post(e, "/hooks/fireflies", body, map[string]string{"x-hub-signature": "deadbeef"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(e, "/hooks/fireflies", body, map[string]string{"Authorization": "Bearer s3cret"})
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestRequireWebhookAuth_ReadAISharedSecretOnly(t *testing.T) {
	e := newWebhookServer(map[string]string{ProviderReadAI: "shh"})
	body := `{"session_id":"s"}`

	rec := post(e, "/hooks/read-ai", body, map[string]string{"x-webhook-secret": "shh"})
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = post(e, "/hooks/read_ai", body, map[string]string{"x-hub-signature": ai.SignHMAC("shh", []byte(body))})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireWebhookAuth_UnknownProvider(t *testing.T) {
	e := newWebhookServer(map[string]string{ProviderFireflies: ""})
	rec := post(e, "/hooks/zoom", `{}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
