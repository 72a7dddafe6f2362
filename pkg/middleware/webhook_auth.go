package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "github.com/johnquangdev/meeting-sync/errors"
	"github.com/johnquangdev/meeting-sync/pkg/ai"
)

// RawBodyKey is the echo context key holding the verified raw request body
const RawBodyKey = "raw_body"

// Provider names accepted on webhook routes
const (
	ProviderFireflies = "fireflies"
	ProviderReadAI    = "read_ai"
)

// NormalizeProvider lower-cases a provider route param and maps "read-ai" to "read_ai"
func NormalizeProvider(raw string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_")
}

// RequireWebhookAuth middleware: reject unknown providers and, when a secret
// is configured for the provider, requests that fail the authenticity check.
// Fireflies accepts an HMAC-SHA256 signature of the raw body or the shared secret;
// Read AI accepts the shared secret only.
func RequireWebhookAuth(secrets map[string]string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			provider := NormalizeProvider(c.Param("provider"))
			secret, ok := secrets[provider]
			if !ok {
				return writeAppError(c, apperrors.ErrUnsupportedProvider(provider))
			}

			body, err := io.ReadAll(c.Request().Body)
			if err != nil {
				return writeAppError(c, apperrors.ErrInvalidPayload("unable to read request body"))
			}
			c.Request().Body = io.NopCloser(bytes.NewReader(body))
			c.Set(RawBodyKey, body)

			if secret == "" {
				return next(c)
			}

			req := c.Request()
			if provider == ProviderFireflies {
				if sig := req.Header.Get("x-hub-signature"); sig != "" && ai.VerifyHMAC(secret, body, sig) {
					return next(c)
				}
			}
			if ai.SecretEqual(secret, presentedSecret(req)) {
				return next(c)
			}

			return writeAppError(c, apperrors.ErrWebhookUnauthorized(provider))
		}
	}
}

func presentedSecret(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get("x-webhook-secret")); v != "" {
		return v
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func writeAppError(c echo.Context, appErr apperrors.AppError) error {
	body := map[string]interface{}{
		"code":    appErr.Code,
		"message": appErr.Message,
	}
	if appErr.Raw != nil {
		body["info"] = appErr.Raw.Error()
	} else if reason := appErr.Details["reason"]; reason != "" {
		body["info"] = reason
	}
	return c.JSON(appErr.HTTPCode, body)
}
