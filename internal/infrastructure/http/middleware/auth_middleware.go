package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "github.com/johnquangdev/meeting-sync/errors"
	"github.com/johnquangdev/meeting-sync/pkg/jwt"
)

const (
	// ClaimsContextKey is the echo context key for the validated token claims
	ClaimsContextKey = "claims"
	// UserIDContextKey is the echo context key for the caller's user id
	UserIDContextKey = "user_id"
)

// EchoAuth returns an Echo middleware that validates the bearer JWT and sets
// "claims" (*jwt.Claims) and "user_id" (uuid.UUID) into Echo context
func EchoAuth(manager *jwt.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c.Request())
			if token == "" {
				return deny(c, apperrors.ErrUnauthenticated())
			}

			claims, err := manager.ValidateAccessToken(token)
			if err != nil {
				if jwt.IsExpired(err) {
					return deny(c, apperrors.ErrTokenExpired())
				}
				return deny(c, apperrors.ErrInvalidToken())
			}

			c.Set(ClaimsContextKey, claims)
			c.Set(UserIDContextKey, claims.UserID)

			return next(c)
		}
	}
}

// RequireRole checks that the authenticated caller has one of the roles
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(ClaimsContextKey).(*jwt.Claims)
			if !ok {
				return deny(c, apperrors.ErrUnauthenticated())
			}
			for _, role := range roles {
				if claims.Role == role {
					return next(c)
				}
			}
			return deny(c, apperrors.ErrPermissionDenied())
		}
	}
}

func extractToken(r *http.Request) string {
	// Try Authorization header first
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return strings.TrimSpace(parts[1])
		}
	}

	// Try cookie as fallback
	cookie, err := r.Cookie("access_token")
	if err == nil {
		return cookie.Value
	}

	return ""
}

func deny(c echo.Context, appErr apperrors.AppError) error {
	return c.JSON(appErr.HTTPCode, map[string]interface{}{
		"code":    appErr.Code,
		"message": appErr.Message,
	})
}
