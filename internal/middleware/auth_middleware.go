package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"smartPromo/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type authError struct {
	Message string `json:"message"`
}

// Claims carried by operator tokens. Only the role matters here: the API has
// no per-user resources, just read endpoints and the admin-only pipeline
// trigger.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func parseToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// AuthMiddleware validates the bearer token and stores the role on the
// request context.
func AuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return c.JSON(http.StatusUnauthorized, authError{Message: "missing authorization header"})
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return c.JSON(http.StatusUnauthorized, authError{Message: "invalid authorization format"})
			}

			claims, err := parseToken(tokenParts[1], secret)
			if err != nil {
				logger.Error("failed to parse token", err)
				return c.JSON(http.StatusUnauthorized, authError{Message: "invalid token"})
			}

			expAt, err := claims.GetExpirationTime()
			if err != nil || expAt == nil {
				return c.JSON(http.StatusForbidden, authError{Message: "token has no expiration"})
			}
			if time.Now().After(expAt.Time) {
				return c.JSON(http.StatusForbidden, authError{Message: "token expired"})
			}

			c.Set("role", claims.Role)

			return next(c)
		}
	}
}

// AdminOnly gates the pipeline trigger: retraining rewrites the output table.
func AdminOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(string)
			if !ok || strings.ToUpper(role) != "ADMIN" {
				return c.JSON(http.StatusForbidden, authError{Message: "admin access required"})
			}

			return next(c)
		}
	}
}
