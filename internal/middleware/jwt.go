package middleware // middleware holds the HTTP middleware shared by all API routes

import (
	"net/http" // HTTP status codes for responses
	"strings"  // prefix checking and trimming

	"github.com/golang-jwt/jwt/v5" // parsing and validating tokens
	"github.com/labstack/echo/v4"  // middleware and handler types
)

// Context keys written by JWTAuth.
const (
	ActorKey = "user_id" // verified token subject, a string
	RoleKey  = "role"    // role claim, a string
)

// JWTAuth returns an Echo middleware that validates an HS256 Bearer token
// and stores its subject and role in the request context. The subject is
// the actor id stamped on every write, so a token without one is rejected.
func JWTAuth(secret string) echo.MiddlewareFunc {
	keyFunc := func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return unauthorized(c, "missing bearer token")
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			claims := jwt.MapClaims{}
			tok, err := parser.ParseWithClaims(raw, claims, keyFunc)
			if err != nil || !tok.Valid {
				return unauthorized(c, "invalid token")
			}
			sub, err := claims.GetSubject()
			if err != nil || sub == "" {
				return unauthorized(c, "token has no subject")
			}
			role, _ := claims["role"].(string) // RequireRole rejects an empty role

			c.Set(ActorKey, sub)
			c.Set(RoleKey, role)
			return next(c)
		}
	}
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": msg})
}
