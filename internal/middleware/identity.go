package middleware

import "github.com/labstack/echo/v4"

// ActorID returns the verified caller id stored by JWTAuth. ok is false on
// routes that are not behind JWTAuth.
func ActorID(c echo.Context) (string, bool) {
	id, ok := c.Get(ActorKey).(string)
	return id, ok && id != ""
}

// actorOr returns the caller id or fallback, for keys of anonymous requests.
func actorOr(c echo.Context, fallback string) string {
	if id, ok := ActorID(c); ok {
		return id
	}
	return fallback
}
