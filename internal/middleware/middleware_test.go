package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lab-registry/internal/config"
	"github.com/iliyamo/lab-registry/internal/utils"
)

const secret = "test-secret"

func serve(t *testing.T, mw []echo.MiddlewareFunc, header string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	e := echo.New()
	var actor string
	e.GET("/x", func(c echo.Context) error {
		actor, _ = ActorID(c)
		return c.NoContent(http.StatusOK)
	}, mw...)
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, actor
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	tok, err := utils.NewAccessToken(secret, "u-42", RoleSystemAdmin, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	rec, actor := serve(t, []echo.MiddlewareFunc{JWTAuth(secret), RequireRole(RoleSystemAdmin, RoleLabManager)}, "Bearer "+tok.Token)
	if rec.Code != http.StatusOK || actor != "u-42" {
		t.Fatalf("status=%d actor=%q", rec.Code, actor)
	}
}

func TestJWTAuthRejects(t *testing.T) {
	expired, _ := utils.NewAccessToken(secret, "u-1", RoleSystemAdmin, -time.Minute)
	foreign, _ := utils.NewAccessToken("other-secret", "u-1", RoleSystemAdmin, time.Hour)
	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u-1", "role": RoleSystemAdmin}).SignedString([]byte(secret))
	noSub, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": RoleSystemAdmin, "exp": time.Now().Add(time.Hour).Unix()}).SignedString([]byte(secret))

	cases := map[string]string{
		"missing header": "",
		"not bearer":     "Basic abc",
		"expired":        "Bearer " + expired.Token,
		"wrong secret":   "Bearer " + foreign.Token,
		"no expiry":      "Bearer " + noExp,
		"no subject":     "Bearer " + noSub,
	}
	for name, header := range cases {
		rec, _ := serve(t, []echo.MiddlewareFunc{JWTAuth(secret)}, header)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status=%d; want 401", name, rec.Code)
		}
	}
}

func TestRequireRoleForbidsOtherRoles(t *testing.T) {
	tok, _ := utils.NewAccessToken(secret, "u-1", "CUSTOMER", time.Hour)
	rec, _ := serve(t, []echo.MiddlewareFunc{JWTAuth(secret), RequireRole(RoleSystemAdmin)}, "Bearer "+tok.Token)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status=%d; want 403", rec.Code)
	}
}

func TestRateKeyStrategies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/lab/edit", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/v1/lab/edit")
	c.Set(ActorKey, "u-7")

	cases := map[string]string{
		"ip":            "rl:ip:10.0.0.1",
		"user_route":    "rl:user:u-7:route:PATCH /api/v1/lab/edit",
		"ip_user_route": "rl:ip:10.0.0.1:user:u-7:route:PATCH /api/v1/lab/edit",
	}
	for strategy, want := range cases {
		got := rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: strategy}, c)
		if got != want {
			t.Fatalf("%s: key=%q; want %q", strategy, got, want)
		}
	}
}

func TestDecodePayloadRejectsTruncated(t *testing.T) {
	payload, err := encodePayload(http.StatusOK, http.Header{"Content-Type": {"application/json"}}, []byte(`{"success":true}`))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, _, _, ok := decodePayload(payload[:10]); ok {
		t.Fatalf("truncated payload accepted")
	}
	status, hdr, body, ok := decodePayload(payload)
	if !ok || status != http.StatusOK || hdr.Get("Content-Type") != "application/json" || string(body) != `{"success":true}` {
		t.Fatalf("decode=%d %v %q %v", status, hdr, body, ok)
	}
}

func TestCacheDisabledWithoutRedis(t *testing.T) {
	mw := NewRedisCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, nil, nil)
	rec, _ := serve(t, []echo.MiddlewareFunc{mw}, "")
	if rec.Code != http.StatusOK || rec.Header().Get("X-Cache") != "" {
		t.Fatalf("cache must pass through without redis: %d %v", rec.Code, rec.Header())
	}
}

func TestCacheKeyBoundsBody(t *testing.T) {
	e := echo.New()
	keyFor := func(body string) (string, string, error) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/lab?x=1", strings.NewReader(body))
		c := e.NewContext(req, httptest.NewRecorder())
		key, err := cacheKey("cache", 3, 8, c)
		rest, rerr := io.ReadAll(c.Request().Body)
		if rerr != nil {
			t.Fatalf("read restored body: %v", rerr)
		}
		return key, string(rest), err
	}

	a, rest, err := keyFor(`{"a":1}`)
	if err != nil || !strings.HasPrefix(a, "cache:3:") || rest != `{"a":1}` {
		t.Fatalf("key=%q err=%v body=%q", a, err, rest)
	}
	b, _, _ := keyFor(`{"a":2}`)
	if a == b {
		t.Fatalf("different bodies share key %q", a)
	}

	big := strings.Repeat("x", 64)
	_, rest, err = keyFor(big)
	if !errors.Is(err, errBodyTooLarge) {
		t.Fatalf("err=%v; want errBodyTooLarge", err)
	}
	if rest != big {
		t.Fatalf("handler body=%d bytes; want %d", len(rest), len(big))
	}
}
