package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestErrorHandlerRendersJSON(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	e.GET("/denied", func(c echo.Context) error { return echo.ErrUnauthorized })
	e.GET("/boom", func(c echo.Context) error { return errors.New("disk on fire") })

	cases := []struct {
		path   string
		status int
		msg    string
	}{
		{"/denied", http.StatusUnauthorized, "Unauthorized"},
		{"/boom", http.StatusInternalServerError, "internal server error"},
		{"/nowhere", http.StatusNotFound, "Not Found"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if rec.Code != tc.status {
			t.Fatalf("%s: status=%d; want %d", tc.path, rec.Code, tc.status)
		}
		var body map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: body %q: %v", tc.path, rec.Body.String(), err)
		}
		if body["success"] != false || body["message"] != tc.msg {
			t.Fatalf("%s: body=%v; want message %q", tc.path, body, tc.msg)
		}
	}
}

func TestValidatorRejectsBlankNames(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()

	cases := []struct {
		body string
		msg  string
	}{
		{`{"zoneName":"   "}`, "zoneName must not be blank"},
		{`{}`, "zoneName is required"},
		{`{"zoneName":" north "}`, ""},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/zone/add", strings.NewReader(tc.body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		c := e.NewContext(req, httptest.NewRecorder())
		var dst addZoneRequest
		err := bind(c, &dst)
		got := ""
		if err != nil {
			got = err.Error()
		}
		if got != tc.msg {
			t.Fatalf("%s: err=%q; want %q", tc.body, got, tc.msg)
		}
	}

	var patch editTestRequest
	req := httptest.NewRequest(http.MethodPatch, "/test/edit",
		strings.NewReader(`{"categoryId":"64b7f0c2a1b2c3d4e5f60718","testId":"64b7f0c2a1b2c3d4e5f60719","testName":" "}`))
	if err := bindStrict(e.NewContext(req, httptest.NewRecorder()), &patch); err == nil || err.Error() != "testName must not be blank" {
		t.Fatalf("err=%v; want testName must not be blank", err)
	}
}
