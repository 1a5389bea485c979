package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lab-registry/internal/metrics"
	"github.com/iliyamo/lab-registry/internal/repository"
)

// ok writes a success body. body gets "success": true added.
func ok(c echo.Context, status int, body echo.Map) error {
	metrics.Outcomes.WithLabelValues(c.Path(), "success").Inc()
	if body == nil {
		body = echo.Map{}
	}
	body["success"] = true
	return c.JSON(status, body)
}

// okList writes a bare JSON array, the shape of the child listing routes.
func okList(c echo.Context, list any) error {
	metrics.Outcomes.WithLabelValues(c.Path(), "success").Inc()
	return c.JSON(http.StatusOK, list)
}

// fail maps a repository outcome to its response. Every expected outcome
// is a 400 with a machine-readable body; anything else is returned to
// echo's error handler and becomes a 500.
func fail(c echo.Context, err error) error {
	var (
		dup     *repository.DuplicateError
		outcome string
		body    = echo.Map{"success": false, "message": err.Error()}
	)
	switch {
	case errors.As(err, &dup):
		outcome = "duplicate"
		body["duplicate"] = true
		body["fields"] = dup.Fields
	case errors.Is(err, repository.ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, repository.ErrUnmodified):
		outcome = "unmodified"
	case errors.Is(err, repository.ErrConflict):
		outcome = "conflict"
		body["conflict"] = true
	case errors.Is(err, repository.ErrInvalid):
		outcome = "invalid"
	case errors.Is(err, repository.ErrStore):
		outcome = "failure"
		body["message"] = "operation failed"
	default:
		metrics.Outcomes.WithLabelValues(c.Path(), "error").Inc()
		return err
	}
	metrics.Outcomes.WithLabelValues(c.Path(), outcome).Inc()
	return c.JSON(http.StatusBadRequest, body)
}

// invalid rejects a request before it reaches the repositories.
func invalid(c echo.Context, msg string) error {
	metrics.Outcomes.WithLabelValues(c.Path(), "invalid").Inc()
	return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": msg})
}

// ErrorHandler renders errors that escaped the handlers as JSON.
// echo.HTTPError keeps its status; everything else is a 500.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status, msg := http.StatusInternalServerError, "internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(he.Code)
		}
	}
	_ = c.JSON(status, echo.Map{"success": false, "message": msg})
}
