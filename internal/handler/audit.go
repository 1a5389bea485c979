package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/lab-registry/internal/model"
)

type auditQuery struct {
	Entity   string `json:"entity" query:"entity" validate:"omitempty,oneof=lab admin staff zone subzone category test"`
	EntityID string `json:"entityId" query:"entityId" validate:"omitempty,mongodb"`
	Limit    int    `json:"limit" query:"limit" validate:"omitempty,min=1,max=1000"`
}

// ListAudit handles GET /audit, newest events first. It is only routed when
// the audit pipeline is enabled.
func (h *Handler) ListAudit(c echo.Context) error {
	var req auditQuery
	if err := bind(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	events, err := h.Audit.List(c.Request().Context(), model.AuditFilter{
		Entity:   req.Entity,
		EntityID: req.EntityID,
		Limit:    req.Limit,
	})
	if err != nil {
		h.Log.Error("audit listing failed", zap.Error(err))
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"events": events})
}
