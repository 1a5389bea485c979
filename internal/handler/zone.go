package handler // zone handlers manage zones and their subzones

import (
	"net/http" // http provides status code constants

	"github.com/labstack/echo/v4"                 // echo is the web framework used for handlers
	"go.mongodb.org/mongo-driver/bson/primitive" // primitive holds object ids

	"github.com/iliyamo/lab-registry/internal/model"      // model defines subzones
	"github.com/iliyamo/lab-registry/internal/queue"      // queue names lifecycle actions
	"github.com/iliyamo/lab-registry/internal/repository" // repository holds the zone logic
)

type zoneRef struct {
	ZoneID string `json:"zoneId" query:"zoneId" validate:"required,mongodb"`
}

type addZoneRequest struct {
	ZoneName string `json:"zoneName" validate:"required,notblank"`
}

type editZoneRequest struct {
	ZoneID   string `json:"zoneId" validate:"required,mongodb"`
	ZoneName string `json:"zoneName" validate:"required,notblank"`
}

type addSubZoneRequest struct {
	ZoneID      string `json:"zoneId" validate:"required,mongodb"`
	SubZoneName string `json:"subZoneName" validate:"required,notblank"`
}

type editSubZoneRequest struct {
	ZoneID      string `json:"zoneId" validate:"required,mongodb"`
	SubZoneID   string `json:"subZoneId" validate:"required,mongodb"`
	SubZoneName string `json:"subZoneName" validate:"required,notblank"`
}

type subZoneRef struct {
	ZoneID    string `json:"zoneId" query:"zoneId" validate:"required,mongodb"`
	SubZoneID string `json:"subZoneId" query:"subZoneId" validate:"required,mongodb"`
}

// AddZone handles POST /zone/add.
func (h *Handler) AddZone(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return echo.ErrUnauthorized
	}
	var req addZoneRequest
	if err := bind(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	zone, err := h.Zones.Create(c.Request().Context(), req.ZoneName, who)
	if err != nil {
		return fail(c, err)
	}
	h.emit(c, "zone", queue.ActionCreated, zone.ID, primitive.NilObjectID)
	return ok(c, http.StatusCreated, echo.Map{"zone": zone})
}

// GetZone handles GET /zone.
func (h *Handler) GetZone(c echo.Context) error {
	var req zoneRef
	if err := bind(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	zone, err := h.Zones.Get(c.Request().Context(), oid(req.ZoneID))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"zone": zone})
}

// ListZones handles GET /zone/all, sorted by name.
func (h *Handler) ListZones(c echo.Context) error {
	zones, err := h.Zones.List(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"zones": zones})
}

// EditZone handles PATCH /zone/edit. Only the name can change.
func (h *Handler) EditZone(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return echo.ErrUnauthorized
	}
	var req editZoneRequest
	if err := bindStrict(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	zone, err := h.Zones.Rename(c.Request().Context(), oid(req.ZoneID), req.ZoneName, who)
	if err != nil {
		return fail(c, err)
	}
	h.emit(c, "zone", queue.ActionUpdated, zone.ID, primitive.NilObjectID)
	return ok(c, http.StatusOK, echo.Map{"zone": zone})
}

// DeleteZone handles DELETE /zone/delete. A zone used by a live lab stays.
func (h *Handler) DeleteZone(c echo.Context) error {
	if _, err := actor(c); err != nil {
		return echo.ErrUnauthorized
	}
	var req zoneRef
	if err := bind(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	id := oid(req.ZoneID)
	if err := h.Zones.Delete(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	h.emit(c, "zone", queue.ActionRemoved, id, primitive.NilObjectID)
	return ok(c, http.StatusOK, echo.Map{"zoneId": id})
}

// AddSubZone handles POST /zone/subzone/add.
func (h *Handler) AddSubZone(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return echo.ErrUnauthorized
	}
	var req addSubZoneRequest
	if err := bind(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	zoneID := oid(req.ZoneID)
	sub, err := h.Zones.SubZones.Add(c.Request().Context(), zoneID, model.SubZone{SubZoneName: req.SubZoneName}, who)
	if err != nil {
		return fail(c, err)
	}
	h.emit(c, "subzone", queue.ActionCreated, zoneID, sub.ID)
	return ok(c, http.StatusCreated, echo.Map{"subZone": sub})
}

// ListSubZones handles GET /zone/subzone/all.
func (h *Handler) ListSubZones(c echo.Context) error {
	var req zoneRef
	if err := bind(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	subs, err := h.Zones.SubZones.List(c.Request().Context(), oid(req.ZoneID))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"subZones": subs})
}

// EditSubZone handles PATCH /zone/subzone/edit.
func (h *Handler) EditSubZone(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return echo.ErrUnauthorized
	}
	var req editSubZoneRequest
	if err := bindStrict(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	zoneID, subID := oid(req.ZoneID), oid(req.SubZoneID)
	sub, err := h.Zones.SubZones.Update(c.Request().Context(), zoneID, subID,
		repository.SubZonePatch{SubZoneName: &req.SubZoneName}, who)
	if err != nil {
		return fail(c, err)
	}
	h.emit(c, "subzone", queue.ActionUpdated, zoneID, subID)
	return ok(c, http.StatusOK, echo.Map{"subZone": sub})
}

// DeleteSubZone handles DELETE /zone/subzone/delete. A subzone used by a
// live lab stays.
func (h *Handler) DeleteSubZone(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return echo.ErrUnauthorized
	}
	var req subZoneRef
	if err := bind(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	zoneID, subID := oid(req.ZoneID), oid(req.SubZoneID)
	if err := h.Zones.RemoveSubZone(c.Request().Context(), zoneID, subID, who); err != nil {
		return fail(c, err)
	}
	h.emit(c, "subzone", queue.ActionRemoved, zoneID, subID)
	return ok(c, http.StatusOK, echo.Map{"subZoneId": subID})
}
