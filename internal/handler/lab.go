package handler // lab handlers cover the lab aggregate itself

import (
	"net/http" // http provides status code constants

	"github.com/labstack/echo/v4"                 // echo is the web framework used for handlers
	"go.mongodb.org/mongo-driver/bson/primitive" // primitive holds object ids

	"github.com/iliyamo/lab-registry/internal/model"      // model defines the lab document
	"github.com/iliyamo/lab-registry/internal/queue"      // queue names lifecycle actions
	"github.com/iliyamo/lab-registry/internal/repository" // repository holds the lab logic
)

type labIDRequest struct {
	ID string `json:"_id" query:"_id" validate:"required,mongodb"` // lab document id
}

type addLabRequest struct {
	LabName   string `json:"labName" validate:"required"`
	LabID     string `json:"labId" validate:"required,numeric,len=6"` // six digit business id
	Address   string `json:"address" validate:"required"`
	Contact1  string `json:"contact1" validate:"required"`
	Contact2  string `json:"contact2"`
	Email     string `json:"email" validate:"required,email"`
	ZoneID    string `json:"zoneId" validate:"required,mongodb"`
	SubZoneID string `json:"subZoneId" validate:"required,mongodb"`
}

// editLabRequest lists every field a lab edit may carry. labId is absent,
// so a body naming it is rejected by bindStrict.
type editLabRequest struct {
	ID        string  `json:"_id" validate:"required,mongodb"`
	LabName   *string `json:"labName" validate:"omitempty,min=1"`
	Address   *string `json:"address" validate:"omitempty,min=1"`
	Contact1  *string `json:"contact1" validate:"omitempty,min=1"`
	Contact2  *string `json:"contact2"`
	Email     *string `json:"email" validate:"omitempty,email"`
	ZoneID    *string `json:"zoneId" validate:"omitempty,mongodb"`
	SubZoneID *string `json:"subZoneId" validate:"omitempty,mongodb"`
}

type searchLabRequest struct {
	Field string `json:"field" query:"field" validate:"required"`
	Value string `json:"value" query:"value" validate:"required"`
}

// AddLab handles POST /lab/add and creates an active lab.
func (h *Handler) AddLab(c echo.Context) error {
	who, err := actor(c) // verified caller
	if err != nil {
		return echo.ErrUnauthorized
	}
	var req addLabRequest
	if err := bind(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	lab, err := h.Labs.Create(c.Request().Context(), model.Lab{
		LabName:   req.LabName,
		LabID:     req.LabID,
		Address:   req.Address,
		Contact1:  req.Contact1,
		Contact2:  req.Contact2,
		Email:     req.Email,
		ZoneID:    oid(req.ZoneID),
		SubZoneID: oid(req.SubZoneID),
	}, who)
	if err != nil {
		return fail(c, err)
	}
	h.emit(c, "lab", queue.ActionCreated, lab.ID, primitive.NilObjectID)
	return ok(c, http.StatusCreated, echo.Map{"lab": lab})
}

// GetLab handles GET /lab and returns one non-deleted lab.
func (h *Handler) GetLab(c echo.Context) error {
	var req labIDRequest
	if err := bind(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	lab, err := h.Labs.Get(c.Request().Context(), oid(req.ID))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"lab": lab})
}

// SearchLabs handles GET /lab/search?field=&value=.
func (h *Handler) SearchLabs(c echo.Context) error {
	var req searchLabRequest
	if err := bind(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	field, valid := repository.ParseSearchField(req.Field) // closed set of searchable fields
	if !valid {
		return invalid(c, "field must be one of labId, email, contact, zoneId, subZoneId")
	}
	labs, err := h.Labs.Search(c.Request().Context(), field, req.Value)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"labs": labs})
}

// ListLabs handles GET /lab/all.
func (h *Handler) ListLabs(c echo.Context) error {
	labs, err := h.Labs.List(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"labs": labs})
}

// ListDeletedLabs handles GET /lab/deleted, the labs that can be restored.
func (h *Handler) ListDeletedLabs(c echo.Context) error {
	labs, err := h.Labs.ListDeleted(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"labs": labs})
}

// LabStats handles GET /lab/stats.
func (h *Handler) LabStats(c echo.Context) error {
	stats, err := h.Labs.Stats(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"stats": stats})
}

// EditLab handles PATCH /lab/edit.
func (h *Handler) EditLab(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return echo.ErrUnauthorized
	}
	var req editLabRequest
	if err := bindStrict(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	patch := repository.LabPatch{
		LabName:  req.LabName,
		Address:  req.Address,
		Contact1: req.Contact1,
		Contact2: req.Contact2,
		Email:    req.Email,
	}
	if req.ZoneID != nil {
		id := oid(*req.ZoneID)
		patch.ZoneID = &id
	}
	if req.SubZoneID != nil {
		id := oid(*req.SubZoneID)
		patch.SubZoneID = &id
	}
	lab, err := h.Labs.Update(c.Request().Context(), oid(req.ID), patch, who)
	if err != nil {
		return fail(c, err)
	}
	h.emit(c, "lab", queue.ActionUpdated, lab.ID, primitive.NilObjectID)
	return ok(c, http.StatusOK, echo.Map{"lab": lab})
}

// ActivateLab handles PATCH /lab/activate.
func (h *Handler) ActivateLab(c echo.Context) error { return h.setLabActive(c, true) }

// DeactivateLab handles PATCH /lab/deactivate.
func (h *Handler) DeactivateLab(c echo.Context) error { return h.setLabActive(c, false) }

func (h *Handler) setLabActive(c echo.Context, active bool) error {
	who, err := actor(c)
	if err != nil {
		return echo.ErrUnauthorized
	}
	var req labIDRequest
	if err := bind(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	id := oid(req.ID)
	if err := h.Labs.SetActive(c.Request().Context(), id, active, who); err != nil {
		return fail(c, err)
	}
	h.emit(c, "lab", activationAction(active), id, primitive.NilObjectID)
	return ok(c, http.StatusOK, echo.Map{"_id": id})
}

// DeleteLab handles DELETE /lab/delete, a soft delete.
func (h *Handler) DeleteLab(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return echo.ErrUnauthorized
	}
	var req labIDRequest
	if err := bind(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	id := oid(req.ID)
	if err := h.Labs.SoftDelete(c.Request().Context(), id, who); err != nil {
		return fail(c, err)
	}
	h.emit(c, "lab", queue.ActionDeleted, id, primitive.NilObjectID)
	return ok(c, http.StatusOK, echo.Map{"_id": id})
}

// RestoreLab handles PATCH /lab/restore.
func (h *Handler) RestoreLab(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return echo.ErrUnauthorized
	}
	var req labIDRequest
	if err := bind(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	lab, err := h.Labs.Restore(c.Request().Context(), oid(req.ID), who)
	if err != nil {
		return fail(c, err)
	}
	h.emit(c, "lab", queue.ActionRestored, lab.ID, primitive.NilObjectID)
	return ok(c, http.StatusOK, echo.Map{"lab": lab})
}

// RemoveLab handles DELETE /lab/remove and deletes the lab permanently.
func (h *Handler) RemoveLab(c echo.Context) error {
	if _, err := actor(c); err != nil {
		return echo.ErrUnauthorized
	}
	var req labIDRequest
	if err := bind(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	id := oid(req.ID)
	if err := h.Labs.Remove(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	h.emit(c, "lab", queue.ActionRemoved, id, primitive.NilObjectID)
	return ok(c, http.StatusOK, echo.Map{"_id": id})
}

func activationAction(active bool) string {
	if active {
		return queue.ActionActivated
	}
	return queue.ActionDeactivated
}
