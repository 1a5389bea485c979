package handler // account handlers manage the admins and staffs embedded in a lab

import (
	"net/http" // http provides status code constants

	"github.com/labstack/echo/v4"                 // echo is the web framework used for handlers
	"go.mongodb.org/mongo-driver/bson/primitive" // primitive holds object ids

	"github.com/iliyamo/lab-registry/internal/model"      // model defines admin and staff
	"github.com/iliyamo/lab-registry/internal/queue"      // queue names lifecycle actions
	"github.com/iliyamo/lab-registry/internal/repository" // repository holds the embedded child logic
	"github.com/iliyamo/lab-registry/internal/utils"      // utils hashes passwords
)

type addAdminRequest struct {
	LabID    string `json:"_id" validate:"required,mongodb"`
	Username string `json:"username" validate:"required,notblank"`
	Password string `json:"password" validate:"required,min=6"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone"`
}

type editAdminRequest struct {
	LabID    string  `json:"_id" validate:"required,mongodb"`
	AdminID  string  `json:"adminId" validate:"required,mongodb"`
	Username *string `json:"username" validate:"omitempty,notblank"`
	Password *string `json:"password" validate:"omitempty,min=6"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone"`
}

type adminRef struct {
	LabID   string `json:"_id" query:"_id" validate:"required,mongodb"`
	AdminID string `json:"adminId" query:"adminId" validate:"required,mongodb"`
}

type supportAdminRequest struct {
	LabID    string `json:"_id" validate:"required,mongodb"`
	Password string `json:"password" validate:"required,min=6"`
}

type addStaffRequest struct {
	LabID    string   `json:"_id" validate:"required,mongodb"`
	Name     string   `json:"name" validate:"required"`
	Username string   `json:"username" validate:"required,notblank"`
	Password string   `json:"password" validate:"required,min=6"`
	Email    string   `json:"email" validate:"omitempty,email"`
	Phone    string   `json:"phone"`
	Access   []string `json:"access"`
}

type editStaffRequest struct {
	LabID    string    `json:"_id" validate:"required,mongodb"`
	StaffID  string    `json:"staffId" validate:"required,mongodb"`
	Name     *string   `json:"name" validate:"omitempty,min=1"`
	Username *string   `json:"username" validate:"omitempty,notblank"`
	Password *string   `json:"password" validate:"omitempty,min=6"`
	Email    *string   `json:"email" validate:"omitempty,email"`
	Phone    *string   `json:"phone"`
	Access   *[]string `json:"access"`
}

type staffAccessRequest struct {
	LabID   string   `json:"_id" validate:"required,mongodb"`
	StaffID string   `json:"staffId" validate:"required,mongodb"`
	Access  []string `json:"access" validate:"required"`
}

type staffRef struct {
	LabID   string `json:"_id" query:"_id" validate:"required,mongodb"`
	StaffID string `json:"staffId" query:"staffId" validate:"required,mongodb"`
}

// adminView is one row of GET /lab/admin/all.
type adminView struct {
	ID       primitive.ObjectID `json:"_id"`
	Username string             `json:"username"`
	Email    string             `json:"email"`
	IsActive bool               `json:"isActive"`
}

// staffView is one row of GET /lab/staff/all.
type staffView struct {
	ID       primitive.ObjectID `json:"_id"`
	Name     string             `json:"name"`
	Username string             `json:"username"`
	Email    string             `json:"email"`
	Access   []string           `json:"access"`
	IsActive bool               `json:"isActive"`
}

// hash bcrypts an optional password in place.
func (h *Handler) hash(pw *string) error {
	if pw == nil {
		return nil
	}
	hashed, err := utils.HashPassword(*pw, h.BcryptCost)
	if err != nil {
		return err
	}
	*pw = hashed
	return nil
}

// AddAdmin handles POST /lab/admin/add.
func (h *Handler) AddAdmin(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return echo.ErrUnauthorized
	}
	var req addAdminRequest
	if err := bind(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	if err := h.hash(&req.Password); err != nil {
		return err
	}
	labID := oid(req.LabID)
	admin, err := h.Labs.Admins.Add(c.Request().Context(), labID, model.Admin{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Phone:    req.Phone,
	}, who)
	if err != nil {
		return fail(c, err)
	}
	h.emit(c, "admin", queue.ActionCreated, labID, admin.ID)
	return ok(c, http.StatusCreated, echo.Map{"admin": admin})
}

// EditAdmin handles PATCH /lab/admin/edit.
func (h *Handler) EditAdmin(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return echo.ErrUnauthorized
	}
	var req editAdminRequest
	if err := bindStrict(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	if err := h.hash(req.Password); err != nil {
		return err
	}
	labID, adminID := oid(req.LabID), oid(req.AdminID)
	admin, err := h.Labs.Admins.Update(c.Request().Context(), labID, adminID, repository.AdminPatch{
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	}, who)
	if err != nil {
		return fail(c, err)
	}
	h.emit(c, "admin", queue.ActionUpdated, labID, adminID)
	return ok(c, http.StatusOK, echo.Map{"admin": admin})
}

// ActivateAdmin handles PATCH /lab/admin/activate.
func (h *Handler) ActivateAdmin(c echo.Context) error { return h.setAdminActive(c, true) }

// DeactivateAdmin handles PATCH /lab/admin/deactivate.
func (h *Handler) DeactivateAdmin(c echo.Context) error { return h.setAdminActive(c, false) }

func (h *Handler) setAdminActive(c echo.Context, active bool) error {
	who, err := actor(c)
	if err != nil {
		return echo.ErrUnauthorized
	}
	var req adminRef
	if err := bind(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	labID, adminID := oid(req.LabID), oid(req.AdminID)
	if err := h.Labs.Admins.SetActive(c.Request().Context(), labID, adminID, active, who); err != nil {
		return fail(c, err)
	}
	h.emit(c, "admin", activationAction(active), labID, adminID)
	return ok(c, http.StatusOK, echo.Map{"adminId": adminID})
}

// ListAdmins handles GET /lab/admin/all and returns a bare array.
func (h *Handler) ListAdmins(c echo.Context) error {
	var req labIDRequest
	if err := bind(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	admins, err := h.Labs.Admins.List(c.Request().Context(), oid(req.ID))
	if err != nil {
		return fail(c, err)
	}
	out := make([]adminView, 0, len(admins))
	for _, a := range admins {
		out = append(out, adminView{ID: a.ID, Username: a.Username, Email: a.Email, IsActive: a.IsActive})
	}
	return okList(c, out)
}

// DeleteAdmin handles DELETE /lab/admin/delete.
func (h *Handler) DeleteAdmin(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return echo.ErrUnauthorized
	}
	var req adminRef
	if err := bind(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	labID, adminID := oid(req.LabID), oid(req.AdminID)
	if err := h.Labs.Admins.Remove(c.Request().Context(), labID, adminID, who); err != nil {
		return fail(c, err)
	}
	h.emit(c, "admin", queue.ActionRemoved, labID, adminID)
	return ok(c, http.StatusOK, echo.Map{"adminId": adminID})
}

// AddSupportAdmin handles POST /lab/admin/add/supportAdmin.
func (h *Handler) AddSupportAdmin(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return echo.ErrUnauthorized
	}
	var req supportAdminRequest
	if err := bind(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	if err := h.hash(&req.Password); err != nil {
		return err
	}
	labID := oid(req.LabID)
	admin, err := h.Labs.AddSupportAdmin(c.Request().Context(), labID, req.Password, who)
	if err != nil {
		return fail(c, err)
	}
	h.emit(c, "admin", queue.ActionCreated, labID, admin.ID)
	return ok(c, http.StatusCreated, echo.Map{"admin": admin})
}

// ActivateSupportAdmin handles PATCH /lab/admin/activate/supportAdmin.
func (h *Handler) ActivateSupportAdmin(c echo.Context) error {
	return h.setSupportAdminActive(c, true)
}

// DeactivateSupportAdmin handles PATCH /lab/admin/deactivate/supportAdmin.
func (h *Handler) DeactivateSupportAdmin(c echo.Context) error {
	return h.setSupportAdminActive(c, false)
}

func (h *Handler) setSupportAdminActive(c echo.Context, active bool) error {
	who, err := actor(c)
	if err != nil {
		return echo.ErrUnauthorized
	}
	var req labIDRequest
	if err := bind(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	labID := oid(req.ID)
	if err := h.Labs.SetSupportAdminActive(c.Request().Context(), labID, active, who); err != nil {
		return fail(c, err)
	}
	h.emit(c, "admin", activationAction(active), labID, primitive.NilObjectID)
	return ok(c, http.StatusOK, echo.Map{"username": model.SupportAdminUsername})
}

// DeleteSupportAdmin handles DELETE /lab/admin/delete/supportAdmin.
func (h *Handler) DeleteSupportAdmin(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return echo.ErrUnauthorized
	}
	var req labIDRequest
	if err := bind(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	labID := oid(req.ID)
	if err := h.Labs.RemoveSupportAdmin(c.Request().Context(), labID, who); err != nil {
		return fail(c, err)
	}
	h.emit(c, "admin", queue.ActionRemoved, labID, primitive.NilObjectID)
	return ok(c, http.StatusOK, echo.Map{"username": model.SupportAdminUsername})
}

// AddStaff handles POST /lab/staff/add.
func (h *Handler) AddStaff(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return echo.ErrUnauthorized
	}
	var req addStaffRequest
	if err := bind(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	if err := h.hash(&req.Password); err != nil {
		return err
	}
	labID := oid(req.LabID)
	staff, err := h.Labs.Staffs.Add(c.Request().Context(), labID, model.Staff{
		Name:     req.Name,
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Phone:    req.Phone,
		Access:   req.Access,
	}, who)
	if err != nil {
		return fail(c, err)
	}
	h.emit(c, "staff", queue.ActionCreated, labID, staff.ID)
	return ok(c, http.StatusCreated, echo.Map{"staff": staff})
}

// EditStaff handles PATCH and POST /lab/staff/edit.
func (h *Handler) EditStaff(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return echo.ErrUnauthorized
	}
	var req editStaffRequest
	if err := bindStrict(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	if err := h.hash(req.Password); err != nil {
		return err
	}
	labID, staffID := oid(req.LabID), oid(req.StaffID)
	staff, err := h.Labs.Staffs.Update(c.Request().Context(), labID, staffID, repository.StaffPatch{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		Access:   req.Access,
	}, who)
	if err != nil {
		return fail(c, err)
	}
	h.emit(c, "staff", queue.ActionUpdated, labID, staffID)
	return ok(c, http.StatusOK, echo.Map{"staff": staff})
}

// UpdateStaffAccess handles PATCH /lab/staff/access.
func (h *Handler) UpdateStaffAccess(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return echo.ErrUnauthorized
	}
	var req staffAccessRequest
	if err := bindStrict(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	labID, staffID := oid(req.LabID), oid(req.StaffID)
	staff, err := h.Labs.UpdateStaffAccess(c.Request().Context(), labID, staffID, req.Access, who)
	if err != nil {
		return fail(c, err)
	}
	h.emit(c, "staff", queue.ActionUpdated, labID, staffID)
	return ok(c, http.StatusOK, echo.Map{"staff": staff})
}

// ActivateStaff handles PATCH /lab/staff/activate.
func (h *Handler) ActivateStaff(c echo.Context) error { return h.setStaffActive(c, true) }

// DeactivateStaff handles PATCH /lab/staff/deactivate.
func (h *Handler) DeactivateStaff(c echo.Context) error { return h.setStaffActive(c, false) }

func (h *Handler) setStaffActive(c echo.Context, active bool) error {
	who, err := actor(c)
	if err != nil {
		return echo.ErrUnauthorized
	}
	var req staffRef
	if err := bind(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	labID, staffID := oid(req.LabID), oid(req.StaffID)
	if err := h.Labs.Staffs.SetActive(c.Request().Context(), labID, staffID, active, who); err != nil {
		return fail(c, err)
	}
	h.emit(c, "staff", activationAction(active), labID, staffID)
	return ok(c, http.StatusOK, echo.Map{"staffId": staffID})
}

// ListStaff handles GET /lab/staff/all and returns a bare array.
func (h *Handler) ListStaff(c echo.Context) error {
	var req labIDRequest
	if err := bind(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	staffs, err := h.Labs.Staffs.List(c.Request().Context(), oid(req.ID))
	if err != nil {
		return fail(c, err)
	}
	out := make([]staffView, 0, len(staffs))
	for _, s := range staffs {
		out = append(out, staffView{ID: s.ID, Name: s.Name, Username: s.Username, Email: s.Email, Access: s.Access, IsActive: s.IsActive})
	}
	return okList(c, out)
}

// DeleteStaff handles DELETE /lab/staff/delete.
func (h *Handler) DeleteStaff(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return echo.ErrUnauthorized
	}
	var req staffRef
	if err := bind(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	labID, staffID := oid(req.LabID), oid(req.StaffID)
	if err := h.Labs.Staffs.Remove(c.Request().Context(), labID, staffID, who); err != nil {
		return fail(c, err)
	}
	h.emit(c, "staff", queue.ActionRemoved, labID, staffID)
	return ok(c, http.StatusOK, echo.Map{"staffId": staffID})
}
