package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lab-registry/internal/handler" // lab, admin and staff handlers
)

// RegisterLab registers the lab routes and the admin and staff routes
// nested under /lab. The group already carries JWT and role checks.
func RegisterLab(g *echo.Group, h *handler.Handler) {
	// ---- Labs ----
	g.POST("/lab/add", h.AddLab)
	g.GET("/lab", h.GetLab)
	g.GET("/lab/search", h.SearchLabs)
	g.GET("/lab/all", h.ListLabs)
	g.GET("/lab/deleted", h.ListDeletedLabs)
	g.GET("/lab/stats", h.LabStats)
	g.PATCH("/lab/edit", h.EditLab)
	g.PATCH("/lab/activate", h.ActivateLab)
	g.PATCH("/lab/deactivate", h.DeactivateLab)
	g.DELETE("/lab/delete", h.DeleteLab) // soft delete
	g.PATCH("/lab/restore", h.RestoreLab)
	g.DELETE("/lab/remove", h.RemoveLab) // permanent

	// ---- Admins ----
	g.POST("/lab/admin/add", h.AddAdmin)
	g.PATCH("/lab/admin/edit", h.EditAdmin)
	g.PATCH("/lab/admin/deactivate", h.DeactivateAdmin)
	g.PATCH("/lab/admin/activate", h.ActivateAdmin)
	g.GET("/lab/admin/all", h.ListAdmins)
	g.DELETE("/lab/admin/delete", h.DeleteAdmin)
	g.POST("/lab/admin/add/supportAdmin", h.AddSupportAdmin)
	g.PATCH("/lab/admin/deactivate/supportAdmin", h.DeactivateSupportAdmin)
	g.PATCH("/lab/admin/activate/supportAdmin", h.ActivateSupportAdmin)
	g.DELETE("/lab/admin/delete/supportAdmin", h.DeleteSupportAdmin)

	// ---- Staffs ----
	g.POST("/lab/staff/add", h.AddStaff)
	g.PATCH("/lab/staff/edit", h.EditStaff)
	g.POST("/lab/staff/edit", h.EditStaff) // older clients post edits
	g.PATCH("/lab/staff/access", h.UpdateStaffAccess)
	g.PATCH("/lab/staff/deactivate", h.DeactivateStaff)
	g.PATCH("/lab/staff/activate", h.ActivateStaff)
	g.GET("/lab/staff/all", h.ListStaff)
	g.DELETE("/lab/staff/delete", h.DeleteStaff)
}
