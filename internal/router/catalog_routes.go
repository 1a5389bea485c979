package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lab-registry/internal/handler" // zone and catalog handlers
)

// RegisterZone registers zone and subzone routes.
func RegisterZone(g *echo.Group, h *handler.Handler) {
	g.POST("/zone/add", h.AddZone)
	g.GET("/zone", h.GetZone)
	g.GET("/zone/all", h.ListZones)
	g.PATCH("/zone/edit", h.EditZone)
	g.DELETE("/zone/delete", h.DeleteZone)

	g.POST("/zone/subzone/add", h.AddSubZone)
	g.GET("/zone/subzone/all", h.ListSubZones)
	g.PATCH("/zone/subzone/edit", h.EditSubZone)
	g.DELETE("/zone/subzone/delete", h.DeleteSubZone)
}

// RegisterCatalog registers test category and test routes.
func RegisterCatalog(g *echo.Group, h *handler.Handler) {
	g.POST("/test/category/add", h.AddCategory)
	g.GET("/test/category", h.GetCategory)
	g.GET("/test/category/all", h.ListCategories)
	g.PATCH("/test/category/edit", h.EditCategory)
	g.DELETE("/test/category/delete", h.DeleteCategory)

	g.POST("/test/add", h.AddTest)
	g.GET("/test/all", h.ListTests)
	g.PATCH("/test/edit", h.EditTest)
	g.DELETE("/test/delete", h.DeleteTest)
}
