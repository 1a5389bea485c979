package handler // catalog handlers manage test categories and their tests

import (
	"net/http" // http provides status code constants

	"github.com/labstack/echo/v4"                 // echo is the web framework used for handlers
	"go.mongodb.org/mongo-driver/bson/primitive" // primitive holds object ids

	"github.com/iliyamo/lab-registry/internal/model"      // model defines tests
	"github.com/iliyamo/lab-registry/internal/queue"      // queue names lifecycle actions
	"github.com/iliyamo/lab-registry/internal/repository" // repository holds the catalog logic
)

type categoryRef struct {
	CategoryID string `json:"categoryId" query:"categoryId" validate:"required,mongodb"`
}

type addCategoryRequest struct {
	CategoryName string `json:"categoryName" validate:"required,notblank"`
}

type editCategoryRequest struct {
	CategoryID   string `json:"categoryId" validate:"required,mongodb"`
	CategoryName string `json:"categoryName" validate:"required,notblank"`
}

type addTestRequest struct {
	CategoryID string `json:"categoryId" validate:"required,mongodb"`
	TestName   string `json:"testName" validate:"required,notblank"`
	IsOnline   bool   `json:"isOnline"`
}

type editTestRequest struct {
	CategoryID string  `json:"categoryId" validate:"required,mongodb"`
	TestID     string  `json:"testId" validate:"required,mongodb"`
	TestName   *string `json:"testName" validate:"omitempty,notblank"`
	IsOnline   *bool   `json:"isOnline"`
}

type testRef struct {
	CategoryID string `json:"categoryId" query:"categoryId" validate:"required,mongodb"`
	TestID     string `json:"testId" query:"testId" validate:"required,mongodb"`
}

// AddCategory handles POST /test/category/add.
func (h *Handler) AddCategory(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return echo.ErrUnauthorized
	}
	var req addCategoryRequest
	if err := bind(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	cat, err := h.Catalog.Create(c.Request().Context(), req.CategoryName, who)
	if err != nil {
		return fail(c, err)
	}
	h.emit(c, "category", queue.ActionCreated, cat.ID, primitive.NilObjectID)
	return ok(c, http.StatusCreated, echo.Map{"category": cat})
}

// GetCategory handles GET /test/category.
func (h *Handler) GetCategory(c echo.Context) error {
	var req categoryRef
	if err := bind(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	cat, err := h.Catalog.Get(c.Request().Context(), oid(req.CategoryID))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"category": cat})
}

// ListCategories handles GET /test/category/all.
func (h *Handler) ListCategories(c echo.Context) error {
	cats, err := h.Catalog.List(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"categories": cats})
}

// EditCategory handles PATCH /test/category/edit.
func (h *Handler) EditCategory(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return echo.ErrUnauthorized
	}
	var req editCategoryRequest
	if err := bindStrict(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	cat, err := h.Catalog.Rename(c.Request().Context(), oid(req.CategoryID), req.CategoryName, who)
	if err != nil {
		return fail(c, err)
	}
	h.emit(c, "category", queue.ActionUpdated, cat.ID, primitive.NilObjectID)
	return ok(c, http.StatusOK, echo.Map{"category": cat})
}

// DeleteCategory handles DELETE /test/category/delete; its tests go with it.
func (h *Handler) DeleteCategory(c echo.Context) error {
	if _, err := actor(c); err != nil {
		return echo.ErrUnauthorized
	}
	var req categoryRef
	if err := bind(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	id := oid(req.CategoryID)
	if err := h.Catalog.Delete(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	h.emit(c, "category", queue.ActionRemoved, id, primitive.NilObjectID)
	return ok(c, http.StatusOK, echo.Map{"categoryId": id})
}

// AddTest handles POST /test/add.
func (h *Handler) AddTest(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return echo.ErrUnauthorized
	}
	var req addTestRequest
	if err := bind(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	catID := oid(req.CategoryID)
	test, err := h.Catalog.Tests.Add(c.Request().Context(), catID, model.Test{TestName: req.TestName, IsOnline: req.IsOnline}, who)
	if err != nil {
		return fail(c, err)
	}
	h.emit(c, "test", queue.ActionCreated, catID, test.ID)
	return ok(c, http.StatusCreated, echo.Map{"test": test})
}

// ListTests handles GET /test/all.
func (h *Handler) ListTests(c echo.Context) error {
	var req categoryRef
	if err := bind(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	tests, err := h.Catalog.Tests.List(c.Request().Context(), oid(req.CategoryID))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"tests": tests})
}

// EditTest handles PATCH /test/edit.
func (h *Handler) EditTest(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return echo.ErrUnauthorized
	}
	var req editTestRequest
	if err := bindStrict(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	catID, testID := oid(req.CategoryID), oid(req.TestID)
	test, err := h.Catalog.Tests.Update(c.Request().Context(), catID, testID,
		repository.TestPatch{TestName: req.TestName, IsOnline: req.IsOnline}, who)
	if err != nil {
		return fail(c, err)
	}
	h.emit(c, "test", queue.ActionUpdated, catID, testID)
	return ok(c, http.StatusOK, echo.Map{"test": test})
}

// DeleteTest handles DELETE /test/delete.
func (h *Handler) DeleteTest(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return echo.ErrUnauthorized
	}
	var req testRef
	if err := bind(c, &req); err != nil {
		return invalid(c, err.Error())
	}
	catID, testID := oid(req.CategoryID), oid(req.TestID)
	if err := h.Catalog.Tests.Remove(c.Request().Context(), catID, testID, who); err != nil {
		return fail(c, err)
	}
	h.emit(c, "test", queue.ActionRemoved, catID, testID)
	return ok(c, http.StatusOK, echo.Map{"testId": testID})
}
