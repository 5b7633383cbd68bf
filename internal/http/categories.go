package http

import (
	"errors"
	"net/http"

	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/http/middleware"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/model"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/service/expense"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type createCategoryReq struct {
	Name string `json:"name"`
}

func createCategoryHandler(expSvc *expense.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := middleware.UserIDFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		var req createCategoryReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		cmd, err := model.NewCreateCategoryCommand(userID, req.Name)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}

		cat, err := expSvc.CreateCategory(c.Request().Context(), cmd)
		if err != nil {
			if errors.Is(err, expense.ErrCategoryExists) {
				return c.JSON(http.StatusConflict, map[string]string{"error": "category name already exists"})
			}

			log.Errorf("create category failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		return c.JSON(http.StatusCreated, map[string]any{
			"id":   cat.ID,
			"name": cat.Name,
		})
	}
}

func listCategoriesHandler(expSvc *expense.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := middleware.UserIDFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		cats, err := expSvc.ListCategories(c.Request().Context(), userID)
		if err != nil {
			log.Errorf("list categories failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"count":   len(cats),
			"results": cats,
		})
	}
}

func deleteCategoryHandler(expSvc *expense.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := middleware.UserIDFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		id := c.Param("id")
		if id == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing category id"})
		}

		if err := expSvc.DeleteCategory(c.Request().Context(), userID, id); err != nil {
			if errors.Is(err, expense.ErrCategoryNotFound) {
				return c.JSON(http.StatusNotFound, map[string]string{"error": "category not found"})
			}

			log.Errorf("delete category failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		return c.NoContent(http.StatusNoContent)
	}
}
