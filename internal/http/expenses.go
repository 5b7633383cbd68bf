package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/http/middleware"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/model"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/repository"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/service/expense"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type expenseReq struct {
	CategoryID  *string `json:"category_id"`
	AmountTZS   int64   `json:"amount_tzs"`
	Description string  `json:"description"`
	ExpenseDate string  `json:"expense_date"` // "2006-01-02"
}

func parseExpenseDate(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", s)
	return t, err == nil
}

func expenseJSON(e *model.Expense) map[string]any {
	return map[string]any{
		"id":           e.ID,
		"category_id":  e.CategoryID,
		"amount_tzs":   e.AmountTZS,
		"description":  e.Description,
		"expense_date": e.ExpenseDate.Format("2006-01-02"),
	}
}

func createExpenseHandler(expSvc *expense.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := middleware.UserIDFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		var req expenseReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		date, ok := parseExpenseDate(req.ExpenseDate)
		if !ok {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "expense_date must be YYYY-MM-DD"})
		}

		cmd, err := model.NewCreateExpenseCommand(userID, req.CategoryID, req.AmountTZS, req.Description, date)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}

		e, err := expSvc.CreateExpense(c.Request().Context(), cmd)
		if err != nil {
			if errors.Is(err, expense.ErrCategoryNotFound) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "category not found"})
			}

			log.Errorf("create expense failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		return c.JSON(http.StatusCreated, expenseJSON(e))
	}
}

func updateExpenseHandler(expSvc *expense.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := middleware.UserIDFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		var req expenseReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		date, ok := parseExpenseDate(req.ExpenseDate)
		if !ok {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "expense_date must be YYYY-MM-DD"})
		}

		cmd, err := model.NewUpdateExpenseCommand(userID, c.Param("id"), req.CategoryID, req.AmountTZS, req.Description, date)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}

		e, err := expSvc.UpdateExpense(c.Request().Context(), cmd)
		if err != nil {
			switch {
			case errors.Is(err, expense.ErrExpenseNotFound):
				return c.JSON(http.StatusNotFound, map[string]string{"error": "expense not found"})
			case errors.Is(err, expense.ErrCategoryNotFound):
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "category not found"})
			}

			log.Errorf("update expense failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		return c.JSON(http.StatusOK, expenseJSON(e))
	}
}

func getExpenseHandler(expSvc *expense.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := middleware.UserIDFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		e, err := expSvc.GetExpense(c.Request().Context(), userID, c.Param("id"))
		if err != nil {
			if errors.Is(err, expense.ErrExpenseNotFound) {
				return c.JSON(http.StatusNotFound, map[string]string{"error": "expense not found"})
			}

			log.Errorf("get expense failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		return c.JSON(http.StatusOK, expenseJSON(e))
	}
}

func deleteExpenseHandler(expSvc *expense.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := middleware.UserIDFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		if err := expSvc.DeleteExpense(c.Request().Context(), userID, c.Param("id")); err != nil {
			if errors.Is(err, expense.ErrExpenseNotFound) {
				return c.JSON(http.StatusNotFound, map[string]string{"error": "expense not found"})
			}

			log.Errorf("delete expense failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		return c.NoContent(http.StatusNoContent)
	}
}

func listExpensesHandler(expSvc *expense.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := middleware.UserIDFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		f := repository.ExpenseFilter{
			CategoryID: c.QueryParam("category_id"),
			Limit:      50,
		}
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
				f.Limit = n
			}
		}
		if v := c.QueryParam("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				f.Offset = n
			}
		}
		if v := c.QueryParam("from"); v != "" {
			if t, ok := parseExpenseDate(v); ok {
				f.From = t
			}
		}
		if v := c.QueryParam("to"); v != "" {
			if t, ok := parseExpenseDate(v); ok {
				f.To = t
			}
		}

		exps, err := expSvc.ListExpenses(c.Request().Context(), userID, f)
		if err != nil {
			log.Errorf("list expenses failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		results := make([]map[string]any, 0, len(exps))
		for i := range exps {
			results = append(results, expenseJSON(&exps[i]))
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   f.Limit,
			"offset":  f.Offset,
			"count":   len(results),
			"results": results,
		})
	}
}
