package http

import (
	"errors"
	"net/http"

	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/http/middleware"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/model"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/service/user"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

func deactivateHandler(userSvc *user.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := middleware.UserIDFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		cmd, err := model.NewDeactivateUserCommand(userID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}

		if err := userSvc.Deactivate(c.Request().Context(), cmd); err != nil {
			if errors.Is(err, user.ErrUserNotFound) {
				return c.JSON(http.StatusNotFound, map[string]string{"error": "user not found"})
			}

			log.Errorf("deactivate failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"deactivated": true,
			"user_id":     userID,
		})
	}
}
