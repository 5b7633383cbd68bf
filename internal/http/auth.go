package http

import (
	"errors"
	"net/http"

	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/model"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/service/user"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type registerReq struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func registerHandler(userSvc *user.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req registerReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		cmd, err := model.NewRegisterUserCommand(req.Email, req.Password, req.FirstName, req.LastName)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}

		u, err := userSvc.Register(c.Request().Context(), cmd)
		if err != nil {
			if errors.Is(err, user.ErrEmailTaken) {
				return c.JSON(http.StatusConflict, map[string]string{"error": "email already registered"})
			}

			log.Errorf("register failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		return c.JSON(http.StatusCreated, map[string]any{
			"id":         u.ID,
			"email":      u.Email,
			"first_name": u.FirstName,
			"last_name":  u.LastName,
			"status":     u.Status.String(),
		})
	}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func loginHandler(userSvc *user.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req loginReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}
		if req.Email == "" || req.Password == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "email and password are required"})
		}

		token, u, err := userSvc.Authenticate(c.Request().Context(), req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, user.ErrInvalidCredentials):
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			case errors.Is(err, user.ErrUserDeactivated):
				return c.JSON(http.StatusForbidden, map[string]string{"error": "account deactivated"})
			}

			log.Errorf("login failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "auth error"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"token": token,
			"user": map[string]any{
				"id":    u.ID,
				"email": u.Email,
			},
		})
	}
}
