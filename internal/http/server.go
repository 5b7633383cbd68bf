package http

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/config"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/http/middleware"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/metrics"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/outbox"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/repository"
	expenseSvc "github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/service/expense"
	userSvc "github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/service/user"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type Server struct{ e *echo.Echo }

func NewServer(cfg config.Config, db *sqlx.DB, rds *redis.Client) *Server {
	// repos
	usersRepo := repository.NewUsersRepository(db)
	categoriesRepo := repository.NewCategoriesRepository(db)
	expensesRepo := repository.NewExpensesRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)

	// outbox appender shared by both bounded contexts
	appender := outbox.NewAppender(outboxRepo)

	// services
	users := userSvc.New(db, usersRepo, appender, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	expenses := expenseSvc.New(db, categoriesRepo, expensesRepo, appender)

	// echo
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMid.Recover(), echoMid.Logger())

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// middlewares
	authMW := middleware.JWTMiddleware(cfg.Auth.JWTSecret)
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:          rds,
		RPS:            cfg.RateLimit.RPS,
		KeyPrefix:      "rl:user:",
		Window:         time.Second,
		RetryAfterHint: true,
	})

	// public routes
	v1 := e.Group("/v1")
	v1.POST("/auth/register", registerHandler(users))
	v1.POST("/auth/login", loginHandler(users))

	// authenticated routes
	auth := v1.Group("", authMW, rlMW)
	auth.POST("/users/deactivate", deactivateHandler(users))

	auth.POST("/categories", createCategoryHandler(expenses))
	auth.GET("/categories", listCategoriesHandler(expenses))
	auth.DELETE("/categories/:id", deleteCategoryHandler(expenses))

	auth.POST("/expenses", createExpenseHandler(expenses))
	auth.GET("/expenses", listExpensesHandler(expenses))
	auth.GET("/expenses/:id", getExpenseHandler(expenses))
	auth.PUT("/expenses/:id", updateExpenseHandler(expenses))
	auth.DELETE("/expenses/:id", deleteExpenseHandler(expenses))

	// operator surface
	auth.GET("/ops/outbox/dead", deadLettersHandler(outboxRepo, cfg.Outbox.MaxAttempts))

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	log.Printf("http: listening on %s", addr)
	return s.e.Start(addr)
}
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
