package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	"moodtracker/internal/handler"
	"moodtracker/internal/service"
	"moodtracker/internal/validation"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	authService service.AuthService,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	moodEntryHandler *handler.MoodEntryHandler,
) {
	e.JSONSerializer = JSONSerializer{}
	e.Validator = validation.EchoValidator{}
	e.HTTPErrorHandler = httpErrorHandler

	e.Use(requestID())
	e.Use(requestLogger())
	e.Use(middleware.Recover())
	e.Use(instrument)

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	// Secured routes (require a live bearer credential)
	secured := api.Group("", bearerAuth(authService))

	secured.POST("/auth/logout", authHandler.Logout)
	secured.GET("/auth/check", authHandler.Check)

	secured.GET("/user", userHandler.Profile)
	secured.PUT("/user/profile", userHandler.UpdateProfile)
	secured.PUT("/user/password", userHandler.ChangePassword)

	secured.GET("/mood-entries", moodEntryHandler.List)
	secured.POST("/mood-entries", moodEntryHandler.Create)
	secured.GET("/mood-entries/:id", moodEntryHandler.Show)
	secured.PUT("/mood-entries/:id", moodEntryHandler.Update)
	secured.DELETE("/mood-entries/:id", moodEntryHandler.Delete)
	secured.GET("/mood-entries-stats", moodEntryHandler.Stats)
}
