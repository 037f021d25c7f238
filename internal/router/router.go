// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/timekeep/timesheet-share/internal/config"
	"github.com/timekeep/timesheet-share/internal/handler"
	"github.com/timekeep/timesheet-share/internal/middleware"
)

// RegisterRoutes registers routes that need neither a session nor
// authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterView registers the anonymous view surface under /v1/view. Every
// route carries the rate limiter and the browser session middleware; GET
// renders the view, POST additionally accepts the password form.
func RegisterView(e *echo.Echo, h *handler.ViewHandler, rdb *redis.Client, rlCfg config.RateLimitConfig, sessionTTL time.Duration) {
	g := e.Group("/v1/view")
	g.Use(middleware.RateLimit(rlCfg, rdb))
	g.Use(middleware.Session(rdb, sessionTTL))

	both := func(path string, fn echo.HandlerFunc) {
		g.GET(path, fn)
		g.POST(path, fn)
	}
	both("/projects/:projectID/:shareKey", h.ViewProject)
	both("/customers/:customerID/:shareKey", h.ViewCustomer)
	both("/customers/:customerID/:shareKey/projects/:projectID", h.ViewCustomerProject)
}

// RegisterManage registers the admin CRUD under /v1/shares, protected by
// JWT auth and the ADMIN role.
func RegisterManage(e *echo.Echo, h *handler.ManageHandler, jwtSecret string) {
	g := e.Group("/v1/shares")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ADMIN"))

	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
