package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/taskdeck/backend/api/handler"
)

type Handlers struct {
	Auth   *apiHandler.AuthHandler
	Task   *apiHandler.TaskHandler
	Health *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Public auth routes
	r.POST("/api/auth/register", handlers.Auth.Register)
	r.POST("/api/auth/login", handlers.Auth.Login)

	// Protected routes
	r.GET("/api/auth/me", authMiddleware(handlers.Auth.Me))

	r.GET("/api/tasks", authMiddleware(handlers.Task.List))
	r.POST("/api/tasks", authMiddleware(handlers.Task.Create))
	r.GET("/api/tasks/{id}", authMiddleware(handlers.Task.Get))
	r.PATCH("/api/tasks/{id}", authMiddleware(handlers.Task.Update))
	r.DELETE("/api/tasks/{id}", authMiddleware(handlers.Task.Delete))

	r.GET("/api/activity", authMiddleware(handlers.Task.Activity))

	return r
}
