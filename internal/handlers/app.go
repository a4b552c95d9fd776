package handlers

import (
	"context"
	"time"

	"notebook/internal/middleware"
	"notebook/internal/services"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

// Deps are the services the HTTP API is built on.
type Deps struct {
	AuthService *services.AuthService
	UserService *services.UserService
	NoteService *services.NoteService
	Logger      zerolog.Logger
	// HealthCheck reports whether the database is reachable. Optional.
	HealthCheck func(ctx context.Context) error
	// AccessLog enables fiber's request logger.
	AccessLog bool
}

// NewApp builds the Fiber app with every route under /api/v1.
func NewApp(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "notebook",
		ErrorHandler: errorHandler(deps.Logger),
		UnescapePath: true,
	})

	app.Use(recover.New())
	if deps.AccessLog {
		app.Use(fiberlogger.New())
	}

	app.Get("/health", healthHandler(deps.HealthCheck))

	apiV1 := app.Group("/api/v1")
	apiV1.Get("/health", healthHandler(deps.HealthCheck))

	// Authentication routes (public)
	NewAuthHandler(deps.AuthService, deps.Logger).RegisterRoutes(apiV1)

	// Protected routes (require JWT authentication)
	protected := apiV1.Group("", middleware.AuthRequired(deps.AuthService, deps.Logger))
	NewUserHandler(deps.UserService, deps.Logger).RegisterRoutes(protected)
	NewNoteHandler(deps.NoteService, deps.Logger).RegisterRoutes(protected)

	return app
}

func healthHandler(check func(ctx context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status, health, db := fiber.StatusOK, "healthy", "up"
		if check != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				status, health, db = fiber.StatusServiceUnavailable, "unhealthy", "down"
			}
		}
		return c.Status(status).JSON(fiber.Map{
			"status":   health,
			"database": db,
			"time":     time.Now().Format(time.RFC3339),
		})
	}
}
