package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rubrica/rubrica-api/internal/config"
	"github.com/rubrica/rubrica-api/internal/handler"
	"github.com/rubrica/rubrica-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssignmentHandler *handler.AssignmentHandler
	SubmissionHandler *handler.SubmissionHandler
	GradeHandler      *handler.GradeHandler
	JWTMiddleware     fiber.Handler
	GradeRateLimiter  fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	rateLimiter := deps.GradeRateLimiter
	if rateLimiter == nil {
		rateLimiter = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.GradeHandler != nil {
		grade := api.Group("/grade", jwtMiddleware, rateLimiter)
		deps.GradeHandler.Register(grade)
	}

	if deps.AssignmentHandler != nil {
		assignments := api.Group("/assignments", jwtMiddleware)
		deps.AssignmentHandler.Register(assignments)

		if deps.GradeHandler != nil {
			graded := api.Group("/assignments", jwtMiddleware, rateLimiter)
			deps.GradeHandler.RegisterAssignmentRoutes(graded)
		}
	}

	if deps.SubmissionHandler != nil {
		submissions := api.Group("/submissions", jwtMiddleware)
		deps.SubmissionHandler.Register(submissions)
	}
}
