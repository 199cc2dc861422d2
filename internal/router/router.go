package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/crms-go-api/internal/config"
	"github.com/noah-isme/crms-go-api/internal/handler"
	"github.com/noah-isme/crms-go-api/internal/middleware"
	"github.com/noah-isme/crms-go-api/internal/observability"
	"github.com/noah-isme/crms-go-api/internal/service"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SubmissionHandler *handler.SubmissionHandler
	AssignmentHandler *handler.AssignmentHandler
	ReviewHandler     *handler.ReviewHandler
	StatisticsHandler *handler.StatisticsHandler
	TrackHandler      *handler.TrackHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.TrackHandler != nil {
		tracks := api.Group("/tracks", jwtMiddleware)
		deps.TrackHandler.Register(tracks)
	}

	managerOnly := middleware.RequireRole(service.RoleTrackManager)

	if deps.SubmissionHandler != nil {
		submissions := api.Group("/submissions", jwtMiddleware)
		deps.SubmissionHandler.Register(submissions)

		if deps.AssignmentHandler != nil {
			deps.AssignmentHandler.RegisterSubmissionRoutes(submissions, managerOnly)
		}
		if deps.ReviewHandler != nil {
			deps.ReviewHandler.RegisterSubmissionRoutes(submissions)
		}
	}

	reviews := api.Group("/reviews", jwtMiddleware)
	if deps.ReviewHandler != nil {
		deps.ReviewHandler.RegisterReviewRoutes(reviews)
	}
	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.RegisterReviewRoutes(reviews, managerOnly)
	}

	if deps.StatisticsHandler != nil {
		reviewers := api.Group("/reviewers", jwtMiddleware)
		deps.StatisticsHandler.Register(reviewers)
	}
}
