package web

import (
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures the application routes. Only fetch endpoints are
// rate limited.
func SetupRoutes(app *fiber.App, handlers *Handlers, rateLimiter *RateLimiter) {
	app.Get("/health", handlers.Health)

	api := app.Group("/api", rateLimiter.Middleware())

	// Example: /api/accounts/nasa/tweets?start=2024-01-01&end=2024-01-31&mode=dom
	api.Get("/accounts/:account/tweets", handlers.AccountTweets)
	api.Get("/lists/:id/tweets", handlers.ListTweets)

	// Accepts a pasted profile or list URL
	api.Post("/fetch", handlers.FetchTweets)
}
