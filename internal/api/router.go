package api

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, h *Handler) {
	app.Get("/health", h.Health)

	api := app.Group("/api")
	api.Get("/_rules", h.Rules)
	api.Get("/:entity/filter", h.Filter)
	api.Post("/:entity/match", h.Match)
}
