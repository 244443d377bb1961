package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CORS sets permissive CORS headers on every response and answers preflight
// requests with 200 before any route runs.
func CORS() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
		c.Set(fiber.HeaderAccessControlAllowMethods, "GET, POST, OPTIONS")
		c.Set(fiber.HeaderAccessControlAllowHeaders, "Content-Type")

		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusOK)
		}
		return c.Next()
	}
}

// RegisterRoutes registers all HTTP routes on the Fiber app.
func RegisterRoutes(app *fiber.App, info ServiceInfo, processHandler *ProcessHandler, sseHandler *SSEHandler) {
	app.Use(CORS())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	serviceInfo := func(c *fiber.Ctx) error {
		body := info
		body.Timestamp = timestamp()
		return c.Status(fiber.StatusOK).JSON(body)
	}
	app.Get("/", serviceInfo)
	app.Get("/api", serviceInfo)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(HealthResponse{
			Status:    "ok",
			Timestamp: timestamp(),
		})
	})

	v := app.Group("/api")
	v.Get("/processo/:numero?", processHandler.ConsultarProcesso)
	v.Get("/documentos/:numero?", processHandler.ListarDocumentos)

	app.Get("/sse", sseHandler.Stream)

	app.Use(NotFound)
}
