package sources

import (
	"fieldbook/internal/models"

	"github.com/gofiber/fiber/v3"
)

func Routes(app fiber.Router) {
	sources := app.Group("/sources")
	sources.Use(models.AccountMiddleware)

	sources.Post("/", createHandler)
	sources.Get("/", listHandler)
	sources.Get("/:sourceID", getHandler)
	sources.Put("/:sourceID", updateHandler)
	sources.Delete("/:sourceID", deleteHandler)
	sources.Post("/:sourceID/restore", restoreHandler)
	sources.Delete("/:sourceID/fields/:fieldID", deleteFieldHandler)
}
