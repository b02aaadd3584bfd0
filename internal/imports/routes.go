package imports

import (
	"fieldbook/internal/models"

	"github.com/gofiber/fiber/v3"
)

func Routes(app fiber.Router) {
	staged := app.Group("/sources/:sourceID/imports")
	staged.Use(models.AccountMiddleware)
	staged.Post("/", createHandler)

	imports := app.Group("/imports")
	imports.Use(models.AccountMiddleware)
	imports.Get("/:importID", getHandler)
	imports.Post("/:importID/commit", commitHandler)
	imports.Delete("/:importID", discardHandler)
}
