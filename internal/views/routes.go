package views

import (
	"fieldbook/internal/models"

	"github.com/gofiber/fiber/v3"
)

func Routes(app fiber.Router) {
	views := app.Group("/views")
	views.Use(models.AccountMiddleware)

	views.Post("/", createHandler)
	views.Get("/", listHandler)
	views.Get("/:viewID", getHandler)
	views.Put("/:viewID", updateHandler)
	views.Delete("/:viewID", deleteHandler)
	views.Get("/:viewID/rows", rowsHandler)
	views.Patch("/:viewID/rows", editRowHandler)
	views.Delete("/:viewID/entries/:submissionID/:subIndex", deleteEntryHandler)
}
