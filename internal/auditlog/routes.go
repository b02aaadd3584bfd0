package auditlog

import (
	"fieldbook/internal/models"

	"github.com/gofiber/fiber/v3"
)

func Routes(app fiber.Router) {
	events := app.Group("/audit")
	events.Use(models.AccountMiddleware)

	events.Get("/", listHandler)
	events.Get("/:eventID", getHandler)
	events.Post("/:eventID/undo", undoHandler)
}
