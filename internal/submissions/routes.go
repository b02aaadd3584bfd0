package submissions

import (
	"fieldbook/internal/models"

	"github.com/gofiber/fiber/v3"
)

func Routes(app fiber.Router) {
	subs := app.Group("/sources/:sourceID/submissions")
	subs.Use(models.AccountMiddleware)

	subs.Get("/", listHandler)
	subs.Post("/", createHandler)
	subs.Post("/bulk", bulkEditHandler)
	subs.Get("/:submissionID", getHandler)
	subs.Patch("/:submissionID", editHandler)
	subs.Delete("/:submissionID", archiveHandler)
	subs.Post("/:submissionID/restore", restoreHandler)
	subs.Post("/:submissionID/copy", copyHandler)
}
