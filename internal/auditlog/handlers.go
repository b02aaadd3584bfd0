package auditlog

import (
	"strconv"

	"fieldbook/internal/audit"
	"fieldbook/internal/errmsg"
	"fieldbook/internal/models"
	"fieldbook/internal/utils"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson"
)

func listHandler(c fiber.Ctx) error {
	limit := int64(0)
	if l := c.Query("limit"); l != "" && l != "all" {
		n, err := strconv.ParseInt(l, 10, 64)
		if err != nil || n < 0 {
			return utils.StatusError(c, errmsg.QueryInvalidOption)
		}
		limit = n
	}

	events, serr := models.ListAuditEvents(c.Query("type"), limit)
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	return c.JSON(bson.M{"events": events})
}

func getHandler(c fiber.Ctx) error {
	ev, serr := models.GetAuditEvent(c.Params("eventID"))
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	return c.JSON(bson.M{"event": ev, "canUndo": ev.CanUndo()})
}

func undoHandler(c fiber.Ctx) error {
	ev, serr := models.GetAuditEvent(c.Params("eventID"))
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	updated, serr := audit.UndoEvent(ev, models.Actor(c))
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	return c.JSON(bson.M{"event": updated})
}
