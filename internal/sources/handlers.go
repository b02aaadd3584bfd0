package sources

import (
	"encoding/json"
	"strings"
	"time"

	"fieldbook/internal/audit"
	"fieldbook/internal/errmsg"
	"fieldbook/internal/models"
	"fieldbook/internal/utils"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

type sourcePayload struct {
	System    string         `json:"system"`
	Namespace string         `json:"namespace"`
	Name      string         `json:"name"`
	Fields    []models.Field `json:"fields"`
}

func createHandler(c fiber.Ctx) error {
	var body sourcePayload
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return utils.StatusError(c, errmsg.SourceInvalidPayload)
	}

	body.System = strings.TrimSpace(body.System)
	body.Namespace = strings.TrimSpace(body.Namespace)
	if body.System == "" || body.Namespace == "" {
		return utils.StatusError(c, errmsg.SourceInvalidPayload)
	}

	src := models.Source{
		ID:            uuid.NewString(),
		System:        body.System,
		Namespace:     body.Namespace,
		SubmissionKey: models.SubmissionKeyFor(body.System, body.Namespace),
		Name:          body.Name,
		Fields:        body.Fields,
		Created:       time.Now(),
	}
	if src.Fields == nil {
		src.Fields = []models.Field{}
	}

	if serr := src.ValidateFields(); serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	if serr := models.CreateSource(src); serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	if audit.Em != nil {
		audit.Em.SourceUpdate(models.Actor(c), src.SubmissionKey, "create")
	}

	return c.JSON(bson.M{"source": src})
}

func listHandler(c fiber.Ctx) error {
	includeDeleted := c.Query("deleted") != ""

	sources, serr := models.ListSources(includeDeleted)
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	return c.JSON(bson.M{"sources": sources})
}

func getHandler(c fiber.Ctx) error {
	src, serr := models.GetSource(c.Params("sourceID"))
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	return c.JSON(bson.M{"source": src})
}

func updateHandler(c fiber.Ctx) error {
	src, serr := models.GetSource(c.Params("sourceID"))
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	var body sourcePayload
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return utils.StatusError(c, errmsg.SourceInvalidPayload)
	}

	if body.Name != "" {
		src.Name = body.Name
	}
	if body.Fields != nil {
		src.Fields = body.Fields
	}

	if serr := src.ValidateFields(); serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	if serr := models.UpdateSource(src); serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	if audit.Em != nil {
		audit.Em.SourceUpdate(models.Actor(c), src.SubmissionKey, "update")
	}

	return c.JSON(bson.M{"source": src})
}

func deleteHandler(c fiber.Ctx) error {
	if serr := models.SetSourceDeleted(c.Params("sourceID"), true); serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func restoreHandler(c fiber.Ctx) error {
	if serr := models.SetSourceDeleted(c.Params("sourceID"), false); serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func deleteFieldHandler(c fiber.Ctx) error {
	src, serr := models.GetSource(c.Params("sourceID"))
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	if serr := models.DeleteSourceField(src, c.Params("fieldID")); serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	if audit.Em != nil {
		audit.Em.SourceUpdate(models.Actor(c), src.SubmissionKey, "deleteField")
	}

	return c.JSON(bson.M{"source": src})
}
