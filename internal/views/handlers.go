package views

import (
	"encoding/json"
	"strconv"
	"time"

	"fieldbook/internal/audit"
	"fieldbook/internal/errmsg"
	"fieldbook/internal/models"
	"fieldbook/internal/query"
	"fieldbook/internal/utils"
	"fieldbook/internal/view"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

type viewPayload struct {
	Name    string              `json:"name"`
	Fields  []models.Field      `json:"fields"`
	Sources []models.ViewSource `json:"sources"`
}

func createHandler(c fiber.Ctx) error {
	var body viewPayload
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return utils.StatusError(c, errmsg.ViewInvalidPayload)
	}
	if body.Name == "" {
		return utils.StatusError(c, errmsg.ViewInvalidPayload)
	}

	v := models.View{
		ID:      uuid.NewString(),
		Name:    body.Name,
		Fields:  body.Fields,
		Sources: body.Sources,
		Created: time.Now(),
	}
	if v.Fields == nil {
		v.Fields = []models.Field{}
	}
	if v.Sources == nil {
		v.Sources = []models.ViewSource{}
	}

	if serr := view.Validate(v); serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	if serr := models.CreateView(v); serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	if audit.Em != nil {
		audit.Em.ViewUpdate(models.Actor(c), v.ID, "create")
	}

	return c.Status(fiber.StatusCreated).JSON(bson.M{"view": v})
}

func listHandler(c fiber.Ctx) error {
	includeDeleted := c.Query("deleted") != ""

	views, serr := models.ListViews(includeDeleted)
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	return c.JSON(bson.M{"views": views})
}

func getHandler(c fiber.Ctx) error {
	v, serr := models.GetView(c.Params("viewID"))
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	return c.JSON(bson.M{"view": v})
}

func updateHandler(c fiber.Ctx) error {
	v, serr := models.GetView(c.Params("viewID"))
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	var body viewPayload
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return utils.StatusError(c, errmsg.ViewInvalidPayload)
	}

	if body.Name != "" {
		v.Name = body.Name
	}
	if body.Fields != nil {
		v.Fields = body.Fields
	}
	if body.Sources != nil {
		v.Sources = body.Sources
	}

	if serr := view.Validate(*v); serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	if serr := models.UpdateView(v); serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	if audit.Em != nil {
		audit.Em.ViewUpdate(models.Actor(c), v.ID, "update")
	}

	return c.JSON(bson.M{"view": v})
}

func deleteHandler(c fiber.Ctx) error {
	if serr := models.SetViewDeleted(c.Params("viewID"), true); serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func rowsHandler(c fiber.Ctx) error {
	v, serr := models.GetView(c.Params("viewID"))
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	opts, serr := query.ParseOptions(utils.QueryValues(c), func(field string) bool {
		return v.FieldByID(field) != nil
	})
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	result, serr := view.Compose(*v, view.Options{
		Sort:    opts.Sort,
		Order:   opts.Order,
		Offset:  opts.Offset,
		Limit:   opts.Limit,
		All:     opts.All,
		Filters: opts.Filters,
	})
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	return c.JSON(result)
}

// editRowHandler resolves a view field on one row back to its owning
// source field and forwards the edit through the normal submission
// update path; a field with no backing source field writes to the
// per-row overlay instead, under the same optimistic-lock contract.
func editRowHandler(c fiber.Ctx) error {
	v, serr := models.GetView(c.Params("viewID"))
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	var body bson.M
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return utils.StatusError(c, errmsg.ViewInvalidPayload)
	}

	submissionID, _ := body["submissionId"].(string)
	field, _ := body["field"].(string)
	if submissionID == "" || field == "" {
		return utils.StatusError(c, errmsg.ViewInvalidPayload)
	}

	subIndex := 0
	if n, ok := body["subIndex"].(float64); ok {
		subIndex = int(n)
	}

	value := body["value"]
	expected, checkExpected := body["expected"]

	auditID, _ := body["auditId"].(string)
	if auditID == "" {
		auditID = uuid.NewString()
	}

	sub, serr := models.GetSubmission(submissionID)
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	vs := v.SourceFor(sub.SubmissionKey)
	if vs == nil {
		return utils.StatusError(c, errmsg.ViewRowNotFound)
	}

	src, serr := models.GetSourceByKey(vs.SubmissionKey)
	if serr != errmsg.EmptyStatusError && serr != errmsg.SourceNotFound {
		return utils.StatusError(c, serr)
	}

	sourceField, backed, serr := view.ResolveEditField(*vs, src, field, subIndex)
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	actor := models.Actor(c)

	if backed {
		if serr := sub.EditField(sourceField, value, expected, checkExpected, actor, auditID); serr != errmsg.EmptyStatusError {
			return utils.StatusError(c, serr)
		}

		if _, serr := audit.RecordEdit(actor, sub.SubmissionKey, auditID); serr != errmsg.EmptyStatusError {
			return utils.StatusError(c, serr)
		}
	} else {
		if v.FieldByID(field) == nil {
			return utils.StatusError(c, errmsg.ViewFieldNotFound)
		}

		if serr := editOverlay(v.ID, submissionID, subIndex, field, value, expected, checkExpected); serr != errmsg.EmptyStatusError {
			return utils.StatusError(c, serr)
		}

		if audit.Em != nil {
			audit.Em.ViewUpdate(actor, v.ID, "entry")
		}
	}

	display := bson.M{"value": "", "link": false}
	if meta := v.FieldByID(field); meta != nil {
		rendered, link := meta.Display(value)
		display["value"] = rendered
		display["link"] = link
	}

	return c.JSON(bson.M{
		"submissionId": submissionID,
		"subIndex":     subIndex,
		"display":      display,
		"auditId":      auditID,
	})
}

// editOverlay writes an unbacked view field into the ViewEntry store,
// creating the entry on first write. Overlay writes carry the same
// loose optimistic-lock comparison as scalar edits.
func editOverlay(viewID, submissionID string, subIndex int, field string, value, expected any, checkExpected bool) errmsg.StatusError {
	if checkExpected {
		var current any
		entry, serr := models.GetViewEntry(viewID, submissionID, subIndex)
		if serr == errmsg.EmptyStatusError {
			current = entry.Data[field]
		} else if serr != errmsg.ViewEntryNotFound {
			return serr
		}

		if !models.LooseEqual(current, expected) {
			return errmsg.SubmissionStaleValue
		}
	}

	return models.SetViewEntryField(viewID, submissionID, subIndex, field, value)
}

func deleteEntryHandler(c fiber.Ctx) error {
	subIndex, err := strconv.Atoi(c.Params("subIndex"))
	if err != nil {
		return utils.StatusError(c, errmsg.ViewInvalidPayload)
	}

	serr := models.DeleteViewEntry(
		c.Params("viewID"),
		c.Params("submissionID"),
		subIndex,
	)
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
