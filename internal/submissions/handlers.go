package submissions

import (
	"encoding/json"
	"time"

	"fieldbook/internal/audit"
	"fieldbook/internal/db"
	"fieldbook/internal/errmsg"
	"fieldbook/internal/models"
	"fieldbook/internal/query"
	"fieldbook/internal/sequence"
	"fieldbook/internal/utils"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

func loadSource(c fiber.Ctx) (*models.Source, errmsg.StatusError) {
	return models.GetSource(c.Params("sourceID"))
}

func listHandler(c fiber.Ctx) error {
	src, serr := loadSource(c)
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	opts, serr := query.ParseOptions(utils.QueryValues(c), func(field string) bool {
		return src.FieldByID(field) != nil
	})
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	result, serr := query.Run(db.Ctx, db.Submissions, src.SubmissionKey, opts)
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	// a full pull is an export as far as the ledger is concerned
	if opts.All && opts.ID == "" && audit.Em != nil {
		audit.Em.Export(models.Actor(c), src.SubmissionKey, result.TotalResults)
	}

	return c.JSON(result)
}

type createPayload struct {
	Data       bson.M `json:"data"`
	ExternalID string `json:"externalId"`
}

func createHandler(c fiber.Ctx) error {
	src, serr := loadSource(c)
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	var body createPayload
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return utils.StatusError(c, errmsg.SubmissionInvalidPayload)
	}
	if body.Data == nil {
		body.Data = bson.M{}
	}

	if serr := stampSequences(src, body.Data); serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	sub := models.Submission{
		ID:            uuid.NewString(),
		SubmissionKey: src.SubmissionKey,
		Created:       time.Now(),
		Data:          body.Data,
		ExternalID:    body.ExternalID,
		Edits:         []bson.M{},
	}

	if serr := models.CreateSubmission(sub); serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	if _, serr := audit.Record(models.EventSubmissionsCreate, models.Actor(c), bson.M{
		"source":     src.SubmissionKey,
		"submission": sub.ID,
	}); serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	return c.Status(fiber.StatusCreated).JSON(bson.M{"submission": sub})
}

// stampSequences fills every sequence-typed field the caller left blank
// with the next per-(source, field) counter value.
func stampSequences(src *models.Source, data bson.M) errmsg.StatusError {
	for _, field := range src.Fields {
		if field.Type != models.FieldSequence {
			continue
		}
		if _, ok := data[field.ID]; ok {
			continue
		}
		value, err := sequence.Next(db.Ctx, db.Sequences, src.ID, field.ID, 1)
		if err != nil {
			return errmsg.InternalServerError(err)
		}
		data[field.ID] = value
	}
	return errmsg.EmptyStatusError
}

func getHandler(c fiber.Ctx) error {
	sub, serr := models.GetSubmission(c.Params("submissionID"))
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	return c.JSON(bson.M{"submission": sub})
}

func editHandler(c fiber.Ctx) error {
	src, serr := loadSource(c)
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	sub, serr := models.GetSubmission(c.Params("submissionID"))
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	var body bson.M
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return utils.StatusError(c, errmsg.SubmissionInvalidPayload)
	}

	field, _ := body["field"].(string)
	if field == "" {
		return utils.StatusError(c, errmsg.SubmissionInvalidPayload)
	}
	value := body["value"]
	expected, checkExpected := body["expected"]

	auditID, _ := body["auditId"].(string)
	if auditID == "" {
		auditID = uuid.NewString()
	}

	actor := models.Actor(c)

	if serr := sub.EditField(field, value, expected, checkExpected, actor, auditID); serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	if _, serr := audit.RecordEdit(actor, src.SubmissionKey, auditID); serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	display := bson.M{"value": "", "link": false}
	if meta := src.FieldByID(field); meta != nil {
		rendered, link := meta.Display(value)
		display["value"] = rendered
		display["link"] = link
	}

	return c.JSON(bson.M{
		"submission": sub,
		"display":    display,
		"auditId":    auditID,
	})
}

type bulkEditPayload struct {
	AuditID string   `json:"auditId"`
	Edits   []bson.M `json:"edits"`
}

// bulkEditHandler applies a set of independent per-record mutations
// concurrently under one shared auditId. At-least-once: a failure does
// not roll back sibling edits; the outcome list says which records
// landed.
func bulkEditHandler(c fiber.Ctx) error {
	src, serr := loadSource(c)
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	var body bulkEditPayload
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return utils.StatusError(c, errmsg.SubmissionInvalidPayload)
	}
	if len(body.Edits) == 0 {
		return utils.StatusError(c, errmsg.SubmissionInvalidPayload)
	}

	auditID := body.AuditID
	if auditID == "" {
		auditID = uuid.NewString()
	}

	actor := models.Actor(c)

	outcomes := audit.ApplyAll(len(body.Edits), func(i int) audit.Outcome {
		edit := body.Edits[i]

		id, _ := edit["id"].(string)
		field, _ := edit["field"].(string)
		if id == "" || field == "" {
			return audit.Outcome{ID: id, Error: errmsg.SubmissionInvalidPayload.Message}
		}

		sub, serr := models.GetSubmission(id)
		if serr != errmsg.EmptyStatusError {
			return audit.Outcome{ID: id, Error: serr.Message}
		}

		expected, checkExpected := edit["expected"]
		serr = sub.EditField(field, edit["value"], expected, checkExpected, actor, auditID)
		if serr != errmsg.EmptyStatusError {
			return audit.Outcome{ID: id, Error: serr.Message}
		}

		return audit.Outcome{ID: id}
	})

	if serr := audit.FirstFailure(outcomes); serr != errmsg.EmptyStatusError {
		return c.Status(serr.StatusCode).JSON(bson.M{
			"message":  serr.Message,
			"outcomes": outcomes,
		})
	}

	event, serr := audit.RecordEdit(actor, src.SubmissionKey, auditID)
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	return c.JSON(bson.M{
		"auditId":  auditID,
		"event":    event,
		"outcomes": outcomes,
	})
}

func archiveHandler(c fiber.Ctx) error {
	src, serr := loadSource(c)
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	id := c.Params("submissionID")
	if serr := models.SetSubmissionDeleted(id, true); serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	if _, serr := audit.Record(models.EventSubmissionsArchive, models.Actor(c), bson.M{
		"source":     src.SubmissionKey,
		"submission": id,
	}); serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func restoreHandler(c fiber.Ctx) error {
	src, serr := loadSource(c)
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	id := c.Params("submissionID")
	if serr := models.SetSubmissionDeleted(id, false); serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	if _, serr := audit.Record(models.EventSubmissionsRestore, models.Actor(c), bson.M{
		"source":     src.SubmissionKey,
		"submission": id,
	}); serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// copyHandler duplicates a submission with originId provenance; sequence
// fields get fresh numbers instead of the original's.
func copyHandler(c fiber.Ctx) error {
	src, serr := loadSource(c)
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	original, serr := models.GetSubmission(c.Params("submissionID"))
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	data := bson.M{}
	for k, v := range original.Data {
		data[k] = v
	}
	for _, field := range src.Fields {
		if field.Type == models.FieldSequence {
			delete(data, field.ID)
		}
	}
	if serr := stampSequences(src, data); serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	copySub := models.Submission{
		ID:            uuid.NewString(),
		SubmissionKey: src.SubmissionKey,
		Created:       time.Now(),
		Data:          data,
		OriginID:      original.ID,
		Edits:         []bson.M{},
	}

	if serr := models.CreateSubmission(copySub); serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	if _, serr := audit.Record(models.EventSubmissionsCreate, models.Actor(c), bson.M{
		"source":     src.SubmissionKey,
		"submission": copySub.ID,
		"origin":     original.ID,
	}); serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	return c.Status(fiber.StatusCreated).JSON(bson.M{"submission": copySub})
}
