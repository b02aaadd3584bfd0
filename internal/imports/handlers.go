package imports

import (
	"encoding/json"
	"time"

	"fieldbook/internal/audit"
	"fieldbook/internal/db"
	"fieldbook/internal/errmsg"
	"fieldbook/internal/models"
	"fieldbook/internal/sequence"
	"fieldbook/internal/utils"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

type importPayload struct {
	Type    string                    `json:"type"`
	Records []models.StagedSubmission `json:"records"`
}

// createHandler stages a pending batch. Create-type batches drop records
// whose externalId has already been ingested into the source.
func createHandler(c fiber.Ctx) error {
	src, serr := models.GetSource(c.Params("sourceID"))
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	var body importPayload
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return utils.StatusError(c, errmsg.ImportInvalidPayload)
	}

	if body.Type == "" {
		body.Type = models.ImportCreate
	}
	if body.Type != models.ImportCreate && body.Type != models.ImportEdit {
		return utils.StatusError(c, errmsg.ImportInvalidPayload)
	}

	records := body.Records
	if body.Type == models.ImportCreate {
		records, serr = dedupExternal(src.SubmissionKey, records)
		if serr != errmsg.EmptyStatusError {
			return utils.StatusError(c, serr)
		}
	}
	if len(records) == 0 {
		return utils.StatusError(c, errmsg.ImportEmptyBatch)
	}

	imp := models.Import{
		ID:            uuid.NewString(),
		SubmissionKey: src.SubmissionKey,
		Type:          body.Type,
		Records:       records,
		Created:       time.Now(),
		CreatedBy:     models.Actor(c),
	}

	if serr := models.CreateImport(imp); serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	return c.Status(fiber.StatusCreated).JSON(bson.M{"import": imp})
}

func dedupExternal(submissionKey string, records []models.StagedSubmission) ([]models.StagedSubmission, errmsg.StatusError) {
	kept := make([]models.StagedSubmission, 0, len(records))
	for _, record := range records {
		if record.ExternalID != "" {
			count, err := db.Submissions.CountDocuments(db.Ctx, bson.M{
				"submissionKey": submissionKey,
				"externalId":    record.ExternalID,
			})
			if err != nil {
				return nil, errmsg.InternalServerError(err)
			}
			if count > 0 {
				continue
			}
		}
		kept = append(kept, record)
	}
	return kept, errmsg.EmptyStatusError
}

func getHandler(c fiber.Ctx) error {
	imp, serr := models.GetImport(c.Params("importID"))
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	return c.JSON(bson.M{"import": imp})
}

// commitHandler merges the staged batch into live data under one shared
// auditId. The committed flag flips first so a racing second commit
// loses before any record lands.
func commitHandler(c fiber.Ctx) error {
	imp, serr := models.GetImport(c.Params("importID"))
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	src, serr := models.GetSourceByKey(imp.SubmissionKey)
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	if serr := models.MarkImportCommitted(imp.ID); serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	auditID := uuid.NewString()
	actor := models.Actor(c)

	var outcomes []audit.Outcome
	var event *models.AuditEvent

	switch imp.Type {
	case models.ImportEdit:
		outcomes = commitEdits(imp, actor, auditID)
		if serr := audit.FirstFailure(outcomes); serr != errmsg.EmptyStatusError {
			return c.Status(serr.StatusCode).JSON(bson.M{
				"message":  serr.Message,
				"outcomes": outcomes,
			})
		}
		event, serr = audit.RecordEdit(actor, imp.SubmissionKey, auditID)
	default:
		outcomes, serr = commitCreates(imp, src, auditID)
		if serr != errmsg.EmptyStatusError {
			return utils.StatusError(c, serr)
		}
		if serr := audit.FirstFailure(outcomes); serr != errmsg.EmptyStatusError {
			return c.Status(serr.StatusCode).JSON(bson.M{
				"message":  serr.Message,
				"outcomes": outcomes,
			})
		}
		event, serr = audit.RecordImportCommit(actor, imp.SubmissionKey, imp.ID, auditID, len(imp.Records))
	}
	if serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	return c.JSON(bson.M{
		"auditId":  auditID,
		"event":    event,
		"outcomes": outcomes,
	})
}

// commitCreates inserts one live submission per staged record, stamped
// with the shared auditId so an undo can locate exactly this batch.
// Sequence fields draw one contiguous block per field.
func commitCreates(imp *models.Import, src *models.Source, auditID string) ([]audit.Outcome, errmsg.StatusError) {
	n := int64(len(imp.Records))

	starts := map[string]int64{}
	for _, field := range src.Fields {
		if field.Type != models.FieldSequence {
			continue
		}
		last, err := sequence.Next(db.Ctx, db.Sequences, src.ID, field.ID, n)
		if err != nil {
			return nil, errmsg.InternalServerError(err)
		}
		starts[field.ID] = last - n + 1
	}

	subs := make([]models.Submission, len(imp.Records))
	for i, record := range imp.Records {
		data := bson.M{}
		for k, v := range record.Data {
			data[k] = v
		}
		for fieldID, start := range starts {
			if _, ok := data[fieldID]; !ok {
				data[fieldID] = start + int64(i)
			}
		}

		subs[i] = models.Submission{
			ID:            uuid.NewString(),
			SubmissionKey: imp.SubmissionKey,
			Created:       time.Now(),
			Data:          data,
			ExternalID:    record.ExternalID,
			AuditID:       auditID,
			Edits:         []bson.M{},
		}
	}

	outcomes := audit.ApplyAll(len(subs), func(i int) audit.Outcome {
		if serr := models.CreateSubmission(subs[i]); serr != errmsg.EmptyStatusError {
			return audit.Outcome{ID: subs[i].ID, Error: serr.Message}
		}
		return audit.Outcome{ID: subs[i].ID}
	})

	return outcomes, errmsg.EmptyStatusError
}

// commitEdits forwards every staged field mutation through the ordinary
// submission update path under the shared auditId.
func commitEdits(imp *models.Import, actor, auditID string) []audit.Outcome {
	return audit.ApplyAll(len(imp.Records), func(i int) audit.Outcome {
		record := imp.Records[i]

		sub, serr := models.GetSubmission(record.SubmissionID)
		if serr != errmsg.EmptyStatusError {
			return audit.Outcome{ID: record.SubmissionID, Error: serr.Message}
		}

		for field, value := range record.Data {
			serr := sub.EditField(field, value, nil, false, actor, auditID)
			if serr != errmsg.EmptyStatusError {
				return audit.Outcome{ID: sub.ID, Error: serr.Message}
			}
		}

		return audit.Outcome{ID: sub.ID}
	})
}

func discardHandler(c fiber.Ctx) error {
	if serr := models.DeleteImport(c.Params("importID")); serr != errmsg.EmptyStatusError {
		return utils.StatusError(c, serr)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
