package audit

import (
	"time"

	"fieldbook/internal/errmsg"
	"fieldbook/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// Record writes one ledger event synchronously and returns it. Every
// mutating operation goes through here; bulk operations share one
// auditId inside data.
func Record(eventType, user string, data bson.M) (*models.AuditEvent, errmsg.StatusError) {
	if data == nil {
		data = bson.M{}
	}

	ev := models.AuditEvent{
		ID:      uuid.NewString(),
		Type:    eventType,
		Created: time.Now(),
		User:    user,
		Data:    data,
		Undone:  false,
	}

	if serr := models.InsertAuditEvent(ev); serr != errmsg.EmptyStatusError {
		return nil, serr
	}

	return &ev, errmsg.EmptyStatusError
}

// RecordEdit writes the undo-capable bulk edit event: correlation id,
// source reference, affected count, and the version flag that gates
// undo eligibility. The affected count is the number of distinct
// submissions whose history carries the auditId - the same query an
// undo runs later - so a batch touching one record twice still matches
// its own event.
func RecordEdit(user, submissionKey, auditID string) (*models.AuditEvent, errmsg.StatusError) {
	affected, serr := models.CountSubmissionsByAuditID(auditID)
	if serr != errmsg.EmptyStatusError {
		return nil, serr
	}

	return Record(models.EventSubmissionsEdit, user, bson.M{
		"source":   submissionKey,
		"auditId":  auditID,
		"affected": affected,
		"version":  models.UndoableVersion,
	})
}

// RecordImportCommit writes the undo-capable bulk create event.
func RecordImportCommit(user, submissionKey, importID, auditID string, affected int) (*models.AuditEvent, errmsg.StatusError) {
	return Record(models.EventImportsCommit, user, bson.M{
		"source":   submissionKey,
		"importId": importID,
		"auditId":  auditID,
		"affected": affected,
		"version":  models.UndoableVersion,
	})
}

// Telemetry wrappers; these ride the batched emitter and are never
// undoable.

func (e *Emitter) Login(username string) {
	e.Emit(models.AuditEvent{
		ID:   uuid.NewString(),
		Type: models.EventAccountsLogin,
		User: username,
		Data: bson.M{},
	})
}

func (e *Emitter) Export(username, submissionKey string, results int64) {
	e.Emit(models.AuditEvent{
		ID:   uuid.NewString(),
		Type: models.EventExportsRun,
		User: username,
		Data: bson.M{
			"source":  submissionKey,
			"results": results,
		},
	})
}

func (e *Emitter) SourceUpdate(username, submissionKey, action string) {
	e.Emit(models.AuditEvent{
		ID:   uuid.NewString(),
		Type: models.EventSourcesUpdate,
		User: username,
		Data: bson.M{
			"source": submissionKey,
			"action": action,
		},
	})
}

func (e *Emitter) ViewUpdate(username, viewID, action string) {
	e.Emit(models.AuditEvent{
		ID:   uuid.NewString(),
		Type: models.EventViewsUpdate,
		User: username,
		Data: bson.M{
			"view":   viewID,
			"action": action,
		},
	})
}
