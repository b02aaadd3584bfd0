package audit

import (
	"errors"
	"log"
	"sync"

	"fieldbook/internal/errmsg"
	"fieldbook/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// Outcome is the per-record result of a bulk application. Bulk
// operations are at-least-once, not atomic: already-applied siblings are
// not rolled back when a later record fails.
type Outcome struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

// PreviousValues extracts, from one submission's edit history, the
// values to restore for a given correlation id. The boolean reports
// whether every matching entry carries a usable previous value; any
// entry without one makes the whole record unusable and the undo must
// fail closed.
func PreviousValues(auditID string, edits []bson.M) (map[string]any, bool) {
	restore := map[string]any{}

	for _, entry := range edits {
		id, _ := entry["auditId"].(string)
		if id != auditID {
			continue
		}

		field, _ := entry["field"].(string)
		if field == "" {
			return nil, false
		}

		previous, present := entry["previous"]
		if !present {
			return nil, false
		}

		// first entry per field wins: that previous is the pre-bulk state
		if _, seen := restore[field]; !seen {
			restore[field] = previous
		}
	}

	if len(restore) == 0 {
		return nil, false
	}
	return restore, true
}

// UndoEvent applies the inverse of a bulk operation described by one
// ledger event. Edit events revert each affected record to its recorded
// previous values through the ordinary update path under a fresh
// auditId, so the undo is itself a new, separately undoable edit event.
// Import commits invert to archival. Either way the whole undo fails
// closed unless every affected record can be recovered.
func UndoEvent(ev *models.AuditEvent, actor string) (*models.AuditEvent, errmsg.StatusError) {
	if ev.Undone {
		return nil, errmsg.AuditAlreadyUndone
	}
	if !ev.CanUndo() {
		return nil, errmsg.AuditNotUndoable
	}

	var serr errmsg.StatusError
	switch ev.Type {
	case models.EventSubmissionsEdit:
		serr = undoEdit(ev, actor)
	case models.EventImportsCommit:
		serr = undoImportCommit(ev, actor)
	default:
		return nil, errmsg.AuditNotUndoable
	}
	if serr != errmsg.EmptyStatusError {
		return nil, serr
	}

	if serr := models.MarkAuditEventUndone(ev.ID, actor); serr != errmsg.EmptyStatusError {
		return nil, serr
	}

	return models.GetAuditEvent(ev.ID)
}

func undoEdit(ev *models.AuditEvent, actor string) errmsg.StatusError {
	auditID := ev.DataString("auditId")
	affected := ev.DataInt("affected")

	subs, serr := models.FindSubmissionsByAuditID(auditID)
	if serr != errmsg.EmptyStatusError {
		return serr
	}

	type restoration struct {
		sub    models.Submission
		values map[string]any
	}

	restorations := make([]restoration, 0, len(subs))
	for _, sub := range subs {
		values, ok := PreviousValues(auditID, sub.Edits)
		if !ok {
			continue
		}
		restorations = append(restorations, restoration{sub: sub, values: values})
	}

	if len(restorations) != affected {
		// structural inconsistency, not user error
		log.Printf(
			"audit: undo of %s aborted: %d of %d affected records recoverable",
			ev.ID, len(restorations), affected,
		)
		return errmsg.AuditUndoMismatch
	}

	newAuditID := uuid.NewString()

	outcomes := ApplyAll(len(restorations), func(i int) Outcome {
		r := restorations[i]
		for field, previous := range r.values {
			serr := r.sub.EditField(field, previous, nil, false, actor, newAuditID)
			if serr != errmsg.EmptyStatusError {
				return Outcome{ID: r.sub.ID, Error: serr.Message}
			}
		}
		return Outcome{ID: r.sub.ID}
	})

	if serr := FirstFailure(outcomes); serr != errmsg.EmptyStatusError {
		return serr
	}

	if _, serr := RecordEdit(actor, ev.DataString("source"), newAuditID); serr != errmsg.EmptyStatusError {
		return serr
	}

	return errmsg.EmptyStatusError
}

// undoImportCommit archives the records a bulk create produced; there is
// no prior value to restore, so the inverse of "created N" is
// "archived N".
func undoImportCommit(ev *models.AuditEvent, actor string) errmsg.StatusError {
	auditID := ev.DataString("auditId")
	affected := ev.DataInt("affected")

	subs, serr := models.FindSubmissionsByCreateAuditID(auditID)
	if serr != errmsg.EmptyStatusError {
		return serr
	}

	if len(subs) != affected {
		log.Printf(
			"audit: undo of %s aborted: found %d of %d imported records",
			ev.ID, len(subs), affected,
		)
		return errmsg.AuditUndoMismatch
	}

	outcomes := ApplyAll(len(subs), func(i int) Outcome {
		if serr := models.SetSubmissionDeleted(subs[i].ID, true); serr != errmsg.EmptyStatusError {
			return Outcome{ID: subs[i].ID, Error: serr.Message}
		}
		return Outcome{ID: subs[i].ID}
	})

	if serr := FirstFailure(outcomes); serr != errmsg.EmptyStatusError {
		return serr
	}

	if _, serr := Record(models.EventSubmissionsArchive, actor, bson.M{
		"source":   ev.DataString("source"),
		"auditId":  auditID,
		"affected": affected,
		"undoOf":   ev.ID,
	}); serr != errmsg.EmptyStatusError {
		return serr
	}

	return errmsg.EmptyStatusError
}

// ApplyAll fires every mutation concurrently and awaits all of them.
func ApplyAll(n int, apply func(i int) Outcome) []Outcome {
	outcomes := make([]Outcome, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = apply(i)
		}(i)
	}
	wg.Wait()

	return outcomes
}

func FirstFailure(outcomes []Outcome) errmsg.StatusError {
	for _, o := range outcomes {
		if o.Error != "" {
			return errmsg.InternalServerError(
				errors.New("record " + o.ID + ": " + o.Error),
			)
		}
	}
	return errmsg.EmptyStatusError
}
