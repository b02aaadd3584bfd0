package models

import (
	"time"

	"fieldbook/internal/db"
	"fieldbook/internal/errmsg"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Audit event types. SubmissionsEdit and ImportsCommit are the bulk,
// undo-capable types when tagged with data.version = 2.
const (
	EventSubmissionsCreate  = "submissions.create"
	EventSubmissionsEdit    = "submissions.edit"
	EventSubmissionsArchive = "submissions.archive"
	EventSubmissionsRestore = "submissions.restore"
	EventImportsCommit      = "imports.commit"
	EventExportsRun         = "exports.run"
	EventSourcesUpdate      = "sources.update"
	EventViewsUpdate        = "views.update"
	EventAccountsLogin      = "accounts.login"
)

// UndoableVersion marks an event as structurally undo-capable. Events
// written before field-level history was versioned lack it and can never
// be undone.
const UndoableVersion = 2

// AuditEvent is one immutable ledger entry. Only the undone* fields ever
// change after insert, exactly once.
type AuditEvent struct {
	ID       string     `bson:"id" json:"id"`
	Type     string     `bson:"type" json:"type"`
	Created  time.Time  `bson:"created" json:"created"`
	User     string     `bson:"user" json:"user"`
	Data     bson.M     `bson:"data" json:"data"`
	Undone   bool       `bson:"undone" json:"undone"`
	UndoneBy string     `bson:"undoneBy,omitempty" json:"undoneBy,omitempty"`
	UndoneOn *time.Time `bson:"undoneOn,omitempty" json:"undoneOn,omitempty"`
}

// CanUndo is a structural property of the event, not a runtime check of
// current data.
func (e *AuditEvent) CanUndo() bool {
	if e.Undone {
		return false
	}
	if e.Type != EventSubmissionsEdit && e.Type != EventImportsCommit {
		return false
	}
	return e.DataInt("version") == UndoableVersion
}

// DataInt reads a numeric data attribute across the int widths bson
// round-trips produce.
func (e *AuditEvent) DataInt(key string) int {
	switch n := e.Data[key].(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func (e *AuditEvent) DataString(key string) string {
	s, _ := e.Data[key].(string)
	return s
}

func InsertAuditEvent(ev AuditEvent) errmsg.StatusError {
	if _, err := db.Events.InsertOne(db.Ctx, ev); err != nil {
		return errmsg.InternalServerError(err)
	}
	return errmsg.EmptyStatusError
}

func GetAuditEvent(id string) (*AuditEvent, errmsg.StatusError) {
	var ev AuditEvent
	err := db.Events.FindOne(db.Ctx, bson.M{"id": id}).Decode(&ev)
	if err == mongo.ErrNoDocuments {
		return nil, errmsg.AuditEventNotFound
	}
	if err != nil {
		return nil, errmsg.InternalServerError(err)
	}
	return &ev, errmsg.EmptyStatusError
}

func ListAuditEvents(eventType string, limit int64) ([]AuditEvent, errmsg.StatusError) {
	filter := bson.M{}
	if eventType != "" {
		filter["type"] = eventType
	}

	opts := options.Find().SetSort(bson.D{{Key: "created", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}

	cursor, err := db.Events.Find(db.Ctx, filter, opts)
	if err != nil {
		return nil, errmsg.InternalServerError(err)
	}
	defer cursor.Close(db.Ctx)

	events := []AuditEvent{}
	if err := cursor.All(db.Ctx, &events); err != nil {
		return nil, errmsg.InternalServerError(err)
	}
	return events, errmsg.EmptyStatusError
}

// MarkAuditEventUndone is a one-way, one-time transition. The guard on
// undone:false makes a concurrent double undo lose cleanly.
func MarkAuditEventUndone(id, actor string) errmsg.StatusError {
	now := time.Now()
	res, err := db.Events.UpdateOne(db.Ctx,
		bson.M{"id": id, "undone": false},
		bson.M{"$set": bson.M{
			"undone":   true,
			"undoneBy": actor,
			"undoneOn": now,
		}},
	)
	if err != nil {
		return errmsg.InternalServerError(err)
	}
	if res.MatchedCount == 0 {
		return errmsg.AuditAlreadyUndone
	}
	return errmsg.EmptyStatusError
}
