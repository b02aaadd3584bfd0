package models

import (
	"fmt"
	"time"

	"fieldbook/internal/db"
	"fieldbook/internal/errmsg"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Submission is one record inside a source. The data payload is
// schemaless; _edits is the append-only history that makes undo possible
// and must never be pruned.
type Submission struct {
	ID            string            `bson:"id" json:"id"`
	SubmissionKey string            `bson:"submissionKey" json:"submissionKey"`
	Created       time.Time         `bson:"created" json:"created"`
	Data          bson.M            `bson:"data" json:"data"`
	ExternalID    string            `bson:"externalId,omitempty" json:"externalId,omitempty"`
	OriginID      string            `bson:"originId,omitempty" json:"originId,omitempty"`
	AuditID       string            `bson:"auditId,omitempty" json:"auditId,omitempty"`
	Edits         []bson.M          `bson:"_edits" json:"_edits"`
	ViewData      map[string]bson.M `bson:"viewData,omitempty" json:"viewData,omitempty"`
	Deleted       bool              `bson:"deleted" json:"deleted"`
}

// LooseEqual is the optimistic-lock comparison. Empty string, the literal
// "0" and absent/null are treated as mutually equivalent so that values
// round-tripped through a text input do not raise spurious conflicts.
// This conflates three distinct states on purpose; see DESIGN.md.
func LooseEqual(stored, expected any) bool {
	return looseNorm(stored) == looseNorm(expected)
}

func looseNorm(v any) string {
	if v == nil {
		return ""
	}
	s := fmt.Sprint(v)
	if s == "0" {
		return ""
	}
	return s
}

func CreateSubmission(sub Submission) errmsg.StatusError {
	if sub.ExternalID != "" {
		count, err := db.Submissions.CountDocuments(db.Ctx, bson.M{
			"submissionKey": sub.SubmissionKey,
			"externalId":    sub.ExternalID,
		})
		if err != nil {
			return errmsg.InternalServerError(err)
		}
		if count > 0 {
			return errmsg.SubmissionDuplicateExternal
		}
	}

	if sub.Edits == nil {
		sub.Edits = []bson.M{}
	}
	if sub.Data == nil {
		sub.Data = bson.M{}
	}

	if _, err := db.Submissions.InsertOne(db.Ctx, sub); err != nil {
		return errmsg.InternalServerError(err)
	}
	return errmsg.EmptyStatusError
}

func GetSubmission(id string) (*Submission, errmsg.StatusError) {
	var sub Submission
	err := db.Submissions.FindOne(db.Ctx, bson.M{"id": id}).Decode(&sub)
	if err == mongo.ErrNoDocuments {
		return nil, errmsg.SubmissionNotFound
	}
	if err != nil {
		return nil, errmsg.InternalServerError(err)
	}
	return &sub, errmsg.EmptyStatusError
}

// EditField applies one field mutation under the optimistic-lock
// contract: if expected is non-nil the stored value must loose-match it,
// otherwise the edit is rejected with no write. Every applied edit
// appends exactly one history entry carrying previous and update.
func (s *Submission) EditField(
	field string,
	value any,
	expected any,
	checkExpected bool,
	actor string,
	auditID string,
) errmsg.StatusError {
	previous := s.Data[field]

	if checkExpected && !LooseEqual(previous, expected) {
		return errmsg.SubmissionStaleValue
	}

	entry := bson.M{
		"field":      field,
		"previous":   previous,
		"update":     value,
		"modifiedBy": actor,
		"modified":   time.Now(),
	}
	if auditID != "" {
		entry["auditId"] = auditID
	}

	res, err := db.Submissions.UpdateOne(db.Ctx,
		bson.M{"id": s.ID},
		bson.M{
			"$set":  bson.M{"data." + field: value},
			"$push": bson.M{"_edits": entry},
		},
	)
	if err != nil {
		return errmsg.InternalServerError(err)
	}
	if res.MatchedCount == 0 {
		return errmsg.SubmissionNotFound
	}

	if s.Data == nil {
		s.Data = bson.M{}
	}
	s.Data[field] = value
	s.Edits = append(s.Edits, entry)

	return errmsg.EmptyStatusError
}

func SetSubmissionDeleted(id string, deleted bool) errmsg.StatusError {
	res, err := db.Submissions.UpdateOne(db.Ctx,
		bson.M{"id": id},
		bson.M{"$set": bson.M{"deleted": deleted}},
	)
	if err != nil {
		return errmsg.InternalServerError(err)
	}
	if res.MatchedCount == 0 {
		return errmsg.SubmissionNotFound
	}
	return errmsg.EmptyStatusError
}

// FindSubmissions fetches live (or archived) submissions for a source.
func FindSubmissions(submissionKey string, deleted bool) ([]Submission, errmsg.StatusError) {
	partition := bson.M{"submissionKey": submissionKey}
	if deleted {
		partition["deleted"] = true
	} else {
		partition["deleted"] = bson.M{"$ne": true}
	}

	cursor, err := db.Submissions.Find(db.Ctx, partition)
	if err != nil {
		return nil, errmsg.InternalServerError(err)
	}
	defer cursor.Close(db.Ctx)

	subs := []Submission{}
	if err := cursor.All(db.Ctx, &subs); err != nil {
		return nil, errmsg.InternalServerError(err)
	}
	return subs, errmsg.EmptyStatusError
}

// CountSubmissionsByAuditID counts the distinct submissions whose edit
// history carries an entry tagged with the given correlation id. One
// record edited several times under one auditId counts once.
func CountSubmissionsByAuditID(auditID string) (int, errmsg.StatusError) {
	count, err := db.Submissions.CountDocuments(db.Ctx, bson.M{
		"_edits.auditId": auditID,
	})
	if err != nil {
		return 0, errmsg.InternalServerError(err)
	}
	return int(count), errmsg.EmptyStatusError
}

// FindSubmissionsByAuditID locates every submission whose edit history
// carries an entry tagged with the given correlation id.
func FindSubmissionsByAuditID(auditID string) ([]Submission, errmsg.StatusError) {
	cursor, err := db.Submissions.Find(db.Ctx, bson.M{
		"_edits.auditId": auditID,
	})
	if err != nil {
		return nil, errmsg.InternalServerError(err)
	}
	defer cursor.Close(db.Ctx)

	subs := []Submission{}
	if err := cursor.All(db.Ctx, &subs); err != nil {
		return nil, errmsg.InternalServerError(err)
	}
	return subs, errmsg.EmptyStatusError
}

// FindSubmissionsByCreateAuditID locates submissions stamped with a bulk
// create correlation id at insert time (import commits).
func FindSubmissionsByCreateAuditID(auditID string) ([]Submission, errmsg.StatusError) {
	cursor, err := db.Submissions.Find(db.Ctx, bson.M{
		"auditId": auditID,
		"deleted": bson.M{"$ne": true},
	})
	if err != nil {
		return nil, errmsg.InternalServerError(err)
	}
	defer cursor.Close(db.Ctx)

	subs := []Submission{}
	if err := cursor.All(db.Ctx, &subs); err != nil {
		return nil, errmsg.InternalServerError(err)
	}
	return subs, errmsg.EmptyStatusError
}
