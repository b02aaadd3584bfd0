package models

import (
	"fieldbook/internal/db"
	"fieldbook/internal/errmsg"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ViewEntry is the per-row custom data overlay for a view: values for
// view fields with no backing source field, keyed by
// (view, submission, subIndex).
type ViewEntry struct {
	ViewID       string `bson:"viewId" json:"viewId"`
	SubmissionID string `bson:"submissionId" json:"submissionId"`
	SubIndex     int    `bson:"subIndex" json:"subIndex"`
	Data         bson.M `bson:"data" json:"data"`
}

func GetViewEntry(viewID, submissionID string, subIndex int) (*ViewEntry, errmsg.StatusError) {
	var entry ViewEntry
	err := db.ViewEntries.FindOne(db.Ctx, bson.M{
		"viewId":       viewID,
		"submissionId": submissionID,
		"subIndex":     subIndex,
	}).Decode(&entry)
	if err == mongo.ErrNoDocuments {
		return nil, errmsg.ViewEntryNotFound
	}
	if err != nil {
		return nil, errmsg.InternalServerError(err)
	}
	return &entry, errmsg.EmptyStatusError
}

func FindViewEntries(viewID string) ([]ViewEntry, errmsg.StatusError) {
	cursor, err := db.ViewEntries.Find(db.Ctx, bson.M{"viewId": viewID})
	if err != nil {
		return nil, errmsg.InternalServerError(err)
	}
	defer cursor.Close(db.Ctx)

	entries := []ViewEntry{}
	if err := cursor.All(db.Ctx, &entries); err != nil {
		return nil, errmsg.InternalServerError(err)
	}
	return entries, errmsg.EmptyStatusError
}

// SetViewEntryField writes one overlay field, creating the entry on
// first write.
func SetViewEntryField(viewID, submissionID string, subIndex int, field string, value any) errmsg.StatusError {
	_, err := db.ViewEntries.UpdateOne(db.Ctx,
		bson.M{
			"viewId":       viewID,
			"submissionId": submissionID,
			"subIndex":     subIndex,
		},
		bson.M{"$set": bson.M{"data." + field: value}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return errmsg.InternalServerError(err)
	}
	return errmsg.EmptyStatusError
}

func DeleteViewEntry(viewID, submissionID string, subIndex int) errmsg.StatusError {
	res, err := db.ViewEntries.DeleteOne(db.Ctx, bson.M{
		"viewId":       viewID,
		"submissionId": submissionID,
		"subIndex":     subIndex,
	})
	if err != nil {
		return errmsg.InternalServerError(err)
	}
	if res.DeletedCount == 0 {
		return errmsg.ViewEntryNotFound
	}
	return errmsg.EmptyStatusError
}
