package models

import (
	"time"

	"fieldbook/internal/db"
	"fieldbook/internal/errmsg"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	ImportCreate = "create"
	ImportEdit   = "edit"
)

// StagedSubmission is one pending record inside an import batch. For
// edit-type imports SubmissionID references the live record to mutate.
type StagedSubmission struct {
	SubmissionID string `bson:"submissionId,omitempty" json:"submissionId,omitempty"`
	ExternalID   string `bson:"externalId,omitempty" json:"externalId,omitempty"`
	Data         bson.M `bson:"data" json:"data"`
}

// Import is a pending batch not yet merged into a source's live data.
type Import struct {
	ID            string             `bson:"id" json:"id"`
	SubmissionKey string             `bson:"submissionKey" json:"submissionKey"`
	Type          string             `bson:"type" json:"type"`
	Records       []StagedSubmission `bson:"records" json:"records"`
	Created       time.Time          `bson:"created" json:"created"`
	CreatedBy     string             `bson:"createdBy" json:"createdBy"`
	Committed     bool               `bson:"committed" json:"committed"`
}

func CreateImport(imp Import) errmsg.StatusError {
	if _, err := db.Imports.InsertOne(db.Ctx, imp); err != nil {
		return errmsg.InternalServerError(err)
	}
	return errmsg.EmptyStatusError
}

func GetImport(id string) (*Import, errmsg.StatusError) {
	var imp Import
	err := db.Imports.FindOne(db.Ctx, bson.M{"id": id}).Decode(&imp)
	if err == mongo.ErrNoDocuments {
		return nil, errmsg.ImportNotFound
	}
	if err != nil {
		return nil, errmsg.InternalServerError(err)
	}
	return &imp, errmsg.EmptyStatusError
}

// MarkImportCommitted flips the committed flag exactly once; a second
// commit of the same import is rejected.
func MarkImportCommitted(id string) errmsg.StatusError {
	res, err := db.Imports.UpdateOne(db.Ctx,
		bson.M{"id": id, "committed": false},
		bson.M{"$set": bson.M{"committed": true}},
	)
	if err != nil {
		return errmsg.InternalServerError(err)
	}
	if res.MatchedCount == 0 {
		return errmsg.ImportAlreadyCommitted
	}
	return errmsg.EmptyStatusError
}

func DeleteImport(id string) errmsg.StatusError {
	res, err := db.Imports.DeleteOne(db.Ctx, bson.M{"id": id, "committed": false})
	if err != nil {
		return errmsg.InternalServerError(err)
	}
	if res.DeletedCount == 0 {
		return errmsg.ImportNotFound
	}
	return errmsg.EmptyStatusError
}
