// Package sequence allocates monotonic per-(origin, field) counters used
// to stamp auto-numbered fields on create and import.
package sequence

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Next reserves n values in one atomic increment and returns the last
// reserved value; the caller stamps value-n+1 through value.
func Next(ctx context.Context, coll *mongo.Collection, originID, fieldID string, n int64) (int64, error) {
	var doc struct {
		Value int64 `bson:"value"`
	}

	err := coll.FindOneAndUpdate(ctx,
		bson.M{"_id": originID + "-" + fieldID},
		bson.M{"$inc": bson.M{"value": n}},
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, err
	}

	return doc.Value, nil
}
