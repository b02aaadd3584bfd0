package models

import (
	"encoding/json"
	"time"

	"fieldbook/internal/db"
	"fieldbook/internal/errmsg"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ViewSource pairs a source with a rename map from source field id to
// view field name. A destination name appearing more than once marks
// that view field as exploded.
type ViewSource struct {
	SubmissionKey string            `bson:"submissionKey" json:"submissionKey"`
	Fields        map[string]string `bson:"fields" json:"fields"`
}

// View is a saved composition over one or more sources. Fields holds the
// distinct rename targets plus any custom fields with no backing source
// field.
type View struct {
	ID      string       `bson:"id" json:"id"`
	Name    string       `bson:"name" json:"name"`
	Fields  []Field      `bson:"fields" json:"fields"`
	Sources []ViewSource `bson:"sources" json:"sources"`
	Created time.Time    `bson:"created" json:"created"`
	Deleted bool         `bson:"deleted" json:"deleted"`
}

func (v *View) FieldByID(id string) *Field {
	for i := range v.Fields {
		if v.Fields[i].ID == id {
			return &v.Fields[i]
		}
	}
	return nil
}

// SourceFor returns the view source entry owning a submission key.
func (v *View) SourceFor(submissionKey string) *ViewSource {
	for i := range v.Sources {
		if v.Sources[i].SubmissionKey == submissionKey {
			return &v.Sources[i]
		}
	}
	return nil
}

func viewCacheKey(id string) string {
	return "view:" + id
}

func CreateView(v View) errmsg.StatusError {
	if _, err := db.Views.InsertOne(db.Ctx, v); err != nil {
		return errmsg.InternalServerError(err)
	}
	cacheView(v)
	return errmsg.EmptyStatusError
}

func GetView(id string) (*View, errmsg.StatusError) {
	if cached, err := db.CacheGetBytes(viewCacheKey(id)); err == nil {
		var v View
		if json.Unmarshal(cached, &v) == nil {
			return &v, errmsg.EmptyStatusError
		}
	}

	var v View
	err := db.Views.FindOne(db.Ctx, bson.M{"id": id}).Decode(&v)
	if err == mongo.ErrNoDocuments {
		return nil, errmsg.ViewNotFound
	}
	if err != nil {
		return nil, errmsg.InternalServerError(err)
	}

	cacheView(v)

	return &v, errmsg.EmptyStatusError
}

func ListViews(includeDeleted bool) ([]View, errmsg.StatusError) {
	filter := bson.M{}
	if !includeDeleted {
		filter["deleted"] = bson.M{"$ne": true}
	}

	cursor, err := db.Views.Find(db.Ctx, filter)
	if err != nil {
		return nil, errmsg.InternalServerError(err)
	}
	defer cursor.Close(db.Ctx)

	views := []View{}
	if err := cursor.All(db.Ctx, &views); err != nil {
		return nil, errmsg.InternalServerError(err)
	}
	return views, errmsg.EmptyStatusError
}

func UpdateView(v *View) errmsg.StatusError {
	res, err := db.Views.UpdateOne(db.Ctx, bson.M{"id": v.ID}, bson.M{
		"$set": bson.M{
			"name":    v.Name,
			"fields":  v.Fields,
			"sources": v.Sources,
		},
	})
	if err != nil {
		return errmsg.InternalServerError(err)
	}
	if res.MatchedCount == 0 {
		return errmsg.ViewNotFound
	}

	cacheView(*v)

	return errmsg.EmptyStatusError
}

func SetViewDeleted(id string, deleted bool) errmsg.StatusError {
	res, err := db.Views.UpdateOne(db.Ctx, bson.M{"id": id}, bson.M{
		"$set": bson.M{"deleted": deleted},
	})
	if err != nil {
		return errmsg.InternalServerError(err)
	}
	if res.MatchedCount == 0 {
		return errmsg.ViewNotFound
	}

	_ = db.CacheDel(viewCacheKey(id))

	return errmsg.EmptyStatusError
}

func cacheView(v View) {
	if bytes, err := json.Marshal(v); err == nil {
		_ = db.CacheSetBytes(viewCacheKey(v.ID), bytes)
	}
}

// flushViewCache drops every cached view definition. Used when a source
// field deletion rewrites rename maps in bulk.
func flushViewCache() error {
	cursor, err := db.Views.Find(db.Ctx, bson.M{})
	if err != nil {
		return err
	}
	defer cursor.Close(db.Ctx)

	var views []View
	if err := cursor.All(db.Ctx, &views); err != nil {
		return err
	}
	for _, v := range views {
		_ = db.CacheDel(viewCacheKey(v.ID))
	}
	return nil
}
