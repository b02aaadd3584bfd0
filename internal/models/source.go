package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"fieldbook/internal/db"
	"fieldbook/internal/errmsg"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Field type metadata. Lookup types render as cross-reference links.
const (
	FieldText         = "text"
	FieldNumber       = "number"
	FieldDate         = "date"
	FieldSequence     = "sequence"
	FieldSourceLookup = "sourceLookup"
	FieldViewLookup   = "viewLookup"
)

type Field struct {
	ID      string `bson:"id" json:"id"`
	Name    string `bson:"name" json:"name"`
	Type    string `bson:"type,omitempty" json:"type,omitempty"`
	Lookup  string `bson:"lookup,omitempty" json:"lookup,omitempty"`
	Visible bool   `bson:"visible" json:"visible"`
}

// Source is an independently-schemaed bucket of submissions, identified
// by a (system, namespace) pair that derives a stable submission key.
type Source struct {
	ID            string    `bson:"id" json:"id"`
	System        string    `bson:"system" json:"system"`
	Namespace     string    `bson:"namespace" json:"namespace"`
	SubmissionKey string    `bson:"submissionKey" json:"submissionKey"`
	Name          string    `bson:"name" json:"name"`
	Fields        []Field   `bson:"fields" json:"fields"`
	Created       time.Time `bson:"created" json:"created"`
	Deleted       bool      `bson:"deleted" json:"deleted"`
}

var keySlug = regexp.MustCompile(`[^a-z0-9]+`)

func SubmissionKeyFor(system, namespace string) string {
	slug := func(s string) string {
		return strings.Trim(keySlug.ReplaceAllString(strings.ToLower(s), "_"), "_")
	}
	return slug(system) + "__" + slug(namespace)
}

func (s *Source) FieldByID(id string) *Field {
	for i := range s.Fields {
		if s.Fields[i].ID == id {
			return &s.Fields[i]
		}
	}
	return nil
}

func (s *Source) ValidateFields() errmsg.StatusError {
	seen := map[string]bool{}
	for _, f := range s.Fields {
		if f.ID == "" || seen[f.ID] {
			return errmsg.SourceDuplicateField
		}
		seen[f.ID] = true
	}
	return errmsg.EmptyStatusError
}

// Display renders a stored value for a field and reports whether it
// should render as a cross-reference link into another source or view.
func (f *Field) Display(value any) (string, bool) {
	rendered := ""
	if value != nil {
		rendered = fmt.Sprint(value)
	}
	link := f.Type == FieldSourceLookup || f.Type == FieldViewLookup
	return rendered, link
}

func sourceCacheKey(submissionKey string) string {
	return "source:" + submissionKey
}

func CreateSource(src Source) errmsg.StatusError {
	count, err := db.Sources.CountDocuments(db.Ctx, bson.M{
		"submissionKey": src.SubmissionKey,
	})
	if err != nil {
		return errmsg.InternalServerError(err)
	}
	if count > 0 {
		return errmsg.SourceAlreadyExists
	}

	if _, err := db.Sources.InsertOne(db.Ctx, src); err != nil {
		return errmsg.InternalServerError(err)
	}

	cacheSource(src)

	return errmsg.EmptyStatusError
}

func GetSource(id string) (*Source, errmsg.StatusError) {
	var src Source
	err := db.Sources.FindOne(db.Ctx, bson.M{"id": id}).Decode(&src)
	if err == mongo.ErrNoDocuments {
		return nil, errmsg.SourceNotFound
	}
	if err != nil {
		return nil, errmsg.InternalServerError(err)
	}
	return &src, errmsg.EmptyStatusError
}

func GetSourceByKey(submissionKey string) (*Source, errmsg.StatusError) {
	if cached, err := db.CacheGetBytes(sourceCacheKey(submissionKey)); err == nil {
		var src Source
		if json.Unmarshal(cached, &src) == nil {
			return &src, errmsg.EmptyStatusError
		}
	}

	var src Source
	err := db.Sources.FindOne(db.Ctx, bson.M{
		"submissionKey": submissionKey,
	}).Decode(&src)
	if err == mongo.ErrNoDocuments {
		return nil, errmsg.SourceNotFound
	}
	if err != nil {
		return nil, errmsg.InternalServerError(err)
	}

	cacheSource(src)

	return &src, errmsg.EmptyStatusError
}

func ListSources(includeDeleted bool) ([]Source, errmsg.StatusError) {
	filter := bson.M{}
	if !includeDeleted {
		filter["deleted"] = bson.M{"$ne": true}
	}

	cursor, err := db.Sources.Find(db.Ctx, filter)
	if err != nil {
		return nil, errmsg.InternalServerError(err)
	}
	defer cursor.Close(db.Ctx)

	sources := []Source{}
	if err := cursor.All(db.Ctx, &sources); err != nil {
		return nil, errmsg.InternalServerError(err)
	}
	return sources, errmsg.EmptyStatusError
}

func UpdateSource(src *Source) errmsg.StatusError {
	res, err := db.Sources.UpdateOne(db.Ctx, bson.M{"id": src.ID}, bson.M{
		"$set": bson.M{
			"name":   src.Name,
			"fields": src.Fields,
		},
	})
	if err != nil {
		return errmsg.InternalServerError(err)
	}
	if res.MatchedCount == 0 {
		return errmsg.SourceNotFound
	}

	cacheSource(*src)

	return errmsg.EmptyStatusError
}

func SetSourceDeleted(id string, deleted bool) errmsg.StatusError {
	var src Source
	err := db.Sources.FindOneAndUpdate(db.Ctx, bson.M{"id": id}, bson.M{
		"$set": bson.M{"deleted": deleted},
	}).Decode(&src)
	if err == mongo.ErrNoDocuments {
		return errmsg.SourceNotFound
	}
	if err != nil {
		return errmsg.InternalServerError(err)
	}

	_ = db.CacheDel(sourceCacheKey(src.SubmissionKey))

	return errmsg.EmptyStatusError
}

// DeleteSourceField removes a field from the source definition, purges it
// from every submission in the source, and drops it from every view
// rename map that references it.
func DeleteSourceField(src *Source, fieldID string) errmsg.StatusError {
	kept := make([]Field, 0, len(src.Fields))
	found := false
	for _, f := range src.Fields {
		if f.ID == fieldID {
			found = true
			continue
		}
		kept = append(kept, f)
	}
	if !found {
		return errmsg.SourceFieldNotFound
	}

	src.Fields = kept
	if serr := UpdateSource(src); serr != errmsg.EmptyStatusError {
		return serr
	}

	_, err := db.Submissions.UpdateMany(db.Ctx,
		bson.M{"submissionKey": src.SubmissionKey},
		bson.M{"$unset": bson.M{"data." + fieldID: ""}},
	)
	if err != nil {
		return errmsg.InternalServerError(err)
	}

	_, err = db.Views.UpdateMany(db.Ctx,
		bson.M{"sources.submissionKey": src.SubmissionKey},
		bson.M{"$unset": bson.M{"sources.$[].fields." + fieldID: ""}},
	)
	if err != nil {
		return errmsg.InternalServerError(err)
	}

	// view definitions changed shape, drop them wholesale
	_ = flushViewCache()

	return errmsg.EmptyStatusError
}

func cacheSource(src Source) {
	if bytes, err := json.Marshal(src); err == nil {
		_ = db.CacheSetBytes(sourceCacheKey(src.SubmissionKey), bytes)
	}
}
