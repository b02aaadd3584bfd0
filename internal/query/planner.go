// Package query assembles the filter -> reduce -> sort -> paginate
// pipeline for one source's submissions.
package query

import (
	"context"

	"fieldbook/internal/errmsg"
	"fieldbook/internal/filter"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type Result struct {
	Results      []bson.M `json:"results"`
	TotalResults int64    `json:"totalResults"`
}

// Run executes the pipeline twice against the collection: once to count
// the post-filter cardinality and once to fetch the page, so
// TotalResults reflects the set before pagination.
func Run(ctx context.Context, coll *mongo.Collection, submissionKey string, opts Options) (Result, errmsg.StatusError) {
	shared := sharedStages(submissionKey, opts)

	total, err := runCount(ctx, coll, shared)
	if err != nil {
		return Result{}, errmsg.InternalServerError(err)
	}

	results, err := runFetch(ctx, coll, shared, opts)
	if err != nil {
		return Result{}, errmsg.InternalServerError(err)
	}

	return Result{Results: results, TotalResults: total}, errmsg.EmptyStatusError
}

// sharedStages builds the stages common to the count and fetch passes:
// partition match, filter casts and match, cast cleanup, reduction.
func sharedStages(submissionKey string, opts Options) []bson.M {
	base := bson.M{"submissionKey": submissionKey}
	if opts.Deleted {
		base["deleted"] = true
	} else {
		base["deleted"] = bson.M{"$ne": true}
	}
	if opts.ID != "" {
		base["id"] = opts.ID
	}

	stages := []bson.M{{"$match": base}}

	compiled := filter.Compile(opts.Filters)
	stages = append(stages, compiled.Casts...)
	if len(compiled.Match) > 0 {
		stages = append(stages, bson.M{"$match": compiled.Match})
	}
	if len(compiled.CastFields) > 0 {
		stages = append(stages, bson.M{"$unset": compiled.CastFields})
	}

	if opts.Reduce != nil {
		stages = append(stages, reduceStages(opts.Reduce)...)
	}

	return stages
}

// reduceStages groups by the requested keys (absent values group under
// null, never dropping a group) and joins the aggregate into the data
// namespace so generic sort and format code sees it uniformly.
func reduceStages(r *Reduce) []bson.M {
	groupID := bson.M{}
	for _, key := range r.Keys {
		groupID[key] = bson.M{"$ifNull": []any{"$data." + key, nil}}
	}

	group := bson.M{"_id": groupID}
	switch r.Operation {
	case "count":
		group["count"] = bson.M{"$sum": 1}
	case "avg":
		group["avg"] = bson.M{"$avg": "$data." + r.Operand}
	case "min":
		group["min"] = bson.M{"$min": "$data." + r.Operand}
	case "max":
		group["max"] = bson.M{"$max": "$data." + r.Operand}
	case "sum":
		group["sum"] = bson.M{"$sum": "$data." + r.Operand}
	case "stdDev":
		group["stdDev"] = bson.M{"$stdDevPop": "$data." + r.Operand}
	}

	data := bson.M{}
	for _, key := range r.Keys {
		data[key] = "$_id." + key
	}
	data[r.Operation] = "$" + r.Operation

	return []bson.M{
		{"$group": group},
		{"$project": bson.M{"_id": 0, "data": data}},
	}
}

func runCount(ctx context.Context, coll *mongo.Collection, shared []bson.M) (int64, error) {
	stages := append(append([]bson.M{}, shared...), bson.M{"$count": "n"})

	cursor, err := coll.Aggregate(ctx, stages)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var counts []struct {
		N int64 `bson:"n"`
	}
	if err := cursor.All(ctx, &counts); err != nil {
		return 0, err
	}
	if len(counts) == 0 {
		return 0, nil
	}
	return counts[0].N, nil
}

func runFetch(ctx context.Context, coll *mongo.Collection, shared []bson.M, opts Options) ([]bson.M, error) {
	stages := append([]bson.M{}, shared...)

	if opts.Sample > 0 {
		// sample replaces sort and pagination entirely
		stages = append(stages, bson.M{"$sample": bson.M{"size": opts.Sample}})
	} else {
		// secondary id key keeps skip/limit stable under sort ties
		stages = append(stages, bson.M{"$sort": bson.D{
			{Key: sortPath(opts.Sort), Value: opts.Order},
			{Key: "id", Value: opts.Order},
		}})
		if !opts.All {
			if opts.Offset > 0 {
				stages = append(stages, bson.M{"$skip": opts.Offset})
			}
			stages = append(stages, bson.M{"$limit": opts.Limit})
		}
	}

	stages = append(stages, bson.M{"$project": bson.M{"_id": 0, "_edits": 0}})

	cursor, err := coll.Aggregate(ctx, stages)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	results := []bson.M{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func sortPath(sort string) string {
	switch sort {
	case "created", "id", "submissionKey", "externalId", "originId":
		return sort
	}
	return "data." + sort
}
