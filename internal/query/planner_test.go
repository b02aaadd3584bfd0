package query

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestSharedStagesPartition(t *testing.T) {
	stages := sharedStages("farm__plots", Options{})
	require.Equal(t, bson.M{"$match": bson.M{
		"submissionKey": "farm__plots",
		"deleted":       bson.M{"$ne": true},
	}}, stages[0])

	stages = sharedStages("farm__plots", Options{Deleted: true})
	require.Equal(t, bson.M{"$match": bson.M{
		"submissionKey": "farm__plots",
		"deleted":       true,
	}}, stages[0])
}

func TestSharedStagesIDShortCircuit(t *testing.T) {
	stages := sharedStages("farm__plots", Options{ID: "abc"})
	match := stages[0]["$match"].(bson.M)
	require.Equal(t, "abc", match["id"])
}

func TestSharedStagesFilterCastsAreDropped(t *testing.T) {
	stages := sharedStages("k", Options{
		Filters: map[string][]string{"score": {">=5"}},
	})

	// match, addFields cast, filter match, unset
	require.Len(t, stages, 4)
	require.Contains(t, stages[1], "$addFields")
	require.Contains(t, stages[2], "$match")
	require.Equal(t, bson.M{"$unset": []string{"__cast_num_score"}}, stages[3])
}

func TestReduceStagesGroupAndProject(t *testing.T) {
	stages := reduceStages(&Reduce{
		Keys:      []string{"region"},
		Operation: "stdDev",
		Operand:   "score",
	})
	require.Len(t, stages, 2)

	group := stages[0]["$group"].(bson.M)
	require.Equal(t, bson.M{
		"region": bson.M{"$ifNull": []any{"$data.region", nil}},
	}, group["_id"])
	require.Equal(t, bson.M{"$stdDevPop": "$data.score"}, group["stdDev"])

	// the aggregate joins the data namespace
	project := stages[1]["$project"].(bson.M)
	require.Equal(t, bson.M{
		"region": "$_id.region",
		"stdDev": "$stdDev",
	}, project["data"])
}

func TestSortPath(t *testing.T) {
	require.Equal(t, "created", sortPath("created"))
	require.Equal(t, "id", sortPath("id"))
	require.Equal(t, "data.score", sortPath("score"))
}
