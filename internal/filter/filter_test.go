package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func date(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestCompileDateRange(t *testing.T) {
	out := Compile(map[string][]string{
		"visited": {">2024-01-01 && <=2024-12-31"},
	})

	require.Len(t, out.Casts, 1)
	require.Equal(t, []string{"__cast_date_visited"}, out.CastFields)
	require.Equal(t, bson.M{"$addFields": bson.M{
		"__cast_date_visited": bson.M{"$convert": bson.M{
			"input":   "$data.visited",
			"to":      "date",
			"onError": nil,
			"onNull":  nil,
		}},
	}}, out.Casts[0])

	require.Equal(t, bson.M{"__cast_date_visited": bson.M{
		"$gt":  date("2024-01-01"),
		"$lte": date("2024-12-31"),
	}}, out.Match)
}

func TestCompileNumericRange(t *testing.T) {
	out := Compile(map[string][]string{
		"count": {">=5"},
	})

	require.Equal(t, bson.M{"__cast_num_count": bson.M{"$gte": 5.0}}, out.Match)
	require.Equal(t, bson.M{"$addFields": bson.M{
		"__cast_num_count": bson.M{"$convert": bson.M{
			"input":   "$data.count",
			"to":      "double",
			"onError": 0,
			"onNull":  0,
		}},
	}}, out.Casts[0])
}

func TestCompileNumericRangeNegated(t *testing.T) {
	out := Compile(map[string][]string{
		"count": {"!>=5 && <10"},
	})

	require.Equal(t, bson.M{"__cast_num_count": bson.M{
		"$not": bson.M{"$gte": 5.0, "$lt": 10.0},
	}}, out.Match)
}

// A date range and a numeric range on the same field need two cast
// stages, each matched against its own typed target.
func TestCompileMixedTypeRangesOnOneField(t *testing.T) {
	out := Compile(map[string][]string{
		"f": {"<2024-01-01", ">5"},
	})

	require.Len(t, out.Casts, 2)
	require.ElementsMatch(t,
		[]string{"__cast_date_f", "__cast_num_f"},
		out.CastFields,
	)

	or, ok := out.Match["$or"].([]bson.M)
	require.True(t, ok)
	require.Contains(t, or, bson.M{"__cast_date_f": bson.M{"$lt": date("2024-01-01")}})
	require.Contains(t, or, bson.M{"__cast_num_f": bson.M{"$gt": 5.0}})
}

func TestCompilePresence(t *testing.T) {
	out := Compile(map[string][]string{"f": {"*"}})
	require.Equal(t,
		bson.M{"data.f": bson.M{"$exists": true, "$ne": nil}},
		out.Match,
	)

	out = Compile(map[string][]string{"f": {"!*"}})
	require.Equal(t, bson.M{"data.f": nil}, out.Match)
}

func TestCompileNull(t *testing.T) {
	out := Compile(map[string][]string{"f": {"null"}})
	require.Equal(t, bson.M{"data.f": nil}, out.Match)

	out = Compile(map[string][]string{"f": {"!null"}})
	require.Equal(t,
		bson.M{"data.f": bson.M{"$exists": true, "$ne": nil}},
		out.Match,
	)
}

func TestCompileQuotedExact(t *testing.T) {
	out := Compile(map[string][]string{"f": {"'North Ridge'"}})
	require.Equal(t, bson.M{"data.f": "North Ridge"}, out.Match)

	out = Compile(map[string][]string{"f": {`"42"`}})
	require.Equal(t, bson.M{"data.f": "42"}, out.Match)

	out = Compile(map[string][]string{"f": {"!'gone'"}})
	require.Equal(t, bson.M{"data.f": bson.M{"$ne": "gone"}}, out.Match)
}

func TestCompileLiteralRegex(t *testing.T) {
	out := Compile(map[string][]string{"f": {"/ab+c/i"}})
	require.Equal(t,
		bson.M{"data.f": primitive.Regex{Pattern: "ab+c", Options: "i"}},
		out.Match,
	)
}

func TestCompileBadRegexFallsBackToSubstring(t *testing.T) {
	// "[" does not compile, so the whole raw value becomes an escaped
	// case-insensitive substring match
	out := Compile(map[string][]string{"f": {"/[/"}})
	require.Equal(t,
		bson.M{"data.f": primitive.Regex{Pattern: `/\[/`, Options: "i"}},
		out.Match,
	)
}

func TestCompileSubstringDefault(t *testing.T) {
	out := Compile(map[string][]string{"f": {"ridge (north)"}})
	require.Equal(t,
		bson.M{"data.f": primitive.Regex{
			Pattern: `ridge \(north\)`,
			Options: "i",
		}},
		out.Match,
	)
}

// Two fields with two values each share ONE $or: a record matching any
// value of either field passes. Documented contract; do not "fix".
func TestCompileSharedOrAcrossFields(t *testing.T) {
	out := Compile(map[string][]string{
		"a": {"'a1'", "'a2'"},
		"b": {"'b1'", "'b2'"},
		"c": {"'c1'"},
	})

	and, ok := out.Match["$and"].([]bson.M)
	require.True(t, ok)
	require.Len(t, and, 2)

	require.Equal(t, bson.M{"data.c": "c1"}, and[0])

	or, ok := and[1]["$or"].([]bson.M)
	require.True(t, ok)
	require.Len(t, or, 4)
	require.Contains(t, or, bson.M{"data.a": "a1"})
	require.Contains(t, or, bson.M{"data.a": "a2"})
	require.Contains(t, or, bson.M{"data.b": "b1"})
	require.Contains(t, or, bson.M{"data.b": "b2"})
}

func TestCompileEmpty(t *testing.T) {
	out := Compile(nil)
	require.Empty(t, out.Match)
	require.Empty(t, out.Casts)
}
