// Package filter compiles the textual filter micro-grammar into typed
// match predicates over schemaless submission data.
//
// Per value, in priority order: leading "!" negation, date range, numeric
// range, "*" (present), "null" (absent), quoted exact string, /regex/,
// and finally a case-insensitive substring match.
package filter

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Compiled is the planner-facing output: $addFields cast stages computed
// before matching, the $match body, and the cast field names to drop
// from the output shape afterwards.
type Compiled struct {
	Casts      []bson.M
	Match      bson.M
	CastFields []string
}

// Cast names carry the target type so one field filtered by both a date
// range and a numeric range in the same query gets two independent cast
// stages.
const (
	dateCastPrefix = "__cast_date_"
	numCastPrefix  = "__cast_num_"
)

var (
	dateRangeRe = regexp.MustCompile(
		`^(>=|<=|>|<|=)\s*(\d{4}-\d{2}-\d{2})(?:\s*&&\s*(>=|<=|>|<|=)\s*(\d{4}-\d{2}-\d{2}))?$`,
	)
	numRangeRe = regexp.MustCompile(
		`^(>=|<=|>|<|=)\s*(-?\d+(?:\.\d+)?)(?:\s*&&\s*(>=|<=|>|<|=)\s*(-?\d+(?:\.\d+)?))?$`,
	)
)

var rangeOps = map[string]string{
	">":  "$gt",
	">=": "$gte",
	"<":  "$lt",
	"<=": "$lte",
	"=":  "$eq",
}

// Compile turns a field -> raw values map into one Compiled pipeline
// fragment.
//
// Combination across fields: a field with exactly one value is AND-ed
// into the overall match. Every value of every field with two or more
// values lands in ONE global $or shared across all multi-valued fields
// of the query. Two multi-valued fields therefore do not get independent
// OR groups; this is the existing contract and is pinned by tests, see
// DESIGN.md before touching it.
func Compile(filters map[string][]string) Compiled {
	out := Compiled{Match: bson.M{}}
	if len(filters) == 0 {
		return out
	}

	fields := make([]string, 0, len(filters))
	for f := range filters {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	castSeen := map[string]bool{}
	var ands []bson.M
	var sharedOr []bson.M

	for _, field := range fields {
		values := filters[field]
		for _, raw := range values {
			cond, cast := compileValue(field, raw)
			if cast != nil && !castSeen[cast.name] {
				castSeen[cast.name] = true
				out.Casts = append(out.Casts, cast.stage)
				out.CastFields = append(out.CastFields, cast.name)
			}
			if len(values) == 1 {
				ands = append(ands, cond)
			} else {
				sharedOr = append(sharedOr, cond)
			}
		}
	}

	if len(sharedOr) > 0 {
		ands = append(ands, bson.M{"$or": sharedOr})
	}

	switch len(ands) {
	case 0:
	case 1:
		out.Match = ands[0]
	default:
		out.Match = bson.M{"$and": ands}
	}

	return out
}

type castSpec struct {
	name  string
	stage bson.M
}

// compileValue classifies one raw value into a match condition and an
// optional cast instruction.
func compileValue(field, raw string) (bson.M, *castSpec) {
	negated := false
	if strings.HasPrefix(raw, "!") {
		negated = true
		raw = raw[1:]
	}

	dataPath := "data." + field

	if m := dateRangeRe.FindStringSubmatch(raw); m != nil {
		return rangeCondition(field, m, parseDate, dateCast(field), negated)
	}

	if m := numRangeRe.FindStringSubmatch(raw); m != nil {
		return rangeCondition(field, m, parseNumber, numberCast(field), negated)
	}

	if raw == "*" {
		if negated {
			return bson.M{dataPath: nil}, nil
		}
		return bson.M{dataPath: bson.M{"$exists": true, "$ne": nil}}, nil
	}

	if raw == "null" {
		if negated {
			return bson.M{dataPath: bson.M{"$exists": true, "$ne": nil}}, nil
		}
		return bson.M{dataPath: nil}, nil
	}

	if len(raw) >= 2 &&
		((raw[0] == '\'' && raw[len(raw)-1] == '\'') ||
			(raw[0] == '"' && raw[len(raw)-1] == '"')) {
		text := raw[1 : len(raw)-1]
		if negated {
			return bson.M{dataPath: bson.M{"$ne": text}}, nil
		}
		return bson.M{dataPath: text}, nil
	}

	if pattern, flags, ok := literalRegex(raw); ok {
		re := primitive.Regex{Pattern: pattern, Options: flags}
		if negated {
			return bson.M{dataPath: bson.M{"$not": re}}, nil
		}
		return bson.M{dataPath: re}, nil
	}

	re := primitive.Regex{Pattern: regexp.QuoteMeta(raw), Options: "i"}
	if negated {
		return bson.M{dataPath: bson.M{"$not": re}}, nil
	}
	return bson.M{dataPath: re}, nil
}

// literalRegex recognizes /pattern/flags and vets the pattern; a pattern
// that fails to compile falls through to the substring rule.
func literalRegex(raw string) (pattern, flags string, ok bool) {
	if len(raw) < 2 || raw[0] != '/' {
		return "", "", false
	}
	end := strings.LastIndex(raw[1:], "/")
	if end < 0 {
		return "", "", false
	}
	end++

	pattern = raw[1:end]
	flags = raw[end+1:]
	if pattern == "" {
		return "", "", false
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return "", "", false
	}
	return pattern, flags, true
}

func rangeCondition(
	field string,
	m []string,
	parse func(string) any,
	cast *castSpec,
	negated bool,
) (bson.M, *castSpec) {
	cond := bson.M{rangeOps[m[1]]: parse(m[2])}
	if m[3] != "" {
		cond[rangeOps[m[3]]] = parse(m[4])
	}

	if negated {
		return bson.M{cast.name: bson.M{"$not": cond}}, cast
	}
	return bson.M{cast.name: cond}, cast
}

func parseDate(s string) any {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return t
}

func parseNumber(s string) any {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return float64(0)
	}
	return n
}

// dateCast converts the target to a date; on cast failure the computed
// field is null so the predicate evaluates to no match.
func dateCast(field string) *castSpec {
	name := dateCastPrefix + field
	return &castSpec{
		name: name,
		stage: bson.M{"$addFields": bson.M{
			name: bson.M{"$convert": bson.M{
				"input":   "$data." + field,
				"to":      "date",
				"onError": nil,
				"onNull":  nil,
			}},
		}},
	}
}

// numberCast converts the target to a double; missing or non-numeric
// data matches as zero.
func numberCast(field string) *castSpec {
	name := numCastPrefix + field
	return &castSpec{
		name: name,
		stage: bson.M{"$addFields": bson.M{
			name: bson.M{"$convert": bson.M{
				"input":   "$data." + field,
				"to":      "double",
				"onError": 0,
				"onNull":  0,
			}},
		}},
	}
}
