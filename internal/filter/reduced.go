package filter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// RowPredicate matches one merged view row's data.
type RowPredicate func(data map[string]any) bool

// CompileReduced builds the view-side variant of the filter grammar.
// Every target is coerced to a string and matched only by exists/null
// (with "!" negation) or case-insensitive regex. No date or number
// ranges and no quoted-exact mode; that asymmetry with source filtering
// is deliberate and load-bearing.
//
// Cross-field combination follows the same rule as Compile: single
// valued fields AND, all values of all multi-valued fields share one OR.
func CompileReduced(filters map[string][]string) RowPredicate {
	if len(filters) == 0 {
		return func(map[string]any) bool { return true }
	}

	fields := make([]string, 0, len(filters))
	for f := range filters {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	type valuePred func(data map[string]any) bool

	var ands []valuePred
	var shared []valuePred

	for _, field := range fields {
		values := filters[field]
		for _, raw := range values {
			pred := compileReducedValue(field, raw)
			if len(values) == 1 {
				ands = append(ands, pred)
			} else {
				shared = append(shared, pred)
			}
		}
	}

	return func(data map[string]any) bool {
		for _, pred := range ands {
			if !pred(data) {
				return false
			}
		}
		if len(shared) == 0 {
			return true
		}
		for _, pred := range shared {
			if pred(data) {
				return true
			}
		}
		return false
	}
}

func compileReducedValue(field, raw string) func(data map[string]any) bool {
	negated := false
	if strings.HasPrefix(raw, "!") {
		negated = true
		raw = raw[1:]
	}

	var match func(v any) bool

	switch raw {
	case "*":
		match = func(v any) bool { return v != nil }
	case "null":
		match = func(v any) bool { return v == nil }
	default:
		re, err := regexp.Compile("(?i)" + raw)
		if err != nil {
			re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(raw))
		}
		match = func(v any) bool {
			if v == nil {
				return false
			}
			return re.MatchString(fmt.Sprint(v))
		}
	}

	if negated {
		return func(data map[string]any) bool { return !match(data[field]) }
	}
	return func(data map[string]any) bool { return match(data[field]) }
}
