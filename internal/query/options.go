package query

import (
	"net/url"
	"strconv"
	"strings"

	"fieldbook/internal/errmsg"
)

// Reserved query keys are never treated as filters.
var reservedKeys = map[string]bool{
	"sort":        true,
	"order":       true,
	"offset":      true,
	"limit":       true,
	"id":          true,
	"deleted":     true,
	"sample":      true,
	"__key":       true,
	"__operation": true,
	"__mode":      true,
}

// Reduce describes a grouping/reduction request: group by one or more
// field values, then aggregate.
type Reduce struct {
	Keys      []string
	Operation string
	Operand   string
}

type Options struct {
	Sort    string
	Order   int
	Offset  int64
	Limit   int64
	All     bool
	ID      string
	Deleted bool
	Sample  int64
	Filters map[string][]string
	Reduce  *Reduce
}

var reduceOps = map[string]bool{
	"count":  true,
	"avg":    true,
	"max":    true,
	"min":    true,
	"sum":    true,
	"stdDev": true,
}

// ParseOptions reads the query-string contract. Any non-reserved key
// naming a known field is a filter (repeatable for multi-value filters);
// everything else is ignored.
func ParseOptions(q url.Values, knownField func(string) bool) (Options, errmsg.StatusError) {
	opts := Options{
		Sort:    "created",
		Order:   -1,
		Filters: map[string][]string{},
	}

	if s := q.Get("sort"); s != "" {
		opts.Sort = s
	}
	if q.Get("order") == "asc" {
		opts.Order = 1
	}

	if o := q.Get("offset"); o != "" {
		n, err := strconv.ParseInt(o, 10, 64)
		if err != nil || n < 0 {
			return opts, errmsg.QueryInvalidOption
		}
		opts.Offset = n
	}

	switch l := q.Get("limit"); l {
	case "", "all":
		opts.All = true
	default:
		n, err := strconv.ParseInt(l, 10, 64)
		if err != nil || n < 0 {
			return opts, errmsg.QueryInvalidOption
		}
		if n == 0 {
			opts.All = true
		} else {
			opts.Limit = n
		}
	}

	if id := q.Get("id"); id != "" {
		opts.ID = id
		opts.All = true
	}

	if q.Has("deleted") && q.Get("deleted") != "false" {
		opts.Deleted = true
	}

	if s := q.Get("sample"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n <= 0 {
			return opts, errmsg.QueryInvalidOption
		}
		opts.Sample = n
	}

	if op := q.Get("__operation"); op != "" {
		reduce, serr := parseReduce(op, q["__key"])
		if serr != errmsg.EmptyStatusError {
			return opts, serr
		}
		opts.Reduce = reduce
	} else if len(q["__key"]) > 0 {
		return opts, errmsg.QueryInvalidOperation
	}

	for key, values := range q {
		if reservedKeys[key] || len(values) == 0 {
			continue
		}
		if knownField != nil && !knownField(key) {
			continue
		}
		opts.Filters[key] = values
	}

	return opts, errmsg.EmptyStatusError
}

func parseReduce(op string, keys []string) (*Reduce, errmsg.StatusError) {
	if len(keys) == 0 {
		return nil, errmsg.QueryMissingKey
	}

	name := op
	operand := ""
	if idx := strings.Index(op, ":"); idx >= 0 {
		name = op[:idx]
		operand = op[idx+1:]
	}

	if !reduceOps[name] {
		return nil, errmsg.QueryInvalidOperation
	}
	if name != "count" && operand == "" {
		return nil, errmsg.QueryMissingOperand
	}

	return &Reduce{
		Keys:      append([]string{}, keys...),
		Operation: name,
		Operand:   operand,
	}, errmsg.EmptyStatusError
}
