package view

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"fieldbook/internal/errmsg"
	"fieldbook/internal/filter"
	"fieldbook/internal/models"
)

type Options struct {
	Sort    string
	Order   int
	Offset  int64
	Limit   int64
	All     bool
	Filters map[string][]string
}

type Result struct {
	Results      []Row `json:"results"`
	TotalResults int   `json:"totalResults"`
}

// Compose produces the merged, filtered, paginated record stream for a
// view. Reads are per-source consistent, not cross-source-snapshot
// consistent.
func Compose(v models.View, opts Options) (Result, errmsg.StatusError) {
	rows, serr := mergeSources(v)
	if serr != errmsg.EmptyStatusError {
		return Result{}, serr
	}

	if serr := overlayEntries(v.ID, rows); serr != errmsg.EmptyStatusError {
		return Result{}, serr
	}

	pred := filter.CompileReduced(opts.Filters)
	filtered := rows[:0]
	for _, row := range rows {
		if pred(row.Data) {
			filtered = append(filtered, row)
		}
	}

	total := len(filtered)

	sortRows(filtered, opts.Sort, opts.Order)

	return Result{
		Results:      paginate(filtered, opts),
		TotalResults: total,
	}, errmsg.EmptyStatusError
}

func mergeSources(v models.View) ([]Row, errmsg.StatusError) {
	rows := []Row{}

	for _, vs := range v.Sources {
		src, serr := models.GetSourceByKey(vs.SubmissionKey)
		if serr != errmsg.EmptyStatusError && serr != errmsg.SourceNotFound {
			return nil, serr
		}

		subs, serr := models.FindSubmissions(vs.SubmissionKey, false)
		if serr != errmsg.EmptyStatusError {
			return nil, serr
		}

		extractor := newExtractor(vs, src)
		for _, sub := range subs {
			rows = append(rows, extractor.extract(sub)...)
		}
	}

	return rows, errmsg.EmptyStatusError
}

func overlayEntries(viewID string, rows []Row) errmsg.StatusError {
	entries, serr := models.FindViewEntries(viewID)
	if serr != errmsg.EmptyStatusError {
		return serr
	}

	applyOverlay(rows, entries)

	return errmsg.EmptyStatusError
}

// applyOverlay merges each row's custom entry data over the
// source-derived fields; the overlay wins on conflict. This is the only
// place unbacked view fields get values.
func applyOverlay(rows []Row, entries []models.ViewEntry) {
	if len(entries) == 0 {
		return
	}

	byRow := make(map[string]map[string]any, len(entries))
	for _, entry := range entries {
		byRow[entry.SubmissionID+"|"+strconv.Itoa(entry.SubIndex)] = entry.Data
	}

	for i := range rows {
		data, ok := byRow[rows[i].ID+"|"+strconv.Itoa(rows[i].SubIndex)]
		if !ok {
			continue
		}
		for k, v := range data {
			rows[i].Data[k] = v
		}
	}
}

// sortRows orders by the sort key with (id, subIndex) as secondary keys
// so pagination is stable under ties.
func sortRows(rows []Row, key string, order int) {
	sort.SliceStable(rows, func(i, j int) bool {
		c := compareRowValues(sortValue(rows[i], key), sortValue(rows[j], key))
		if c == 0 {
			if rows[i].ID != rows[j].ID {
				c = compareRowValues(rows[i].ID, rows[j].ID)
			} else {
				c = rows[i].SubIndex - rows[j].SubIndex
			}
		}
		if order < 0 {
			return c > 0
		}
		return c < 0
	})
}

func sortValue(row Row, key string) any {
	switch key {
	case "", "created":
		return row.Created
	case "id":
		return row.ID
	}
	return row.Data[key]
}

// compareRowValues orders nil first, then numbers, times and strings.
func compareRowValues(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}

	if na, ok := asFloat(a); ok {
		if nb, ok := asFloat(b); ok {
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			}
			return 0
		}
	}

	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			switch {
			case ta.Before(tb):
				return -1
			case ta.After(tb):
				return 1
			}
			return 0
		}
	}

	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	}
	return 0
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func paginate(rows []Row, opts Options) []Row {
	if opts.All {
		return rows
	}

	offset := int(opts.Offset)
	if offset >= len(rows) {
		return []Row{}
	}

	end := offset + int(opts.Limit)
	if opts.Limit <= 0 || end > len(rows) {
		end = len(rows)
	}

	return rows[offset:end]
}
