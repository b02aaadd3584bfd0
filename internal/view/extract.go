// Package view merges several sources' submissions into one record
// stream under a view's field renames, with one-to-many explosion and a
// per-row custom data overlay.
package view

import (
	"sort"
	"time"

	"fieldbook/internal/errmsg"
	"fieldbook/internal/models"
)

// Row is one merged output record. ID is the back-reference to the
// originating submission; SubIndex addresses one element of an exploded
// field, 0 for unexploded rows.
type Row struct {
	ID            string         `json:"id"`
	SubIndex      int            `json:"subIndex"`
	Created       time.Time      `json:"created"`
	SubmissionKey string         `json:"submissionKey"`
	Data          map[string]any `json:"data"`
	SourceFields  []string       `json:"sourceFields"`
}

// sourceExtractor turns one source's submissions into partial view rows.
// One instance per ViewSource; adding a source to a view is a
// registration, not a branch in shared merge code.
type sourceExtractor struct {
	key          string
	scalars      map[string]string
	exploded     string
	explodedFrom []string
	backed       []string
}

// newExtractor derives the extraction rule from the rename map: a
// destination name appearing once extracts as a scalar, a name appearing
// more than once collects all its source values into an array. Array
// element order follows the owning source's field order so subIndex is
// deterministic.
func newExtractor(vs models.ViewSource, src *models.Source) *sourceExtractor {
	counts := map[string]int{}
	for _, dest := range vs.Fields {
		counts[dest]++
	}

	e := &sourceExtractor{
		key:     vs.SubmissionKey,
		scalars: map[string]string{},
	}

	backed := map[string]bool{}
	for fieldID, dest := range vs.Fields {
		backed[dest] = true
		if counts[dest] > 1 {
			e.exploded = dest
		} else {
			e.scalars[fieldID] = dest
		}
	}

	if e.exploded != "" {
		e.explodedFrom = orderedFields(vs, src, e.exploded)
	}

	for dest := range backed {
		e.backed = append(e.backed, dest)
	}
	sort.Strings(e.backed)

	return e
}

func orderedFields(vs models.ViewSource, src *models.Source, dest string) []string {
	var ordered []string
	seen := map[string]bool{}

	if src != nil {
		for _, f := range src.Fields {
			if vs.Fields[f.ID] == dest {
				ordered = append(ordered, f.ID)
				seen[f.ID] = true
			}
		}
	}

	// rename-map entries for fields the source no longer declares
	var leftover []string
	for fieldID, d := range vs.Fields {
		if d == dest && !seen[fieldID] {
			leftover = append(leftover, fieldID)
		}
	}
	sort.Strings(leftover)

	return append(ordered, leftover...)
}

// extract merges one submission into rows, expanding the exploded field
// one row per underlying source field. A record backing no exploded
// values still yields exactly one row at index 0.
func (e *sourceExtractor) extract(sub models.Submission) []Row {
	base := map[string]any{}
	for fieldID, dest := range e.scalars {
		if value, ok := sub.Data[fieldID]; ok {
			base[dest] = value
		}
	}

	if e.exploded == "" || len(e.explodedFrom) == 0 {
		return []Row{e.row(sub, 0, base)}
	}

	rows := make([]Row, 0, len(e.explodedFrom))
	for i, fieldID := range e.explodedFrom {
		data := map[string]any{}
		for k, v := range base {
			data[k] = v
		}
		data[e.exploded] = sub.Data[fieldID]
		rows = append(rows, e.row(sub, i, data))
	}
	return rows
}

func (e *sourceExtractor) row(sub models.Submission, subIndex int, data map[string]any) Row {
	return Row{
		ID:            sub.ID,
		SubIndex:      subIndex,
		Created:       sub.Created,
		SubmissionKey: sub.SubmissionKey,
		Data:          data,
		SourceFields:  e.backed,
	}
}

// Validate rejects a view whose sources collectively produce more than
// one distinct exploded field name. Zero or one fan-out field per view,
// never more.
func Validate(v models.View) errmsg.StatusError {
	exploded := map[string]bool{}
	for _, vs := range v.Sources {
		counts := map[string]int{}
		for _, dest := range vs.Fields {
			counts[dest]++
		}
		for dest, n := range counts {
			if n > 1 {
				exploded[dest] = true
			}
		}
	}
	if len(exploded) > 1 {
		return errmsg.ViewMultipleExploded
	}
	return errmsg.EmptyStatusError
}

// ResolveEditField maps a view field on one row back to the underlying
// source field: scalar mappings forward directly, the exploded field
// selects by subIndex, and a field with no mapping at all writes to the
// overlay store (backed = false).
func ResolveEditField(vs models.ViewSource, src *models.Source, viewField string, subIndex int) (string, bool, errmsg.StatusError) {
	e := newExtractor(vs, src)

	if viewField == e.exploded && e.exploded != "" {
		if subIndex < 0 || subIndex >= len(e.explodedFrom) {
			return "", false, errmsg.ViewRowNotFound
		}
		return e.explodedFrom[subIndex], true, errmsg.EmptyStatusError
	}

	for fieldID, dest := range e.scalars {
		if dest == viewField {
			return fieldID, true, errmsg.EmptyStatusError
		}
	}

	return "", false, errmsg.EmptyStatusError
}
