package view

import (
	"fmt"
	"testing"

	"fieldbook/internal/models"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestApplyOverlayWinsOverSourceValue(t *testing.T) {
	rows := []Row{
		{ID: "s1", SubIndex: 0, Data: map[string]any{"title": "from source"}},
		{ID: "s1", SubIndex: 1, Data: map[string]any{"title": "from source"}},
	}

	applyOverlay(rows, []models.ViewEntry{
		{
			ViewID:       "v1",
			SubmissionID: "s1",
			SubIndex:     1,
			Data:         bson.M{"title": "custom", "notes": "extra"},
		},
	})

	require.Equal(t, "from source", rows[0].Data["title"])
	require.Equal(t, "custom", rows[1].Data["title"])
	require.Equal(t, "extra", rows[1].Data["notes"])
	require.NotContains(t, rows[0].Data, "notes")
}

func TestApplyOverlayNoEntryLeavesSourceValue(t *testing.T) {
	rows := []Row{
		{ID: "s1", SubIndex: 0, Data: map[string]any{"title": "source"}},
	}

	applyOverlay(rows, nil)
	require.Equal(t, "source", rows[0].Data["title"])
}

func TestSortRowsTiebreakIsStable(t *testing.T) {
	rows := []Row{
		{ID: "s3", Data: map[string]any{"rank": 1}},
		{ID: "s1", Data: map[string]any{"rank": 1}},
		{ID: "s2", Data: map[string]any{"rank": 1}},
	}

	sortRows(rows, "rank", 1)
	require.Equal(t, []string{"s1", "s2", "s3"}, ids(rows))

	sortRows(rows, "rank", -1)
	require.Equal(t, []string{"s3", "s2", "s1"}, ids(rows))
}

func TestSortRowsNilSortsFirst(t *testing.T) {
	rows := []Row{
		{ID: "s1", Data: map[string]any{"rank": 5}},
		{ID: "s2", Data: map[string]any{}},
	}

	sortRows(rows, "rank", 1)
	require.Equal(t, []string{"s2", "s1"}, ids(rows))
}

// Sequential pages over a sorted, tie-broken set never repeat or skip a
// row across page boundaries.
func TestPaginationStability(t *testing.T) {
	rows := make([]Row, 5)
	for i := range rows {
		rows[i] = Row{
			ID:   fmt.Sprintf("s%d", i),
			Data: map[string]any{"rank": 7},
		}
	}

	sortRows(rows, "rank", -1)

	seen := map[string]bool{}
	for offset := int64(0); offset < 6; offset += 2 {
		page := paginate(rows, Options{Offset: offset, Limit: 2})
		for _, row := range page {
			require.False(t, seen[row.ID], "row %s repeated", row.ID)
			seen[row.ID] = true
		}
	}

	require.Len(t, seen, 5)
}

func TestPaginateAll(t *testing.T) {
	rows := []Row{{ID: "a"}, {ID: "b"}}
	require.Len(t, paginate(rows, Options{All: true}), 2)
	require.Empty(t, paginate(rows, Options{Offset: 5, Limit: 2}))
}

func ids(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}
