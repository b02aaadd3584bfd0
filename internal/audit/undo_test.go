package audit

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestPreviousValuesExtractsByAuditID(t *testing.T) {
	edits := []bson.M{
		{"field": "status", "previous": "open", "update": "closed", "auditId": "b1"},
		{"field": "owner", "previous": "ana", "update": "bob", "auditId": "b1"},
		{"field": "status", "previous": "x", "update": "y", "auditId": "other"},
	}

	values, ok := PreviousValues("b1", edits)
	require.True(t, ok)
	require.Equal(t, map[string]any{"status": "open", "owner": "ana"}, values)
}

// When a bulk run touched the same field twice, the first entry holds
// the pre-bulk state and must win.
func TestPreviousValuesFirstEntryPerFieldWins(t *testing.T) {
	edits := []bson.M{
		{"field": "status", "previous": "open", "update": "mid", "auditId": "b1"},
		{"field": "status", "previous": "mid", "update": "closed", "auditId": "b1"},
	}

	values, ok := PreviousValues("b1", edits)
	require.True(t, ok)
	require.Equal(t, map[string]any{"status": "open"}, values)
}

func TestPreviousValuesNilPreviousIsRestorable(t *testing.T) {
	edits := []bson.M{
		{"field": "status", "previous": nil, "update": "closed", "auditId": "b1"},
	}

	values, ok := PreviousValues("b1", edits)
	require.True(t, ok)
	require.Contains(t, values, "status")
	require.Nil(t, values["status"])
}

func TestPreviousValuesFailsClosedOnMissingPrevious(t *testing.T) {
	edits := []bson.M{
		{"field": "owner", "previous": "ana", "update": "bob", "auditId": "b1"},
		{"field": "status", "update": "closed", "auditId": "b1"},
	}

	values, ok := PreviousValues("b1", edits)
	require.False(t, ok)
	require.Nil(t, values)
}

func TestPreviousValuesFailsClosedOnMissingField(t *testing.T) {
	edits := []bson.M{
		{"previous": "open", "update": "closed", "auditId": "b1"},
	}

	_, ok := PreviousValues("b1", edits)
	require.False(t, ok)
}

func TestPreviousValuesNoMatchingEntries(t *testing.T) {
	edits := []bson.M{
		{"field": "status", "previous": "open", "update": "closed", "auditId": "other"},
	}

	_, ok := PreviousValues("b1", edits)
	require.False(t, ok)

	_, ok = PreviousValues("b1", nil)
	require.False(t, ok)
}

func TestApplyAllCollectsEveryOutcome(t *testing.T) {
	outcomes := ApplyAll(4, func(i int) Outcome {
		if i == 2 {
			return Outcome{ID: "r2", Error: "boom"}
		}
		return Outcome{ID: "ok"}
	})

	require.Len(t, outcomes, 4)
	require.Equal(t, "boom", outcomes[2].Error)

	serr := FirstFailure(outcomes)
	require.Equal(t, 500, serr.StatusCode)
	require.Contains(t, serr.Message, "r2")
}
