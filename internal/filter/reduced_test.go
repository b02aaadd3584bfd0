package filter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReducedPresenceAndNull(t *testing.T) {
	pred := CompileReduced(map[string][]string{"f": {"*"}})
	require.True(t, pred(map[string]any{"f": "x"}))
	require.False(t, pred(map[string]any{}))

	pred = CompileReduced(map[string][]string{"f": {"null"}})
	require.True(t, pred(map[string]any{}))
	require.True(t, pred(map[string]any{"f": nil}))
	require.False(t, pred(map[string]any{"f": 0}))

	pred = CompileReduced(map[string][]string{"f": {"!*"}})
	require.True(t, pred(map[string]any{}))
	require.False(t, pred(map[string]any{"f": "x"}))
}

func TestReducedRegexCoercesToString(t *testing.T) {
	pred := CompileReduced(map[string][]string{"f": {"^4"}})
	require.True(t, pred(map[string]any{"f": 42}))
	require.False(t, pred(map[string]any{"f": 17}))

	// case-insensitive
	pred = CompileReduced(map[string][]string{"f": {"ridge"}})
	require.True(t, pred(map[string]any{"f": "North RIDGE"}))
}

func TestReducedBadPatternFallsBackToSubstring(t *testing.T) {
	pred := CompileReduced(map[string][]string{"f": {"a[b"}})
	require.True(t, pred(map[string]any{"f": "xa[bx"}))
	require.False(t, pred(map[string]any{"f": "ab"}))
}

// No date/number range and no quoted-exact mode on the view side: the
// raw value is just a pattern.
func TestReducedHasNoRangeSyntax(t *testing.T) {
	pred := CompileReduced(map[string][]string{"f": {">=5"}})
	require.False(t, pred(map[string]any{"f": 7}))
	require.True(t, pred(map[string]any{"f": ">=5"}))
}

func TestReducedSharedOrAcrossFields(t *testing.T) {
	pred := CompileReduced(map[string][]string{
		"a": {"a1", "a2"},
		"b": {"b1", "b2"},
	})

	// matches only one of a's values and none of b's, still passes
	require.True(t, pred(map[string]any{"a": "a1", "b": "zzz"}))
	require.True(t, pred(map[string]any{"b": "b2"}))
	require.False(t, pred(map[string]any{"a": "zzz", "b": "zzz"}))
}

func TestReducedSingleValuedFieldsAnd(t *testing.T) {
	pred := CompileReduced(map[string][]string{
		"a": {"a1"},
		"b": {"b1"},
	})

	require.True(t, pred(map[string]any{"a": "a1", "b": "b1"}))
	require.False(t, pred(map[string]any{"a": "a1", "b": "zzz"}))
}
