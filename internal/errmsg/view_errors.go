package errmsg

import "net/http"

var (
	ViewInvalidPayload = NewStatusError(
		http.StatusBadRequest,
		"invalid view request payload",
	)
	ViewNotFound = NewStatusError(
		http.StatusNotFound,
		"view not found",
	)
	ViewMultipleExploded = NewStatusError(
		http.StatusBadRequest,
		"a view may map at most one field from multiple source fields",
	)
	ViewFieldNotFound = NewStatusError(
		http.StatusNotFound,
		"view field not found",
	)
	ViewRowNotFound = NewStatusError(
		http.StatusNotFound,
		"view row not found",
	)
	ViewEntryNotFound = NewStatusError(
		http.StatusNotFound,
		"view entry not found",
	)
)
