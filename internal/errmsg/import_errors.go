package errmsg

import "net/http"

var (
	ImportInvalidPayload = NewStatusError(
		http.StatusBadRequest,
		"invalid import request payload",
	)
	ImportNotFound = NewStatusError(
		http.StatusNotFound,
		"import not found",
	)
	ImportAlreadyCommitted = NewStatusError(
		http.StatusConflict,
		"import has already been committed",
	)
	ImportEmptyBatch = NewStatusError(
		http.StatusBadRequest,
		"import batch contains no records",
	)
)
