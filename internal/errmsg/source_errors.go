package errmsg

import "net/http"

var (
	SourceInvalidPayload = NewStatusError(
		http.StatusBadRequest,
		"invalid source request payload",
	)
	SourceAlreadyExists = NewStatusError(
		http.StatusConflict,
		"a source with this system and namespace already exists",
	)
	SourceNotFound = NewStatusError(
		http.StatusNotFound,
		"source not found",
	)
	SourceFieldNotFound = NewStatusError(
		http.StatusNotFound,
		"source field not found",
	)
	SourceDuplicateField = NewStatusError(
		http.StatusBadRequest,
		"field ids must be unique within a source",
	)
)
