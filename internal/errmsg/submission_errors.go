package errmsg

import "net/http"

var (
	SubmissionInvalidPayload = NewStatusError(
		http.StatusBadRequest,
		"invalid submission request payload",
	)
	SubmissionNotFound = NewStatusError(
		http.StatusNotFound,
		"submission not found",
	)
	SubmissionStaleValue = NewStatusError(
		http.StatusBadRequest,
		"stale field value - refresh and retry",
	)
	SubmissionDuplicateExternal = NewStatusError(
		http.StatusBadRequest,
		"a submission with this external id already exists",
	)
	SubmissionNotArchived = NewStatusError(
		http.StatusBadRequest,
		"submission is not archived",
	)
)
