package errmsg

import "net/http"

var (
	AuditEventNotFound = NewStatusError(
		http.StatusNotFound,
		"audit event not found",
	)
	AuditNotUndoable = NewStatusError(
		http.StatusBadRequest,
		"this audit event cannot be undone",
	)
	AuditAlreadyUndone = NewStatusError(
		http.StatusConflict,
		"this audit event has already been undone",
	)
	AuditUndoMismatch = NewStatusError(
		http.StatusBadRequest,
		"undo aborted - affected records could not all be recovered",
	)
)
