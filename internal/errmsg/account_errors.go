package errmsg

import "net/http"

var (
	AccountInvalidPayload = NewStatusError(
		http.StatusBadRequest,
		"invalid account request payload",
	)
	AccountNotFound = NewStatusError(
		http.StatusUnauthorized,
		"unauthorized",
	)
	AccountWrongPassword = NewStatusError(
		http.StatusUnauthorized,
		"unauthorized",
	)
	AccountUnauthorized = NewStatusError(
		http.StatusUnauthorized,
		"unauthorized",
	)
)
