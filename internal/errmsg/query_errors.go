package errmsg

import "net/http"

var (
	QueryInvalidOption = NewStatusError(
		http.StatusBadRequest,
		"invalid query option",
	)
	QueryInvalidOperation = NewStatusError(
		http.StatusBadRequest,
		"invalid reduce operation",
	)
	QueryMissingOperand = NewStatusError(
		http.StatusBadRequest,
		"reduce operation requires an operand field",
	)
	QueryMissingKey = NewStatusError(
		http.StatusBadRequest,
		"reduce operation requires at least one grouping key",
	)
)
