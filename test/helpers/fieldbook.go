package helpers

import (
	"encoding/json"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, payload any) []byte {
	sendBytes, err := json.Marshal(payload)
	require.NoError(t, err)
	return sendBytes
}

func API_SourcesCreate(
	t *testing.T,
	app *fiber.App,
	token string,
	payload any,
) (bodyBytes []byte, statusCode int) {
	return RequestRunner(t, app,
		"POST",
		"/fieldbook/sources/",
		mustJSON(t, payload),
		&token,
	)
}

func API_SubmissionsCreate(
	t *testing.T,
	app *fiber.App,
	token string,
	sourceID string,
	payload any,
) (bodyBytes []byte, statusCode int) {
	return RequestRunner(t, app,
		"POST",
		"/fieldbook/sources/"+sourceID+"/submissions/",
		mustJSON(t, payload),
		&token,
	)
}

// rawQuery is the query string without the leading "?", or empty.
func API_SubmissionsList(
	t *testing.T,
	app *fiber.App,
	token string,
	sourceID string,
	rawQuery string,
) (bodyBytes []byte, statusCode int) {
	path := "/fieldbook/sources/" + sourceID + "/submissions/"
	if rawQuery != "" {
		path += "?" + rawQuery
	}

	return RequestRunner(t, app, "GET", path, nil, &token)
}

func API_SubmissionsGet(
	t *testing.T,
	app *fiber.App,
	token string,
	sourceID string,
	submissionID string,
) (bodyBytes []byte, statusCode int) {
	return RequestRunner(t, app,
		"GET",
		"/fieldbook/sources/"+sourceID+"/submissions/"+submissionID,
		nil,
		&token,
	)
}

func API_SubmissionsEdit(
	t *testing.T,
	app *fiber.App,
	token string,
	sourceID string,
	submissionID string,
	payload any,
) (bodyBytes []byte, statusCode int) {
	return RequestRunner(t, app,
		"PATCH",
		"/fieldbook/sources/"+sourceID+"/submissions/"+submissionID,
		mustJSON(t, payload),
		&token,
	)
}

func API_SubmissionsBulkEdit(
	t *testing.T,
	app *fiber.App,
	token string,
	sourceID string,
	payload any,
) (bodyBytes []byte, statusCode int) {
	return RequestRunner(t, app,
		"POST",
		"/fieldbook/sources/"+sourceID+"/submissions/bulk",
		mustJSON(t, payload),
		&token,
	)
}

func API_ImportsCreate(
	t *testing.T,
	app *fiber.App,
	token string,
	sourceID string,
	payload any,
) (bodyBytes []byte, statusCode int) {
	return RequestRunner(t, app,
		"POST",
		"/fieldbook/sources/"+sourceID+"/imports/",
		mustJSON(t, payload),
		&token,
	)
}

func API_ImportsCommit(
	t *testing.T,
	app *fiber.App,
	token string,
	importID string,
) (bodyBytes []byte, statusCode int) {
	return RequestRunner(t, app,
		"POST",
		"/fieldbook/imports/"+importID+"/commit",
		nil,
		&token,
	)
}

func API_AuditGet(
	t *testing.T,
	app *fiber.App,
	token string,
	eventID string,
) (bodyBytes []byte, statusCode int) {
	return RequestRunner(t, app,
		"GET",
		"/fieldbook/audit/"+eventID,
		nil,
		&token,
	)
}

func API_AuditUndo(
	t *testing.T,
	app *fiber.App,
	token string,
	eventID string,
) (bodyBytes []byte, statusCode int) {
	return RequestRunner(t, app,
		"POST",
		"/fieldbook/audit/"+eventID+"/undo",
		nil,
		&token,
	)
}
