package flows

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"fieldbook/internal/errmsg"
	"fieldbook/internal/models"
	"fieldbook/test/helpers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type sourceResponse struct {
	Source models.Source `json:"source"`
}

type submissionResponse struct {
	Submission models.Submission `json:"submission"`
	AuditID    string            `json:"auditId"`
}

type listResponse struct {
	Results []struct {
		ID   string         `json:"id"`
		Data map[string]any `json:"data"`
	} `json:"results"`
	TotalResults int64 `json:"totalResults"`
}

type batchResponse struct {
	AuditID string            `json:"auditId"`
	Event   models.AuditEvent `json:"event"`
}

type eventResponse struct {
	Event   models.AuditEvent `json:"event"`
	CanUndo bool              `json:"canUndo"`
}

// every test creates its own source so reruns against a persistent
// deployment never collide
func createSource(t *testing.T, token string, fields []models.Field) models.Source {
	body, statusCode := helpers.API_SourcesCreate(t, app, token, map[string]any{
		"system":    "qa",
		"namespace": uuid.NewString(),
		"name":      "flow test source",
		"fields":    fields,
	})
	require.Equal(t, http.StatusOK, statusCode)

	var payload sourceResponse
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NotEmpty(t, payload.Source.ID)

	return payload.Source
}

func createSubmission(t *testing.T, token, sourceID string, data map[string]any) models.Submission {
	body, statusCode := helpers.API_SubmissionsCreate(t, app, token, sourceID,
		map[string]any{"data": data})
	require.Equal(t, http.StatusCreated, statusCode)

	var payload submissionResponse
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NotEmpty(t, payload.Submission.ID)

	return payload.Submission
}

func listSubmissions(t *testing.T, token, sourceID, rawQuery string) listResponse {
	body, statusCode := helpers.API_SubmissionsList(t, app, token, sourceID, rawQuery)
	require.Equal(t, http.StatusOK, statusCode)

	var payload listResponse
	require.NoError(t, json.Unmarshal(body, &payload))
	return payload
}

func TestSubmissionFilterFlow(t *testing.T) {
	token := helpers.Login(t, app)

	src := createSource(t, token, []models.Field{
		{ID: "name", Name: "Name", Type: models.FieldText},
		{ID: "score", Name: "Score", Type: models.FieldNumber},
		{ID: "serial", Name: "Serial", Type: models.FieldSequence},
	})

	createSubmission(t, token, src.ID, map[string]any{"name": "low", "score": 3})
	createSubmission(t, token, src.ID, map[string]any{"name": "mid", "score": 7})
	high := createSubmission(t, token, src.ID, map[string]any{"name": "high", "score": 9})

	// sequence fields were stamped at create time
	require.NotNil(t, high.Data["serial"])

	all := listSubmissions(t, token, src.ID, "")
	require.Equal(t, int64(3), all.TotalResults)

	filtered := listSubmissions(t, token, src.ID,
		url.Values{"score": {">=5"}}.Encode())
	require.Equal(t, int64(2), filtered.TotalResults)
	for _, row := range filtered.Results {
		require.NotEqual(t, "low", row.Data["name"])
	}
}

func TestEditOptimisticLock(t *testing.T) {
	token := helpers.Login(t, app)

	src := createSource(t, token, []models.Field{
		{ID: "status", Name: "Status", Type: models.FieldText},
	})
	sub := createSubmission(t, token, src.ID, map[string]any{"status": "open"})

	body, statusCode := helpers.API_SubmissionsEdit(t, app, token, src.ID, sub.ID,
		map[string]any{"field": "status", "value": "closed", "expected": "open"})
	require.Equal(t, http.StatusOK, statusCode)

	var edited submissionResponse
	require.NoError(t, json.Unmarshal(body, &edited))
	require.Equal(t, "closed", edited.Submission.Data["status"])
	require.NotEmpty(t, edited.AuditID)

	// a second writer still holding "open" must be rejected
	body, statusCode = helpers.API_SubmissionsEdit(t, app, token, src.ID, sub.ID,
		map[string]any{"field": "status", "value": "reopened", "expected": "open"})
	helpers.ResponseErrorCheck(t, app, errmsg.SubmissionStaleValue, body, statusCode)

	// without an expected value the edit is unconditional
	_, statusCode = helpers.API_SubmissionsEdit(t, app, token, src.ID, sub.ID,
		map[string]any{"field": "status", "value": "reopened"})
	require.Equal(t, http.StatusOK, statusCode)
}

func TestBulkEditUndoFlow(t *testing.T) {
	token := helpers.Login(t, app)

	src := createSource(t, token, []models.Field{
		{ID: "status", Name: "Status", Type: models.FieldText},
	})
	first := createSubmission(t, token, src.ID, map[string]any{"status": "open"})
	second := createSubmission(t, token, src.ID, map[string]any{"status": "open"})

	body, statusCode := helpers.API_SubmissionsBulkEdit(t, app, token, src.ID,
		map[string]any{
			"edits": []map[string]any{
				{"id": first.ID, "field": "status", "value": "closed"},
				{"id": second.ID, "field": "status", "value": "closed"},
			},
		})
	require.Equal(t, http.StatusOK, statusCode)

	var batch batchResponse
	require.NoError(t, json.Unmarshal(body, &batch))
	require.NotEmpty(t, batch.Event.ID)

	body, statusCode = helpers.API_AuditGet(t, app, token, batch.Event.ID)
	require.Equal(t, http.StatusOK, statusCode)

	var ev eventResponse
	require.NoError(t, json.Unmarshal(body, &ev))
	require.True(t, ev.CanUndo)

	body, statusCode = helpers.API_AuditUndo(t, app, token, batch.Event.ID)
	require.Equal(t, http.StatusOK, statusCode)
	require.NoError(t, json.Unmarshal(body, &ev))
	require.True(t, ev.Event.Undone)

	// both records carry their pre-bulk value again
	for _, id := range []string{first.ID, second.ID} {
		body, statusCode = helpers.API_SubmissionsGet(t, app, token, src.ID, id)
		require.Equal(t, http.StatusOK, statusCode)

		var sub submissionResponse
		require.NoError(t, json.Unmarshal(body, &sub))
		require.Equal(t, "open", sub.Submission.Data["status"])
	}

	body, statusCode = helpers.API_AuditUndo(t, app, token, batch.Event.ID)
	helpers.ResponseErrorCheck(t, app, errmsg.AuditAlreadyUndone, body, statusCode)
}

// One record can appear more than once in a bulk batch; the event's
// affected count is distinct records, so the undo still matches and
// reverts every field.
func TestBulkEditSameRecordTwiceUndo(t *testing.T) {
	token := helpers.Login(t, app)

	src := createSource(t, token, []models.Field{
		{ID: "status", Name: "Status", Type: models.FieldText},
		{ID: "owner", Name: "Owner", Type: models.FieldText},
	})
	sub := createSubmission(t, token, src.ID, map[string]any{
		"status": "open",
		"owner":  "ana",
	})

	body, statusCode := helpers.API_SubmissionsBulkEdit(t, app, token, src.ID,
		map[string]any{
			"edits": []map[string]any{
				{"id": sub.ID, "field": "status", "value": "closed"},
				{"id": sub.ID, "field": "owner", "value": "bob"},
			},
		})
	require.Equal(t, http.StatusOK, statusCode)

	var batch batchResponse
	require.NoError(t, json.Unmarshal(body, &batch))
	require.Equal(t, 1, batch.Event.DataInt("affected"))

	body, statusCode = helpers.API_AuditUndo(t, app, token, batch.Event.ID)
	require.Equal(t, http.StatusOK, statusCode)

	var ev eventResponse
	require.NoError(t, json.Unmarshal(body, &ev))
	require.True(t, ev.Event.Undone)

	body, statusCode = helpers.API_SubmissionsGet(t, app, token, src.ID, sub.ID)
	require.Equal(t, http.StatusOK, statusCode)

	var restored submissionResponse
	require.NoError(t, json.Unmarshal(body, &restored))
	require.Equal(t, "open", restored.Submission.Data["status"])
	require.Equal(t, "ana", restored.Submission.Data["owner"])
}

func TestImportCommitUndoFlow(t *testing.T) {
	token := helpers.Login(t, app)

	src := createSource(t, token, []models.Field{
		{ID: "name", Name: "Name", Type: models.FieldText},
	})

	body, statusCode := helpers.API_ImportsCreate(t, app, token, src.ID,
		map[string]any{
			"type": models.ImportCreate,
			"records": []map[string]any{
				{"externalId": "ext-1", "data": map[string]any{"name": "alpha"}},
				{"externalId": "ext-2", "data": map[string]any{"name": "beta"}},
			},
		})
	require.Equal(t, http.StatusCreated, statusCode)

	var staged struct {
		Import models.Import `json:"import"`
	}
	require.NoError(t, json.Unmarshal(body, &staged))
	require.Len(t, staged.Import.Records, 2)

	body, statusCode = helpers.API_ImportsCommit(t, app, token, staged.Import.ID)
	require.Equal(t, http.StatusOK, statusCode)

	var batch batchResponse
	require.NoError(t, json.Unmarshal(body, &batch))
	require.NotEmpty(t, batch.Event.ID)

	require.Equal(t, int64(2), listSubmissions(t, token, src.ID, "").TotalResults)

	// a second commit of the same batch loses
	body, statusCode = helpers.API_ImportsCommit(t, app, token, staged.Import.ID)
	helpers.ResponseErrorCheck(t, app, errmsg.ImportAlreadyCommitted, body, statusCode)

	// undoing the commit archives everything the batch created
	_, statusCode = helpers.API_AuditUndo(t, app, token, batch.Event.ID)
	require.Equal(t, http.StatusOK, statusCode)

	require.Equal(t, int64(0), listSubmissions(t, token, src.ID, "").TotalResults)
}
