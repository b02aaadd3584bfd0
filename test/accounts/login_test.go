package accounts

import (
	"encoding/json"
	"net/http"
	"testing"

	"fieldbook/internal/errmsg"
	"fieldbook/test/helpers"

	"github.com/stretchr/testify/require"
)

func TestAccountsPing(t *testing.T) {
	body, statusCode := helpers.API_AccountsPing(t, app)
	require.Equal(t, http.StatusOK, statusCode)
	require.Equal(t, "PONG", string(body))
}

func TestAccountsLoginSuccess(t *testing.T) {
	body, statusCode := helpers.API_AccountsLogin(t, app,
		helpers.TestAccountUsername, helpers.TestAccountPassword)
	require.Equal(t, http.StatusOK, statusCode)

	var payload struct {
		Token   string `json:"token"`
		Account struct {
			Username string `json:"username"`
			Password string `json:"password"`
		} `json:"account"`
	}

	err := json.Unmarshal(body, &payload)
	require.NoError(t, err)

	require.NotEmpty(t, payload.Token)
	require.Equal(t, helpers.TestAccountUsername, payload.Account.Username)
	require.Empty(t, payload.Account.Password)
}

func TestAccountsLoginWrongPassword(t *testing.T) {
	body, statusCode := helpers.API_AccountsLogin(t, app,
		helpers.TestAccountUsername, "wrong-password")
	helpers.ResponseErrorCheck(t, app, errmsg.AccountWrongPassword, body, statusCode)
}

func TestAccountsLoginNotFound(t *testing.T) {
	body, statusCode := helpers.API_AccountsLogin(t, app, "missing-user", "whatever")
	helpers.ResponseErrorCheck(t, app, errmsg.AccountNotFound, body, statusCode)
}

func TestAccountsLoginInvalidPayload(t *testing.T) {
	body, statusCode := helpers.API_AccountsLogin(t, app, "", "")
	helpers.ResponseErrorCheck(t, app, errmsg.AccountInvalidPayload, body, statusCode)
}
