package helpers

import (
	"encoding/json"
	"net/http"
	"testing"

	"fieldbook/internal/db"
	"fieldbook/internal/models"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"
)

const (
	TestAccountUsername = "testaccount"
	TestAccountPassword = "testaccount"
)

// SeedTestAccount makes the shared test account exist with a known
// password, replacing any leftover from a previous run.
func SeedTestAccount() error {
	hash, err := bcrypt.GenerateFromPassword(
		[]byte(TestAccountPassword),
		bcrypt.DefaultCost,
	)
	if err != nil {
		return err
	}

	if _, err := db.Accounts.DeleteMany(db.Ctx, bson.M{
		"username": TestAccountUsername,
	}); err != nil {
		return err
	}

	_, err = db.Accounts.InsertOne(db.Ctx, models.Account{
		Username: TestAccountUsername,
		Password: string(hash),
		Role:     "admin",
	})
	return err
}

func Login(t *testing.T, app *fiber.App) string {
	body, statusCode := API_AccountsLogin(t, app,
		TestAccountUsername, TestAccountPassword)
	require.Equal(t, http.StatusOK, statusCode)

	var payload struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NotEmpty(t, payload.Token)

	return payload.Token
}

func API_AccountsLogin(
	t *testing.T,
	app *fiber.App,
	username string,
	password string,
) (bodyBytes []byte, statusCode int) {
	payload := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{
		Username: username,
		Password: password,
	}

	sendBytes, err := json.Marshal(payload)
	require.NoError(t, err)

	return RequestRunner(t, app,
		"POST",
		"/fieldbook/accounts/login",
		sendBytes,
		nil,
	)
}

func API_AccountsPing(
	t *testing.T,
	app *fiber.App,
) (bodyBytes []byte, statusCode int) {
	return RequestRunner(t, app,
		"GET",
		"/fieldbook/accounts/ping",
		nil,
		nil,
	)
}
