package accounts

import (
	"net/http"
	"testing"
	"time"

	"fieldbook/internal/env"
	"fieldbook/internal/models"
	"fieldbook/test/helpers"

	sj "github.com/brianvoe/sjwt"
	"github.com/stretchr/testify/require"
)

func protectedGet(t *testing.T, token *string) int {
	_, statusCode := helpers.RequestRunner(t, app,
		"GET", "/fieldbook/sources/", nil, token)
	return statusCode
}

func TestAuthMissingToken(t *testing.T) {
	require.Equal(t, http.StatusUnauthorized, protectedGet(t, nil))
}

func TestAuthGarbageToken(t *testing.T) {
	token := "not-a-token"
	require.Equal(t, http.StatusUnauthorized, protectedGet(t, &token))
}

// A token that verifies but fails claim validation renders a 401 like
// every other rejection, never a 500.
func TestAuthExpiredToken(t *testing.T) {
	claims, err := sj.ToClaims(models.Account{Username: "expired"})
	require.NoError(t, err)
	claims.SetExpiresAt(time.Now().Add(-time.Hour))

	token := claims.Generate(env.JWT_SECRET)
	require.Equal(t, http.StatusUnauthorized, protectedGet(t, &token))
}
