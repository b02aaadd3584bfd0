package models

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"fieldbook/internal/db"
	"fieldbook/internal/env"
	"fieldbook/internal/utils"

	sj "github.com/brianvoe/sjwt"
	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson"
)

type Account struct {
	Username string `json:"username" bson:"username"`
	Password string `json:"password" bson:"password"`
	Role     string `json:"role" bson:"role"`
}

func (a *Account) GenToken() string {
	claims, _ := sj.ToClaims(a)
	claims.SetExpiresAt(time.Now().Add(365 * 24 * time.Hour))

	token := claims.Generate(env.JWT_SECRET)
	return token
}

func (a *Account) ParseToken(token string) error {
	hasVerified := sj.Verify(token, env.JWT_SECRET)

	if !hasVerified {
		return nil
	}

	claims, _ := sj.Parse(token)
	err := claims.Validate()
	claims.ToStruct(&a)

	return err
}

func AccountMiddleware(c fiber.Ctx) error {
	var token string

	authHeader := c.Get("Authorization")

	if string(authHeader) != "" &&
		strings.HasPrefix(string(authHeader), "Bearer") {

		tokens := strings.Fields(string(authHeader))
		if len(tokens) == 2 {
			token = tokens[1]
		}

		if token == "" {
			return utils.Error(
				c,
				http.StatusUnauthorized,
				errors.New("unauthorized"),
			)
		}

		var account Account
		err := account.ParseToken(token)
		if err != nil {
			return utils.Error(
				c,
				http.StatusUnauthorized,
				errors.New("unauthorized"),
			)
		}

		if account.Username == "" {
			return utils.Error(
				c,
				http.StatusUnauthorized,
				errors.New("unauthorized"),
			)
		}

		account.Password = ""
		utils.SetLocals(c, "account", account)
	}

	if token == "" {
		return utils.Error(
			c,
			http.StatusUnauthorized,
			errors.New("unauthorized"),
		)
	}

	return c.Next()
}

func (a *Account) Get(username string) (err error) {
	err = db.Accounts.FindOne(db.Ctx, bson.M{
		"username": username,
	}).Decode(&a)
	if err != nil {
		return err
	}

	if a.Password == "" {
		return errors.New("account does not exist")
	}

	return
}

// Actor returns the username stored on the request by AccountMiddleware.
func Actor(c fiber.Ctx) string {
	var account Account
	utils.GetLocals(c, "account", &account)
	return account.Username
}
