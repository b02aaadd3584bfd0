package accounts

import (
	"encoding/json"
	"strings"

	"fieldbook/internal/audit"
	"fieldbook/internal/errmsg"
	"fieldbook/internal/models"
	"fieldbook/internal/utils"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"
)

func loginHandler(c fiber.Ctx) error {
	var body models.Account
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return utils.StatusError(c, errmsg.AccountInvalidPayload)
	}

	body.Username = strings.TrimSpace(body.Username)
	body.Password = strings.TrimSpace(body.Password)
	if body.Username == "" || body.Password == "" {
		return utils.StatusError(c, errmsg.AccountInvalidPayload)
	}

	account := models.Account{}
	if err := account.Get(body.Username); err != nil {
		return utils.StatusError(c, errmsg.AccountNotFound)
	}

	if bcrypt.CompareHashAndPassword(
		[]byte(account.Password),
		[]byte(body.Password),
	) != nil {
		return utils.StatusError(c, errmsg.AccountWrongPassword)
	}

	token := account.GenToken()

	if audit.Em != nil {
		audit.Em.Login(account.Username)
	}

	account.Password = ""

	return c.JSON(bson.M{
		"token":   token,
		"account": account,
	})
}
