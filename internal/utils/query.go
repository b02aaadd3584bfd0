package utils

import (
	"net/url"

	"github.com/gofiber/fiber/v3"
)

// QueryValues exposes the raw query string as url.Values so repeatable
// keys (multi-value filters, __key) keep every occurrence.
func QueryValues(c fiber.Ctx) url.Values {
	values, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		return url.Values{}
	}
	return values
}
