package internal

import (
	"log"
	"strings"

	"fieldbook/internal/accounts"
	"fieldbook/internal/audit"
	"fieldbook/internal/auditlog"
	"fieldbook/internal/db"
	"fieldbook/internal/env"
	"fieldbook/internal/imports"
	"fieldbook/internal/sources"
	"fieldbook/internal/submissions"
	"fieldbook/internal/views"

	"github.com/gofiber/fiber/v3"
)

func SetupApp(deployment string, envRoot string, appVersion string) *fiber.App {
	app := fiber.New()

	env.Init(envRoot, appVersion)

	deploy := strings.TrimSpace(deployment)

	if err := db.InitDB(deploy); err != nil {
		log.Fatal("Could not connect to MongoDB")
		return nil
	}

	if err := db.InitCache(); err != nil {
		log.Fatal("Could not connect to Redis")
		return nil
	}

	if db.Events != nil {
		audit.Em = audit.NewEmitter(db.Events, deploy)
	} else {
		audit.Em = nil
	}

	fieldbook := app.Group("/fieldbook")

	fieldbook.Get("/ping", func(c fiber.Ctx) error {
		return c.SendString("PONG")
	})

	fieldbook.Get("/version", func(c fiber.Ctx) error {
		return c.SendString("v" + env.VERSION)
	})

	accounts.Routes(fieldbook)
	sources.Routes(fieldbook)
	submissions.Routes(fieldbook)
	views.Routes(fieldbook)
	imports.Routes(fieldbook)
	auditlog.Routes(fieldbook)

	return app
}
