package flows

import (
	"flag"
	"log"
	"os"
	"testing"

	"fieldbook/internal"
	"fieldbook/test/helpers"

	"github.com/gofiber/fiber/v3"
)

var app *fiber.App

func TestMain(m *testing.M) {
	envRoot := flag.String("env-root", "", "directory containing environment files")
	appVersion := "v1.0.0-test"

	flag.Parse()

	app = internal.SetupApp("test", *envRoot, appVersion)

	if err := helpers.SeedTestAccount(); err != nil {
		log.Fatal(err)
	}

	os.Exit(m.Run())
}
