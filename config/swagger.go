package config

import (
	"github.com/biosecret/go-todo/docs"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// AddSwaggerRoutes serves the OpenAPI UI under /swagger. The advertised
// version follows the running build.
func AddSwaggerRoutes(app *fiber.App, version string) {
	docs.SwaggerInfo.Version = version
	app.Get("/swagger/*", swagger.New(swagger.Config{
		Title:        docs.SwaggerInfo.Title,
		DeepLinking:  true,
		DocExpansion: "list",
	}))
}
