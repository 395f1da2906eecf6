package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/travigo/trainrac/pkg/api/routes"
	"github.com/travigo/trainrac/pkg/service"
)

func NewApp(journey *service.Service, authenticator fiber.Handler) *fiber.App {
	webApp := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	webApp.Use(NewLogger())

	webApp.Get("version", routes.APIVersion)

	routes.TrainRouter(webApp.Group("/train", authenticator), journey)

	return webApp
}

func SetupServer(listen string, journey *service.Service, authenticator fiber.Handler) (*fiber.App, chan error) {
	webApp := NewApp(journey, authenticator)

	errs := make(chan error, 1)
	go func() {
		errs <- webApp.Listen(listen)
	}()

	return webApp, errs
}
