package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/travigo/trainrac/pkg/rail"
	"github.com/travigo/trainrac/pkg/service"
)

func RACRouter(router fiber.Router, journey *service.Service) {
	router.Get("/", func(c *fiber.Ctx) error {
		return sendData(c, journey.RACQueue())
	})

	router.Get("/stats", func(c *fiber.Ctx) error {
		return sendData(c, journey.RACQueueStats())
	})

	router.Get("/search/:pnr", func(c *fiber.Ctx) error {
		result := journey.SearchRAC(c.Params("pnr"))
		if !result.Found {
			return sendNotFound(c, result.Message)
		}

		return sendData(c, result)
	})

	router.Post("/", func(c *fiber.Ctx) error {
		var passenger rail.Passenger
		if err := c.BodyParser(&passenger); err != nil {
			return sendBadRequest(c, "Request body must be a passenger")
		}

		response, err := journey.AddToRACQueue(c.UserContext(), &passenger)
		return sendResponse(c, response, err)
	})

	router.Delete("/:pnr", func(c *fiber.Ctx) error {
		response, err := journey.RemoveFromRACQueue(c.UserContext(), c.Params("pnr"))
		return sendResponse(c, response, err)
	})
}
