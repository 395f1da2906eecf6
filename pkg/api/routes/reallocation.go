package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/travigo/trainrac/pkg/reallocation"
	"github.com/travigo/trainrac/pkg/service"
)

func ReallocationRouter(router fiber.Router, journey *service.Service) {
	router.Get("/vacancies", func(c *fiber.Ctx) error {
		return sendData(c, journey.Vacancies())
	})

	router.Get("/eligibility", func(c *fiber.Ctx) error {
		return sendData(c, journey.EligibilityMatrix())
	})

	router.Post("/process", func(c *fiber.Ctx) error {
		response, err := journey.ProcessReallocation(c.UserContext())
		return sendResponse(c, response, err)
	})

	router.Post("/apply", func(c *fiber.Ctx) error {
		var requestBody struct {
			Allocations []reallocation.Allocation `json:"allocations"`
		}
		if err := c.BodyParser(&requestBody); err != nil {
			return sendBadRequest(c, "Request body must contain allocations")
		}

		response, err := journey.ApplyReallocation(c.UserContext(), requestBody.Allocations)
		return sendResponse(c, response, err)
	})
}
