package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/travigo/trainrac/pkg/service"
)

func UpgradesRouter(router fiber.Router, journey *service.Service) {
	tte := RequireRole(RoleTTE)

	router.Get("/", tte, func(c *fiber.Ctx) error {
		return sendData(c, journey.PendingUpgrades())
	})

	router.Post("/", tte, func(c *fiber.Ctx) error {
		var requestBody struct {
			PNR     string `json:"pnr"`
			CoachNo string `json:"coachNo"`
			BerthNo int    `json:"berthNo"`
		}
		if err := c.BodyParser(&requestBody); err != nil || requestBody.PNR == "" {
			return sendBadRequest(c, "Request body must contain pnr, coachNo and berthNo")
		}

		response, err := journey.OfferUpgrade(c.UserContext(), requestBody.PNR, requestBody.CoachNo, requestBody.BerthNo)
		return sendResponse(c, response, err)
	})

	router.Get("/:pnr", func(c *fiber.Ctx) error {
		return sendData(c, journey.UpgradeHistory(c.Params("pnr")))
	})

	router.Post("/:pnr/respond", func(c *fiber.Ctx) error {
		var requestBody struct {
			Accept *bool  `json:"accept"`
			Reason string `json:"reason"`
		}
		if err := c.BodyParser(&requestBody); err != nil || requestBody.Accept == nil {
			return sendBadRequest(c, "Request body must contain accept")
		}

		response, err := journey.RespondToUpgrade(c.UserContext(), c.Params("pnr"), *requestBody.Accept, requestBody.Reason)
		return sendResponse(c, response, err)
	})

	router.Post("/:pnr/confirm", tte, func(c *fiber.Ctx) error {
		response, err := journey.ConfirmUpgrade(c.UserContext(), c.Params("pnr"))
		return sendResponse(c, response, err)
	})
}
