package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/travigo/trainrac/pkg/rail"
	"github.com/travigo/trainrac/pkg/service"
)

type trainRoutes struct {
	journey *service.Service
}

func TrainRouter(router fiber.Router, journey *service.Service) {
	routes := &trainRoutes{journey: journey}
	tte := RequireRole(RoleTTE)

	router.Get("/state", routes.getState)
	router.Get("/stats", routes.getStats)
	router.Get("/events", tte, routes.getEvents)

	router.Post("/initialize", tte, routes.postInitialize)
	router.Post("/start", tte, routes.postStart)
	router.Post("/advance", tte, routes.postAdvance)
	router.Post("/reset", tte, routes.postReset)

	router.Post("/passengers", tte, routes.postPassenger)
	router.Get("/passengers/:pnr", routes.getPassenger)
	router.Get("/passengers/:pnr/copassenger", routes.getCoPassenger)
	router.Post("/passengers/:pnr/noshow", tte, routes.postNoShow)

	router.Get("/verification", tte, routes.getVerification)
	router.Post("/verification/confirm", tte, routes.postConfirmAllBoarded)
	router.Post("/verification/:pnr/noshow", tte, routes.postVerificationNoShow)

	router.Get("/groups/:group/suggestion", tte, routes.getGroupSuggestion)

	router.Get("/segments", tte, routes.getSegmentMatrix)
	router.Get("/segments/:segment/vacancies", tte, routes.getSegmentVacancies)
	router.Get("/berths/:coach/:berth/timeline", tte, routes.getOccupancyTimeline)

	RACRouter(router.Group("/rac", tte), journey)
	ReallocationRouter(router.Group("/reallocation", tte), journey)
	UpgradesRouter(router.Group("/upgrades"), journey)
}

func (r *trainRoutes) getState(c *fiber.Ctx) error {
	view, err := r.journey.State()
	if err != nil {
		return sendInternalError(c, err)
	}

	return sendData(c, view)
}

func (r *trainRoutes) getStats(c *fiber.Ctx) error {
	return sendData(c, r.journey.Stats())
}

func (r *trainRoutes) getEvents(c *fiber.Ctx) error {
	events := r.journey.Events()

	if eventType := c.Query("type"); eventType != "" {
		var filtered []rail.Event
		for _, event := range events {
			if string(event.Type) == eventType {
				filtered = append(filtered, event)
			}
		}
		events = filtered
	}

	return sendData(c, events)
}

func (r *trainRoutes) postInitialize(c *fiber.Ctx) error {
	var snapshot rail.Snapshot
	if err := c.BodyParser(&snapshot); err != nil {
		return sendBadRequest(c, "Request body must be a train snapshot")
	}

	response, err := r.journey.InitializeTrain(c.UserContext(), &snapshot)
	return sendResponse(c, response, err)
}

func (r *trainRoutes) postStart(c *fiber.Ctx) error {
	response, err := r.journey.StartJourney(c.UserContext())
	return sendResponse(c, response, err)
}

func (r *trainRoutes) postAdvance(c *fiber.Ctx) error {
	response, err := r.journey.AdvanceStation(c.UserContext())
	return sendResponse(c, response, err)
}

func (r *trainRoutes) postReset(c *fiber.Ctx) error {
	response, err := r.journey.Reset(c.UserContext())
	return sendResponse(c, response, err)
}

func (r *trainRoutes) postPassenger(c *fiber.Ctx) error {
	var passenger rail.Passenger
	if err := c.BodyParser(&passenger); err != nil {
		return sendBadRequest(c, "Request body must be a passenger")
	}

	response, err := r.journey.AddPassenger(c.UserContext(), &passenger)
	return sendResponse(c, response, err)
}

func (r *trainRoutes) getPassenger(c *fiber.Ctx) error {
	pnr := c.Params("pnr")

	location, found := r.journey.FindPassenger(pnr)
	if !found {
		return sendNotFound(c, "Could not find passenger matching PNR "+pnr)
	}

	return sendData(c, location)
}

func (r *trainRoutes) getCoPassenger(c *fiber.Ctx) error {
	pnr := c.Params("pnr")

	coPassenger, found := r.journey.CoPassenger(pnr)
	if !found {
		return sendNotFound(c, "No co-passenger shares a berth with "+pnr)
	}

	return sendData(c, coPassenger)
}

func (r *trainRoutes) postNoShow(c *fiber.Ctx) error {
	var requestBody struct {
		Reason string
	}
	c.BodyParser(&requestBody)

	response, err := r.journey.MarkNoShow(c.UserContext(), c.Params("pnr"), requestBody.Reason)
	return sendResponse(c, response, err)
}

func (r *trainRoutes) getVerification(c *fiber.Ctx) error {
	return sendData(c, r.journey.VerificationQueue())
}

func (r *trainRoutes) postConfirmAllBoarded(c *fiber.Ctx) error {
	response, err := r.journey.ConfirmAllBoarded(c.UserContext())
	return sendResponse(c, response, err)
}

func (r *trainRoutes) postVerificationNoShow(c *fiber.Ctx) error {
	response, err := r.journey.MarkNoShowFromQueue(c.UserContext(), c.Params("pnr"))
	return sendResponse(c, response, err)
}

func (r *trainRoutes) getGroupSuggestion(c *fiber.Ctx) error {
	suggestion, err := r.journey.SuggestGroup(c.Params("group"))
	if err != nil {
		return sendInternalError(c, err)
	}

	return sendData(c, suggestion)
}

func (r *trainRoutes) getSegmentMatrix(c *fiber.Ctx) error {
	return sendData(c, r.journey.SegmentMatrix())
}

func (r *trainRoutes) getSegmentVacancies(c *fiber.Ctx) error {
	segmentID, err := c.ParamsInt("segment")
	if err != nil {
		return sendBadRequest(c, "Segment must be a number")
	}

	vacancy, err := r.journey.SegmentVacancies(segmentID)
	if rail.IsKind(err, rail.ErrorKindNotFound) {
		return sendNotFound(c, err.Error())
	} else if err != nil {
		return sendInternalError(c, err)
	}

	return sendData(c, vacancy)
}

func (r *trainRoutes) getOccupancyTimeline(c *fiber.Ctx) error {
	berthNo, err := c.ParamsInt("berth")
	if err != nil {
		return sendBadRequest(c, "Berth must be a number")
	}

	timeline, err := r.journey.OccupancyTimeline(c.Params("coach"), berthNo)
	if rail.IsKind(err, rail.ErrorKindNotFound) {
		return sendNotFound(c, err.Error())
	} else if err != nil {
		return sendInternalError(c, err)
	}

	return sendData(c, timeline)
}
