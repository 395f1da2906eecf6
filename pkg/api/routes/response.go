package routes

import (
	"reflect"

	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"
	"github.com/rs/zerolog/log"
	"github.com/travigo/trainrac/pkg/rail"
	"github.com/travigo/trainrac/pkg/service"
)

func sendResponse(c *fiber.Ctx, response service.Response, err error) error {
	if err != nil {
		return sendInternalError(c, err)
	}

	data, err := reduce(c, response.Data)
	if err != nil {
		return sendInternalError(c, err)
	}

	if !response.Success {
		c.Status(statusFor(response.Kind))
	}

	return c.JSON(fiber.Map{
		"success": response.Success,
		"data":    data,
		"message": response.Message,
	})
}

func sendData(c *fiber.Ctx, data interface{}) error {
	return sendResponse(c, service.Response{Success: true, Data: data}, nil)
}

func sendNotFound(c *fiber.Ctx, message string) error {
	return sendResponse(c, service.Response{Success: false, Message: message, Kind: rail.ErrorKindNotFound}, nil)
}

func sendBadRequest(c *fiber.Ctx, message string) error {
	c.SendStatus(fiber.StatusBadRequest)
	return c.JSON(fiber.Map{
		"error": message,
	})
}

func sendInternalError(c *fiber.Ctx, err error) error {
	log.Error().Err(err).Str("path", c.Path()).Msg("Request failed")

	c.SendStatus(fiber.StatusInternalServerError)
	return c.JSON(fiber.Map{
		"error": "Internal server error",
	})
}

// reduce strips the fields the caller's role may not see
func reduce(c *fiber.Ctx, data interface{}) (interface{}, error) {
	if data == nil {
		return nil, nil
	}
	value := reflect.ValueOf(data)
	if (value.Kind() == reflect.Ptr || value.Kind() == reflect.Slice) && value.IsNil() {
		return nil, nil
	}

	return sheriff.Marshal(&sheriff.Options{
		Groups: groupsFor(CurrentRole(c)),
	}, data)
}

func statusFor(kind rail.ErrorKind) int {
	switch kind {
	case rail.ErrorKindNotFound:
		return fiber.StatusNotFound
	case rail.ErrorKindStateConflict, rail.ErrorKindJourneyState, rail.ErrorKindCapacity:
		return fiber.StatusConflict
	default:
		return fiber.StatusBadRequest
	}
}
