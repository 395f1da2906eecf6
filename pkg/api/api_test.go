package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/trainrac/pkg/api/routes"
	"github.com/travigo/trainrac/pkg/rail"
	"github.com/travigo/trainrac/pkg/service"
	"github.com/travigo/trainrac/pkg/train"
	"github.com/travigo/trainrac/pkg/train/traintest"
)

type failingStore struct {
	*service.MemoryStore
}

func (f failingStore) Save(context.Context, *rail.Snapshot) error {
	return errors.New("store unreachable")
}

func testAuthenticator(c *fiber.Ctx) error {
	if role := c.Get("X-Test-Role"); role != "" {
		routes.SetRole(c, routes.Role(role))
	}
	return c.Next()
}

func newTestJourney(t *testing.T) *service.Service {
	t.Helper()

	journey := service.New(train.New(train.Config{TrainNo: "12627", BoardingAutoConfirm: true}), service.Options{})
	response, err := journey.InitializeTrain(context.Background(), traintest.Snapshot(
		traintest.Confirmed("C1", "S1", 1, 0, 2),
		traintest.Confirmed("C2", "S1", 2, 0, 2),
		traintest.RAC("R1", 1, "S1", 7, 2, 4),
		traintest.Online(traintest.RAC("R2", 2, "S1", 7, 2, 4)),
	))
	require.NoError(t, err)
	require.True(t, response.Success)

	return journey
}

func newTestApp(t *testing.T) *fiber.App {
	return NewApp(newTestJourney(t), testAuthenticator)
}

func request(t *testing.T, app *fiber.App, method string, path string, role routes.Role, body string) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if role != "" {
		req.Header.Set("X-Test-Role", string(role))
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))

	return resp.StatusCode, decoded
}

func TestVersion(t *testing.T) {
	app := newTestApp(t)

	status, body := request(t, app, fiber.MethodGet, "/version", "", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "trainrac", body["service"])
}

func TestTTERoutesRejectOtherRoles(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		method string
		path   string
	}{
		{fiber.MethodPost, "/train/start"},
		{fiber.MethodPost, "/train/advance"},
		{fiber.MethodGet, "/train/rac/"},
		{fiber.MethodGet, "/train/reallocation/vacancies"},
		{fiber.MethodPost, "/train/upgrades/R2/confirm"},
		{fiber.MethodGet, "/train/events"},
		{fiber.MethodGet, "/train/segments"},
		{fiber.MethodGet, "/train/berths/S1/7/timeline"},
	}

	for _, test := range tests {
		t.Run(test.path, func(t *testing.T) {
			status, _ := request(t, app, test.method, test.path, routes.RolePassenger, "")
			assert.Equal(t, fiber.StatusForbidden, status)

			status, _ = request(t, app, test.method, test.path, "", "")
			assert.Equal(t, fiber.StatusForbidden, status)
		})
	}
}

func TestJourneyOverHTTP(t *testing.T) {
	app := newTestApp(t)

	status, body := request(t, app, fiber.MethodPost, "/train/start", routes.RoleTTE, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])

	status, body = request(t, app, fiber.MethodPost, "/train/advance", routes.RoleTTE, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Arrived at Agra Cantt", body["message"])

	data := body["data"].(map[string]interface{})
	reallocationResult := data["reallocation"].(map[string]interface{})
	allocated := reallocationResult["Allocated"].([]interface{})
	require.Len(t, allocated, 1)
	assert.Equal(t, "R1", allocated[0].(map[string]interface{})["pnr"])

	status, body = request(t, app, fiber.MethodGet, "/train/state", routes.RolePassenger, "")
	require.Equal(t, fiber.StatusOK, status)
	state := body["data"].(map[string]interface{})
	assert.Equal(t, "12627", state["trainNo"])
	assert.Equal(t, "STARTED", state["phase"])
	assert.NotContains(t, state, "coaches", "coach layout is TTE only")

	status, body = request(t, app, fiber.MethodGet, "/train/rac/", routes.RoleTTE, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 1)
}

func TestBusinessFailureStatusCodes(t *testing.T) {
	app := newTestApp(t)

	status, body := request(t, app, fiber.MethodPost, "/train/advance", routes.RoleTTE, "")
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, false, body["success"])

	status, _ = request(t, app, fiber.MethodGet, "/train/passengers/NOPE", routes.RoleTTE, "")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = request(t, app, fiber.MethodPost, "/train/reallocation/apply", routes.RoleTTE, `{"allocations":[]}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = request(t, app, fiber.MethodDelete, "/train/rac/NOPE", routes.RoleTTE, "")
	assert.Equal(t, fiber.StatusConflict, status, "queue changes need a running journey")
}

func TestPassengerViewIsReduced(t *testing.T) {
	app := newTestApp(t)

	_, body := request(t, app, fiber.MethodGet, "/train/passengers/C1", routes.RolePassenger, "")
	passenger := body["data"].(map[string]interface{})["Passenger"].(map[string]interface{})
	assert.Equal(t, "C1", passenger["PNR"])
	assert.NotContains(t, passenger, "Age")

	_, body = request(t, app, fiber.MethodGet, "/train/passengers/C1", routes.RoleTTE, "")
	passenger = body["data"].(map[string]interface{})["Passenger"].(map[string]interface{})
	assert.Contains(t, passenger, "Age")
}

func TestUpgradeApprovalOverHTTP(t *testing.T) {
	app := newTestApp(t)

	request(t, app, fiber.MethodPost, "/train/start", routes.RoleTTE, "")
	request(t, app, fiber.MethodPost, "/train/advance", routes.RoleTTE, "")

	status, body := request(t, app, fiber.MethodGet, "/train/upgrades/", routes.RoleTTE, "")
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, body["data"], 1)

	status, _ = request(t, app, fiber.MethodPost, "/train/upgrades/R2/respond", routes.RolePassenger, `{"reason":"no answer"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = request(t, app, fiber.MethodPost, "/train/upgrades/R2/confirm", routes.RoleTTE, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Upgrade for R2 approved by TTE, waiting for the passenger", body["message"])

	status, body = request(t, app, fiber.MethodPost, "/train/upgrades/R2/respond", routes.RolePassenger, `{"accept":true}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "R2 upgraded to S1-4", body["message"])

	status, _ = request(t, app, fiber.MethodPost, "/train/upgrades/R2/respond", routes.RolePassenger, `{"accept":true}`)
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestInfrastructureFailureIsInternalError(t *testing.T) {
	journey := newTestJourney(t)
	journey.Store = failingStore{service.NewMemoryStore()}
	app := NewApp(journey, testAuthenticator)

	status, body := request(t, app, fiber.MethodPost, "/train/start", routes.RoleTTE, "")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", body["error"])
}

func TestSegmentQueriesOverHTTP(t *testing.T) {
	app := newTestApp(t)

	status, body := request(t, app, fiber.MethodGet, "/train/berths/S1/7/timeline", routes.RoleTTE, "")
	require.Equal(t, fiber.StatusOK, status)
	timeline := body["data"].(map[string]interface{})
	segments := timeline["Segments"].([]interface{})
	require.Len(t, segments, 4)
	assert.Equal(t, false, segments[0].(map[string]interface{})["Occupied"])
	assert.Equal(t, true, segments[2].(map[string]interface{})["Occupied"])

	status, body = request(t, app, fiber.MethodGet, "/train/segments/2/vacancies", routes.RoleTTE, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(72+64-1), body["data"].(map[string]interface{})["VacantCount"])

	status, _ = request(t, app, fiber.MethodGet, "/train/segments/9/vacancies", routes.RoleTTE, "")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = request(t, app, fiber.MethodGet, "/train/berths/S1/upper/timeline", routes.RoleTTE, "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = request(t, app, fiber.MethodGet, "/train/segments", routes.RoleTTE, "")
	require.Equal(t, fiber.StatusOK, status)
	matrix := body["data"].(map[string]interface{})
	assert.Len(t, matrix["segments"], 4)
	assert.Len(t, matrix["berths"], 72+64)
}
