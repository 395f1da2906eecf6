// Package arrivals turns station arrival messages from a STOMP feed into journey advances.
package arrivals

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/trainrac/pkg/rail"
	"github.com/travigo/trainrac/pkg/service"
	"github.com/travigo/trainrac/pkg/stationorder"
)

type Journey interface {
	Position() (stations []rail.Station, currentIdx int, phase rail.JourneyPhase)
	AdvanceStation(ctx context.Context) (service.Response, error)
}

type ArrivalMessage struct {
	TrainNo     string    `json:"train_no"`
	StationCode string    `json:"station_code"`
	ArrivedAt   time.Time `json:"arrived_at"`
}

type Handler struct {
	TrainNo string
	Journey Journey
}

// Handle advances the journey up to the reported station. Stations the feed skipped are advanced through in order.
// Returns the number of stations advanced.
func (h *Handler) Handle(ctx context.Context, message ArrivalMessage) (int, error) {
	if message.TrainNo != h.TrainNo {
		return 0, nil
	}

	stations, currentIdx, phase := h.Journey.Position()
	if phase != rail.JourneyPhaseStarted {
		log.Debug().Str("station", message.StationCode).Str("phase", string(phase)).Msg("Ignoring arrival outside a running journey")
		return 0, nil
	}

	station, ok := stationorder.ByCode(stations, message.StationCode)
	if !ok {
		return 0, rail.NewNotFoundError("station %s is not on the route of %s", message.StationCode, h.TrainNo)
	}
	if station.Idx <= currentIdx {
		log.Debug().Str("station", station.Code).Int("current", currentIdx).Msg("Ignoring stale arrival")
		return 0, nil
	}

	advanced := 0
	for idx := currentIdx; idx < station.Idx; idx++ {
		response, err := h.Journey.AdvanceStation(ctx)
		if err != nil {
			return advanced, err
		}
		if !response.Success {
			return advanced, rail.NewJourneyStateError("advancing towards %s: %s", station.Code, response.Message)
		}
		advanced++
	}

	log.Info().
		Str("station", station.Code).
		Int("advanced", advanced).
		Time("arrived", message.ArrivedAt).
		Msg("Processed arrival")

	return advanced, nil
}

func (h *Handler) HandleBytes(ctx context.Context, body []byte) (int, error) {
	var message ArrivalMessage
	if err := json.Unmarshal(body, &message); err != nil {
		return 0, rail.NewValidationError("invalid arrival message: %s", err)
	}
	if message.StationCode == "" {
		return 0, rail.NewValidationError("arrival message has no station_code")
	}

	return h.Handle(ctx, message)
}

func (m ArrivalMessage) String() string {
	return fmt.Sprintf("%s at %s", m.TrainNo, m.StationCode)
}
