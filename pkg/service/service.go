// Package service exposes the journey operations to transports, translating business failures into responses.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/travigo/trainrac/pkg/racqueue"
	"github.com/travigo/trainrac/pkg/rail"
	"github.com/travigo/trainrac/pkg/reallocation"
	"github.com/travigo/trainrac/pkg/train"
	"github.com/travigo/trainrac/pkg/upgrade"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`

	// Kind classifies a failed response
	Kind rail.ErrorKind `json:"kind,omitempty"`
}

type Options struct {
	Store    JourneyStore
	Rules    reallocation.Rules
	Strategy reallocation.GroupStrategy
}

type Service struct {
	Train    *train.Train
	Store    JourneyStore
	Engine   *reallocation.Engine
	Workflow *upgrade.Workflow
	Strategy reallocation.GroupStrategy

	// persistMutex orders saves so the last save always carries the newest state
	persistMutex sync.Mutex
}

func New(t *train.Train, options Options) *Service {
	if options.Store == nil {
		options.Store = NewMemoryStore()
	}
	if options.Strategy == nil {
		options.Strategy = reallocation.NewAgePriorityStrategy()
	}

	return &Service{
		Train:    t,
		Store:    options.Store,
		Engine:   reallocation.NewEngine(options.Rules),
		Workflow: upgrade.NewWorkflow(t),
		Strategy: options.Strategy,
	}
}

// complete turns the outcome of a mutation into a response, persisting the journey on success
func (s *Service) complete(ctx context.Context, operation string, err error, data interface{}, message string) (Response, error) {
	if err != nil {
		if rail.IsBusinessError(err) {
			log.Debug().Str("operation", operation).Err(err).Msg("Operation rejected")
			return Response{Success: false, Message: err.Error(), Kind: rail.KindOf(err)}, nil
		}

		log.Error().Str("operation", operation).Err(err).Msg("Operation failed")
		return Response{}, err
	}

	if err := s.persist(ctx); err != nil {
		log.Error().Str("operation", operation).Err(err).Msg("Failed to persist journey")
		return Response{}, err
	}

	return Response{Success: true, Data: data, Message: message}, nil
}

// persist snapshots and saves under one lock. A snapshot taken before another save can never be stored after it.
func (s *Service) persist(ctx context.Context) error {
	s.persistMutex.Lock()
	defer s.persistMutex.Unlock()

	snapshot, err := s.Train.Snapshot()
	if err != nil {
		return err
	}
	if snapshot.TrainNo == "" {
		return nil
	}

	if err := s.Store.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("saving journey %s: %w", snapshot.TrainNo, err)
	}
	return nil
}

func (s *Service) InitializeTrain(ctx context.Context, snapshot *rail.Snapshot) (Response, error) {
	err := s.Train.Initialize(snapshot)
	if err != nil {
		return s.complete(ctx, "initialize", err, nil, "")
	}

	return s.complete(ctx, "initialize", nil, s.Train.Stats(), "Train initialized")
}

// Restore initializes the train from the store, reporting false when nothing was stored
func (s *Service) Restore(ctx context.Context, trainNo string) (bool, error) {
	snapshot, err := s.Store.Load(ctx, trainNo)
	if err != nil {
		return false, fmt.Errorf("loading journey %s: %w", trainNo, err)
	}
	if snapshot == nil {
		return false, nil
	}

	if err := s.Train.Initialize(snapshot); err != nil {
		return false, fmt.Errorf("restoring journey %s: %w", trainNo, err)
	}

	log.Info().Str("train", trainNo).Str("phase", string(snapshot.Phase)).Int("station", snapshot.CurrentStationIdx).Msg("Restored journey")

	return true, nil
}

func (s *Service) StartJourney(ctx context.Context) (Response, error) {
	err := s.Train.StartJourney()

	return s.complete(ctx, "start", err, s.Train.Stats(), "Journey started")
}

type AdvanceResult struct {
	Arrival      train.ArrivalResult      `json:"arrival" groups:"basic"`
	Reallocation reallocation.BatchResult `json:"reallocation" groups:"basic"`
}

// AdvanceStation moves the train on and reallocates whatever the arrival freed
func (s *Service) AdvanceStation(ctx context.Context) (Response, error) {
	arrival, err := s.Train.AdvanceToNextStation()
	if err != nil {
		return s.complete(ctx, "advance", err, nil, "")
	}

	result := AdvanceResult{Arrival: arrival}
	if !arrival.Complete {
		result.Reallocation, err = s.Engine.Process(s.Train)
		if err != nil && !rail.IsBusinessError(err) {
			return s.complete(ctx, "advance", err, nil, "")
		}
	}

	message := fmt.Sprintf("Arrived at %s", arrival.Station.Name)
	if arrival.Complete {
		message = fmt.Sprintf("Arrived at %s, journey complete", arrival.Station.Name)
	}

	return s.complete(ctx, "advance", nil, result, message)
}

func (s *Service) ProcessReallocation(ctx context.Context) (Response, error) {
	result, err := s.Engine.Process(s.Train)

	return s.complete(ctx, "reallocate", err, result,
		fmt.Sprintf("%d allocated, %d offered", len(result.Allocated), len(result.Offered)))
}

func (s *Service) MarkNoShow(ctx context.Context, pnr string, reason string) (Response, error) {
	vacancy, err := s.Train.MarkNoShow(pnr, reason)

	return s.complete(ctx, "no-show", err, vacancy, fmt.Sprintf("%s marked as no-show", pnr))
}

func (s *Service) AddPassenger(ctx context.Context, passenger *rail.Passenger) (Response, error) {
	if passenger == nil {
		return Response{Success: false, Message: "passenger is required", Kind: rail.ErrorKindValidation}, nil
	}

	err := s.Train.AddPassenger(passenger)

	return s.complete(ctx, "add-passenger", err, nil, fmt.Sprintf("%s added", passenger.PNR))
}

func (s *Service) ApplyReallocation(ctx context.Context, allocations []reallocation.Allocation) (Response, error) {
	if len(allocations) == 0 {
		return Response{Success: false, Message: "no allocations supplied", Kind: rail.ErrorKindValidation}, nil
	}

	results, err := s.Engine.ApplyReallocation(s.Train, allocations)
	if err != nil {
		return s.complete(ctx, "apply-reallocation", err, nil, "")
	}

	applied := 0
	for _, result := range results {
		if result.Success {
			applied++
		}
	}

	response, err := s.complete(ctx, "apply-reallocation", nil, results,
		fmt.Sprintf("%d of %d allocations applied", applied, len(allocations)))
	response.Success = response.Success && applied == len(allocations)
	return response, err
}

func (s *Service) OfferUpgrade(ctx context.Context, pnr string, coachNo string, berthNo int) (Response, error) {
	notification, err := s.Workflow.Offer(pnr, coachNo, berthNo)

	return s.complete(ctx, "offer-upgrade", err, notification,
		fmt.Sprintf("Berth %s offered to %s", rail.BerthLabel(coachNo, berthNo), pnr))
}

func (s *Service) RespondToUpgrade(ctx context.Context, pnr string, accept bool, reason string) (Response, error) {
	notification, err := s.Workflow.Respond(pnr, accept, reason)

	message := fmt.Sprintf("%s declined the upgrade", pnr)
	if accept {
		message = fmt.Sprintf("%s accepted the upgrade", pnr)
		if notification.Status == rail.UpgradeStatusApproved {
			message = fmt.Sprintf("%s upgraded to %s", pnr, notification.ProposedBerthLabel())
		}
	}

	return s.complete(ctx, "respond-upgrade", err, notification, message)
}

func (s *Service) ConfirmUpgrade(ctx context.Context, pnr string) (Response, error) {
	notification, err := s.Workflow.Confirm(pnr)

	message := fmt.Sprintf("Upgrade for %s approved by TTE, waiting for the passenger", pnr)
	if notification.Status == rail.UpgradeStatusApproved {
		message = fmt.Sprintf("%s upgraded to %s", pnr, notification.ProposedBerthLabel())
	}

	return s.complete(ctx, "confirm-upgrade", err, notification, message)
}

func (s *Service) ConfirmAllBoarded(ctx context.Context) (Response, error) {
	var boarded []string
	err := s.Train.Write(func(state *train.State) error {
		var err error
		boarded, err = state.ConfirmAllBoarded()
		return err
	})

	return s.complete(ctx, "confirm-boarded", err, boarded, fmt.Sprintf("%d passengers boarded", len(boarded)))
}

func (s *Service) MarkNoShowFromQueue(ctx context.Context, pnr string) (Response, error) {
	var vacancy *rail.Vacancy
	err := s.Train.Write(func(state *train.State) error {
		var err error
		vacancy, err = state.MarkNoShowFromQueue(pnr)
		return err
	})

	return s.complete(ctx, "verification-no-show", err, vacancy, fmt.Sprintf("%s marked as no-show", pnr))
}

func (s *Service) AddToRACQueue(ctx context.Context, passenger *rail.Passenger) (Response, error) {
	if passenger == nil {
		return Response{Success: false, Message: "passenger is required", Kind: rail.ErrorKindValidation}, nil
	}

	result := racqueue.Add(s.Train, passenger)
	if !result.Success {
		return Response{Success: false, Message: result.Message, Kind: result.Kind}, nil
	}

	return s.complete(ctx, "rac-add", nil, result.Passenger, result.Message)
}

func (s *Service) RemoveFromRACQueue(ctx context.Context, pnr string) (Response, error) {
	result := racqueue.Remove(s.Train, pnr)
	if !result.Success {
		return Response{Success: false, Message: result.Message, Kind: result.Kind}, nil
	}

	return s.complete(ctx, "rac-remove", nil, result.Passenger, result.Message)
}

func (s *Service) Reset(ctx context.Context) (Response, error) {
	err := s.Train.Reset()

	return s.complete(ctx, "reset", err, s.Train.Stats(), "Journey reset")
}
