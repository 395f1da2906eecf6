// Package upgrade runs the dual approval workflow for RAC upgrade offers.
//
// An offer starts PENDING. The passenger may accept or deny it and the TTE confirms it, in either
// order. The berth is only reassigned once both sides have approved. Offers past their expiry are
// moved to EXPIRED the next time anything touches them.
package upgrade

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/travigo/trainrac/pkg/berthallocator"
	"github.com/travigo/trainrac/pkg/rail"
	"github.com/travigo/trainrac/pkg/train"
	"golang.org/x/exp/slices"
)

// Offer creates a PENDING notification proposing the berth to a RAC passenger
func Offer(s *train.State, pnr string, coachNo string, berthNo int) (*rail.UpgradeNotification, error) {
	if err := s.RequireStarted(); err != nil {
		return nil, err
	}

	expireFor(s, pnr)

	passenger := s.Passenger(pnr)
	if passenger == nil {
		return nil, rail.NewNotFoundError("passenger %s not found", pnr)
	}
	if passenger.PNRStatus != rail.PNRStatusRAC {
		return nil, rail.NewStateConflictError("passenger %s is %s, only RAC passengers can be offered an upgrade", pnr, passenger.PNRStatus)
	}
	if !passenger.Travelling() || passenger.ToIdx <= s.CurrentStationIdx {
		return nil, rail.NewStateConflictError("passenger %s is no longer travelling", pnr)
	}
	if _, exists := pendingFor(s, pnr); exists {
		return nil, rail.NewStateConflictError("passenger %s already has a pending upgrade offer", pnr)
	}

	berth := s.Berth(coachNo, berthNo)
	if berth == nil {
		return nil, rail.NewNotFoundError("berth %s not found", rail.BerthLabel(coachNo, berthNo))
	}

	fromIdx := passenger.FromIdx
	if fromIdx < s.CurrentStationIdx {
		fromIdx = s.CurrentStationIdx
	}
	if err := berthallocator.ValidateSegment(berth, passenger, s, fromIdx, passenger.ToIdx, rail.SegmentRoleConfirmed); err != nil {
		return nil, err
	}
	if holder, reserved := Reserved(s, coachNo, berthNo, fromIdx, passenger.ToIdx); reserved {
		return nil, rail.NewStateConflictError("berth %s is reserved for %s", berth.Label(), holder.PNR)
	}

	currentBerth := passenger.BerthLabel()
	if currentBerth == "" {
		currentBerth = passenger.RACStatus()
	}

	now := s.Now()
	notification := &rail.UpgradeNotification{
		ID:                uuid.NewString(),
		PNR:               pnr,
		PassengerName:     passenger.Name,
		CurrentBerth:      currentBerth,
		ProposedCoach:     coachNo,
		ProposedBerth:     berthNo,
		ProposedBerthType: berth.Type,
		StationCode:       s.CurrentStation().Code,
		Status:            rail.UpgradeStatusPending,
		VacancyFromIdx:    fromIdx,
		VacancyToIdx:      passenger.ToIdx,
		CreatedAt:         now,
		ExpiresAt:         now.Add(s.OfferTTL()),
	}
	s.Notifications = append(s.Notifications, notification)

	s.Emit(rail.EventTypeUpgradeOffered, pnr, fmt.Sprintf("Berth %s offered to %s", berth.Label(), passenger.Name), map[string]interface{}{
		"notification": notification.ID,
		"berth":        berth.Label(),
		"berthType":    string(berth.Type),
		"expiresAt":    notification.ExpiresAt,
	})

	log.Info().
		Str("pnr", pnr).
		Str("berth", berth.Label()).
		Time("expires", notification.ExpiresAt).
		Msg("Upgrade offered")

	return notification, nil
}

// Respond records the passenger's answer to their pending offer
func Respond(s *train.State, pnr string, accept bool, reason string) (*rail.UpgradeNotification, error) {
	notification, err := active(s, pnr)
	if err != nil {
		return nil, err
	}

	if !accept {
		now := s.Now()
		notification.Status = rail.UpgradeStatusRejected
		notification.RespondedAt = &now
		notification.DenialReason = reason

		s.Emit(rail.EventTypeUpgradeRejected, pnr, fmt.Sprintf("%s declined berth %s", notification.PassengerName, notification.ProposedBerthLabel()), map[string]interface{}{
			"notification": notification.ID,
			"reason":       reason,
		})
		return notification, nil
	}

	if notification.PassengerApproved {
		return nil, rail.NewStateConflictError("passenger %s has already accepted the offer", pnr)
	}

	if notification.TTEApproved {
		if err := commit(s, notification); err != nil {
			return nil, err
		}
	}

	notification.PassengerApproved = true
	s.Emit(rail.EventTypeUpgradeAccepted, pnr, fmt.Sprintf("%s accepted berth %s", notification.PassengerName, notification.ProposedBerthLabel()), map[string]interface{}{
		"notification": notification.ID,
	})

	return notification, nil
}

// Confirm records the TTE's approval of the pending offer
func Confirm(s *train.State, pnr string) (*rail.UpgradeNotification, error) {
	notification, err := active(s, pnr)
	if err != nil {
		return nil, err
	}

	if notification.TTEApproved {
		return nil, rail.NewStateConflictError("upgrade for %s is already confirmed by the TTE", pnr)
	}

	if notification.PassengerApproved {
		if err := commit(s, notification); err != nil {
			return nil, err
		}
	}

	notification.TTEApproved = true

	return notification, nil
}

// commit applies the reassignment. The notification is only updated when the allocation succeeds.
func commit(s *train.State, notification *rail.UpgradeNotification) error {
	if err := s.Allocate(notification.PNR, notification.ProposedCoach, notification.ProposedBerth); err != nil {
		return err
	}

	now := s.Now()
	notification.Status = rail.UpgradeStatusApproved
	notification.RespondedAt = &now

	s.Emit(rail.EventTypeUpgradeConfirmed, notification.PNR, fmt.Sprintf("%s moved to %s", notification.PassengerName, notification.ProposedBerthLabel()), map[string]interface{}{
		"notification": notification.ID,
		"berth":        notification.ProposedBerthLabel(),
	})

	log.Info().
		Str("pnr", notification.PNR).
		Str("berth", notification.ProposedBerthLabel()).
		Msg("Upgrade approved")

	return nil
}

// active returns the PENDING notification for pnr after applying any expiry
func active(s *train.State, pnr string) (*rail.UpgradeNotification, error) {
	if err := s.RequireStarted(); err != nil {
		return nil, err
	}

	expireFor(s, pnr)

	if notification, ok := pendingFor(s, pnr); ok {
		return notification, nil
	}

	history := History(s, pnr)
	if len(history) == 0 {
		return nil, rail.NewNotFoundError("no upgrade offer found for %s", pnr)
	}

	latest := history[len(history)-1]
	return nil, rail.NewStateConflictError("upgrade offer for %s is %s", pnr, latest.Status)
}

func pendingFor(s *train.State, pnr string) (*rail.UpgradeNotification, bool) {
	for _, notification := range s.Notifications {
		if notification.PNR == pnr && notification.Status == rail.UpgradeStatusPending {
			return notification, true
		}
	}
	return nil, false
}

func expireFor(s *train.State, pnr string) {
	for _, notification := range s.Notifications {
		if notification.PNR == pnr {
			expire(s, notification)
		}
	}
}

func expire(s *train.State, notification *rail.UpgradeNotification) bool {
	if !notification.Overdue(s.Now()) {
		return false
	}

	notification.Status = rail.UpgradeStatusExpired
	s.Emit(rail.EventTypeUpgradeExpired, notification.PNR, fmt.Sprintf("Offer of %s to %s expired", notification.ProposedBerthLabel(), notification.PassengerName), map[string]interface{}{
		"notification": notification.ID,
	})
	return true
}

// ExpireOverdue moves every overdue offer to EXPIRED and returns them
func ExpireOverdue(s *train.State) []*rail.UpgradeNotification {
	var expired []*rail.UpgradeNotification
	for _, notification := range s.Notifications {
		if expire(s, notification) {
			expired = append(expired, notification)
		}
	}
	return expired
}

// HasPending reports whether pnr holds a live PENDING offer
func HasPending(s *train.State, pnr string) bool {
	notification, ok := pendingFor(s, pnr)
	return ok && !notification.Overdue(s.Now())
}

// Reserved returns the live offer holding any part of [fromIdx, toIdx) on the berth
func Reserved(s *train.State, coachNo string, berthNo int, fromIdx int, toIdx int) (*rail.UpgradeNotification, bool) {
	now := s.Now()
	for _, notification := range s.Notifications {
		if notification.Status != rail.UpgradeStatusPending || notification.Overdue(now) {
			continue
		}
		if notification.ProposedCoach != coachNo || notification.ProposedBerth != berthNo {
			continue
		}
		if notification.VacancyFromIdx < toIdx && fromIdx < notification.VacancyToIdx {
			return notification, true
		}
	}
	return nil, false
}

// Declined reports whether pnr has already rejected an offer of this berth
func Declined(s *train.State, pnr string, coachNo string, berthNo int) bool {
	for _, notification := range s.Notifications {
		if notification.PNR == pnr && notification.Status == rail.UpgradeStatusRejected &&
			notification.ProposedCoach == coachNo && notification.ProposedBerth == berthNo {
			return true
		}
	}
	return false
}

// Pending lists live offers awaiting a decision. Overdue offers are left out without being expired.
func Pending(s *train.State) []*rail.UpgradeNotification {
	now := s.Now()
	var pending []*rail.UpgradeNotification
	for _, notification := range s.Notifications {
		if notification.Status == rail.UpgradeStatusPending && !notification.Overdue(now) {
			pending = append(pending, notification)
		}
	}
	return pending
}

// History lists every offer made to pnr, oldest first
func History(s *train.State, pnr string) []*rail.UpgradeNotification {
	var history []*rail.UpgradeNotification
	for _, notification := range s.Notifications {
		if notification.PNR == pnr {
			history = append(history, notification)
		}
	}
	slices.SortStableFunc(history, func(a, b *rail.UpgradeNotification) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return history
}
