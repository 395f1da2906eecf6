package upgrade

import (
	"github.com/travigo/trainrac/pkg/rail"
	"github.com/travigo/trainrac/pkg/train"
)

// Workflow runs each transition as one critical section on the train
type Workflow struct {
	train *train.Train
}

func NewWorkflow(t *train.Train) *Workflow {
	return &Workflow{train: t}
}

func (w *Workflow) Offer(pnr string, coachNo string, berthNo int) (rail.UpgradeNotification, error) {
	return w.transition(func(s *train.State) (*rail.UpgradeNotification, error) {
		return Offer(s, pnr, coachNo, berthNo)
	})
}

func (w *Workflow) Respond(pnr string, accept bool, reason string) (rail.UpgradeNotification, error) {
	return w.transition(func(s *train.State) (*rail.UpgradeNotification, error) {
		return Respond(s, pnr, accept, reason)
	})
}

func (w *Workflow) Confirm(pnr string) (rail.UpgradeNotification, error) {
	return w.transition(func(s *train.State) (*rail.UpgradeNotification, error) {
		return Confirm(s, pnr)
	})
}

// ExpireOverdue sweeps every overdue offer. Nothing requires it, expiry also happens lazily.
func (w *Workflow) ExpireOverdue() ([]rail.UpgradeNotification, error) {
	var expired []rail.UpgradeNotification
	err := w.train.Write(func(s *train.State) error {
		expired = copyAll(ExpireOverdue(s))
		return nil
	})
	return expired, err
}

func (w *Workflow) Pending() []rail.UpgradeNotification {
	var pending []rail.UpgradeNotification
	w.train.Read(func(s *train.State) {
		pending = copyAll(Pending(s))
	})
	return pending
}

func (w *Workflow) History(pnr string) []rail.UpgradeNotification {
	var history []rail.UpgradeNotification
	w.train.Read(func(s *train.State) {
		history = copyAll(History(s, pnr))
	})
	return history
}

func (w *Workflow) transition(fn func(*train.State) (*rail.UpgradeNotification, error)) (rail.UpgradeNotification, error) {
	var result rail.UpgradeNotification
	err := w.train.Write(func(s *train.State) error {
		notification, err := fn(s)
		if err != nil {
			return err
		}
		result = *notification
		return nil
	})
	return result, err
}

func copyAll(notifications []*rail.UpgradeNotification) []rail.UpgradeNotification {
	copies := make([]rail.UpgradeNotification, 0, len(notifications))
	for _, notification := range notifications {
		copies = append(copies, *notification)
	}
	return copies
}
