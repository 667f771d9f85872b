package core

import (
	"context"
	"fmt"

	"siteledger/pkg/domain"
)

const lifecycleTransitionName = "lifecycle_transition"

// LifecycleTransitionRule blocks illegal state transitions on workflow records.
func LifecycleTransitionRule() domain.Rule {
	return lifecycleTransitionRule{}
}

type lifecycleTransitionRule struct{}

type lifecycleMachine struct {
	label      string
	valid      func(state string) bool
	transition func(from, to string) bool
	extractor  func(payload any) (id string, state string, ok bool)
}

var lifecycleMachines = map[domain.EntityType]lifecycleMachine{
	domain.EntityMaterialRequest: {
		label: "material request",
		valid: func(state string) bool { return domain.RequestStatus(state).Valid() },
		transition: func(from, to string) bool {
			return domain.RequestStatus(from).CanTransitionTo(domain.RequestStatus(to))
		},
		extractor: func(payload any) (string, string, bool) {
			r, ok := payload.(domain.MaterialRequest)
			return r.ID, string(r.Status), ok
		},
	},
	domain.EntityTransfer: {
		label: "transfer",
		valid: func(state string) bool { return domain.TransferStatus(state).Valid() },
		transition: func(from, to string) bool {
			return domain.TransferStatus(from).CanTransitionTo(domain.TransferStatus(to))
		},
		extractor: func(payload any) (string, string, bool) {
			t, ok := payload.(domain.Transfer)
			return t.ID, string(t.Status), ok
		},
	},
	domain.EntityTrip: {
		label: "trip",
		valid: func(state string) bool { return domain.TripStatus(state).Valid() },
		transition: func(from, to string) bool {
			return domain.TripStatus(from).CanTransitionTo(domain.TripStatus(to))
		},
		extractor: func(payload any) (string, string, bool) {
			t, ok := payload.(domain.Trip)
			return t.ID, string(t.Status), ok
		},
	},
}

func (lifecycleTransitionRule) Name() string { return lifecycleTransitionName }

func (lifecycleTransitionRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		machine, ok := lifecycleMachines[change.Entity]
		if !ok {
			continue
		}
		afterID, afterState, ok := machine.extractor(change.After)
		if !ok {
			continue
		}
		if !machine.valid(afterState) {
			res.Violations = append(res.Violations, blockf(lifecycleTransitionName, domain.ErrInvalidTransition, change.Entity, afterID,
				fmt.Sprintf("%s %s is set to invalid state %q", machine.label, afterID, afterState)))
			continue
		}
		_, beforeState, ok := machine.extractor(change.Before)
		if !ok || beforeState == afterState {
			continue
		}
		if !machine.transition(beforeState, afterState) {
			res.Violations = append(res.Violations, blockf(lifecycleTransitionName, domain.ErrInvalidTransition, change.Entity, afterID,
				fmt.Sprintf("cannot move %s %s from %s to %s", machine.label, afterID, beforeState, afterState)))
		}
	}
	return res, nil
}
