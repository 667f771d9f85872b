package core

import (
	"context"
	"fmt"

	"siteledger/pkg/domain"
)

const measurementBoundsName = "measurement_bounds"

// MeasurementBoundsRule rejects out-of-range readings and unknown enum values
// on changed records.
func MeasurementBoundsRule() domain.Rule {
	return measurementBoundsRule{}
}

type measurementBoundsRule struct{}

func (measurementBoundsRule) Name() string { return measurementBoundsName }

func (measurementBoundsRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	invalid := func(entity EntityType, id, format string, args ...any) {
		res.Violations = append(res.Violations, blockf(measurementBoundsName, domain.ErrValidation, entity, id, fmt.Sprintf(format, args...)))
	}

	for _, change := range changes {
		switch after := change.After.(type) {
		case domain.Site:
			if !after.Status.Valid() {
				invalid(domain.EntitySite, after.ID, "site %s has unknown status %q", after.ID, after.Status)
			}
			if !percent(after.Progress) {
				invalid(domain.EntitySite, after.ID, "site %s progress %d outside 0..100", after.ID, after.Progress)
			}
			for _, task := range after.Tasks {
				if !percent(task.Progress) {
					invalid(domain.EntitySite, after.ID, "task %q progress %d outside 0..100", task.Name, task.Progress)
				}
				if !task.Status.Valid() {
					invalid(domain.EntitySite, after.ID, "task %q has unknown status %q", task.Name, task.Status)
				}
				if !task.Phase.Valid() {
					invalid(domain.EntitySite, after.ID, "task %q has unknown phase %q", task.Name, task.Phase)
				}
			}
		case domain.Worker:
			if !after.Status.Valid() {
				invalid(domain.EntityWorker, after.ID, "worker %s has unknown status %q", after.ID, after.Status)
			}
		case domain.Machine:
			if !after.Status.Valid() {
				invalid(domain.EntityMachine, after.ID, "machine %s has unknown status %q", after.ID, after.Status)
			}
			if !percent(after.FuelLevel) {
				invalid(domain.EntityMachine, after.ID, "machine %s fuel level %d outside 0..100", after.ID, after.FuelLevel)
			}
			if after.HoursUsed < 0 {
				invalid(domain.EntityMachine, after.ID, "machine %s hours used %d is negative", after.ID, after.HoursUsed)
			}
		case domain.Supplier:
			if after.Rating < 0 || after.Rating > 5 {
				invalid(domain.EntitySupplier, after.ID, "supplier %s rating %.1f outside 0..5", after.ID, after.Rating)
			}
			for _, v := range after.Vehicles {
				if v.Capacity.IsNegative() {
					invalid(domain.EntitySupplier, after.ID, "vehicle %s capacity is negative", v.ID)
				}
			}
		case domain.MaterialRequest:
			if !after.Quantity.IsPositive() {
				invalid(domain.EntityMaterialRequest, after.ID, "request %s quantity must be positive", after.ID)
			}
			if !after.Priority.Valid() {
				invalid(domain.EntityMaterialRequest, after.ID, "request %s has unknown priority %q", after.ID, after.Priority)
			}
		case domain.Transfer:
			if !after.SubjectKind.Valid() {
				invalid(domain.EntityTransfer, after.ID, "transfer %s has unknown subject kind %q", after.ID, after.SubjectKind)
			}
			if after.FromSiteID == after.ToSiteID {
				invalid(domain.EntityTransfer, after.ID, "transfer %s starts and ends at site %s", after.ID, after.FromSiteID)
			}
		case domain.Trip:
			if !after.Quantity.IsPositive() {
				invalid(domain.EntityTrip, after.ID, "trip %s quantity must be positive", after.ID)
			}
		}
	}
	return res, nil
}

func percent(v int) bool { return v >= 0 && v <= 100 }
