package core

import (
	"context"
	"fmt"

	"siteledger/pkg/domain"
)

const referentialIntegrityName = "referential_integrity"

// ReferentialIntegrityRule blocks changed records that point at missing ids.
func ReferentialIntegrityRule() domain.Rule {
	return referentialIntegrityRule{}
}

type referentialIntegrityRule struct{}

func (referentialIntegrityRule) Name() string { return referentialIntegrityName }

func (referentialIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	missing := func(entity EntityType, id, format string, args ...any) {
		res.Violations = append(res.Violations, blockf(referentialIntegrityName, domain.ErrInvalidReference, entity, id, fmt.Sprintf(format, args...)))
	}
	siteExists := func(id string) bool {
		_, ok := view.FindSite(id)
		return ok
	}

	for _, change := range changes {
		switch after := change.After.(type) {
		case domain.Worker:
			if after.SiteID != nil && !siteExists(*after.SiteID) {
				missing(domain.EntityWorker, after.ID, "worker %s assigned to missing site %s", after.ID, *after.SiteID)
			}
		case domain.Machine:
			if after.SiteID != nil && !siteExists(*after.SiteID) {
				missing(domain.EntityMachine, after.ID, "machine %s assigned to missing site %s", after.ID, *after.SiteID)
			}
		case domain.InventoryItem:
			if !siteExists(after.SiteID) {
				missing(domain.EntityInventoryItem, after.ID, "inventory item %s held at missing site %s", after.ID, after.SiteID)
			}
		case domain.StockMovement:
			if _, ok := view.FindInventoryItem(after.ItemID); !ok {
				missing(domain.EntityStockMovement, after.ID, "stock movement %s references missing item %s", after.ID, after.ItemID)
			}
		case domain.MaterialRequest:
			if !siteExists(after.SiteID) {
				missing(domain.EntityMaterialRequest, after.ID, "request %s targets missing site %s", after.ID, after.SiteID)
			}
			if src, ok := after.Source.SiteID(); ok && !siteExists(src) {
				missing(domain.EntityMaterialRequest, after.ID, "request %s sources from missing site %s", after.ID, src)
			}
		case domain.Transfer:
			if !siteExists(after.FromSiteID) {
				missing(domain.EntityTransfer, after.ID, "transfer %s leaves missing site %s", after.ID, after.FromSiteID)
			}
			if !siteExists(after.ToSiteID) {
				missing(domain.EntityTransfer, after.ID, "transfer %s targets missing site %s", after.ID, after.ToSiteID)
			}
			if !subjectExists(view, after.SubjectKind, after.SubjectID) {
				missing(domain.EntityTransfer, after.ID, "transfer %s moves missing %s %s", after.ID, after.SubjectKind, after.SubjectID)
			}
		case domain.Trip:
			supplier, ok := view.FindSupplier(after.SupplierID)
			if !ok {
				missing(domain.EntityTrip, after.ID, "trip %s references missing supplier %s", after.ID, after.SupplierID)
			} else if _, ok := supplier.Vehicle(after.VehicleID); !ok {
				missing(domain.EntityTrip, after.ID, "trip %s references vehicle %s not owned by supplier %s", after.ID, after.VehicleID, supplier.ID)
			}
			if !siteExists(after.DestinationSiteID) {
				missing(domain.EntityTrip, after.ID, "trip %s delivers to missing site %s", after.ID, after.DestinationSiteID)
			}
		}
	}
	return res, nil
}

func subjectExists(view domain.RuleView, kind domain.SubjectKind, id string) bool {
	switch kind {
	case domain.SubjectWorker:
		_, ok := view.FindWorker(id)
		return ok
	case domain.SubjectMachine:
		_, ok := view.FindMachine(id)
		return ok
	}
	return false
}
