package core

import (
	"context"
	"strings"

	"siteledger/pkg/domain"
)

// AddSupplier registers a supplier and its vehicles.
func (s *Service) AddSupplier(ctx context.Context, supplier Supplier) (Supplier, Result, error) {
	var created Supplier
	res, err := s.run(ctx, OpAddSupplier, supplier.ID, func(tx Transaction) (string, error) {
		supplier.Name = strings.TrimSpace(supplier.Name)
		if supplier.Name == "" {
			return "", domain.Errorf(domain.ErrValidation, domain.EntitySupplier, supplier.ID, "supplier name is required")
		}
		if supplier.Rating < 0 || supplier.Rating > 5 {
			return "", domain.Errorf(domain.ErrValidation, domain.EntitySupplier, supplier.ID, "rating %.1f outside 0..5", supplier.Rating)
		}
		for _, v := range supplier.Vehicles {
			if strings.TrimSpace(v.LicensePlate) == "" {
				return "", domain.Errorf(domain.ErrValidation, domain.EntitySupplier, supplier.ID, "vehicle license plate is required")
			}
			if v.Capacity.IsNegative() {
				return "", domain.Errorf(domain.ErrValidation, domain.EntitySupplier, supplier.ID, "vehicle %s capacity is negative", v.LicensePlate)
			}
		}
		var err error
		created, err = tx.CreateSupplier(supplier)
		return created.ID, err
	})
	return created, res, err
}

// ScheduleTrip books a supplier vehicle to deliver material to a site.
func (s *Service) ScheduleTrip(ctx context.Context, trip Trip) (Trip, Result, error) {
	var created Trip
	res, err := s.run(ctx, OpScheduleTrip, trip.ID, func(tx Transaction) (string, error) {
		trip.Material = strings.TrimSpace(trip.Material)
		switch {
		case trip.Material == "":
			return "", domain.Errorf(domain.ErrValidation, domain.EntityTrip, trip.ID, "material is required")
		case !trip.Quantity.IsPositive():
			return "", domain.Errorf(domain.ErrValidation, domain.EntityTrip, trip.ID, "quantity must be positive, got %s", trip.Quantity)
		}
		view := tx.Snapshot()
		supplier, ok := view.FindSupplier(trip.SupplierID)
		if !ok {
			return "", domain.Errorf(domain.ErrInvalidReference, domain.EntitySupplier, trip.SupplierID, "supplier %q does not exist", trip.SupplierID)
		}
		vehicle, ok := supplier.Vehicle(trip.VehicleID)
		if !ok {
			return "", domain.Errorf(domain.ErrInvalidReference, domain.EntitySupplier, supplier.ID, "supplier %s has no vehicle %q", supplier.ID, trip.VehicleID)
		}
		if vehicle.Capacity.IsPositive() && trip.Quantity.GreaterThan(vehicle.Capacity) {
			return "", domain.Errorf(domain.ErrValidation, domain.EntityTrip, trip.ID,
				"quantity %s exceeds vehicle %s capacity %s", trip.Quantity, vehicle.LicensePlate, vehicle.Capacity)
		}
		if _, ok := view.FindSite(trip.DestinationSiteID); !ok {
			return "", domain.Errorf(domain.ErrInvalidReference, domain.EntitySite, trip.DestinationSiteID, "site %q does not exist", trip.DestinationSiteID)
		}
		trip.Status = domain.TripScheduled
		if trip.Date.IsZero() {
			trip.Date = tx.Now()
		}
		var err error
		created, err = tx.CreateTrip(trip)
		return created.ID, err
	})
	return created, res, err
}

// AdvanceTrip moves a trip to its next state. Completing a trip books the
// delivered quantity into the destination site's inventory.
func (s *Service) AdvanceTrip(ctx context.Context, id string) (Trip, Result, error) {
	var updated Trip
	res, err := s.run(ctx, OpAdvanceTrip, id, func(tx Transaction) (string, error) {
		trip, ok := tx.Snapshot().FindTrip(id)
		if !ok {
			return "", domain.NotFound(domain.EntityTrip, id)
		}
		next, ok := trip.Status.Next()
		if !ok {
			return "", domain.Errorf(domain.ErrInvalidTransition, domain.EntityTrip, id, "trip %s is already %s", id, trip.Status)
		}
		if next == domain.TripCompleted {
			dest, err := ensureSiteItem(tx, trip.DestinationSiteID, trip.Material, trip.Unit, trip.Quantity, nil)
			if err != nil {
				return "", err
			}
			if _, err := tx.AdjustStock(dest.ID, trip.Quantity, domain.StockReason{Note: "delivered by trip " + id}); err != nil {
				return "", err
			}
		}
		var err error
		updated, err = tx.UpdateTrip(id, func(t *Trip) error {
			t.Status = next
			return nil
		})
		return updated.ID, err
	})
	return updated, res, err
}
