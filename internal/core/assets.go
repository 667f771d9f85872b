package core

import (
	"context"
	"strings"

	"siteledger/pkg/domain"
)

// AddWorker registers a worker, placing them at SiteID when one is given.
func (s *Service) AddWorker(ctx context.Context, w Worker) (Worker, Result, error) {
	var created Worker
	res, err := s.run(ctx, OpAddWorker, w.ID, func(tx Transaction) (string, error) {
		w.Name = strings.TrimSpace(w.Name)
		if w.Name == "" {
			return "", domain.Errorf(domain.ErrValidation, domain.EntityWorker, w.ID, "worker name is required")
		}
		var err error
		created, err = tx.CreateWorker(w)
		return created.ID, err
	})
	return created, res, err
}

// SetWorkerStatus changes a worker's availability.
func (s *Service) SetWorkerStatus(ctx context.Context, id string, status domain.WorkerStatus) (Worker, Result, error) {
	var updated Worker
	status = domain.WorkerStatus(domain.CanonicalLabel(string(status)))
	res, err := s.run(ctx, OpSetWorkerStatus, id, func(tx Transaction) (string, error) {
		if !status.Valid() {
			return "", domain.Errorf(domain.ErrValidation, domain.EntityWorker, id, "unknown worker status %q", status)
		}
		var err error
		updated, err = tx.UpdateWorker(id, func(w *Worker) error {
			w.Status = status
			return nil
		})
		return updated.ID, err
	})
	return updated, res, err
}

// AddMachine registers a machine, placing it at SiteID when one is given.
func (s *Service) AddMachine(ctx context.Context, m Machine) (Machine, Result, error) {
	var created Machine
	res, err := s.run(ctx, OpAddMachine, m.ID, func(tx Transaction) (string, error) {
		m.Name = strings.TrimSpace(m.Name)
		if m.Name == "" {
			return "", domain.Errorf(domain.ErrValidation, domain.EntityMachine, m.ID, "machine name is required")
		}
		var err error
		created, err = tx.CreateMachine(m)
		return created.ID, err
	})
	return created, res, err
}

// RecordMachineUsage adds hoursDelta to the machine's running hours and, when
// fuelLevel is non-nil, records the latest fuel reading.
func (s *Service) RecordMachineUsage(ctx context.Context, id string, hoursDelta int, fuelLevel *int) (Machine, Result, error) {
	var updated Machine
	res, err := s.run(ctx, OpRecordMachineUsage, id, func(tx Transaction) (string, error) {
		if hoursDelta < 0 {
			return "", domain.Errorf(domain.ErrValidation, domain.EntityMachine, id, "hours cannot decrease (%d)", hoursDelta)
		}
		if fuelLevel != nil && !percent(*fuelLevel) {
			return "", domain.Errorf(domain.ErrValidation, domain.EntityMachine, id, "fuel level %d outside 0..100", *fuelLevel)
		}
		var err error
		updated, err = tx.UpdateMachine(id, func(m *Machine) error {
			m.HoursUsed += hoursDelta
			if fuelLevel != nil {
				m.FuelLevel = *fuelLevel
			}
			return nil
		})
		return updated.ID, err
	})
	return updated, res, err
}

// SetMachineStatus changes a machine's condition. Moving into maintenance
// stamps the last maintenance date.
func (s *Service) SetMachineStatus(ctx context.Context, id string, status domain.MachineStatus) (Machine, Result, error) {
	var updated Machine
	res, err := s.run(ctx, OpSetMachineStatus, id, func(tx Transaction) (string, error) {
		if !status.Valid() {
			return "", domain.Errorf(domain.ErrValidation, domain.EntityMachine, id, "unknown machine status %q", status)
		}
		now := tx.Now()
		var err error
		updated, err = tx.UpdateMachine(id, func(m *Machine) error {
			if status == domain.MachineMaintenance && m.Status != domain.MachineMaintenance {
				m.LastMaintenance = &now
			}
			m.Status = status
			return nil
		})
		return updated.ID, err
	})
	return updated, res, err
}
