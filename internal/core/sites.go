package core

import (
	"context"
	"strings"

	"siteledger/pkg/domain"
)

// AddSite registers a construction site. Assignment sets always start empty.
func (s *Service) AddSite(ctx context.Context, site Site) (Site, Result, error) {
	var created Site
	res, err := s.run(ctx, OpAddSite, site.ID, func(tx Transaction) (string, error) {
		site.Name = strings.TrimSpace(site.Name)
		if site.Name == "" {
			return "", domain.Errorf(domain.ErrValidation, domain.EntitySite, site.ID, "site name is required")
		}
		if site.Status == "" {
			site.Status = domain.SiteActive
		}
		if err := validateTasks(site.ID, site.Tasks); err != nil {
			return "", err
		}
		var err error
		created, err = tx.CreateSite(site)
		return created.ID, err
	})
	return created, res, err
}

// UpdateSiteProgress records the overall progress percentage. A non-nil tasks
// slice replaces the site's task list.
func (s *Service) UpdateSiteProgress(ctx context.Context, id string, progress int, tasks []domain.ProgressTask) (Site, Result, error) {
	var updated Site
	res, err := s.run(ctx, OpUpdateSiteProgress, id, func(tx Transaction) (string, error) {
		if !percent(progress) {
			return "", domain.Errorf(domain.ErrValidation, domain.EntitySite, id, "progress %d outside 0..100", progress)
		}
		if err := validateTasks(id, tasks); err != nil {
			return "", err
		}
		var err error
		updated, err = tx.UpdateSite(id, func(site *Site) error {
			site.Progress = progress
			if tasks != nil {
				site.Tasks = append([]domain.ProgressTask(nil), tasks...)
			}
			return nil
		})
		return updated.ID, err
	})
	return updated, res, err
}

// SetSiteStatus changes a site's operational status.
func (s *Service) SetSiteStatus(ctx context.Context, id string, status domain.SiteStatus) (Site, Result, error) {
	var updated Site
	res, err := s.run(ctx, OpSetSiteStatus, id, func(tx Transaction) (string, error) {
		if !status.Valid() {
			return "", domain.Errorf(domain.ErrValidation, domain.EntitySite, id, "unknown site status %q", status)
		}
		var err error
		updated, err = tx.UpdateSite(id, func(site *Site) error {
			site.Status = status
			return nil
		})
		return updated.ID, err
	})
	return updated, res, err
}

func validateTasks(siteID string, tasks []domain.ProgressTask) error {
	for i := range tasks {
		task := &tasks[i]
		task.Name = strings.TrimSpace(task.Name)
		if task.Name == "" {
			return domain.Errorf(domain.ErrValidation, domain.EntitySite, siteID, "task %d has no name", i)
		}
		task.Phase = domain.TaskPhase(domain.CanonicalLabel(string(task.Phase)))
		if task.Phase == "" {
			task.Phase = domain.PhaseGeneral
		}
		if !task.Phase.Valid() {
			return domain.Errorf(domain.ErrValidation, domain.EntitySite, siteID, "task %q has unknown phase %q", task.Name, task.Phase)
		}
		task.Status = domain.TaskStatus(domain.CanonicalLabel(string(task.Status)))
		if task.Status == "" {
			task.Status = domain.TaskPending
		}
		if !task.Status.Valid() {
			return domain.Errorf(domain.ErrValidation, domain.EntitySite, siteID, "task %q has unknown status %q", task.Name, task.Status)
		}
		if !percent(task.Progress) {
			return domain.Errorf(domain.ErrValidation, domain.EntitySite, siteID, "task %q progress %d outside 0..100", task.Name, task.Progress)
		}
	}
	return nil
}
