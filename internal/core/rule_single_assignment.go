package core

import (
	"context"
	"fmt"

	"siteledger/pkg/domain"
)

const singleAssignmentName = "single_assignment"

// SingleAssignmentRule blocks states where a worker or machine is listed by
// more than one site, or where a site's sets disagree with the subject's own
// site reference.
func SingleAssignmentRule() domain.Rule {
	return singleAssignmentRule{}
}

type singleAssignmentRule struct{}

func (singleAssignmentRule) Name() string { return singleAssignmentName }

func (singleAssignmentRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	workerSites := make(map[string]*string)
	for _, w := range view.ListWorkers() {
		workerSites[w.ID] = w.SiteID
	}
	machineSites := make(map[string]*string)
	for _, m := range view.ListMachines() {
		machineSites[m.ID] = m.SiteID
	}

	res := domain.Result{}
	check := func(kind domain.SubjectKind, live map[string]*string, siteID string, members []string, owners map[string]string) {
		entity := kind.EntityType()
		for _, id := range members {
			if other, dup := owners[id]; dup {
				res.Violations = append(res.Violations, blockf(singleAssignmentName, domain.ErrInvalidReference, entity, id,
					fmt.Sprintf("%s %s assigned to both %s and %s", kind, id, other, siteID)))
				continue
			}
			owners[id] = siteID
			current, ok := live[id]
			switch {
			case !ok:
				res.Violations = append(res.Violations, blockf(singleAssignmentName, domain.ErrInvalidReference, entity, id,
					fmt.Sprintf("site %s lists missing %s %s", siteID, kind, id)))
			case current == nil || *current != siteID:
				res.Violations = append(res.Violations, blockf(singleAssignmentName, domain.ErrInvalidReference, entity, id,
					fmt.Sprintf("site %s lists %s %s whose site is %s", siteID, kind, id, siteLabel(current))))
			}
		}
	}

	workerOwners := make(map[string]string)
	machineOwners := make(map[string]string)
	for _, site := range view.ListSites() {
		check(domain.SubjectWorker, workerSites, site.ID, site.WorkerIDs, workerOwners)
		check(domain.SubjectMachine, machineSites, site.ID, site.MachineIDs, machineOwners)
	}

	orphan := func(kind domain.SubjectKind, live map[string]*string, owners map[string]string) {
		for id, siteID := range live {
			if siteID == nil {
				continue
			}
			if _, ok := owners[id]; !ok {
				res.Violations = append(res.Violations, blockf(singleAssignmentName, domain.ErrInvalidReference, kind.EntityType(), id,
					fmt.Sprintf("%s %s points at site %s which does not list it", kind, id, *siteID)))
			}
		}
	}
	orphan(domain.SubjectWorker, workerSites, workerOwners)
	orphan(domain.SubjectMachine, machineSites, machineOwners)
	return res, nil
}

func siteLabel(id *string) string {
	if id == nil {
		return "unassigned"
	}
	return *id
}
