package core

import (
	"context"
	"strings"

	"siteledger/pkg/domain"
)

// CreateTransfer stores a pending transfer after checking that the subject
// currently sits at the transfer's from-site.
func (s *Service) CreateTransfer(ctx context.Context, t Transfer) (Transfer, Result, error) {
	var created Transfer
	res, err := s.run(ctx, OpCreateTransfer, t.ID, func(tx Transaction) (string, error) {
		switch {
		case !t.SubjectKind.Valid():
			return "", domain.Errorf(domain.ErrValidation, domain.EntityTransfer, t.ID, "unknown subject kind %q", t.SubjectKind)
		case strings.TrimSpace(t.SubjectID) == "":
			return "", domain.Errorf(domain.ErrValidation, domain.EntityTransfer, t.ID, "subject id is required")
		case t.FromSiteID == t.ToSiteID:
			return "", domain.Errorf(domain.ErrValidation, domain.EntityTransfer, t.ID, "transfer cannot start and end at site %q", t.FromSiteID)
		}
		view := tx.Snapshot()
		for _, siteID := range []string{t.FromSiteID, t.ToSiteID} {
			if _, ok := view.FindSite(siteID); !ok {
				return "", domain.Errorf(domain.ErrInvalidReference, domain.EntitySite, siteID, "site %q does not exist", siteID)
			}
		}
		live, ok := liveSite(view, t.SubjectKind, t.SubjectID)
		if !ok {
			return "", domain.Errorf(domain.ErrInvalidReference, t.SubjectKind.EntityType(), t.SubjectID, "%s %q does not exist", t.SubjectKind, t.SubjectID)
		}
		if live == nil || *live != t.FromSiteID {
			return "", staleSite(t, live)
		}

		t.Status = domain.TransferPending
		t.ApprovedBy = nil
		t.CompletedDate = nil
		t.RejectionReason = ""
		if t.ScheduledDate.IsZero() {
			t.ScheduledDate = tx.Now()
		}
		var err error
		created, err = tx.CreateTransfer(t)
		return created.ID, err
	})
	return created, res, err
}

// ApproveTransfer moves a pending transfer to approved.
func (s *Service) ApproveTransfer(ctx context.Context, id, approver string) (Transfer, Result, error) {
	var updated Transfer
	res, err := s.run(ctx, OpApproveTransfer, id, func(tx Transaction) (string, error) {
		if strings.TrimSpace(approver) == "" {
			return "", domain.Errorf(domain.ErrValidation, domain.EntityTransfer, id, "approver is required")
		}
		var err error
		updated, err = transitionTransfer(tx, id, domain.TransferApproved, func(t *Transfer) {
			t.ApprovedBy = &approver
		})
		return updated.ID, err
	})
	return updated, res, err
}

// RejectTransfer moves a pending transfer to rejected.
func (s *Service) RejectTransfer(ctx context.Context, id, approver, reason string) (Transfer, Result, error) {
	var updated Transfer
	res, err := s.run(ctx, OpRejectTransfer, id, func(tx Transaction) (string, error) {
		if strings.TrimSpace(approver) == "" {
			return "", domain.Errorf(domain.ErrValidation, domain.EntityTransfer, id, "approver is required")
		}
		var err error
		updated, err = transitionTransfer(tx, id, domain.TransferRejected, func(t *Transfer) {
			t.ApprovedBy = &approver
			t.RejectionReason = reason
		})
		return updated.ID, err
	})
	return updated, res, err
}

// AdvanceTransfer marks an approved transfer as in transit.
func (s *Service) AdvanceTransfer(ctx context.Context, id string) (Transfer, Result, error) {
	var updated Transfer
	res, err := s.run(ctx, OpAdvanceTransfer, id, func(tx Transaction) (string, error) {
		var err error
		updated, err = transitionTransfer(tx, id, domain.TransferInTransit, nil)
		return updated.ID, err
	})
	return updated, res, err
}

// CompleteTransfer reassigns the subject to the destination site. If the
// subject has left the from-site since the transfer was created the call
// fails with ErrStaleSiteReference and the transfer stays in transit.
func (s *Service) CompleteTransfer(ctx context.Context, id string) (Transfer, Result, error) {
	var updated Transfer
	res, err := s.run(ctx, OpCompleteTransfer, id, func(tx Transaction) (string, error) {
		view := tx.Snapshot()
		t, ok := view.FindTransfer(id)
		if !ok {
			return "", domain.NotFound(domain.EntityTransfer, id)
		}
		if !t.Status.CanTransitionTo(domain.TransferCompleted) {
			return "", invalidTransferTransition(t, domain.TransferCompleted)
		}
		live, ok := liveSite(view, t.SubjectKind, t.SubjectID)
		if !ok {
			return "", domain.Errorf(domain.ErrInvalidReference, t.SubjectKind.EntityType(), t.SubjectID, "%s %q no longer exists", t.SubjectKind, t.SubjectID)
		}
		if live == nil || *live != t.FromSiteID {
			return "", staleSite(t, live)
		}
		if err := tx.ReassignSite(t.SubjectKind, t.SubjectID, t.ToSiteID); err != nil {
			return "", err
		}
		now := tx.Now()
		var err error
		updated, err = transitionTransfer(tx, id, domain.TransferCompleted, func(t *Transfer) {
			t.CompletedDate = &now
		})
		return updated.ID, err
	})
	return updated, res, err
}

func transitionTransfer(tx Transaction, id string, next domain.TransferStatus, mutate func(*Transfer)) (Transfer, error) {
	return tx.UpdateTransfer(id, func(t *Transfer) error {
		if !t.Status.CanTransitionTo(next) {
			return invalidTransferTransition(*t, next)
		}
		t.Status = next
		if mutate != nil {
			mutate(t)
		}
		return nil
	})
}

func invalidTransferTransition(t Transfer, next domain.TransferStatus) error {
	return domain.Errorf(domain.ErrInvalidTransition, domain.EntityTransfer, t.ID,
		"transfer %s cannot move from %s to %s", t.ID, t.Status, next)
}

func staleSite(t Transfer, live *string) error {
	return domain.Errorf(domain.ErrStaleSiteReference, domain.EntityTransfer, t.ID,
		"%s %s is at %s, transfer expects %s", t.SubjectKind, t.SubjectID, siteLabel(live), t.FromSiteID)
}

// liveSite returns the subject's current site; ok is false when the subject
// does not exist.
func liveSite(view TransactionView, kind domain.SubjectKind, id string) (*string, bool) {
	switch kind {
	case domain.SubjectWorker:
		w, ok := view.FindWorker(id)
		return w.SiteID, ok
	case domain.SubjectMachine:
		m, ok := view.FindMachine(id)
		return m.SiteID, ok
	}
	return nil, false
}
