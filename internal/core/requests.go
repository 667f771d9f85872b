package core

import (
	"context"
	"strings"

	"siteledger/pkg/domain"

	"github.com/shopspring/decimal"
)

// CreateMaterialRequest validates and stores a new request in pending.
func (s *Service) CreateMaterialRequest(ctx context.Context, req MaterialRequest) (MaterialRequest, Result, error) {
	var created MaterialRequest
	res, err := s.run(ctx, OpCreateMaterialRequest, req.ID, func(tx Transaction) (string, error) {
		if err := validateRequestInput(&req); err != nil {
			return "", err
		}
		view := tx.Snapshot()
		if _, ok := view.FindSite(req.SiteID); !ok {
			return "", domain.Errorf(domain.ErrInvalidReference, domain.EntitySite, req.SiteID, "requesting site %q does not exist", req.SiteID)
		}
		if src, ok := req.Source.SiteID(); ok {
			if src == req.SiteID {
				return "", domain.Errorf(domain.ErrValidation, domain.EntityMaterialRequest, req.ID, "request cannot source material from its own site")
			}
			if _, ok := view.FindSite(src); !ok {
				return "", domain.Errorf(domain.ErrInvalidReference, domain.EntitySite, src, "source site %q does not exist", src)
			}
		}
		req.Status = domain.RequestPending
		req.ApprovedBy = nil
		req.ApprovedAt = nil
		req.RejectionReason = ""
		req.CompletedAt = nil
		var err error
		created, err = tx.CreateMaterialRequest(req)
		return created.ID, err
	})
	return created, res, err
}

func validateRequestInput(req *MaterialRequest) error {
	req.Material = strings.TrimSpace(req.Material)
	req.Unit = strings.TrimSpace(req.Unit)
	switch {
	case req.Material == "":
		return domain.Errorf(domain.ErrValidation, domain.EntityMaterialRequest, req.ID, "material is required")
	case req.Unit == "":
		return domain.Errorf(domain.ErrValidation, domain.EntityMaterialRequest, req.ID, "unit is required")
	case !req.Quantity.IsPositive():
		return domain.Errorf(domain.ErrValidation, domain.EntityMaterialRequest, req.ID, "quantity must be positive, got %s", req.Quantity)
	}
	if req.Priority == "" {
		req.Priority = domain.PriorityMedium
	}
	if !req.Priority.Valid() {
		return domain.Errorf(domain.ErrValidation, domain.EntityMaterialRequest, req.ID, "unknown priority %q", req.Priority)
	}
	return nil
}

// ApproveRequest moves a pending request to approved and records the approver.
func (s *Service) ApproveRequest(ctx context.Context, id, approver string) (MaterialRequest, Result, error) {
	var updated MaterialRequest
	res, err := s.run(ctx, OpApproveRequest, id, func(tx Transaction) (string, error) {
		if strings.TrimSpace(approver) == "" {
			return "", domain.Errorf(domain.ErrValidation, domain.EntityMaterialRequest, id, "approver is required")
		}
		now := tx.Now()
		var err error
		updated, err = transitionRequest(tx, id, domain.RequestApproved, func(r *MaterialRequest) {
			r.ApprovedBy = &approver
			r.ApprovedAt = &now
		})
		return updated.ID, err
	})
	return updated, res, err
}

// RejectRequest moves a pending request to rejected. Inventory is untouched.
func (s *Service) RejectRequest(ctx context.Context, id, approver, reason string) (MaterialRequest, Result, error) {
	var updated MaterialRequest
	res, err := s.run(ctx, OpRejectRequest, id, func(tx Transaction) (string, error) {
		if strings.TrimSpace(approver) == "" {
			return "", domain.Errorf(domain.ErrValidation, domain.EntityMaterialRequest, id, "approver is required")
		}
		now := tx.Now()
		var err error
		updated, err = transitionRequest(tx, id, domain.RequestRejected, func(r *MaterialRequest) {
			r.ApprovedBy = &approver
			r.ApprovedAt = &now
			r.RejectionReason = reason
		})
		return updated.ID, err
	})
	return updated, res, err
}

// AdvanceRequest marks an approved request as in progress.
func (s *Service) AdvanceRequest(ctx context.Context, id string) (MaterialRequest, Result, error) {
	var updated MaterialRequest
	res, err := s.run(ctx, OpAdvanceRequest, id, func(tx Transaction) (string, error) {
		var err error
		updated, err = transitionRequest(tx, id, domain.RequestInProgress, nil)
		return updated.ID, err
	})
	return updated, res, err
}

// CompleteRequest delivers the requested quantity to the requesting site and,
// for peer-site sources, draws it from the source site in the same
// transaction. A short source fails with ErrInsufficientSource.
func (s *Service) CompleteRequest(ctx context.Context, id string) (MaterialRequest, Result, error) {
	var updated MaterialRequest
	res, err := s.run(ctx, OpCompleteRequest, id, func(tx Transaction) (string, error) {
		view := tx.Snapshot()
		req, ok := view.FindMaterialRequest(id)
		if !ok {
			return "", domain.NotFound(domain.EntityMaterialRequest, id)
		}
		if !req.Status.CanTransitionTo(domain.RequestCompleted) {
			return "", invalidRequestTransition(req, domain.RequestCompleted)
		}

		reqID := req.ID
		var template *InventoryItem
		if src, ok := req.Source.SiteID(); ok {
			item, found := findItemByName(view, src, req.Material)
			if !found || item.CurrentStock.LessThan(req.Quantity) {
				have := decimal.Zero
				if found {
					have = item.CurrentStock
				}
				return "", domain.Errorf(domain.ErrInsufficientSource, domain.EntityMaterialRequest, id,
					"source site %s holds %s %s of %q, request needs %s", src, have, req.Unit, req.Material, req.Quantity)
			}
			if _, err := tx.AdjustStock(item.ID, req.Quantity.Neg(), domain.StockReason{Note: "dispatched for request " + id, RequestID: &reqID}); err != nil {
				return "", err
			}
			template = &item
		}

		dest, err := ensureSiteItem(tx, req.SiteID, req.Material, req.Unit, req.Quantity, template)
		if err != nil {
			return "", err
		}
		if _, err := tx.AdjustStock(dest.ID, req.Quantity, domain.StockReason{Note: "delivered for request " + id, RequestID: &reqID}); err != nil {
			return "", err
		}

		now := tx.Now()
		updated, err = transitionRequest(tx, id, domain.RequestCompleted, func(r *MaterialRequest) {
			r.CompletedAt = &now
		})
		return updated.ID, err
	})
	return updated, res, err
}

func transitionRequest(tx Transaction, id string, next domain.RequestStatus, mutate func(*MaterialRequest)) (MaterialRequest, error) {
	return tx.UpdateMaterialRequest(id, func(r *MaterialRequest) error {
		if !r.Status.CanTransitionTo(next) {
			return invalidRequestTransition(*r, next)
		}
		r.Status = next
		if mutate != nil {
			mutate(r)
		}
		return nil
	})
}

func invalidRequestTransition(r MaterialRequest, next domain.RequestStatus) error {
	return domain.Errorf(domain.ErrInvalidTransition, domain.EntityMaterialRequest, r.ID,
		"request %s cannot move from %s to %s", r.ID, r.Status, next)
}

// findItemByName matches material names case-insensitively within one site.
func findItemByName(view TransactionView, siteID, name string) (InventoryItem, bool) {
	for _, item := range view.ListInventoryItems() {
		if item.SiteID == siteID && strings.EqualFold(strings.TrimSpace(item.Name), strings.TrimSpace(name)) {
			return item, true
		}
	}
	return InventoryItem{}, false
}

// ensureSiteItem returns the site's item for material, creating an empty one
// when the site has never stocked it. Thresholds come from template, then any
// same-named item elsewhere, else min 0 and max quantity.
func ensureSiteItem(tx Transaction, siteID, material, unit string, quantity decimal.Decimal, template *InventoryItem) (InventoryItem, error) {
	view := tx.Snapshot()
	if item, ok := findItemByName(view, siteID, material); ok {
		return item, nil
	}
	if template == nil {
		for _, item := range view.ListInventoryItems() {
			if strings.EqualFold(strings.TrimSpace(item.Name), strings.TrimSpace(material)) {
				item := item
				template = &item
				break
			}
		}
	}
	item := InventoryItem{
		Name:     material,
		Unit:     unit,
		SiteID:   siteID,
		MinStock: decimal.Zero,
		MaxStock: quantity,
	}
	if template != nil {
		item.Category = template.Category
		item.Supplier = template.Supplier
		item.UnitPrice = template.UnitPrice
		item.MinStock = template.MinStock
		item.MaxStock = template.MaxStock
		if template.Unit != "" {
			item.Unit = template.Unit
		}
	}
	return tx.CreateInventoryItem(item)
}
