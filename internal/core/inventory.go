package core

import (
	"context"
	"strings"

	"siteledger/pkg/domain"

	"github.com/shopspring/decimal"
)

// AddInventoryItem defines a material at a site. The initial CurrentStock is
// booked through the ledger so every unit on hand has a movement behind it.
func (s *Service) AddInventoryItem(ctx context.Context, item InventoryItem) (InventoryItem, Result, error) {
	var created InventoryItem
	res, err := s.run(ctx, OpAddInventoryItem, item.ID, func(tx Transaction) (string, error) {
		item.Name = strings.TrimSpace(item.Name)
		item.Unit = strings.TrimSpace(item.Unit)
		switch {
		case item.Name == "":
			return "", domain.Errorf(domain.ErrValidation, domain.EntityInventoryItem, item.ID, "item name is required")
		case item.Unit == "":
			return "", domain.Errorf(domain.ErrValidation, domain.EntityInventoryItem, item.ID, "unit is required")
		case item.CurrentStock.IsNegative():
			return "", domain.Errorf(domain.ErrNegativeStock, domain.EntityInventoryItem, item.ID, "initial stock %s is negative", item.CurrentStock)
		}
		if err := validateThresholds(item.ID, item.MinStock, item.MaxStock); err != nil {
			return "", err
		}
		if existing, ok := findItemByName(tx.Snapshot(), item.SiteID, item.Name); ok {
			return "", domain.Errorf(domain.ErrValidation, domain.EntityInventoryItem, existing.ID,
				"site %s already stocks %q as item %s", item.SiteID, item.Name, existing.ID)
		}

		initial := item.CurrentStock
		item.CurrentStock = decimal.Zero
		var err error
		created, err = tx.CreateInventoryItem(item)
		if err != nil {
			return "", err
		}
		if initial.IsPositive() {
			created, err = tx.AdjustStock(created.ID, initial, domain.StockReason{Note: "initial stock"})
		}
		return created.ID, err
	})
	return created, res, err
}

// UpdateStock sets an item's stock to an absolute level, recording the
// difference in the ledger. A negative level fails with ErrNegativeStock.
func (s *Service) UpdateStock(ctx context.Context, itemID string, level decimal.Decimal, reason string) (InventoryItem, Result, error) {
	var updated InventoryItem
	res, err := s.run(ctx, OpUpdateStock, itemID, func(tx Transaction) (string, error) {
		item, ok := tx.Snapshot().FindInventoryItem(itemID)
		if !ok {
			return "", domain.NotFound(domain.EntityInventoryItem, itemID)
		}
		if level.IsNegative() {
			return "", domain.Errorf(domain.ErrNegativeStock, domain.EntityInventoryItem, itemID, "stock level %s is negative", level)
		}
		delta := level.Sub(item.CurrentStock)
		if delta.IsZero() {
			updated = item
			return item.ID, nil
		}
		if strings.TrimSpace(reason) == "" {
			reason = "manual stock update"
		}
		var err error
		updated, err = tx.AdjustStock(itemID, delta, domain.StockReason{Note: reason})
		return updated.ID, err
	})
	return updated, res, err
}

// SetStockThresholds replaces an item's minimum and maximum stock.
func (s *Service) SetStockThresholds(ctx context.Context, itemID string, minStock, maxStock decimal.Decimal) (InventoryItem, Result, error) {
	var updated InventoryItem
	res, err := s.run(ctx, OpSetStockThresholds, itemID, func(tx Transaction) (string, error) {
		if err := validateThresholds(itemID, minStock, maxStock); err != nil {
			return "", err
		}
		var err error
		updated, err = tx.UpdateInventoryItem(itemID, func(item *InventoryItem) error {
			item.MinStock = minStock
			item.MaxStock = maxStock
			return nil
		})
		return updated.ID, err
	})
	return updated, res, err
}

func validateThresholds(id string, minStock, maxStock decimal.Decimal) error {
	if minStock.IsNegative() {
		return domain.Errorf(domain.ErrValidation, domain.EntityInventoryItem, id, "minimum stock %s is negative", minStock)
	}
	if maxStock.LessThan(minStock) {
		return domain.Errorf(domain.ErrValidation, domain.EntityInventoryItem, id, "maximum stock %s is below minimum %s", maxStock, minStock)
	}
	return nil
}
