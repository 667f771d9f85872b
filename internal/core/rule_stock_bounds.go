package core

import (
	"context"
	"fmt"

	"siteledger/pkg/domain"
)

const stockBoundsName = "stock_bounds"

// StockBoundsRule keeps current stock non-negative and thresholds ordered.
// Thresholds are only checked when an item is created or they change.
func StockBoundsRule() domain.Rule {
	return stockBoundsRule{}
}

type stockBoundsRule struct{}

func (stockBoundsRule) Name() string { return stockBoundsName }

func (stockBoundsRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		after, ok := change.After.(domain.InventoryItem)
		if !ok {
			continue
		}
		if after.CurrentStock.IsNegative() {
			res.Violations = append(res.Violations, blockf(stockBoundsName, domain.ErrNegativeStock, domain.EntityInventoryItem, after.ID,
				fmt.Sprintf("item %s stock is negative (%s)", after.ID, after.CurrentStock)))
		}
		if before, ok := change.Before.(domain.InventoryItem); ok &&
			before.MinStock.Equal(after.MinStock) && before.MaxStock.Equal(after.MaxStock) {
			continue
		}
		if after.MinStock.IsNegative() {
			res.Violations = append(res.Violations, blockf(stockBoundsName, domain.ErrValidation, domain.EntityInventoryItem, after.ID,
				fmt.Sprintf("item %s minimum stock is negative (%s)", after.ID, after.MinStock)))
		}
		if after.MaxStock.LessThan(after.MinStock) {
			res.Violations = append(res.Violations, blockf(stockBoundsName, domain.ErrValidation, domain.EntityInventoryItem, after.ID,
				fmt.Sprintf("item %s maximum stock %s is below minimum %s", after.ID, after.MaxStock, after.MinStock)))
		}
	}
	return res, nil
}
