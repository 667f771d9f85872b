package core

import "context"

// ListRequests returns requests matching filter from a consistent snapshot.
func (s *Service) ListRequests(ctx context.Context, filter RequestFilter) ([]MaterialRequest, error) {
	var out []MaterialRequest
	err := s.view(ctx, "list_requests", func(v TransactionView) error {
		out = ListRequests(v, filter)
		return nil
	})
	return out, err
}

// ListTransfers returns transfers matching filter.
func (s *Service) ListTransfers(ctx context.Context, filter TransferFilter) ([]Transfer, error) {
	var out []Transfer
	err := s.view(ctx, "list_transfers", func(v TransactionView) error {
		out = ListTransfers(v, filter)
		return nil
	})
	return out, err
}

// LowStockItems lists items at or below minimum stock.
func (s *Service) LowStockItems(ctx context.Context, siteID string) ([]LowStockEntry, error) {
	var out []LowStockEntry
	err := s.view(ctx, "low_stock_items", func(v TransactionView) error {
		out = LowStockItems(v, siteID)
		return nil
	})
	return out, err
}

// InventoryOverview groups stock by site.
func (s *Service) InventoryOverview(ctx context.Context) ([]SiteInventory, error) {
	var out []SiteInventory
	err := s.view(ctx, "inventory_overview", func(v TransactionView) error {
		out = InventoryOverview(v)
		return nil
	})
	return out, err
}

// SiteProgressSummary rolls up every site.
func (s *Service) SiteProgressSummary(ctx context.Context) ([]SiteProgress, error) {
	var out []SiteProgress
	err := s.view(ctx, "site_progress_summary", func(v TransactionView) error {
		out = SiteProgressSummary(v)
		return nil
	})
	return out, err
}

// SupplierTripSummary totals trips per supplier and driver.
func (s *Service) SupplierTripSummary(ctx context.Context) ([]SupplierTrips, error) {
	var out []SupplierTrips
	err := s.view(ctx, "supplier_trip_summary", func(v TransactionView) error {
		out = SupplierTripSummary(v)
		return nil
	})
	return out, err
}

// DashboardCounts tallies records for the dashboard.
func (s *Service) DashboardCounts(ctx context.Context) (DashboardCounts, error) {
	var out DashboardCounts
	err := s.view(ctx, "dashboard_counts", func(v TransactionView) error {
		out = ComputeDashboardCounts(v)
		return nil
	})
	return out, err
}

// StockMovements returns the ledger for itemID.
func (s *Service) StockMovements(ctx context.Context, itemID string) ([]StockMovement, error) {
	var out []StockMovement
	err := s.view(ctx, "stock_movements", func(v TransactionView) error {
		var err error
		out, err = ItemMovements(v, itemID)
		return err
	})
	return out, err
}

// Snapshot returns read access to a consistent copy of the state.
func (s *Service) Snapshot(ctx context.Context, fn func(TransactionView) error) error {
	return s.view(ctx, "snapshot", fn)
}
