package core

import (
	"context"
	"testing"

	"siteledger/pkg/domain"
)

func seedQueryFixture(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()
	svc := newTestService(t)
	mustSite(t, svc, "S1")
	mustSite(t, svc, "S2")
	mustWorker(t, svc, "W1", "S1")
	mustWorker(t, svc, "W2", "S1")
	mustItem(t, svc, "I1", "S1", "Cement", "2", "5", "50")
	mustItem(t, svc, "I2", "S1", "Sand", "1", "10", "40")
	mustItem(t, svc, "I3", "S2", "Cement", "30", "5", "50")

	requests := []MaterialRequest{
		{Base: Base{ID: "R1"}, SiteID: "S1", Material: "Cement", Quantity: dec("5"), Unit: "bags", Priority: domain.PriorityLow, RequestedBy: "Asha"},
		{Base: Base{ID: "R2"}, SiteID: "S1", Material: "Sand", Quantity: dec("5"), Unit: "t", Priority: domain.PriorityUrgent, Source: domain.FromSite("S2")},
		{Base: Base{ID: "R3"}, SiteID: "S2", Material: "Bricks", Quantity: dec("500"), Unit: "pcs", Priority: domain.PriorityHigh, Notes: "for boundary wall"},
	}
	for _, r := range requests {
		if _, _, err := svc.CreateMaterialRequest(ctx, r); err != nil {
			t.Fatalf("create %s: %v", r.ID, err)
		}
	}
	if _, _, err := svc.RejectRequest(ctx, "R3", "ops", "over budget"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, _, err := svc.CreateTransfer(ctx, Transfer{Base: Base{ID: "X1"}, SubjectKind: domain.SubjectWorker, SubjectID: "W2", FromSiteID: "S1", ToSiteID: "S2", Reason: "crane work"}); err != nil {
		t.Fatalf("create transfer: %v", err)
	}
	return svc
}

func TestListRequestsFilters(t *testing.T) {
	ctx := context.Background()
	svc := seedQueryFixture(t)

	ids := func(reqs []MaterialRequest) []string {
		out := make([]string, 0, len(reqs))
		for _, r := range reqs {
			out = append(out, r.ID)
		}
		return out
	}
	cases := []struct {
		name   string
		filter RequestFilter
		want   []string
	}{
		{"all by priority", RequestFilter{}, []string{"R2", "R3", "R1"}},
		{"status", RequestFilter{Status: domain.RequestPending}, []string{"R2", "R1"}},
		{"loose status", RequestFilter{Status: " Rejected "}, []string{"R3"}},
		{"upper priority", RequestFilter{Priority: "URGENT"}, []string{"R2"}},
		{"priority", RequestFilter{Priority: domain.PriorityHigh}, []string{"R3"}},
		{"site", RequestFilter{SiteID: "S2"}, []string{"R3"}},
		{"main yard", RequestFilter{Source: "main-yard"}, []string{"R3", "R1"}},
		{"peer source", RequestFilter{Source: "S2"}, []string{"R2"}},
		{"search notes", RequestFilter{Search: "WALL"}, []string{"R3"}},
		{"search requester", RequestFilter{Search: "asha"}, []string{"R1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.ListRequests(ctx, tc.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if g := ids(got); len(g) != len(tc.want) || (len(g) > 0 && g[0] != tc.want[0]) || (len(g) > 1 && g[1] != tc.want[1]) {
				t.Fatalf("expected %v, got %v", tc.want, g)
			}
		})
	}
}

func TestListTransfersFilters(t *testing.T) {
	ctx := context.Background()
	svc := seedQueryFixture(t)
	for _, filter := range []TransferFilter{{}, {SiteID: "S2"}, {SubjectKind: domain.SubjectWorker}, {Status: domain.TransferPending}, {Search: "crane"}} {
		got, err := svc.ListTransfers(ctx, filter)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 1 || got[0].ID != "X1" {
			t.Fatalf("filter %+v: expected X1, got %+v", filter, got)
		}
	}
	if _, _, err := svc.ApproveTransfer(ctx, "X1", "ops"); err != nil {
		t.Fatalf("approve transfer: %v", err)
	}
	if got, _ := svc.ListTransfers(ctx, TransferFilter{Status: "APPROVED"}); len(got) != 1 || got[0].ID != "X1" {
		t.Fatalf("expected X1 approved, got %+v", got)
	}
	got, _ := svc.ListTransfers(ctx, TransferFilter{SubjectKind: domain.SubjectMachine})
	if len(got) != 0 {
		t.Fatalf("expected no machine transfers, got %+v", got)
	}
}

func TestLowStockItemsSortedByShortfall(t *testing.T) {
	ctx := context.Background()
	svc := seedQueryFixture(t)
	low, err := svc.LowStockItems(ctx, "")
	if err != nil {
		t.Fatalf("low stock: %v", err)
	}
	if len(low) != 2 || low[0].Item.ID != "I2" || !low[0].Shortfall.Equal(dec("9")) || low[1].Item.ID != "I1" {
		t.Fatalf("unexpected low stock %+v", low)
	}
	if s2, _ := svc.LowStockItems(ctx, "S2"); len(s2) != 0 {
		t.Fatalf("expected S2 to be fully stocked, got %+v", s2)
	}
}

func TestInventoryOverviewTotals(t *testing.T) {
	svc := seedQueryFixture(t)
	overview, err := svc.InventoryOverview(context.Background())
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if len(overview) != 2 {
		t.Fatalf("expected two sites, got %d", len(overview))
	}
	s1 := overview[0]
	if s1.SiteID != "S1" || len(s1.Items) != 2 || s1.LowCount != 2 || !s1.TotalValue.Equal(dec("13.5")) {
		t.Fatalf("unexpected S1 overview %+v", s1)
	}
	if overview[1].Items[0].Status != domain.StockNormal {
		t.Fatalf("expected S2 cement normal, got %s", overview[1].Items[0].Status)
	}
}

func TestSiteProgressSummary(t *testing.T) {
	ctx := context.Background()
	svc := seedQueryFixture(t)
	if _, _, err := svc.UpdateSiteProgress(ctx, "S1", 60, []domain.ProgressTask{
		{Name: "Drain A", Phase: domain.PhaseDrainage, Status: domain.TaskCompleted, Progress: 100},
		{Name: "Cut B", Phase: domain.PhaseEarthMoving, Status: domain.TaskDelayed, Progress: 20},
	}); err != nil {
		t.Fatalf("progress: %v", err)
	}
	summary, err := svc.SiteProgressSummary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	s1 := summary[0]
	if s1.Progress != 60 || s1.Workers != 2 || s1.OpenRequests != 2 || s1.InFlightTransfers != 1 {
		t.Fatalf("unexpected S1 summary %+v", s1)
	}
	if s1.TasksByStatus[domain.TaskDelayed] != 1 || s1.TasksByPhase[domain.PhaseDrainage] != 1 {
		t.Fatalf("unexpected task counts %+v", s1)
	}
	if s2 := summary[1]; s2.OpenRequests != 0 || s2.InFlightTransfers != 1 {
		t.Fatalf("unexpected S2 summary %+v", s2)
	}
}

func TestSupplierTripSummary(t *testing.T) {
	ctx := context.Background()
	svc := seedQueryFixture(t)
	supplier, _, err := svc.AddSupplier(ctx, Supplier{Name: "Quarry Co", Rating: 4, Vehicles: []Vehicle{
		{LicensePlate: "KA-01", Capacity: dec("20"), DriverName: "Ravi"},
		{LicensePlate: "KA-02", Capacity: dec("10"), DriverName: "Meena"},
	}})
	if err != nil {
		t.Fatalf("add supplier: %v", err)
	}
	v1, v2 := supplier.Vehicles[0].ID, supplier.Vehicles[1].ID
	schedule := func(vehicle, qty string) Trip {
		trip, _, err := svc.ScheduleTrip(ctx, Trip{SupplierID: supplier.ID, VehicleID: vehicle, Material: "Gravel", Quantity: dec(qty), Unit: "tons", DestinationSiteID: "S2"})
		if err != nil {
			t.Fatalf("schedule: %v", err)
		}
		return trip
	}
	first := schedule(v1, "15")
	schedule(v2, "8")
	for i := 0; i < 2; i++ {
		if _, _, err := svc.AdvanceTrip(ctx, first.ID); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	summary, err := svc.SupplierTripSummary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary) != 1 {
		t.Fatalf("expected one supplier, got %d", len(summary))
	}
	got := summary[0]
	if got.Total != 2 || got.TripsByStatus[domain.TripCompleted] != 1 || got.TripsByStatus[domain.TripScheduled] != 1 {
		t.Fatalf("unexpected trip counts %+v", got)
	}
	if !got.Delivered["tons"].Equal(dec("15")) {
		t.Fatalf("expected 15 tons delivered, got %s", got.Delivered["tons"])
	}
	if got.Drivers[0].DriverName != "Ravi" || got.Drivers[0].Trips != 1 || got.Drivers[0].Completed != 1 || got.Drivers[1].Completed != 0 {
		t.Fatalf("unexpected driver totals %+v", got.Drivers)
	}
}

func TestDashboardCounts(t *testing.T) {
	svc := seedQueryFixture(t)
	counts, err := svc.DashboardCounts(context.Background())
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts.RequestsByStatus[domain.RequestPending] != 2 || counts.RequestsByStatus[domain.RequestRejected] != 1 {
		t.Fatalf("unexpected request counts %+v", counts.RequestsByStatus)
	}
	if counts.RequestsByPriority[domain.PriorityUrgent] != 1 || counts.TransfersByStatus[domain.TransferPending] != 1 {
		t.Fatalf("unexpected counts %+v", counts)
	}
	if counts.SitesByStatus[domain.SiteActive] != 2 || counts.WorkersByStatus[domain.WorkerActive] != 2 || counts.LowStock != 2 {
		t.Fatalf("unexpected counts %+v", counts)
	}
}

func TestListFiltersAcceptHyphenatedStatus(t *testing.T) {
	ctx := context.Background()
	svc := seedQueryFixture(t)
	if _, _, err := svc.ApproveRequest(ctx, "R1", "ops"); err != nil {
		t.Fatalf("approve request: %v", err)
	}
	if _, _, err := svc.AdvanceRequest(ctx, "R1"); err != nil {
		t.Fatalf("advance request: %v", err)
	}
	if _, _, err := svc.ApproveTransfer(ctx, "X1", "ops"); err != nil {
		t.Fatalf("approve transfer: %v", err)
	}
	if _, _, err := svc.AdvanceTransfer(ctx, "X1"); err != nil {
		t.Fatalf("advance transfer: %v", err)
	}

	for _, status := range []domain.RequestStatus{"in-progress", "In-Progress", domain.RequestInProgress} {
		got, err := svc.ListRequests(ctx, RequestFilter{Status: status})
		if err != nil {
			t.Fatalf("list requests: %v", err)
		}
		if len(got) != 1 || got[0].ID != "R1" {
			t.Fatalf("status %q: expected R1, got %+v", status, got)
		}
	}
	for _, status := range []domain.TransferStatus{"in-transit", "IN-TRANSIT", domain.TransferInTransit} {
		got, err := svc.ListTransfers(ctx, TransferFilter{Status: status})
		if err != nil {
			t.Fatalf("list transfers: %v", err)
		}
		if len(got) != 1 || got[0].ID != "X1" {
			t.Fatalf("status %q: expected X1, got %+v", status, got)
		}
	}
}
