package core

import (
	"sort"
	"strings"

	"siteledger/pkg/domain"

	"github.com/shopspring/decimal"
)

// RequestFilter narrows ListRequests. Zero fields match everything. Status
// accepts hyphenated labels and Source accepts "main-yard" or a site id.
type RequestFilter struct {
	Status   domain.RequestStatus
	Priority domain.Priority
	SiteID   string
	Source   string
	Search   string
}

// TransferFilter narrows ListTransfers. SiteID matches either end.
type TransferFilter struct {
	Status      domain.TransferStatus
	SubjectKind domain.SubjectKind
	SiteID      string
	Search      string
}

// LowStockEntry is an item at or below its minimum.
type LowStockEntry struct {
	Item      InventoryItem   `json:"item"`
	Shortfall decimal.Decimal `json:"shortfall"`
}

// ItemStock pairs an item with its derived stock status.
type ItemStock struct {
	Item   InventoryItem      `json:"item"`
	Status domain.StockStatus `json:"status"`
}

// SiteInventory summarizes the stock held at one site.
type SiteInventory struct {
	SiteID     string          `json:"site_id"`
	SiteName   string          `json:"site_name"`
	Items      []ItemStock     `json:"items"`
	LowCount   int             `json:"low_count"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// SiteProgress is the per-site rollup shown on the progress board.
type SiteProgress struct {
	SiteID            string                    `json:"site_id"`
	Name              string                    `json:"name"`
	Status            domain.SiteStatus         `json:"status"`
	Progress          int                       `json:"progress"`
	Workers           int                       `json:"workers"`
	Machines          int                       `json:"machines"`
	TasksByStatus     map[domain.TaskStatus]int `json:"tasks_by_status"`
	TasksByPhase      map[domain.TaskPhase]int  `json:"tasks_by_phase"`
	OpenRequests      int                       `json:"open_requests"`
	InFlightTransfers int                       `json:"in_flight_transfers"`
}

// DriverTrips totals trips per supplier vehicle and driver.
type DriverTrips struct {
	VehicleID    string `json:"vehicle_id"`
	LicensePlate string `json:"license_plate"`
	DriverName   string `json:"driver_name"`
	Trips        int    `json:"trips"`
	Completed    int    `json:"completed"`
}

// SupplierTrips totals one supplier's delivery activity. Delivered is keyed
// by unit and only counts completed trips.
type SupplierTrips struct {
	SupplierID    string                     `json:"supplier_id"`
	Name          string                     `json:"name"`
	Total         int                        `json:"total"`
	TripsByStatus map[domain.TripStatus]int  `json:"trips_by_status"`
	Delivered     map[string]decimal.Decimal `json:"delivered"`
	Drivers       []DriverTrips              `json:"drivers"`
}

// DashboardCounts feeds the dashboard tiles.
type DashboardCounts struct {
	RequestsByStatus   map[domain.RequestStatus]int  `json:"requests_by_status"`
	RequestsByPriority map[domain.Priority]int       `json:"requests_by_priority"`
	TransfersByStatus  map[domain.TransferStatus]int `json:"transfers_by_status"`
	SitesByStatus      map[domain.SiteStatus]int     `json:"sites_by_status"`
	WorkersByStatus    map[domain.WorkerStatus]int   `json:"workers_by_status"`
	MachinesByStatus   map[domain.MachineStatus]int  `json:"machines_by_status"`
	LowStock           int                           `json:"low_stock"`
}

// ListRequests returns matching requests, most urgent first and oldest first
// within a priority.
func ListRequests(view TransactionView, filter RequestFilter) []MaterialRequest {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	status := domain.RequestStatus(domain.CanonicalLabel(string(filter.Status)))
	out := make([]MaterialRequest, 0)
	for _, r := range view.ListMaterialRequests() {
		if status != "" && r.Status != status {
			continue
		}
		if filter.Priority != "" && r.Priority != domain.Priority(strings.ToLower(string(filter.Priority))) {
			continue
		}
		if filter.SiteID != "" && r.SiteID != filter.SiteID {
			continue
		}
		if filter.Source != "" && !matchesSource(r.Source, filter.Source) {
			continue
		}
		if search != "" && !containsAny(search, r.Material, r.RequestedBy, r.Notes, r.ID) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if ri, rj := out[i].Priority.Rank(), out[j].Priority.Rank(); ri != rj {
			return ri > rj
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func matchesSource(src domain.MaterialSource, want string) bool {
	if strings.EqualFold(want, domain.MainYardLabel) {
		return src.IsMainYard()
	}
	id, ok := src.SiteID()
	return ok && id == want
}

func containsAny(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// ListTransfers returns matching transfers ordered by scheduled date.
func ListTransfers(view TransactionView, filter TransferFilter) []Transfer {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	status := domain.TransferStatus(domain.CanonicalLabel(string(filter.Status)))
	out := make([]Transfer, 0)
	for _, t := range view.ListTransfers() {
		if status != "" && t.Status != status {
			continue
		}
		if filter.SubjectKind != "" && t.SubjectKind != filter.SubjectKind {
			continue
		}
		if filter.SiteID != "" && t.FromSiteID != filter.SiteID && t.ToSiteID != filter.SiteID {
			continue
		}
		if search != "" && !containsAny(search, t.SubjectID, t.RequestedBy, t.Reason, t.Notes, t.ID) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ScheduledDate.Equal(out[j].ScheduledDate) {
			return out[i].ScheduledDate.Before(out[j].ScheduledDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// LowStockItems lists items at or below their minimum, largest shortfall
// first. An empty siteID covers every site.
func LowStockItems(view TransactionView, siteID string) []LowStockEntry {
	out := make([]LowStockEntry, 0)
	for _, item := range view.ListInventoryItems() {
		if siteID != "" && item.SiteID != siteID {
			continue
		}
		if item.StockStatus() != domain.StockLow {
			continue
		}
		out = append(out, LowStockEntry{Item: item, Shortfall: item.MinStock.Sub(item.CurrentStock)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Shortfall.Cmp(out[j].Shortfall); c != 0 {
			return c > 0
		}
		if out[i].Item.Name != out[j].Item.Name {
			return out[i].Item.Name < out[j].Item.Name
		}
		return out[i].Item.ID < out[j].Item.ID
	})
	return out
}

// InventoryOverview groups items by site with their status and stock value.
func InventoryOverview(view TransactionView) []SiteInventory {
	bySite := make(map[string]*SiteInventory)
	out := make([]SiteInventory, 0)
	for _, site := range view.ListSites() {
		out = append(out, SiteInventory{SiteID: site.ID, SiteName: site.Name, Items: []ItemStock{}, TotalValue: decimal.Zero})
	}
	for i := range out {
		bySite[out[i].SiteID] = &out[i]
	}
	for _, item := range view.ListInventoryItems() {
		entry, ok := bySite[item.SiteID]
		if !ok {
			continue
		}
		status := item.StockStatus()
		entry.Items = append(entry.Items, ItemStock{Item: item, Status: status})
		if status == domain.StockLow {
			entry.LowCount++
		}
		entry.TotalValue = entry.TotalValue.Add(item.CurrentStock.Mul(item.UnitPrice))
	}
	return out
}

// SiteProgressSummary rolls up progress, headcount and open work per site.
func SiteProgressSummary(view TransactionView) []SiteProgress {
	openRequests := make(map[string]int)
	for _, r := range view.ListMaterialRequests() {
		if !r.Status.Terminal() {
			openRequests[r.SiteID]++
		}
	}
	inFlight := make(map[string]int)
	for _, t := range view.ListTransfers() {
		if t.Status.Terminal() {
			continue
		}
		inFlight[t.FromSiteID]++
		inFlight[t.ToSiteID]++
	}

	sites := view.ListSites()
	out := make([]SiteProgress, 0, len(sites))
	for _, site := range sites {
		entry := SiteProgress{
			SiteID:            site.ID,
			Name:              site.Name,
			Status:            site.Status,
			Progress:          site.Progress,
			Workers:           len(site.WorkerIDs),
			Machines:          len(site.MachineIDs),
			TasksByStatus:     make(map[domain.TaskStatus]int),
			TasksByPhase:      make(map[domain.TaskPhase]int),
			OpenRequests:      openRequests[site.ID],
			InFlightTransfers: inFlight[site.ID],
		}
		for _, task := range site.Tasks {
			entry.TasksByStatus[task.Status]++
			entry.TasksByPhase[task.Phase]++
		}
		out = append(out, entry)
	}
	return out
}

// SupplierTripSummary totals trips per supplier and per driver.
func SupplierTripSummary(view TransactionView) []SupplierTrips {
	suppliers := view.ListSuppliers()
	out := make([]SupplierTrips, 0, len(suppliers))
	index := make(map[string]int, len(suppliers))
	drivers := make(map[string]map[string]*DriverTrips, len(suppliers))
	for i, s := range suppliers {
		index[s.ID] = i
		entry := SupplierTrips{
			SupplierID:    s.ID,
			Name:          s.Name,
			TripsByStatus: make(map[domain.TripStatus]int),
			Delivered:     make(map[string]decimal.Decimal),
		}
		byVehicle := make(map[string]*DriverTrips, len(s.Vehicles))
		for _, v := range s.Vehicles {
			entry.Drivers = append(entry.Drivers, DriverTrips{VehicleID: v.ID, LicensePlate: v.LicensePlate, DriverName: v.DriverName})
		}
		for j := range entry.Drivers {
			byVehicle[entry.Drivers[j].VehicleID] = &entry.Drivers[j]
		}
		out = append(out, entry)
		drivers[s.ID] = byVehicle
	}

	for _, trip := range view.ListTrips() {
		i, ok := index[trip.SupplierID]
		if !ok {
			continue
		}
		entry := &out[i]
		entry.Total++
		entry.TripsByStatus[trip.Status]++
		driver := drivers[trip.SupplierID][trip.VehicleID]
		if driver != nil {
			driver.Trips++
		}
		if trip.Status != domain.TripCompleted {
			continue
		}
		if driver != nil {
			driver.Completed++
		}
		entry.Delivered[trip.Unit] = entry.Delivered[trip.Unit].Add(trip.Quantity)
	}
	return out
}

// ComputeDashboardCounts tallies records for the dashboard tiles.
func ComputeDashboardCounts(view TransactionView) DashboardCounts {
	counts := DashboardCounts{
		RequestsByStatus:   make(map[domain.RequestStatus]int),
		RequestsByPriority: make(map[domain.Priority]int),
		TransfersByStatus:  make(map[domain.TransferStatus]int),
		SitesByStatus:      make(map[domain.SiteStatus]int),
		WorkersByStatus:    make(map[domain.WorkerStatus]int),
		MachinesByStatus:   make(map[domain.MachineStatus]int),
	}
	for _, r := range view.ListMaterialRequests() {
		counts.RequestsByStatus[r.Status]++
		counts.RequestsByPriority[r.Priority]++
	}
	for _, t := range view.ListTransfers() {
		counts.TransfersByStatus[t.Status]++
	}
	for _, s := range view.ListSites() {
		counts.SitesByStatus[s.Status]++
	}
	for _, w := range view.ListWorkers() {
		counts.WorkersByStatus[w.Status]++
	}
	for _, m := range view.ListMachines() {
		counts.MachinesByStatus[m.Status]++
	}
	counts.LowStock = len(LowStockItems(view, ""))
	return counts
}

// ItemMovements returns the ledger for one item.
func ItemMovements(view TransactionView, itemID string) ([]StockMovement, error) {
	if _, ok := view.FindInventoryItem(itemID); !ok {
		return nil, domain.NotFound(domain.EntityInventoryItem, itemID)
	}
	return view.ListStockMovements(itemID), nil
}
