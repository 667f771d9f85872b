// Package domain defines the core persistent entities, value types, error
// kinds, and rule evaluation primitives used by siteledger.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntitySite identifies a construction site record.
	EntitySite EntityType = "site"
	// EntityWorker identifies a worker record.
	EntityWorker EntityType = "worker"
	// EntityMachine identifies a machine record.
	EntityMachine EntityType = "machine"
	// EntityInventoryItem identifies a per-site inventory item record.
	EntityInventoryItem EntityType = "inventory_item"
	// EntityStockMovement identifies a stock ledger entry.
	EntityStockMovement EntityType = "stock_movement"
	// EntityMaterialRequest identifies a material request record.
	EntityMaterialRequest EntityType = "material_request"
	// EntityTransfer identifies a worker or machine transfer record.
	EntityTransfer EntityType = "transfer"
	// EntitySupplier identifies a supplier record.
	EntitySupplier EntityType = "supplier"
	// EntityTrip identifies a supplier delivery trip record.
	EntityTrip EntityType = "trip"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Site is a construction project location. WorkerIDs and MachineIDs are the
// assignment sets; only the store mutates them.
type Site struct {
	Base
	Name       string         `json:"name"`
	Location   string         `json:"location"`
	Manager    string         `json:"manager"`
	Status     SiteStatus     `json:"status"`
	WorkerIDs  []string       `json:"worker_ids"`
	MachineIDs []string       `json:"machine_ids"`
	Progress   int            `json:"progress"`
	StartDate  *time.Time     `json:"start_date,omitempty"`
	EndDate    *time.Time     `json:"end_date,omitempty"`
	Tasks      []ProgressTask `json:"tasks,omitempty"`
}

// ProgressTask tracks one phase step reported for a site.
type ProgressTask struct {
	Name      string     `json:"name"`
	Phase     TaskPhase  `json:"phase"`
	Status    TaskStatus `json:"status"`
	Progress  int        `json:"progress"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// Worker is a member of the workforce. SiteID is nil when unassigned.
type Worker struct {
	Base
	Name   string       `json:"name"`
	Role   string       `json:"role"`
	Skills []string     `json:"skills,omitempty"`
	Phone  string       `json:"phone,omitempty"`
	Email  string       `json:"email,omitempty"`
	SiteID *string      `json:"site_id"`
	Status WorkerStatus `json:"status"`
}

// Machine is a piece of plant or vehicle owned by the company.
type Machine struct {
	Base
	Name            string        `json:"name"`
	Type            string        `json:"type"`
	Model           string        `json:"model,omitempty"`
	Operator        string        `json:"operator,omitempty"`
	SiteID          *string       `json:"site_id"`
	Status          MachineStatus `json:"status"`
	FuelLevel       int           `json:"fuel_level"`
	HoursUsed       int           `json:"hours_used"`
	LastMaintenance *time.Time    `json:"last_maintenance,omitempty"`
	NextMaintenance *time.Time    `json:"next_maintenance,omitempty"`
}

// InventoryItem is the stock of one material held at one site.
type InventoryItem struct {
	Base
	Name         string          `json:"name"`
	Category     string          `json:"category,omitempty"`
	Unit         string          `json:"unit"`
	SiteID       string          `json:"site_id"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	MinStock     decimal.Decimal `json:"min_stock"`
	MaxStock     decimal.Decimal `json:"max_stock"`
	Supplier     string          `json:"supplier,omitempty"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

// StockStatus derives the stock classification relative to the item thresholds.
func (i InventoryItem) StockStatus() StockStatus {
	switch {
	case i.CurrentStock.LessThanOrEqual(i.MinStock):
		return StockLow
	case i.CurrentStock.GreaterThanOrEqual(i.MaxStock):
		return StockHigh
	default:
		return StockNormal
	}
}

// StockMovement records a single change to an item's current stock. Seq
// increases with every movement the store books and orders the ledger.
type StockMovement struct {
	Base
	Seq        uint64          `json:"seq"`
	ItemID     string          `json:"item_id"`
	SiteID     string          `json:"site_id"`
	Delta      decimal.Decimal `json:"delta"`
	Resulting  decimal.Decimal `json:"resulting"`
	Reason     string          `json:"reason"`
	RequestID  *string         `json:"request_id,omitempty"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// MaterialRequest asks for material to be delivered to a site.
type MaterialRequest struct {
	Base
	SiteID          string          `json:"site_id"`
	RequestedBy     string          `json:"requested_by"`
	Material        string          `json:"material"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit"`
	Priority        Priority        `json:"priority"`
	Status          RequestStatus   `json:"status"`
	Source          MaterialSource  `json:"source"`
	RequiredDate    *time.Time      `json:"required_date,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	ApprovedBy      *string         `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
}

// Transfer moves a worker or machine from one site to another.
type Transfer struct {
	Base
	SubjectKind     SubjectKind    `json:"subject_kind"`
	SubjectID       string         `json:"subject_id"`
	FromSiteID      string         `json:"from_site_id"`
	ToSiteID        string         `json:"to_site_id"`
	RequestedBy     string         `json:"requested_by"`
	ApprovedBy      *string        `json:"approved_by,omitempty"`
	Status          TransferStatus `json:"status"`
	Reason          string         `json:"reason,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	ScheduledDate   time.Time      `json:"scheduled_date"`
	CompletedDate   *time.Time     `json:"completed_date,omitempty"`
	RejectionReason string         `json:"rejection_reason,omitempty"`
}

// Supplier delivers material to sites using its own vehicles.
type Supplier struct {
	Base
	Name      string    `json:"name"`
	Contact   string    `json:"contact,omitempty"`
	Email     string    `json:"email,omitempty"`
	Materials []string  `json:"materials,omitempty"`
	Rating    float64   `json:"rating"`
	Vehicles  []Vehicle `json:"vehicles,omitempty"`
}

// Vehicle is a supplier truck and its assigned driver.
type Vehicle struct {
	ID            string          `json:"id"`
	LicensePlate  string          `json:"license_plate"`
	Type          string          `json:"type"`
	Capacity      decimal.Decimal `json:"capacity"`
	DriverName    string          `json:"driver_name"`
	DriverLicense string          `json:"driver_license,omitempty"`
	DriverPhone   string          `json:"driver_phone,omitempty"`
}

// Vehicle returns the supplier vehicle with the given id.
func (s Supplier) Vehicle(id string) (Vehicle, bool) {
	for _, v := range s.Vehicles {
		if v.ID == id {
			return v, true
		}
	}
	return Vehicle{}, false
}

// Trip is one supplier delivery run to a site.
type Trip struct {
	Base
	SupplierID        string          `json:"supplier_id"`
	VehicleID         string          `json:"vehicle_id"`
	Date              time.Time       `json:"date"`
	Material          string          `json:"material"`
	Quantity          decimal.Decimal `json:"quantity"`
	Unit              string          `json:"unit"`
	DestinationSiteID string          `json:"destination_site_id"`
	Status            TripStatus      `json:"status"`
}
