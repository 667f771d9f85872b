package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope. Nothing done through a Transaction is
// visible to readers until the enclosing RunInTransaction commits.
type Transaction interface {
	Snapshot() TransactionView
	Now() time.Time
	CreateSite(Site) (Site, error)
	UpdateSite(id string, mutator func(*Site) error) (Site, error)
	CreateWorker(Worker) (Worker, error)
	UpdateWorker(id string, mutator func(*Worker) error) (Worker, error)
	CreateMachine(Machine) (Machine, error)
	UpdateMachine(id string, mutator func(*Machine) error) (Machine, error)
	// ReassignSite moves a worker or machine into siteID's assignment set and
	// out of its previous one.
	ReassignSite(kind SubjectKind, id, siteID string) error
	CreateInventoryItem(InventoryItem) (InventoryItem, error)
	UpdateInventoryItem(id string, mutator func(*InventoryItem) error) (InventoryItem, error)
	// AdjustStock applies delta to the item's current stock and records a
	// ledger entry. It fails with ErrNegativeStock rather than clamping.
	AdjustStock(itemID string, delta decimal.Decimal, reason StockReason) (InventoryItem, error)
	CreateMaterialRequest(MaterialRequest) (MaterialRequest, error)
	UpdateMaterialRequest(id string, mutator func(*MaterialRequest) error) (MaterialRequest, error)
	CreateTransfer(Transfer) (Transfer, error)
	UpdateTransfer(id string, mutator func(*Transfer) error) (Transfer, error)
	CreateSupplier(Supplier) (Supplier, error)
	UpdateSupplier(id string, mutator func(*Supplier) error) (Supplier, error)
	CreateTrip(Trip) (Trip, error)
	UpdateTrip(id string, mutator func(*Trip) error) (Trip, error)
}

// StockReason annotates a stock ledger entry.
type StockReason struct {
	Note      string
	RequestID *string
}

// TransactionView provides read-only access to snapshot data.
type TransactionView interface {
	RuleView
	ListStockMovements(itemID string) []StockMovement
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
}
