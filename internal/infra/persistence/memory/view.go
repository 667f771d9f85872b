package memory

import (
	"sort"

	"siteledger/pkg/domain"
)

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// listSorted clones every record in m and orders the result by id so that
// callers get stable output across runs.
func listSorted[T any](m map[string]T, cloneFn func(T) T, idOf func(T) string) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, cloneFn(v))
	}
	sort.Slice(out, func(i, j int) bool { return idOf(out[i]) < idOf(out[j]) })
	return out
}

func find[T any](m map[string]T, id string, cloneFn func(T) T) (T, bool) {
	v, ok := m[id]
	if !ok {
		var zero T
		return zero, false
	}
	return cloneFn(v), true
}

// ListSites returns all sites within the snapshot.
func (v transactionView) ListSites() []Site {
	return listSorted(v.state.sites, cloneSite, func(s Site) string { return s.ID })
}

// ListWorkers returns all workers.
func (v transactionView) ListWorkers() []Worker {
	return listSorted(v.state.workers, cloneWorker, func(w Worker) string { return w.ID })
}

// ListMachines returns all machines.
func (v transactionView) ListMachines() []Machine {
	return listSorted(v.state.machines, cloneMachine, func(m Machine) string { return m.ID })
}

// ListInventoryItems returns every inventory item across sites.
func (v transactionView) ListInventoryItems() []InventoryItem {
	return listSorted(v.state.items, cloneItem, func(i InventoryItem) string { return i.ID })
}

// ListMaterialRequests returns all material requests.
func (v transactionView) ListMaterialRequests() []MaterialRequest {
	return listSorted(v.state.requests, cloneRequest, func(r MaterialRequest) string { return r.ID })
}

// ListTransfers returns all transfers.
func (v transactionView) ListTransfers() []Transfer {
	return listSorted(v.state.transfers, cloneTransfer, func(t Transfer) string { return t.ID })
}

// ListSuppliers returns all suppliers.
func (v transactionView) ListSuppliers() []Supplier {
	return listSorted(v.state.suppliers, cloneSupplier, func(s Supplier) string { return s.ID })
}

// ListTrips returns all supplier trips.
func (v transactionView) ListTrips() []Trip {
	return listSorted(v.state.trips, cloneTrip, func(t Trip) string { return t.ID })
}

// ListStockMovements returns ledger entries in booking order. An empty
// itemID returns the whole ledger.
func (v transactionView) ListStockMovements(itemID string) []StockMovement {
	out := make([]StockMovement, 0)
	for _, m := range v.state.movements {
		if itemID != "" && m.ItemID != itemID {
			continue
		}
		out = append(out, cloneMovement(m))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Seq != out[j].Seq {
			return out[i].Seq < out[j].Seq
		}
		if !out[i].RecordedAt.Equal(out[j].RecordedAt) {
			return out[i].RecordedAt.Before(out[j].RecordedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// FindSite retrieves a site by id.
func (v transactionView) FindSite(id string) (Site, bool) {
	return find(v.state.sites, id, cloneSite)
}

// FindWorker retrieves a worker by id.
func (v transactionView) FindWorker(id string) (Worker, bool) {
	return find(v.state.workers, id, cloneWorker)
}

// FindMachine retrieves a machine by id.
func (v transactionView) FindMachine(id string) (Machine, bool) {
	return find(v.state.machines, id, cloneMachine)
}

// FindInventoryItem retrieves an inventory item by id.
func (v transactionView) FindInventoryItem(id string) (InventoryItem, bool) {
	return find(v.state.items, id, cloneItem)
}

// FindMaterialRequest retrieves a material request by id.
func (v transactionView) FindMaterialRequest(id string) (MaterialRequest, bool) {
	return find(v.state.requests, id, cloneRequest)
}

// FindTransfer retrieves a transfer by id.
func (v transactionView) FindTransfer(id string) (Transfer, bool) {
	return find(v.state.transfers, id, cloneTransfer)
}

// FindSupplier retrieves a supplier by id.
func (v transactionView) FindSupplier(id string) (Supplier, bool) {
	return find(v.state.suppliers, id, cloneSupplier)
}

// FindTrip retrieves a trip by id.
func (v transactionView) FindTrip(id string) (Trip, bool) {
	return find(v.state.trips, id, cloneTrip)
}

var _ domain.TransactionView = transactionView{}
