package memory

import (
	"encoding/json"
	"fmt"
	"sort"

	"siteledger/pkg/domain"
)

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Sites     map[string]Site            `json:"sites"`
	Workers   map[string]Worker          `json:"workers"`
	Machines  map[string]Machine         `json:"machines"`
	Inventory map[string]InventoryItem   `json:"inventory"`
	Movements map[string]StockMovement   `json:"movements"`
	Requests  map[string]MaterialRequest `json:"requests"`
	Transfers map[string]Transfer        `json:"transfers"`
	Suppliers map[string]Supplier        `json:"suppliers"`
	Trips     map[string]Trip            `json:"trips"`
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	return Snapshot{
		Sites:     cloneMap(state.sites, cloneSite),
		Workers:   cloneMap(state.workers, cloneWorker),
		Machines:  cloneMap(state.machines, cloneMachine),
		Inventory: cloneMap(state.items, cloneItem),
		Movements: cloneMap(state.movements, cloneMovement),
		Requests:  cloneMap(state.requests, cloneRequest),
		Transfers: cloneMap(state.transfers, cloneTransfer),
		Suppliers: cloneMap(state.suppliers, cloneSupplier),
		Trips:     cloneMap(state.trips, cloneTrip),
	}
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	var lastSeq uint64
	for _, m := range s.Movements {
		lastSeq = max(lastSeq, m.Seq)
	}
	return memoryState{
		sites:     cloneMap(s.Sites, cloneSite),
		workers:   cloneMap(s.Workers, cloneWorker),
		machines:  cloneMap(s.Machines, cloneMachine),
		items:     cloneMap(s.Inventory, cloneItem),
		movements: cloneMap(s.Movements, cloneMovement),
		requests:  cloneMap(s.Requests, cloneRequest),
		transfers: cloneMap(s.Transfers, cloneTransfer),
		suppliers: cloneMap(s.Suppliers, cloneSupplier),
		trips:     cloneMap(s.Trips, cloneTrip),
		lastSeq:   lastSeq,
	}
}

// normalizeSnapshot fills missing buckets and rebuilds every site's assignment
// sets from the workers' and machines' SiteID so the two sides of the
// relationship can never disagree after a load.
func normalizeSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Sites == nil {
		snapshot.Sites = map[string]Site{}
	}
	if snapshot.Workers == nil {
		snapshot.Workers = map[string]Worker{}
	}
	if snapshot.Machines == nil {
		snapshot.Machines = map[string]Machine{}
	}
	if snapshot.Inventory == nil {
		snapshot.Inventory = map[string]InventoryItem{}
	}
	if snapshot.Movements == nil {
		snapshot.Movements = map[string]StockMovement{}
	}
	if snapshot.Requests == nil {
		snapshot.Requests = map[string]MaterialRequest{}
	}
	if snapshot.Transfers == nil {
		snapshot.Transfers = map[string]Transfer{}
	}
	if snapshot.Suppliers == nil {
		snapshot.Suppliers = map[string]Supplier{}
	}
	if snapshot.Trips == nil {
		snapshot.Trips = map[string]Trip{}
	}

	workerSets := make(map[string][]string, len(snapshot.Sites))
	machineSets := make(map[string][]string, len(snapshot.Sites))
	for id, w := range snapshot.Workers {
		if w.SiteID == nil {
			continue
		}
		if _, ok := snapshot.Sites[*w.SiteID]; ok {
			workerSets[*w.SiteID] = append(workerSets[*w.SiteID], id)
		}
	}
	for id, m := range snapshot.Machines {
		if m.SiteID == nil {
			continue
		}
		if _, ok := snapshot.Sites[*m.SiteID]; ok {
			machineSets[*m.SiteID] = append(machineSets[*m.SiteID], id)
		}
	}
	for id, site := range snapshot.Sites {
		site.WorkerIDs = sortedOrNil(workerSets[id])
		site.MachineIDs = sortedOrNil(machineSets[id])
		if site.Status == "" {
			site.Status = domain.SiteActive
		}
		snapshot.Sites[id] = site
	}
	return snapshot
}

func sortedOrNil(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	sort.Strings(ids)
	return ids
}

// Buckets lists the persistence bucket names in write order.
var Buckets = []string{"sites", "workers", "machines", "inventory", "movements", "requests", "transfers", "suppliers", "trips"}

func (s *Snapshot) bucketTargets() map[string]any {
	return map[string]any{
		"sites":     &s.Sites,
		"workers":   &s.Workers,
		"machines":  &s.Machines,
		"inventory": &s.Inventory,
		"movements": &s.Movements,
		"requests":  &s.Requests,
		"transfers": &s.Transfers,
		"suppliers": &s.Suppliers,
		"trips":     &s.Trips,
	}
}

// EncodeBuckets marshals each bucket of the snapshot to JSON.
func (s Snapshot) EncodeBuckets() (map[string][]byte, error) {
	targets := s.bucketTargets()
	out := make(map[string][]byte, len(Buckets))
	for _, bucket := range Buckets {
		data, err := json.Marshal(targets[bucket])
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", bucket, err)
		}
		out[bucket] = data
	}
	return out, nil
}

// DecodeBuckets rebuilds a snapshot from per-bucket JSON payloads. Unknown
// buckets are ignored.
func DecodeBuckets(payloads map[string][]byte) (Snapshot, error) {
	var snapshot Snapshot
	targets := snapshot.bucketTargets()
	for bucket, payload := range payloads {
		if len(payload) == 0 {
			continue
		}
		target, ok := targets[bucket]
		if !ok {
			continue
		}
		if err := json.Unmarshal(payload, target); err != nil {
			return Snapshot{}, fmt.Errorf("decode %s: %w", bucket, err)
		}
	}
	return normalizeSnapshot(snapshot), nil
}
