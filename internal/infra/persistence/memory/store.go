// Package memory provides the in-memory implementation of the core
// persistence store. Durable backends embed it and persist its snapshot.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"siteledger/pkg/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Compile-time contract assertions ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Site aliases domain.Site for in-memory persistence operations.
	Site = domain.Site
	// Worker aliases domain.Worker.
	Worker = domain.Worker
	// Machine aliases domain.Machine.
	Machine = domain.Machine
	// InventoryItem aliases domain.InventoryItem.
	InventoryItem = domain.InventoryItem
	// StockMovement aliases domain.StockMovement.
	StockMovement = domain.StockMovement
	// MaterialRequest aliases domain.MaterialRequest.
	MaterialRequest = domain.MaterialRequest
	// Transfer aliases domain.Transfer.
	Transfer = domain.Transfer
	// Supplier aliases domain.Supplier.
	Supplier = domain.Supplier
	// Trip aliases domain.Trip.
	Trip = domain.Trip
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

// CommitHook runs under the write lock after rules pass and before the new
// state becomes visible. A hook error aborts the commit.
type CommitHook func(ctx context.Context, snapshot Snapshot) error

type memoryState struct {
	sites     map[string]Site
	workers   map[string]Worker
	machines  map[string]Machine
	items     map[string]InventoryItem
	movements map[string]StockMovement
	requests  map[string]MaterialRequest
	transfers map[string]Transfer
	suppliers map[string]Supplier
	trips     map[string]Trip
	lastSeq   uint64
}

func newMemoryState() memoryState {
	return memoryState{
		sites:     make(map[string]Site),
		workers:   make(map[string]Worker),
		machines:  make(map[string]Machine),
		items:     make(map[string]InventoryItem),
		movements: make(map[string]StockMovement),
		requests:  make(map[string]MaterialRequest),
		transfers: make(map[string]Transfer),
		suppliers: make(map[string]Supplier),
		trips:     make(map[string]Trip),
	}
}

func (s memoryState) clone() memoryState {
	return memoryState{
		sites:     cloneMap(s.sites, cloneSite),
		workers:   cloneMap(s.workers, cloneWorker),
		machines:  cloneMap(s.machines, cloneMachine),
		items:     cloneMap(s.items, cloneItem),
		movements: cloneMap(s.movements, cloneMovement),
		requests:  cloneMap(s.requests, cloneRequest),
		transfers: cloneMap(s.transfers, cloneTransfer),
		suppliers: cloneMap(s.suppliers, cloneSupplier),
		trips:     cloneMap(s.trips, cloneTrip),
		lastSeq:   s.lastSeq,
	}
}

func cloneMap[T any](in map[string]T, cloneFn func(T) T) map[string]T {
	out := make(map[string]T, len(in))
	for k, v := range in {
		out[k] = cloneFn(v)
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneSite(s Site) Site {
	cp := s
	cp.WorkerIDs = append([]string(nil), s.WorkerIDs...)
	cp.MachineIDs = append([]string(nil), s.MachineIDs...)
	cp.StartDate = clonePtr(s.StartDate)
	cp.EndDate = clonePtr(s.EndDate)
	if s.Tasks != nil {
		cp.Tasks = make([]domain.ProgressTask, len(s.Tasks))
		for i, t := range s.Tasks {
			t.StartDate = clonePtr(t.StartDate)
			t.EndDate = clonePtr(t.EndDate)
			cp.Tasks[i] = t
		}
	}
	return cp
}

func cloneWorker(w Worker) Worker {
	cp := w
	cp.Skills = append([]string(nil), w.Skills...)
	cp.SiteID = clonePtr(w.SiteID)
	return cp
}

func cloneMachine(m Machine) Machine {
	cp := m
	cp.SiteID = clonePtr(m.SiteID)
	cp.LastMaintenance = clonePtr(m.LastMaintenance)
	cp.NextMaintenance = clonePtr(m.NextMaintenance)
	return cp
}

func cloneItem(i InventoryItem) InventoryItem { return i }

func cloneMovement(m StockMovement) StockMovement {
	cp := m
	cp.RequestID = clonePtr(m.RequestID)
	return cp
}

func cloneRequest(r MaterialRequest) MaterialRequest {
	cp := r
	cp.RequiredDate = clonePtr(r.RequiredDate)
	cp.ApprovedBy = clonePtr(r.ApprovedBy)
	cp.ApprovedAt = clonePtr(r.ApprovedAt)
	cp.CompletedAt = clonePtr(r.CompletedAt)
	return cp
}

func cloneTransfer(t Transfer) Transfer {
	cp := t
	cp.ApprovedBy = clonePtr(t.ApprovedBy)
	cp.CompletedDate = clonePtr(t.CompletedDate)
	return cp
}

func cloneSupplier(s Supplier) Supplier {
	cp := s
	cp.Materials = append([]string(nil), s.Materials...)
	cp.Vehicles = append([]domain.Vehicle(nil), s.Vehicles...)
	return cp
}

func cloneTrip(t Trip) Trip { return t }

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu         sync.RWMutex
	state      memoryState
	engine     *RulesEngine
	nowFn      func() time.Time
	commitHook CommitHook
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	return uuid.NewString()
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot without
// evaluating rules. Use Restore for snapshots from outside the process.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(normalizeSnapshot(snapshot))
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// SetNowFunc overrides the transaction clock.
func (s *Store) SetNowFunc(fn func() time.Time) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = fn
}

// SetCommitHook installs the hook durable backends use to persist each commit.
func (s *Store) SetCommitHook(hook CommitHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitHook = hook
}

// transaction represents a mutation set applied to the store state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

// RunInTransaction executes fn within a transactional copy of the store state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	if s.commitHook != nil && len(tx.changes) > 0 {
		if err := s.commitHook(ctx, snapshotFromMemoryState(tx.state)); err != nil {
			return result, fmt.Errorf("commit hook: %w", err)
		}
	}

	s.state = tx.state
	return result, nil
}

// Restore replaces the whole state with snapshot after running every rule
// against it as if each record had just been created. The commit hook sees the
// restored state before it becomes visible, so a failed write leaves the
// current state in place.
func (s *Store) Restore(ctx context.Context, snapshot Snapshot) (Result, error) {
	next := memoryStateFromSnapshot(normalizeSnapshot(snapshot))

	s.mu.Lock()
	defer s.mu.Unlock()

	var result Result
	if s.engine != nil {
		res, err := s.engine.Evaluate(ctx, newTransactionView(&next), restoreChanges(next))
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}
	if s.commitHook != nil {
		if err := s.commitHook(ctx, snapshotFromMemoryState(next)); err != nil {
			return result, fmt.Errorf("commit hook: %w", err)
		}
	}
	s.state = next
	return result, nil
}

func restoreChanges(state memoryState) []Change {
	view := newTransactionView(&state)
	var changes []Change
	add := func(entity domain.EntityType, after any) {
		changes = append(changes, Change{Entity: entity, Action: domain.ActionCreate, After: after})
	}
	for _, v := range view.ListSites() {
		add(domain.EntitySite, v)
	}
	for _, v := range view.ListWorkers() {
		add(domain.EntityWorker, v)
	}
	for _, v := range view.ListMachines() {
		add(domain.EntityMachine, v)
	}
	for _, v := range view.ListInventoryItems() {
		add(domain.EntityInventoryItem, v)
	}
	for _, v := range view.ListMaterialRequests() {
		add(domain.EntityMaterialRequest, v)
	}
	for _, v := range view.ListTransfers() {
		add(domain.EntityTransfer, v)
	}
	for _, v := range view.ListSuppliers() {
		add(domain.EntitySupplier, v)
	}
	for _, v := range view.ListTrips() {
		add(domain.EntityTrip, v)
	}
	return changes
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()

	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// Now returns the timestamp stamped on every record touched by the transaction.
func (tx *transaction) Now() time.Time {
	return tx.now
}

func (tx *transaction) assignID(id string) string {
	if id == "" {
		return tx.store.newID()
	}
	return id
}

func alreadyExists(entity domain.EntityType, id string) error {
	return domain.Errorf(domain.ErrValidation, entity, id, "%s %q already exists", entity, id)
}

// CreateSite stores a new site. Assignment sets start empty; they are owned by
// worker and machine placement.
func (tx *transaction) CreateSite(site Site) (Site, error) {
	site.ID = tx.assignID(site.ID)
	if _, exists := tx.state.sites[site.ID]; exists {
		return Site{}, alreadyExists(domain.EntitySite, site.ID)
	}
	if site.Status == "" {
		site.Status = domain.SiteActive
	}
	site.WorkerIDs = nil
	site.MachineIDs = nil
	site.CreatedAt = tx.now
	site.UpdatedAt = tx.now
	tx.state.sites[site.ID] = cloneSite(site)
	tx.recordChange(Change{Entity: domain.EntitySite, Action: domain.ActionCreate, After: cloneSite(site)})
	return cloneSite(site), nil
}

// UpdateSite mutates a site. Changes to the assignment sets are discarded.
func (tx *transaction) UpdateSite(id string, mutator func(*Site) error) (Site, error) {
	current, ok := tx.state.sites[id]
	if !ok {
		return Site{}, domain.NotFound(domain.EntitySite, id)
	}
	before := cloneSite(current)
	if err := mutator(&current); err != nil {
		return Site{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.WorkerIDs = before.WorkerIDs
	current.MachineIDs = before.MachineIDs
	current.UpdatedAt = tx.now
	tx.putSite(before, current)
	return cloneSite(current), nil
}

func (tx *transaction) putSite(before, after Site) {
	tx.state.sites[after.ID] = cloneSite(after)
	tx.recordChange(Change{Entity: domain.EntitySite, Action: domain.ActionUpdate, Before: before, After: cloneSite(after)})
}

// CreateWorker stores a worker and places it in its site's assignment set.
func (tx *transaction) CreateWorker(w Worker) (Worker, error) {
	w.ID = tx.assignID(w.ID)
	if _, exists := tx.state.workers[w.ID]; exists {
		return Worker{}, alreadyExists(domain.EntityWorker, w.ID)
	}
	if w.Status == "" {
		w.Status = domain.WorkerActive
	}
	siteID := w.SiteID
	w.SiteID = nil
	w.CreatedAt = tx.now
	w.UpdatedAt = tx.now
	tx.state.workers[w.ID] = cloneWorker(w)
	tx.recordChange(Change{Entity: domain.EntityWorker, Action: domain.ActionCreate, After: cloneWorker(w)})
	if siteID != nil {
		if err := tx.ReassignSite(domain.SubjectWorker, w.ID, *siteID); err != nil {
			return Worker{}, err
		}
	}
	return cloneWorker(tx.state.workers[w.ID]), nil
}

// UpdateWorker mutates a worker. Site placement must go through ReassignSite.
func (tx *transaction) UpdateWorker(id string, mutator func(*Worker) error) (Worker, error) {
	current, ok := tx.state.workers[id]
	if !ok {
		return Worker{}, domain.NotFound(domain.EntityWorker, id)
	}
	before := cloneWorker(current)
	if err := mutator(&current); err != nil {
		return Worker{}, err
	}
	if !sameRef(before.SiteID, current.SiteID) {
		return Worker{}, domain.Errorf(domain.ErrValidation, domain.EntityWorker, id, "worker site changes must go through a transfer")
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.workers[id] = cloneWorker(current)
	tx.recordChange(Change{Entity: domain.EntityWorker, Action: domain.ActionUpdate, Before: before, After: cloneWorker(current)})
	return cloneWorker(current), nil
}

// CreateMachine stores a machine and places it in its site's assignment set.
func (tx *transaction) CreateMachine(m Machine) (Machine, error) {
	m.ID = tx.assignID(m.ID)
	if _, exists := tx.state.machines[m.ID]; exists {
		return Machine{}, alreadyExists(domain.EntityMachine, m.ID)
	}
	if m.Status == "" {
		m.Status = domain.MachineIdle
	}
	siteID := m.SiteID
	m.SiteID = nil
	m.CreatedAt = tx.now
	m.UpdatedAt = tx.now
	tx.state.machines[m.ID] = cloneMachine(m)
	tx.recordChange(Change{Entity: domain.EntityMachine, Action: domain.ActionCreate, After: cloneMachine(m)})
	if siteID != nil {
		if err := tx.ReassignSite(domain.SubjectMachine, m.ID, *siteID); err != nil {
			return Machine{}, err
		}
	}
	return cloneMachine(tx.state.machines[m.ID]), nil
}

// UpdateMachine mutates a machine. Site placement must go through ReassignSite.
func (tx *transaction) UpdateMachine(id string, mutator func(*Machine) error) (Machine, error) {
	current, ok := tx.state.machines[id]
	if !ok {
		return Machine{}, domain.NotFound(domain.EntityMachine, id)
	}
	before := cloneMachine(current)
	if err := mutator(&current); err != nil {
		return Machine{}, err
	}
	if !sameRef(before.SiteID, current.SiteID) {
		return Machine{}, domain.Errorf(domain.ErrValidation, domain.EntityMachine, id, "machine site changes must go through a transfer")
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.machines[id] = cloneMachine(current)
	tx.recordChange(Change{Entity: domain.EntityMachine, Action: domain.ActionUpdate, Before: before, After: cloneMachine(current)})
	return cloneMachine(current), nil
}

// ReassignSite removes the subject from its current site's assignment set and
// adds it to siteID's set. Both set updates and the subject's SiteID change
// land in the same transaction, so readers see either the old placement or
// the new one.
func (tx *transaction) ReassignSite(kind domain.SubjectKind, id, siteID string) error {
	target, ok := tx.state.sites[siteID]
	if !ok {
		return domain.Errorf(domain.ErrInvalidReference, domain.EntitySite, siteID, "site %q does not exist", siteID)
	}

	var previous *string
	switch kind {
	case domain.SubjectWorker:
		w, ok := tx.state.workers[id]
		if !ok {
			return domain.NotFound(domain.EntityWorker, id)
		}
		previous = w.SiteID
	case domain.SubjectMachine:
		m, ok := tx.state.machines[id]
		if !ok {
			return domain.NotFound(domain.EntityMachine, id)
		}
		previous = m.SiteID
	default:
		return domain.Errorf(domain.ErrValidation, "", id, "unknown subject kind %q", kind)
	}
	if previous != nil && *previous == siteID {
		return nil
	}

	if previous != nil {
		if old, ok := tx.state.sites[*previous]; ok {
			updated := cloneSite(old)
			updated.WorkerIDs, updated.MachineIDs = removeAssignment(kind, updated.WorkerIDs, updated.MachineIDs, id)
			updated.UpdatedAt = tx.now
			tx.putSite(old, updated)
		}
	}

	updatedTarget := cloneSite(target)
	updatedTarget.WorkerIDs, updatedTarget.MachineIDs = addAssignment(kind, updatedTarget.WorkerIDs, updatedTarget.MachineIDs, id)
	updatedTarget.UpdatedAt = tx.now
	tx.putSite(target, updatedTarget)

	ref := siteID
	switch kind {
	case domain.SubjectWorker:
		before := tx.state.workers[id]
		after := cloneWorker(before)
		after.SiteID = &ref
		after.UpdatedAt = tx.now
		tx.state.workers[id] = after
		tx.recordChange(Change{Entity: domain.EntityWorker, Action: domain.ActionUpdate, Before: cloneWorker(before), After: cloneWorker(after)})
	case domain.SubjectMachine:
		before := tx.state.machines[id]
		after := cloneMachine(before)
		after.SiteID = &ref
		after.UpdatedAt = tx.now
		tx.state.machines[id] = after
		tx.recordChange(Change{Entity: domain.EntityMachine, Action: domain.ActionUpdate, Before: cloneMachine(before), After: cloneMachine(after)})
	}
	return nil
}

func addAssignment(kind domain.SubjectKind, workers, machines []string, id string) ([]string, []string) {
	if kind == domain.SubjectWorker {
		return insertSorted(workers, id), machines
	}
	return workers, insertSorted(machines, id)
}

func removeAssignment(kind domain.SubjectKind, workers, machines []string, id string) ([]string, []string) {
	if kind == domain.SubjectWorker {
		return removeString(workers, id), machines
	}
	return workers, removeString(machines, id)
}

func insertSorted(values []string, id string) []string {
	idx := sort.SearchStrings(values, id)
	if idx < len(values) && values[idx] == id {
		return values
	}
	values = append(values, "")
	copy(values[idx+1:], values[idx:])
	values[idx] = id
	return values
}

func removeString(values []string, id string) []string {
	out := values[:0]
	for _, v := range values {
		if v != id {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func sameRef(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// CreateInventoryItem stores a per-site inventory item.
func (tx *transaction) CreateInventoryItem(item InventoryItem) (InventoryItem, error) {
	item.ID = tx.assignID(item.ID)
	if _, exists := tx.state.items[item.ID]; exists {
		return InventoryItem{}, alreadyExists(domain.EntityInventoryItem, item.ID)
	}
	if _, ok := tx.state.sites[item.SiteID]; !ok {
		return InventoryItem{}, domain.Errorf(domain.ErrInvalidReference, domain.EntitySite, item.SiteID, "inventory item %q references missing site %q", item.ID, item.SiteID)
	}
	item.CreatedAt = tx.now
	item.UpdatedAt = tx.now
	tx.state.items[item.ID] = item
	tx.recordChange(Change{Entity: domain.EntityInventoryItem, Action: domain.ActionCreate, After: item})
	return item, nil
}

// UpdateInventoryItem mutates item metadata. Stock levels change only through
// AdjustStock, and items never move between sites.
func (tx *transaction) UpdateInventoryItem(id string, mutator func(*InventoryItem) error) (InventoryItem, error) {
	current, ok := tx.state.items[id]
	if !ok {
		return InventoryItem{}, domain.NotFound(domain.EntityInventoryItem, id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return InventoryItem{}, err
	}
	if !current.CurrentStock.Equal(before.CurrentStock) {
		return InventoryItem{}, domain.Errorf(domain.ErrValidation, domain.EntityInventoryItem, id, "stock level changes must go through a stock adjustment")
	}
	if current.SiteID != before.SiteID {
		return InventoryItem{}, domain.Errorf(domain.ErrValidation, domain.EntityInventoryItem, id, "inventory items cannot change site")
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.items[id] = current
	tx.recordChange(Change{Entity: domain.EntityInventoryItem, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// AdjustStock applies delta to the item's stock and appends a ledger entry.
func (tx *transaction) AdjustStock(itemID string, delta decimal.Decimal, reason domain.StockReason) (InventoryItem, error) {
	current, ok := tx.state.items[itemID]
	if !ok {
		return InventoryItem{}, domain.NotFound(domain.EntityInventoryItem, itemID)
	}
	next := current.CurrentStock.Add(delta)
	if next.IsNegative() {
		return InventoryItem{}, domain.Errorf(domain.ErrNegativeStock, domain.EntityInventoryItem, itemID,
			"stock of %q at site %q would drop to %s", current.Name, current.SiteID, next.String())
	}
	before := current
	current.CurrentStock = next
	current.UpdatedAt = tx.now
	tx.state.items[itemID] = current
	tx.recordChange(Change{Entity: domain.EntityInventoryItem, Action: domain.ActionUpdate, Before: before, After: current})

	tx.state.lastSeq++
	movement := StockMovement{
		Base:       domain.Base{ID: tx.store.newID(), CreatedAt: tx.now, UpdatedAt: tx.now},
		Seq:        tx.state.lastSeq,
		ItemID:     itemID,
		SiteID:     current.SiteID,
		Delta:      delta,
		Resulting:  next,
		Reason:     reason.Note,
		RequestID:  clonePtr(reason.RequestID),
		RecordedAt: tx.now,
	}
	tx.state.movements[movement.ID] = movement
	tx.recordChange(Change{Entity: domain.EntityStockMovement, Action: domain.ActionCreate, After: cloneMovement(movement)})
	return current, nil
}

// CreateMaterialRequest stores a material request record.
func (tx *transaction) CreateMaterialRequest(r MaterialRequest) (MaterialRequest, error) {
	r.ID = tx.assignID(r.ID)
	if _, exists := tx.state.requests[r.ID]; exists {
		return MaterialRequest{}, alreadyExists(domain.EntityMaterialRequest, r.ID)
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.requests[r.ID] = cloneRequest(r)
	tx.recordChange(Change{Entity: domain.EntityMaterialRequest, Action: domain.ActionCreate, After: cloneRequest(r)})
	return cloneRequest(r), nil
}

// UpdateMaterialRequest mutates an existing material request.
func (tx *transaction) UpdateMaterialRequest(id string, mutator func(*MaterialRequest) error) (MaterialRequest, error) {
	current, ok := tx.state.requests[id]
	if !ok {
		return MaterialRequest{}, domain.NotFound(domain.EntityMaterialRequest, id)
	}
	before := cloneRequest(current)
	if err := mutator(&current); err != nil {
		return MaterialRequest{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.requests[id] = cloneRequest(current)
	tx.recordChange(Change{Entity: domain.EntityMaterialRequest, Action: domain.ActionUpdate, Before: before, After: cloneRequest(current)})
	return cloneRequest(current), nil
}

// CreateTransfer stores a transfer record.
func (tx *transaction) CreateTransfer(t Transfer) (Transfer, error) {
	t.ID = tx.assignID(t.ID)
	if _, exists := tx.state.transfers[t.ID]; exists {
		return Transfer{}, alreadyExists(domain.EntityTransfer, t.ID)
	}
	t.CreatedAt = tx.now
	t.UpdatedAt = tx.now
	tx.state.transfers[t.ID] = cloneTransfer(t)
	tx.recordChange(Change{Entity: domain.EntityTransfer, Action: domain.ActionCreate, After: cloneTransfer(t)})
	return cloneTransfer(t), nil
}

// UpdateTransfer mutates an existing transfer.
func (tx *transaction) UpdateTransfer(id string, mutator func(*Transfer) error) (Transfer, error) {
	current, ok := tx.state.transfers[id]
	if !ok {
		return Transfer{}, domain.NotFound(domain.EntityTransfer, id)
	}
	before := cloneTransfer(current)
	if err := mutator(&current); err != nil {
		return Transfer{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.transfers[id] = cloneTransfer(current)
	tx.recordChange(Change{Entity: domain.EntityTransfer, Action: domain.ActionUpdate, Before: before, After: cloneTransfer(current)})
	return cloneTransfer(current), nil
}

// CreateSupplier stores a supplier and its fleet.
func (tx *transaction) CreateSupplier(s Supplier) (Supplier, error) {
	s.ID = tx.assignID(s.ID)
	if _, exists := tx.state.suppliers[s.ID]; exists {
		return Supplier{}, alreadyExists(domain.EntitySupplier, s.ID)
	}
	for i := range s.Vehicles {
		if s.Vehicles[i].ID == "" {
			s.Vehicles[i].ID = tx.store.newID()
		}
	}
	s.CreatedAt = tx.now
	s.UpdatedAt = tx.now
	tx.state.suppliers[s.ID] = cloneSupplier(s)
	tx.recordChange(Change{Entity: domain.EntitySupplier, Action: domain.ActionCreate, After: cloneSupplier(s)})
	return cloneSupplier(s), nil
}

// UpdateSupplier mutates an existing supplier.
func (tx *transaction) UpdateSupplier(id string, mutator func(*Supplier) error) (Supplier, error) {
	current, ok := tx.state.suppliers[id]
	if !ok {
		return Supplier{}, domain.NotFound(domain.EntitySupplier, id)
	}
	before := cloneSupplier(current)
	if err := mutator(&current); err != nil {
		return Supplier{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.suppliers[id] = cloneSupplier(current)
	tx.recordChange(Change{Entity: domain.EntitySupplier, Action: domain.ActionUpdate, Before: before, After: cloneSupplier(current)})
	return cloneSupplier(current), nil
}

// CreateTrip stores a supplier trip.
func (tx *transaction) CreateTrip(t Trip) (Trip, error) {
	t.ID = tx.assignID(t.ID)
	if _, exists := tx.state.trips[t.ID]; exists {
		return Trip{}, alreadyExists(domain.EntityTrip, t.ID)
	}
	t.CreatedAt = tx.now
	t.UpdatedAt = tx.now
	tx.state.trips[t.ID] = t
	tx.recordChange(Change{Entity: domain.EntityTrip, Action: domain.ActionCreate, After: t})
	return t, nil
}

// UpdateTrip mutates an existing trip.
func (tx *transaction) UpdateTrip(id string, mutator func(*Trip) error) (Trip, error) {
	current, ok := tx.state.trips[id]
	if !ok {
		return Trip{}, domain.NotFound(domain.EntityTrip, id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return Trip{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.trips[id] = current
	tx.recordChange(Change{Entity: domain.EntityTrip, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}
