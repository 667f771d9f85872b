package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"siteledger/pkg/domain"

	"github.com/shopspring/decimal"
)

func seedSites(t *testing.T, store *Store, ids ...string) {
	t.Helper()
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		for _, id := range ids {
			if _, err := tx.CreateSite(domain.Site{Base: domain.Base{ID: id}, Name: "Site " + id}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed sites: %v", err)
	}
}

func viewSite(t *testing.T, store *Store, id string) domain.Site {
	t.Helper()
	var site domain.Site
	err := store.View(context.Background(), func(v domain.TransactionView) error {
		s, ok := v.FindSite(id)
		if !ok {
			t.Fatalf("site %s missing", id)
		}
		site = s
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	return site
}

func TestStoreRunInTransactionAndSnapshots(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, ok := tx.Snapshot().FindSite("missing"); ok {
			t.Fatalf("expected missing site lookup")
		}
		created, err := tx.CreateSite(domain.Site{Name: "North Yard", WorkerIDs: []string{"ghost"}})
		if err != nil {
			return err
		}
		if created.ID == "" {
			t.Fatalf("expected generated ID")
		}
		if len(created.WorkerIDs) != 0 {
			t.Fatalf("expected caller supplied assignment set to be discarded")
		}
		if created.Status != domain.SiteActive {
			t.Fatalf("expected default status active, got %s", created.Status)
		}
		if len(tx.Snapshot().ListSites()) != 1 {
			t.Fatalf("snapshot mismatch")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("run transaction: %v", err)
	}
	snapshot := store.ExportState()
	if len(snapshot.Sites) != 1 {
		t.Fatalf("expected exported site")
	}
	store.ImportState(Snapshot{})
	if got := len(store.ExportState().Sites); got != 0 {
		t.Fatalf("expected cleared state, got %d sites", got)
	}
	store.ImportState(snapshot)
	if got := len(store.ExportState().Sites); got != 1 {
		t.Fatalf("expected restored state, got %d sites", got)
	}
	if store.RulesEngine() == nil {
		t.Fatalf("expected rules engine")
	}
	if store.NowFunc() == nil {
		t.Fatalf("expected now func")
	}
}

type blockingRule struct{}

func (blockingRule) Name() string { return "block" }

func (blockingRule) Evaluate(context.Context, domain.RuleView, []domain.Change) (domain.Result, error) {
	return domain.Result{Violations: []domain.Violation{{
		Rule: "block", Severity: domain.SeverityBlock, Kind: domain.ErrInvalidReference, Message: "always",
	}}}, nil
}

func TestStoreRuleViolationRollsBack(t *testing.T) {
	store := NewStore(domain.NewRulesEngine())
	store.RulesEngine().Register(blockingRule{})
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, e := tx.CreateSite(domain.Site{Name: "Fail"})
		return e
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected rule violation error, got %v", err)
	}
	if !errors.Is(err, domain.ErrInvalidReference) {
		t.Fatalf("expected violation kind to unwrap, got %v", err)
	}
	if len(store.ExportState().Sites) != 0 {
		t.Fatalf("expected rollback on violation")
	}
}

func TestStoreCallbackErrorDiscardsPartialWrites(t *testing.T) {
	store := NewStore(nil)
	boom := errors.New("boom")
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateSite(domain.Site{Name: "Half"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if len(store.ExportState().Sites) != 0 {
		t.Fatalf("expected partial write to be discarded")
	}
}

func TestReassignSiteMovesAssignmentAtomically(t *testing.T) {
	store := NewStore(nil)
	seedSites(t, store, "S1", "S2")
	ctx := context.Background()
	s1 := "S1"
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateWorker(domain.Worker{Base: domain.Base{ID: "W1"}, Name: "Ana", SiteID: &s1})
		return err
	})
	if err != nil {
		t.Fatalf("create worker: %v", err)
	}
	if got := viewSite(t, store, "S1").WorkerIDs; len(got) != 1 || got[0] != "W1" {
		t.Fatalf("expected W1 in S1 set, got %v", got)
	}

	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.ReassignSite(domain.SubjectWorker, "W1", "S2")
	})
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if got := viewSite(t, store, "S1").WorkerIDs; len(got) != 0 {
		t.Fatalf("expected S1 set empty, got %v", got)
	}
	if got := viewSite(t, store, "S2").WorkerIDs; len(got) != 1 || got[0] != "W1" {
		t.Fatalf("expected W1 in S2 set, got %v", got)
	}
	_ = store.View(ctx, func(v domain.TransactionView) error {
		w, _ := v.FindWorker("W1")
		if w.SiteID == nil || *w.SiteID != "S2" {
			t.Fatalf("expected worker site S2, got %v", w.SiteID)
		}
		return nil
	})
}

func TestReassignSiteErrors(t *testing.T) {
	store := NewStore(nil)
	seedSites(t, store, "S1")
	ctx := context.Background()
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.ReassignSite(domain.SubjectMachine, "M404", "S1")
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.CreateMachine(domain.Machine{Base: domain.Base{ID: "M1"}, Name: "Digger"}); err != nil {
			return err
		}
		return tx.ReassignSite(domain.SubjectMachine, "M1", "S404")
	})
	if !errors.Is(err, domain.ErrInvalidReference) {
		t.Fatalf("expected invalid reference, got %v", err)
	}
	if len(store.ExportState().Machines) != 0 {
		t.Fatalf("expected machine creation rolled back")
	}
}

func TestUpdateWorkerRejectsDirectSiteChange(t *testing.T) {
	store := NewStore(nil)
	seedSites(t, store, "S1")
	ctx := context.Background()
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateWorker(domain.Worker{Base: domain.Base{ID: "W1"}, Name: "Ana"})
		return err
	})
	if err != nil {
		t.Fatalf("create worker: %v", err)
	}
	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.UpdateWorker("W1", func(w *domain.Worker) error {
			site := "S1"
			w.SiteID = &site
			return nil
		})
		return err
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAdjustStockRecordsLedgerAndRejectsNegative(t *testing.T) {
	store := NewStore(nil)
	seedSites(t, store, "S1")
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.SetNowFunc(func() time.Time { return fixed })
	ctx := context.Background()
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.CreateInventoryItem(domain.InventoryItem{
			Base: domain.Base{ID: "I1"}, Name: "Cement", Unit: "bag", SiteID: "S1",
			CurrentStock: decimal.NewFromInt(10), MaxStock: decimal.NewFromInt(100),
		}); err != nil {
			return err
		}
		_, err := tx.AdjustStock("I1", decimal.NewFromInt(-8), domain.StockReason{Note: "transfer out"})
		return err
	})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}

	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.AdjustStock("I1", decimal.NewFromInt(-3), domain.StockReason{Note: "overdraw"})
		return err
	})
	if !errors.Is(err, domain.ErrNegativeStock) {
		t.Fatalf("expected negative stock, got %v", err)
	}

	_ = store.View(ctx, func(v domain.TransactionView) error {
		item, _ := v.FindInventoryItem("I1")
		if !item.CurrentStock.Equal(decimal.NewFromInt(2)) {
			t.Fatalf("expected stock 2, got %s", item.CurrentStock)
		}
		moves := v.ListStockMovements("I1")
		if len(moves) != 1 {
			t.Fatalf("expected one ledger entry, got %d", len(moves))
		}
		if !moves[0].Resulting.Equal(decimal.NewFromInt(2)) || !moves[0].RecordedAt.Equal(fixed) {
			t.Fatalf("unexpected ledger entry %+v", moves[0])
		}
		return nil
	})
}

func TestUpdateInventoryItemGuardsStock(t *testing.T) {
	store := NewStore(nil)
	seedSites(t, store, "S1")
	ctx := context.Background()
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateInventoryItem(domain.InventoryItem{Base: domain.Base{ID: "I1"}, Name: "Sand", SiteID: "S1"})
		return err
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.UpdateInventoryItem("I1", func(i *domain.InventoryItem) error {
			i.CurrentStock = decimal.NewFromInt(5)
			return nil
		})
		return err
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateInventoryItem(domain.InventoryItem{Name: "Gravel", SiteID: "S404"})
		return err
	})
	if !errors.Is(err, domain.ErrInvalidReference) {
		t.Fatalf("expected invalid reference, got %v", err)
	}
}

func TestUpdateMissingRecordsReturnNotFound(t *testing.T) {
	store := NewStore(nil)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var checks []error
		_, err := tx.UpdateSite("x", func(*domain.Site) error { return nil })
		checks = append(checks, err)
		_, err = tx.UpdateMachine("x", func(*domain.Machine) error { return nil })
		checks = append(checks, err)
		_, err = tx.UpdateMaterialRequest("x", func(*domain.MaterialRequest) error { return nil })
		checks = append(checks, err)
		_, err = tx.UpdateTransfer("x", func(*domain.Transfer) error { return nil })
		checks = append(checks, err)
		_, err = tx.UpdateSupplier("x", func(*domain.Supplier) error { return nil })
		checks = append(checks, err)
		_, err = tx.UpdateTrip("x", func(*domain.Trip) error { return nil })
		checks = append(checks, err)
		for i, err := range checks {
			if !errors.Is(err, domain.ErrNotFound) {
				t.Fatalf("check %d: expected not found, got %v", i, err)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
}

func TestCommitHookFailureAbortsCommit(t *testing.T) {
	store := NewStore(nil)
	var calls int
	store.SetCommitHook(func(_ context.Context, snap Snapshot) error {
		calls++
		if len(snap.Sites) > 1 {
			return errors.New("disk full")
		}
		return nil
	})
	seedSites(t, store, "S1")
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateSite(domain.Site{Base: domain.Base{ID: "S2"}, Name: "Two"})
		return err
	})
	if err == nil {
		t.Fatalf("expected hook failure")
	}
	if calls != 2 {
		t.Fatalf("expected hook invoked twice, got %d", calls)
	}
	if len(store.ExportState().Sites) != 1 {
		t.Fatalf("expected failed commit to leave state unchanged")
	}
	// Read-only transactions do not invoke the hook.
	if _, err := store.RunInTransaction(context.Background(), func(domain.Transaction) error { return nil }); err != nil {
		t.Fatalf("empty transaction: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected no hook call for empty transaction")
	}
}

func TestImportStateRebuildsAssignmentSets(t *testing.T) {
	store := NewStore(nil)
	s1 := "S1"
	ghost := "S404"
	store.ImportState(Snapshot{
		Sites: map[string]Site{"S1": {Base: domain.Base{ID: "S1"}, WorkerIDs: []string{"stale"}}},
		Workers: map[string]Worker{
			"W2": {Base: domain.Base{ID: "W2"}, SiteID: &s1},
			"W1": {Base: domain.Base{ID: "W1"}, SiteID: &s1},
			"W3": {Base: domain.Base{ID: "W3"}, SiteID: &ghost},
		},
	})
	site := viewSite(t, store, "S1")
	if len(site.WorkerIDs) != 2 || site.WorkerIDs[0] != "W1" || site.WorkerIDs[1] != "W2" {
		t.Fatalf("expected rebuilt sorted set [W1 W2], got %v", site.WorkerIDs)
	}
	if site.Status != domain.SiteActive {
		t.Fatalf("expected default status")
	}
}

func TestSnapshotBucketsRoundTrip(t *testing.T) {
	store := NewStore(nil)
	seedSites(t, store, "S1")
	payloads, err := store.ExportState().EncodeBuckets()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(payloads) != len(Buckets) {
		t.Fatalf("expected %d buckets, got %d", len(Buckets), len(payloads))
	}
	payloads["legacy"] = []byte(`{"x":1}`)
	snap, err := DecodeBuckets(payloads)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := snap.Sites["S1"]; !ok {
		t.Fatalf("expected site restored")
	}
	if snap.Trips == nil {
		t.Fatalf("expected empty buckets normalised to non-nil maps")
	}
	if _, err := DecodeBuckets(map[string][]byte{"sites": []byte("not json")}); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestRestoreRunsRulesBeforeSwap(t *testing.T) {
	ctx := context.Background()
	source := NewStore(nil)
	seedSites(t, source, "S1")
	snapshot := source.ExportState()

	engine := domain.NewRulesEngine()
	engine.Register(blockingRule{})
	guarded := NewStore(engine)
	if _, err := guarded.Restore(ctx, snapshot); err == nil {
		t.Fatalf("expected restore to be blocked")
	}
	if got := len(guarded.ExportState().Sites); got != 0 {
		t.Fatalf("blocked restore must not swap state, got %d sites", got)
	}

	target := NewStore(nil)
	hooked := 0
	target.SetCommitHook(func(_ context.Context, s Snapshot) error {
		hooked++
		if len(s.Sites) != 1 {
			t.Fatalf("hook should see restored sites, got %d", len(s.Sites))
		}
		return nil
	})
	if _, err := target.Restore(ctx, snapshot); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if hooked != 1 {
		t.Fatalf("expected hook to run once, got %d", hooked)
	}
	if site := viewSite(t, target, "S1"); site.Name != "Site S1" {
		t.Fatalf("unexpected restored site %+v", site)
	}
}

func TestStockMovementsKeepBookingOrderAtOneInstant(t *testing.T) {
	store := NewStore(nil)
	seedSites(t, store, "S1")
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.SetNowFunc(func() time.Time { return fixed })
	ctx := context.Background()
	book := func(deltas ...int64) {
		t.Helper()
		_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			for _, d := range deltas {
				if _, err := tx.AdjustStock("I1", decimal.NewFromInt(d), domain.StockReason{Note: "delta"}); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			t.Fatalf("adjust: %v", err)
		}
	}
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateInventoryItem(domain.InventoryItem{
			Base: domain.Base{ID: "I1"}, Name: "Gravel", Unit: "t", SiteID: "S1", MaxStock: decimal.NewFromInt(100),
		})
		return err
	})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	book(10, -3)
	book(5)

	// Reloading the exported state must continue the sequence.
	reloaded := NewStore(nil)
	reloaded.ImportState(store.ExportState())
	reloaded.SetNowFunc(func() time.Time { return fixed })
	store = reloaded
	book(-2)

	var got []int64
	_ = store.View(ctx, func(v domain.TransactionView) error {
		for _, m := range v.ListStockMovements("I1") {
			if !m.RecordedAt.Equal(fixed) {
				t.Fatalf("expected every entry at the fixed instant, got %s", m.RecordedAt)
			}
			got = append(got, m.Delta.IntPart())
		}
		return nil
	})
	want := []int64{10, -3, 5, -2}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected booking order %v, got %v", want, got)
		}
	}
}
