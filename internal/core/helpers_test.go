package core

import (
	"context"
	"testing"
	"time"

	"siteledger/pkg/domain"

	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{WithClock(ClockFunc(func() time.Time { return fixedNow }))}, opts...)
	return NewInMemoryService(NewDefaultRulesEngine(), opts...)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string { return &s }

func mustSite(t *testing.T, svc *Service, id string) Site {
	t.Helper()
	site, _, err := svc.AddSite(context.Background(), Site{Base: Base{ID: id}, Name: "Site " + id})
	if err != nil {
		t.Fatalf("add site %s: %v", id, err)
	}
	return site
}

func mustWorker(t *testing.T, svc *Service, id, siteID string) Worker {
	t.Helper()
	w := Worker{Base: Base{ID: id}, Name: "Worker " + id, Role: "operator"}
	if siteID != "" {
		w.SiteID = strPtr(siteID)
	}
	created, _, err := svc.AddWorker(context.Background(), w)
	if err != nil {
		t.Fatalf("add worker %s: %v", id, err)
	}
	return created
}

func mustItem(t *testing.T, svc *Service, id, siteID, name, current, minStock, maxStock string) InventoryItem {
	t.Helper()
	item, _, err := svc.AddInventoryItem(context.Background(), InventoryItem{
		Base:         Base{ID: id},
		Name:         name,
		Unit:         "bags",
		SiteID:       siteID,
		CurrentStock: dec(current),
		MinStock:     dec(minStock),
		MaxStock:     dec(maxStock),
		UnitPrice:    dec("4.5"),
	})
	if err != nil {
		t.Fatalf("add item %s: %v", id, err)
	}
	return item
}

func findItem(t *testing.T, svc *Service, siteID, name string) (InventoryItem, bool) {
	t.Helper()
	var item InventoryItem
	var ok bool
	if err := svc.Snapshot(context.Background(), func(v TransactionView) error {
		item, ok = findItemByName(v, siteID, name)
		return nil
	}); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return item, ok
}

func findWorker(t *testing.T, svc *Service, id string) Worker {
	t.Helper()
	var w Worker
	if err := svc.Snapshot(context.Background(), func(v TransactionView) error {
		var ok bool
		w, ok = v.FindWorker(id)
		if !ok {
			t.Fatalf("worker %s missing", id)
		}
		return nil
	}); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return w
}

func findSite(t *testing.T, svc *Service, id string) Site {
	t.Helper()
	var s Site
	if err := svc.Snapshot(context.Background(), func(v TransactionView) error {
		var ok bool
		s, ok = v.FindSite(id)
		if !ok {
			t.Fatalf("site %s missing", id)
		}
		return nil
	}); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return s
}

func exportState(t *testing.T, svc *Service) Snapshot {
	t.Helper()
	store, ok := svc.Store().(*MemoryStore)
	if !ok {
		t.Fatalf("expected memory store, got %T", svc.Store())
	}
	return store.ExportState()
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func requireKind(t *testing.T, err error, kind domain.ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := domain.KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
	}
}
