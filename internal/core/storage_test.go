package core

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenPersistentStore(t *testing.T) {
	ctx := context.Background()

	mem, err := OpenPersistentStore(ctx, StorageConfig{Driver: StorageMemory}, nil)
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if _, ok := mem.(*MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", mem)
	}

	path := filepath.Join(t.TempDir(), "ledger.db")
	store, err := OpenPersistentStore(ctx, StorageConfig{SQLitePath: path}, NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open default sqlite: %v", err)
	}
	closer, ok := store.(interface{ Close() error })
	if !ok {
		t.Fatalf("sqlite store should be closable, got %T", store)
	}
	defer closer.Close()

	svc := NewService(store)
	if svc.RulesEngine() == nil {
		t.Fatalf("expected rules engine to be discovered from the store")
	}
	mustSite(t, svc, "S1")

	if _, err := OpenPersistentStore(ctx, StorageConfig{Driver: "mongo"}, nil); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
