package core

import (
	"siteledger/internal/infra/persistence/memory"
)

// MemoryStore is the in-memory transactional store every backend builds on.
type MemoryStore = memory.Store

// Snapshot is the JSON image of a store used for persistence and backups.
type Snapshot = memory.Snapshot

// NewMemoryStore constructs an in-memory store using the provided rules engine.
func NewMemoryStore(engine *RulesEngine) *MemoryStore {
	return memory.NewStore(engine)
}
