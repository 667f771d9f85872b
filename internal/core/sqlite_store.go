package core

import (
	"context"

	"siteledger/internal/infra/persistence/sqlite"
)

// NewSQLiteStore constructs a SQLite-backed persistent store using the
// provided file path (may be empty for default) and rules engine.
func NewSQLiteStore(ctx context.Context, path string, engine *RulesEngine) (*sqlite.Store, error) {
	return sqlite.NewStore(ctx, path, engine)
}
