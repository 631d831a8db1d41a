package reactions

import (
	"context"

	"lumen-board/feedcore/internal/database"
	"lumen-board/feedcore/internal/models"
)

// Loader reads reaction rows outside any transaction. The feed overlay uses
// it for its one-batch-query-per-type fetches.
type Loader struct {
	db    *database.DB
	store Store
}

// NewLoader creates a loader over db.
func NewLoader(db *database.DB) *Loader {
	return &Loader{db: db}
}

// ListByItems returns every reaction row for the given items of one type.
func (l *Loader) ListByItems(ctx context.Context, typ models.ContentType, itemIDs []string) ([]models.Reaction, error) {
	return l.store.ListByItems(ctx, l.db, typ, itemIDs)
}
