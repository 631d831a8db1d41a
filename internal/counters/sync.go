// Package counters keeps the denormalized engagement counters on content
// items in step with their source-of-truth rows.
package counters

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"lumen-board/feedcore/internal/content"
	"lumen-board/feedcore/internal/database"
	"lumen-board/feedcore/internal/models"
)

// Counter names the denormalized columns a delta can target.
type Counter string

const (
	Reactions Counter = "reaction_count"
	Comments  Counter = "comment_count"
	Shares    Counter = "share_count"
	Views     Counter = "view_count"
)

// Apply adjusts one counter on one item inside the caller's transaction.
// The reaction engine calls this so the row mutation and the counter move
// commit together.
func Apply(ctx context.Context, tx sqlx.ExtContext, typ models.ContentType, id string, counter Counter, delta int) error {
	query := fmt.Sprintf(
		`UPDATE %s SET %s = MAX(0, %s + ?) WHERE id = ?`,
		content.TableFor(typ), counter, counter)
	if _, err := tx.ExecContext(ctx, query, delta, id); err != nil {
		return fmt.Errorf("applying %s delta %d to %s %s: %w", counter, delta, typ, id, err)
	}
	return nil
}

// RepairResult reports how many items had at least one counter corrected,
// per type.
type RepairResult map[models.ContentType]int64

// Repair recomputes all four counters for every item of every type from the
// underlying reaction, comment, share, and view rows. Idempotent: running it
// on a consistent database changes nothing. This is the documented healing
// path for drift caused by partial failures.
func Repair(ctx context.Context, db *database.DB) (RepairResult, error) {
	result := make(RepairResult, len(models.ContentTypes))

	for _, typ := range models.ContentTypes {
		table := content.TableFor(typ)
		query := fmt.Sprintf(`
			UPDATE %s SET
				reaction_count = (SELECT COUNT(*) FROM reactions r WHERE r.item_type = ? AND r.item_id = %s.id),
				comment_count  = (SELECT COUNT(*) FROM comments c WHERE c.item_type = ? AND c.item_id = %s.id),
				share_count    = (SELECT COUNT(*) FROM shares s WHERE s.item_type = ? AND s.item_id = %s.id),
				view_count     = (SELECT COUNT(*) FROM item_views v WHERE v.item_type = ? AND v.item_id = %s.id)
			WHERE
				reaction_count != (SELECT COUNT(*) FROM reactions r WHERE r.item_type = ? AND r.item_id = %s.id)
				OR comment_count != (SELECT COUNT(*) FROM comments c WHERE c.item_type = ? AND c.item_id = %s.id)
				OR share_count != (SELECT COUNT(*) FROM shares s WHERE s.item_type = ? AND s.item_id = %s.id)
				OR view_count != (SELECT COUNT(*) FROM item_views v WHERE v.item_type = ? AND v.item_id = %s.id)`,
			table, table, table, table, table, table, table, table, table)

		res, err := db.ExecContext(ctx, query,
			typ, typ, typ, typ, typ, typ, typ, typ)
		if err != nil {
			return nil, fmt.Errorf("repairing counters for %s: %w", typ, err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("reading repair result for %s: %w", typ, err)
		}
		if affected > 0 {
			log.Info().
				Str("type", typ.String()).
				Int64("corrected", affected).
				Msg("Repaired drifted counters")
		}
		result[typ] = affected
	}

	return result, nil
}
