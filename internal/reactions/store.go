package reactions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"lumen-board/feedcore/internal/models"
)

// Store runs the raw reaction/comment/share queries. Mutating methods take
// an sqlx.ExtContext so the engine can run them inside its transactions.
type Store struct{}

// Find returns the user's reaction row for an item, or nil when none exists.
// Absence of a row is the "no reaction" state; there is no default row.
func (Store) Find(ctx context.Context, q sqlx.ExtContext, typ models.ContentType, itemID, userID string) (*models.Reaction, error) {
	var r models.Reaction
	err := sqlx.GetContext(ctx, q, &r,
		`SELECT item_type, item_id, user_id, emoji, created_at
		 FROM reactions WHERE item_type = ? AND item_id = ? AND user_id = ?`,
		typ, itemID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding reaction: %w", err)
	}
	return &r, nil
}

// Insert creates a reaction row. Callers must handle the unique-constraint
// error when a concurrent insert wins the race.
func (Store) Insert(ctx context.Context, q sqlx.ExtContext, typ models.ContentType, itemID, userID string, emoji *string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO reactions (item_type, item_id, user_id, emoji, created_at) VALUES (?, ?, ?, ?, ?)`,
		typ, itemID, userID, nullable(emoji), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("inserting reaction: %w", err)
	}
	return nil
}

// UpdateEmoji overwrites the emoji on an existing row in place. A nil emoji
// clears it back to a plain acknowledgement.
func (Store) UpdateEmoji(ctx context.Context, q sqlx.ExtContext, typ models.ContentType, itemID, userID string, emoji *string) error {
	_, err := q.ExecContext(ctx,
		`UPDATE reactions SET emoji = ? WHERE item_type = ? AND item_id = ? AND user_id = ?`,
		nullable(emoji), typ, itemID, userID)
	if err != nil {
		return fmt.Errorf("updating reaction emoji: %w", err)
	}
	return nil
}

// Delete removes the user's reaction row, reporting whether one existed.
func (Store) Delete(ctx context.Context, q sqlx.ExtContext, typ models.ContentType, itemID, userID string) (bool, error) {
	res, err := q.ExecContext(ctx,
		`DELETE FROM reactions WHERE item_type = ? AND item_id = ? AND user_id = ?`,
		typ, itemID, userID)
	if err != nil {
		return false, fmt.Errorf("deleting reaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading delete result: %w", err)
	}
	return n > 0, nil
}

// ListByItems batch-fetches every reaction row for the given items of one
// type. One call per type is how the feed overlay stays O(page size).
func (Store) ListByItems(ctx context.Context, q sqlx.ExtContext, typ models.ContentType, itemIDs []string) ([]models.Reaction, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(
		`SELECT item_type, item_id, user_id, emoji, created_at
		 FROM reactions WHERE item_type = ? AND item_id IN (?)
		 ORDER BY created_at ASC, user_id ASC`,
		typ, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("building batch reaction query: %w", err)
	}
	var rows []models.Reaction
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing reactions by items: %w", err)
	}
	return rows, nil
}

// InsertComment creates a comment row. Comments are never deduplicated.
func (Store) InsertComment(ctx context.Context, q sqlx.ExtContext, c *models.Comment) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO comments (id, item_type, item_id, user_id, body, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.ItemType, c.ItemID, c.UserID, c.Body, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting comment: %w", err)
	}
	return nil
}

// InsertShare creates a share row.
func (Store) InsertShare(ctx context.Context, q sqlx.ExtContext, typ models.ContentType, itemID, userID string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO shares (item_type, item_id, user_id, created_at) VALUES (?, ?, ?, ?)`,
		typ, itemID, userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("inserting share: %w", err)
	}
	return nil
}

// DeleteShare removes a share row, reporting whether one existed.
func (Store) DeleteShare(ctx context.Context, q sqlx.ExtContext, typ models.ContentType, itemID, userID string) (bool, error) {
	res, err := q.ExecContext(ctx,
		`DELETE FROM shares WHERE item_type = ? AND item_id = ? AND user_id = ?`,
		typ, itemID, userID)
	if err != nil {
		return false, fmt.Errorf("deleting share: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading share delete result: %w", err)
	}
	return n > 0, nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
