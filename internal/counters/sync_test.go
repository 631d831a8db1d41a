package counters

import (
	"context"
	"fmt"
	"testing"

	"lumen-board/feedcore/internal/content"
	"lumen-board/feedcore/internal/database"
	"lumen-board/feedcore/internal/models"
)

func setup(t *testing.T) (*database.DB, *content.Store) {
	t.Helper()
	db, err := database.NewMemoryDB()
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, content.NewStore(db)
}

func seedReactions(t *testing.T, db *database.DB, typ models.ContentType, itemID string, users ...string) {
	t.Helper()
	for i, u := range users {
		_, err := db.Exec(
			`INSERT INTO reactions (item_type, item_id, user_id, emoji, created_at) VALUES (?, ?, ?, NULL, datetime('now', ?))`,
			typ, itemID, u, fmt.Sprintf("-%d minutes", i))
		if err != nil {
			t.Fatalf("seeding reaction: %v", err)
		}
	}
}

func TestRepair_RestoresCorruptedCounters(t *testing.T) {
	db, items := setup(t)
	ctx := context.Background()

	item, err := items.Create(ctx, models.TypeArticle, "author", "drifted", "body")
	if err != nil {
		t.Fatalf("creating item: %v", err)
	}
	seedReactions(t, db, item.Type, item.ID, "u1", "u2", "u3")
	if err := items.RecordView(ctx, item.Type, item.ID); err != nil {
		t.Fatalf("recording view: %v", err)
	}

	// Corrupt every counter, as a partial failure would.
	if _, err := db.Exec(`UPDATE articles SET reaction_count = 99, comment_count = 7, share_count = 7, view_count = 0 WHERE id = ?`, item.ID); err != nil {
		t.Fatalf("corrupting counters: %v", err)
	}

	result, err := Repair(ctx, db)
	if err != nil {
		t.Fatalf("Repair failed: %v", err)
	}
	if result[models.TypeArticle] != 1 {
		t.Errorf("expected 1 corrected article, got %d", result[models.TypeArticle])
	}

	got, err := items.Get(ctx, item.Type, item.ID)
	if err != nil {
		t.Fatalf("fetching item: %v", err)
	}
	if got.ReactionCount != 3 {
		t.Errorf("expected reaction_count 3, got %d", got.ReactionCount)
	}
	if got.CommentCount != 0 {
		t.Errorf("expected comment_count 0, got %d", got.CommentCount)
	}
	if got.ShareCount != 0 {
		t.Errorf("expected share_count 0, got %d", got.ShareCount)
	}
	if got.ViewCount != 1 {
		t.Errorf("expected view_count 1, got %d", got.ViewCount)
	}
}

func TestRepair_IsIdempotent(t *testing.T) {
	db, items := setup(t)
	ctx := context.Background()

	item, err := items.Create(ctx, models.TypeBook, "author", "consistent", "body")
	if err != nil {
		t.Fatalf("creating item: %v", err)
	}
	seedReactions(t, db, item.Type, item.ID, "u1", "u2")

	if _, err := Repair(ctx, db); err != nil {
		t.Fatalf("first Repair failed: %v", err)
	}
	result, err := Repair(ctx, db)
	if err != nil {
		t.Fatalf("second Repair failed: %v", err)
	}
	for typ, n := range result {
		if n != 0 {
			t.Errorf("second repair pass corrected %d %s items; expected none", n, typ)
		}
	}
}

func TestApply_ClampsAtZero(t *testing.T) {
	db, items := setup(t)
	ctx := context.Background()

	item, err := items.Create(ctx, models.TypeIdea, "author", "clamped", "body")
	if err != nil {
		t.Fatalf("creating item: %v", err)
	}

	if err := Apply(ctx, db, item.Type, item.ID, Reactions, -5); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	got, err := items.Get(ctx, item.Type, item.ID)
	if err != nil {
		t.Fatalf("fetching item: %v", err)
	}
	if got.ReactionCount != 0 {
		t.Errorf("counter must never go negative, got %d", got.ReactionCount)
	}
}
