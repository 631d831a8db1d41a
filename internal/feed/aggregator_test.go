package feed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"lumen-board/feedcore/internal/models"
)

// fakeSource serves a pre-sorted slice of items for one type.
type fakeSource struct {
	typ   models.ContentType
	items []models.Item
	err   error
}

func (f *fakeSource) Type() models.ContentType { return f.typ }

func (f *fakeSource) List(_ context.Context, limit, offset int, before *time.Time) ([]models.Item, error) {
	if f.err != nil {
		return nil, f.err
	}
	var filtered []models.Item
	for _, item := range f.items {
		if before != nil && item.CreatedAt.After(*before) {
			continue
		}
		filtered = append(filtered, item)
	}
	if offset >= len(filtered) {
		return nil, nil
	}
	filtered = filtered[offset:]
	if limit < len(filtered) {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

func (f *fakeSource) Count(_ context.Context, before *time.Time) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n := 0
	for _, item := range f.items {
		if before != nil && item.CreatedAt.After(*before) {
			continue
		}
		n++
	}
	return n, nil
}

// itemsAt builds descending-sorted items for a type from minute offsets.
func itemsAt(typ models.ContentType, minutes ...int) []models.Item {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	items := make([]models.Item, 0, len(minutes))
	for _, m := range minutes {
		items = append(items, models.Item{
			ID:        fmt.Sprintf("%s-%02d", typ, m),
			Type:      typ,
			CreatedAt: base.Add(time.Duration(m) * time.Minute),
		})
	}
	return items
}

func TestGetPage_MergesAcrossSourcesByRecency(t *testing.T) {
	agg := NewAggregator([]Source{
		&fakeSource{typ: models.TypeArticle, items: itemsAt(models.TypeArticle, 5, 3, 1)},
		&fakeSource{typ: models.TypeBook, items: itemsAt(models.TypeBook, 4, 2)},
		&fakeSource{typ: models.TypeIdea, items: itemsAt(models.TypeIdea, 6)},
	}, nil)

	page, err := agg.GetPage(context.Background(), Filter{All: true}, 0, 6, nil, "")
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}

	want := []string{"idea-06", "article-05", "book-04", "article-03", "book-02", "article-01"}
	if len(page.Items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(page.Items))
	}
	for i, id := range want {
		if page.Items[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, page.Items[i].ID)
		}
	}
	if page.Total != 6 {
		t.Errorf("expected total 6, got %d", page.Total)
	}
	if page.HasMore {
		t.Error("expected no more pages")
	}
}

func TestGetPage_PaginationIsStable(t *testing.T) {
	agg := NewAggregator([]Source{
		&fakeSource{typ: models.TypeArticle, items: itemsAt(models.TypeArticle, 20, 17, 14, 11, 8, 5, 2)},
		&fakeSource{typ: models.TypeBook, items: itemsAt(models.TypeBook, 19, 16, 13, 10, 7, 4, 1)},
		&fakeSource{typ: models.TypeVideo, items: itemsAt(models.TypeVideo, 18, 15, 12, 9, 6, 3)},
	}, nil)

	ctx := context.Background()
	first, err := agg.GetPage(ctx, Filter{All: true}, 0, 10, nil, "")
	if err != nil {
		t.Fatalf("first page failed: %v", err)
	}
	second, err := agg.GetPage(ctx, Filter{All: true}, 10, 10, nil, "")
	if err != nil {
		t.Fatalf("second page failed: %v", err)
	}
	full, err := agg.GetPage(ctx, Filter{All: true}, 0, 20, nil, "")
	if err != nil {
		t.Fatalf("full page failed: %v", err)
	}

	combined := append(append([]PageItem{}, first.Items...), second.Items...)
	if len(combined) != len(full.Items) {
		t.Fatalf("combined pages have %d items, full page has %d", len(combined), len(full.Items))
	}
	for i := range full.Items {
		if combined[i].ID != full.Items[i].ID {
			t.Errorf("position %d: pages diverge, %s vs %s", i, combined[i].ID, full.Items[i].ID)
		}
	}

	seen := make(map[string]bool)
	for _, item := range combined {
		if seen[item.ID] {
			t.Errorf("item %s appears on both pages", item.ID)
		}
		seen[item.ID] = true
	}

	if !first.HasMore {
		t.Error("first page should report more items")
	}
	if second.HasMore {
		t.Error("second page should be the last")
	}
}

func TestGetPage_TimestampTiesBreakDeterministically(t *testing.T) {
	agg := NewAggregator([]Source{
		&fakeSource{typ: models.TypeBook, items: itemsAt(models.TypeBook, 5)},
		&fakeSource{typ: models.TypeArticle, items: itemsAt(models.TypeArticle, 5)},
	}, nil)

	page, err := agg.GetPage(context.Background(), Filter{All: true}, 0, 2, nil, "")
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	if page.Items[0].ID != "article-05" || page.Items[1].ID != "book-05" {
		t.Errorf("tie should order by type then id, got %s, %s", page.Items[0].ID, page.Items[1].ID)
	}
}

func TestGetPage_FailedSourceDegradesToEmpty(t *testing.T) {
	agg := NewAggregator([]Source{
		&fakeSource{typ: models.TypeArticle, items: itemsAt(models.TypeArticle, 3, 1)},
		&fakeSource{typ: models.TypeBook, err: errors.New("connection refused")},
	}, nil)

	page, err := agg.GetPage(context.Background(), Filter{All: true}, 0, 10, nil, "")
	if err != nil {
		t.Fatalf("a failing source must not fail the page: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected the healthy source's 2 items, got %d", len(page.Items))
	}
	if page.Total != 2 {
		t.Errorf("failed source should not count toward total, got %d", page.Total)
	}
}

func TestGetPage_SingleTypeDelegates(t *testing.T) {
	agg := NewAggregator([]Source{
		&fakeSource{typ: models.TypeArticle, items: itemsAt(models.TypeArticle, 9, 7, 5, 3, 1)},
		&fakeSource{typ: models.TypeBook, items: itemsAt(models.TypeBook, 8, 6)},
	}, nil)

	page, err := agg.GetPage(context.Background(), Filter{Type: models.TypeArticle}, 1, 2, nil, "")
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	want := []string{"article-07", "article-05"}
	for i, id := range want {
		if page.Items[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, page.Items[i].ID)
		}
	}
	if page.Total != 5 {
		t.Errorf("expected total 5, got %d", page.Total)
	}
	if !page.HasMore {
		t.Error("expected more pages")
	}
}

func TestGetPage_ClampsLimitAndOffset(t *testing.T) {
	var minutes []int
	for m := 80; m >= 1; m-- {
		minutes = append(minutes, m)
	}
	agg := NewAggregator([]Source{
		&fakeSource{typ: models.TypeArticle, items: itemsAt(models.TypeArticle, minutes...)},
	}, nil)

	page, err := agg.GetPage(context.Background(), Filter{All: true}, -5, 500, nil, "")
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	if len(page.Items) != MaxLimit {
		t.Errorf("limit should clamp to %d, got %d items", MaxLimit, len(page.Items))
	}
	if page.Items[0].ID != "article-80" {
		t.Errorf("offset should clamp to 0, first item is %s", page.Items[0].ID)
	}
}

func TestGetPage_PinnedBoundExcludesNewerItems(t *testing.T) {
	items := itemsAt(models.TypeArticle, 9, 7, 5, 3, 1)
	agg := NewAggregator([]Source{
		&fakeSource{typ: models.TypeArticle, items: items},
	}, nil)

	before := items[2].CreatedAt // the item at minute 5
	page, err := agg.GetPage(context.Background(), Filter{All: true}, 0, 10, &before, "")
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	want := []string{"article-05", "article-03", "article-01"}
	if len(page.Items) != len(want) {
		t.Fatalf("expected %d items within bound, got %d", len(want), len(page.Items))
	}
	for i, id := range want {
		if page.Items[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, page.Items[i].ID)
		}
	}
	if page.Total != 3 {
		t.Errorf("total should honor the bound, got %d", page.Total)
	}
}

// fakeLoader returns canned reaction rows per item.
type fakeLoader struct {
	rows map[string][]models.Reaction
	err  error
}

func (f *fakeLoader) ListByItems(_ context.Context, typ models.ContentType, ids []string) ([]models.Reaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Reaction
	for _, id := range ids {
		out = append(out, f.rows[id]...)
	}
	return out, nil
}

func tagged(itemID, userID, emoji string) models.Reaction {
	return models.Reaction{
		ItemType: models.TypeArticle,
		ItemID:   itemID,
		UserID:   userID,
		Emoji:    sql.NullString{String: emoji, Valid: emoji != ""},
	}
}

func TestGetPage_OverlaysReactionSummaries(t *testing.T) {
	loader := &fakeLoader{rows: map[string][]models.Reaction{
		"article-05": {
			tagged("article-05", "u1", "👍"),
			tagged("article-05", "u2", "👍"),
			tagged("article-05", "u3", "❤️"),
			tagged("article-05", "u4", ""),
		},
	}}
	agg := NewAggregator([]Source{
		&fakeSource{typ: models.TypeArticle, items: itemsAt(models.TypeArticle, 5, 3)},
	}, loader)

	page, err := agg.GetPage(context.Background(), Filter{All: true}, 0, 10, nil, "u3")
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}

	top := page.Items[0]
	if top.Reactions.Total != 4 {
		t.Fatalf("expected 4 total reactions, got %d", top.Reactions.Total)
	}
	if len(top.Reactions.Groups) != 3 {
		t.Fatalf("expected 3 emoji groups, got %d", len(top.Reactions.Groups))
	}
	first := top.Reactions.Groups[0]
	if first.Emoji == nil || *first.Emoji != "👍" || first.Count != 2 {
		t.Errorf("biggest group should be 👍 x2, got %+v", first)
	}
	last := top.Reactions.Groups[2]
	if last.Emoji != nil {
		t.Errorf("plain bucket should sort after tagged ones, got %+v", last)
	}
	if top.OwnReaction == nil || top.OwnReaction.Emoji == nil || *top.OwnReaction.Emoji != "❤️" {
		t.Errorf("expected caller's own ❤️ reaction, got %+v", top.OwnReaction)
	}

	bare := page.Items[1]
	if bare.Reactions.Total != 0 || bare.OwnReaction != nil {
		t.Errorf("item without reactions should have an empty summary, got %+v", bare.Reactions)
	}
}

func TestGetPage_OverlayFailureServesItemsAnyway(t *testing.T) {
	agg := NewAggregator([]Source{
		&fakeSource{typ: models.TypeArticle, items: itemsAt(models.TypeArticle, 5, 3)},
	}, &fakeLoader{err: errors.New("reaction store down")})

	page, err := agg.GetPage(context.Background(), Filter{All: true}, 0, 10, nil, "u1")
	if err != nil {
		t.Fatalf("overlay failure must not fail the page: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(page.Items))
	}
	for _, item := range page.Items {
		if item.Reactions.Total != 0 || len(item.Reactions.Groups) != 0 {
			t.Errorf("item %s should carry an empty summary", item.ID)
		}
	}
}
