package feed

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"lumen-board/feedcore/internal/models"
)

// maxSampleUsers caps how many reactor IDs a summary bucket carries.
const maxSampleUsers = 3

// overlay annotates the sliced page with reaction summaries and, when userID
// is set, the caller's own reaction. It runs strictly after slicing so the
// extra reads are O(page size): one batch query per distinct type on the
// page, issued concurrently. A failed batch degrades those items to empty
// summaries rather than failing the page.
func (a *Aggregator) overlay(ctx context.Context, items []models.Item, userID string) []PageItem {
	page := make([]PageItem, len(items))
	for i, item := range items {
		page[i] = PageItem{Item: item, Reactions: models.ReactionSummary{Groups: []models.EmojiGroup{}}}
	}
	if a.loader == nil || len(items) == 0 {
		return page
	}

	idsByType := make(map[models.ContentType][]string)
	for _, item := range items {
		idsByType[item.Type] = append(idsByType[item.Type], item.ID)
	}

	var mu sync.Mutex
	rowsByKey := make(map[itemKey][]models.Reaction)

	var wg sync.WaitGroup
	for typ, ids := range idsByType {
		wg.Add(1)
		go func(typ models.ContentType, ids []string) {
			defer wg.Done()
			rows, err := a.loader.ListByItems(ctx, typ, ids)
			if err != nil {
				log.Error().Err(err).Str("type", typ.String()).Msg("Reaction overlay failed, serving empty summaries")
				return
			}
			mu.Lock()
			for _, r := range rows {
				k := itemKey{typ: r.ItemType, id: r.ItemID}
				rowsByKey[k] = append(rowsByKey[k], r)
			}
			mu.Unlock()
		}(typ, ids)
	}
	wg.Wait()

	for i := range page {
		rows := rowsByKey[itemKey{typ: page[i].Type, id: page[i].ID}]
		summary, own := Summarize(rows, userID)
		page[i].Reactions = summary
		page[i].OwnReaction = own
	}
	return page
}

type itemKey struct {
	typ models.ContentType
	id  string
}

// Summarize groups one item's reaction rows by emoji and pulls the
// requesting user's row out of the same batch, avoiding a second query.
func Summarize(rows []models.Reaction, userID string) (models.ReactionSummary, *OwnReaction) {
	groups := make(map[string]*models.EmojiGroup)
	var own *OwnReaction

	for _, r := range rows {
		key := ""
		var emoji *string
		if r.Emoji.Valid {
			key = r.Emoji.String
			e := r.Emoji.String
			emoji = &e
		}

		g, ok := groups[key]
		if !ok {
			g = &models.EmojiGroup{Emoji: emoji, SampleUsers: []string{}}
			groups[key] = g
		}
		g.Count++
		if len(g.SampleUsers) < maxSampleUsers {
			g.SampleUsers = append(g.SampleUsers, r.UserID)
		}

		if userID != "" && r.UserID == userID {
			own = &OwnReaction{Emoji: r.EmojiOrNil(), CreatedAt: r.CreatedAt}
		}
	}

	summary := models.ReactionSummary{Total: len(rows), Groups: make([]models.EmojiGroup, 0, len(groups))}
	for _, g := range groups {
		summary.Groups = append(summary.Groups, *g)
	}
	// Deterministic bucket order: biggest first, plain bucket last among
	// ties, then emoji ascending.
	sort.Slice(summary.Groups, func(i, j int) bool {
		gi, gj := summary.Groups[i], summary.Groups[j]
		if gi.Count != gj.Count {
			return gi.Count > gj.Count
		}
		if (gi.Emoji == nil) != (gj.Emoji == nil) {
			return gj.Emoji == nil
		}
		if gi.Emoji == nil {
			return false
		}
		return *gi.Emoji < *gj.Emoji
	})
	return summary, own
}
