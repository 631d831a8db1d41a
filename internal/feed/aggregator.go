// Package feed produces the unified reverse-chronological view over every
// content collection, with per-user reaction state overlaid on each page.
package feed

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"lumen-board/feedcore/internal/apperr"
	"lumen-board/feedcore/internal/content"
	"lumen-board/feedcore/internal/models"
)

const (
	// MinLimit and MaxLimit bound the page size; requests outside the range
	// are clamped, not rejected.
	MinLimit = 1
	MaxLimit = 50
)

// Source is one typed collection the aggregator fans out to. Items come back
// newest first; there is no global ordering key across sources, so the
// aggregator merges.
type Source interface {
	Type() models.ContentType
	List(ctx context.Context, limit, offset int, before *time.Time) ([]models.Item, error)
	Count(ctx context.Context, before *time.Time) (int, error)
}

// ReactionLoader batch-fetches reaction rows for the overlay step.
type ReactionLoader interface {
	ListByItems(ctx context.Context, typ models.ContentType, itemIDs []string) ([]models.Reaction, error)
}

// Filter selects which collections a page draws from.
type Filter struct {
	All  bool
	Type models.ContentType
}

// OwnReaction is the requesting user's reaction to an item, if any.
type OwnReaction struct {
	Emoji     *string   `json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

// PageItem is a content item annotated for serving.
type PageItem struct {
	models.Item
	Reactions   models.ReactionSummary `json:"reactions"`
	OwnReaction *OwnReaction           `json:"own_reaction,omitempty"`
}

// Page is one slice of the merged feed.
type Page struct {
	Items      []PageItem `json:"items"`
	Total      int        `json:"total"`
	HasMore    bool       `json:"has_more"`
	NextCursor *string    `json:"next_cursor,omitempty"`
}

// Aggregator merges the typed collections into one feed.
type Aggregator struct {
	sources []Source
	loader  ReactionLoader
}

// NewAggregator builds an aggregator over explicit sources. loader may be
// nil, in which case pages carry empty reaction summaries.
func NewAggregator(sources []Source, loader ReactionLoader) *Aggregator {
	return &Aggregator{sources: sources, loader: loader}
}

// NewStoreAggregator registers one source per content type backed by the
// given store.
func NewStoreAggregator(store *content.Store, loader ReactionLoader) *Aggregator {
	sources := make([]Source, 0, len(models.ContentTypes))
	for _, typ := range models.ContentTypes {
		sources = append(sources, &storeSource{typ: typ, store: store})
	}
	return NewAggregator(sources, loader)
}

// storeSource adapts content.Store to the Source interface for one type.
type storeSource struct {
	typ   models.ContentType
	store *content.Store
}

func (s *storeSource) Type() models.ContentType { return s.typ }

func (s *storeSource) List(ctx context.Context, limit, offset int, before *time.Time) ([]models.Item, error) {
	return s.store.List(ctx, s.typ, limit, offset, before)
}

func (s *storeSource) Count(ctx context.Context, before *time.Time) (int, error) {
	return s.store.Count(ctx, s.typ, before)
}

// GetPage returns the [offset, offset+limit) slice of the merged feed.
// before, when non-nil, pins the page's upper created_at bound so repeated
// requests see a frozen dataset. userID may be empty.
//
// A failing source degrades to empty for this call: a partial feed beats no
// feed, so read paths never surface SourceUnavailable.
func (a *Aggregator) GetPage(ctx context.Context, filter Filter, offset, limit int, before *time.Time, userID string) (*Page, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < MinLimit {
		limit = MinLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	var items []models.Item
	var total int
	if filter.All {
		items, total = a.fanOut(ctx, offset, limit, before)
	} else {
		items, total = a.singleSource(ctx, filter.Type, offset, limit, before)
	}

	page := &Page{
		Items:   a.overlay(ctx, items, userID),
		Total:   total,
		HasMore: offset+limit < total,
	}
	return page, nil
}

// singleSource delegates offset/limit straight to one store.
func (a *Aggregator) singleSource(ctx context.Context, typ models.ContentType, offset, limit int, before *time.Time) ([]models.Item, int) {
	src := a.sourceFor(typ)
	if src == nil {
		log.Error().Str("type", typ.String()).Msg("No source registered for type")
		return nil, 0
	}

	items, err := src.List(ctx, limit, offset, before)
	if err != nil {
		a.degrade(typ, err)
		return nil, 0
	}
	total, err := src.Count(ctx, before)
	if err != nil {
		a.degrade(typ, err)
		return nil, 0
	}
	return items, total
}

// fanOut queries every source concurrently and merges. Each source is asked
// for its top offset+limit items; since every source is already sorted,
// that per-source prefix is sufficient for a correct global page.
func (a *Aggregator) fanOut(ctx context.Context, offset, limit int, before *time.Time) ([]models.Item, int) {
	type result struct {
		items []models.Item
		count int
		err   error
	}

	fetch := offset + limit
	results := make([]result, len(a.sources))

	// Each goroutine owns exactly one results slot, so the merge below needs
	// no locking once the group is done.
	var wg sync.WaitGroup
	for i, src := range a.sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			items, err := src.List(ctx, fetch, 0, before)
			if err != nil {
				results[i].err = err
				return
			}
			count, err := src.Count(ctx, before)
			if err != nil {
				results[i].err = err
				return
			}
			results[i] = result{items: items, count: count}
		}(i, src)
	}
	wg.Wait()

	total := 0
	sorted := make([][]models.Item, 0, len(results))
	for i, res := range results {
		if res.err != nil {
			a.degrade(a.sources[i].Type(), res.err)
			continue
		}
		total += res.count
		sorted = append(sorted, res.items)
	}

	merged := mergeDesc(sorted, offset+limit)
	if offset >= len(merged) {
		return nil, total
	}
	return merged[offset:], total
}

func (a *Aggregator) sourceFor(typ models.ContentType) Source {
	for _, src := range a.sources {
		if src.Type() == typ {
			return src
		}
	}
	return nil
}

// degrade records a failed source. The page is served without it.
func (a *Aggregator) degrade(typ models.ContentType, err error) {
	wrapped := apperr.Wrap(apperr.KindSourceUnavailable, "content source failed during fan-out", err)
	log.Error().Err(wrapped).Str("type", typ.String()).Msg("Source degraded to empty for this page")
	sourceFailures.WithLabelValues(typ.String()).Inc()
}
