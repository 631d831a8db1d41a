// Package ingest seeds the articles collection from external RSS sources.
// It is an operator tool, not part of the serving path.
package ingest

import (
	"context"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/reddot-watch/feedfetcher"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"

	"lumen-board/feedcore/internal/content"
	"lumen-board/feedcore/internal/models"
)

// Importer fetches RSS sources in parallel and writes the items into the
// articles store.
type Importer struct {
	items   *content.Store
	fetcher *feedfetcher.FeedFetcher
	workers int

	imported atomic.Int64
	failed   atomic.Int64
}

// NewImporter creates an importer with the given worker count; zero or
// negative means a small default.
func NewImporter(items *content.Store, workers int) *Importer {
	if workers <= 0 {
		workers = 4
	}
	fetcher := feedfetcher.NewFeedFetcher(feedfetcher.Config{
		UserAgent:            "feedcore-import/1.0",
		RequestTimeout:       15 * time.Second,
		MaxItems:             100,
		MaxHeadingLength:     200,
		MaxAge:               72 * time.Hour,
		FutureDriftTolerance: 12 * time.Hour,
	})
	return &Importer{items: items, fetcher: fetcher, workers: workers}
}

// Run fetches every source and stores its items as articles. Individual
// source failures are logged and skipped; the run only fails on cancellation.
func (imp *Importer) Run(ctx context.Context, sources []string) error {
	queue := make(chan string, imp.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < imp.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for src := range queue {
				imp.importSource(ctx, src)
			}
		}()
	}

queueLoop:
	for _, src := range sources {
		select {
		case queue <- src:
		case <-ctx.Done():
			log.Info().Err(ctx.Err()).Msg("Context cancelled during source queuing")
			break queueLoop
		}
	}
	close(queue)
	wg.Wait()
	return ctx.Err()
}

// importSource fetches one RSS source and stores its items.
func (imp *Importer) importSource(ctx context.Context, src string) {
	fetchCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	log.Info().Str("url", src).Msg("Importing source")
	items, err := imp.fetcher.FetchAndProcess(fetchCtx, src)
	if err != nil {
		imp.failed.Add(1)
		log.Error().Err(err).Str("url", src).Msg("Failed to fetch source")
		return
	}

	author := "rss:" + hostOf(src)
	for _, item := range items {
		if item.Headline == "" {
			continue
		}
		article := &models.Item{
			ID:        xid.New().String(),
			Type:      models.TypeArticle,
			Title:     item.Headline,
			Body:      item.Content,
			AuthorID:  author,
			CreatedAt: item.PublishedAt.UTC(),
		}
		if err := imp.items.Put(ctx, article); err != nil {
			log.Error().Err(err).Str("url", item.URL).Msg("Failed to store article")
			continue
		}
		imp.imported.Add(1)
	}
}

// Stats returns how many items were imported and how many sources failed.
func (imp *Importer) Stats() (imported, failedSources int64) {
	return imp.imported.Load(), imp.failed.Load()
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}
