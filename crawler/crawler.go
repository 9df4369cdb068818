// Package crawler drives acquisition runs: every configured source
// gets its own sequential fetch stream, sources run in parallel, and
// each extracted listing flows through normalization, filtering and
// scoring into the store. One bad page never stops a run.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"immo-scouter/config"
	"immo-scouter/criteria"
	"immo-scouter/extractor"
	"immo-scouter/fetcher"
	"immo-scouter/images"
	"immo-scouter/models"
	"immo-scouter/normalize"
	"immo-scouter/scoring"
	"immo-scouter/store"
)

// maxCollectionDepth bounds how many expansion rounds a collection
// page may trigger. Children of children are fetched, grandchildren
// are not.
const maxCollectionDepth = 2

// FetcherFactory builds the fetch strategy for one source. Sources
// behind JavaScript rendering get a browser, the rest plain HTTP.
type FetcherFactory func(sc config.SourceConfig, f config.Fetch) (fetcher.Fetcher, error)

// DefaultFetcherFactory selects rod for RenderJS sources and colly
// otherwise.
func DefaultFetcherFactory(sc config.SourceConfig, f config.Fetch) (fetcher.Fetcher, error) {
	delay := time.Duration(f.DelaySeconds) * time.Second
	if sc.RenderJS {
		return fetcher.NewRodFetcher(delay, time.Duration(f.RenderTimeoutSeconds)*time.Second)
	}
	return fetcher.NewHTTPFetcher(delay), nil
}

type Crawler struct {
	store      store.Store
	cfg        *config.Config
	profile    config.Profile
	newFetcher FetcherFactory
	images     images.Storage
	refresh    bool
}

func New(s store.Store, cfg *config.Config, profile config.Profile) *Crawler {
	return &Crawler{
		store:      s,
		cfg:        cfg,
		profile:    profile,
		newFetcher: DefaultFetcherFactory,
	}
}

// WithImageStorage makes the crawler archive each accepted listing's
// photo and record the returned reference.
func (c *Crawler) WithImageStorage(s images.Storage) *Crawler {
	c.images = s
	return c
}

// WithRefresh re-fetches URLs that already have a stored record, so
// price and status changes reach the store. Off by default: a known
// URL is skipped before its detail page is fetched.
func (c *Crawler) WithRefresh(refresh bool) *Crawler {
	c.refresh = refresh
	return c
}

// Run crawls all configured sources in parallel and returns the
// aggregated run statistics.
func (c *Crawler) Run(ctx context.Context) (*models.RunStats, error) {
	stats := &models.RunStats{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	slog.Info("starting acquisition run", "run_id", stats.RunID, "sources", len(c.cfg.Sources))

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, sc := range c.cfg.Sources {
		wg.Add(1)
		go func(sc config.SourceConfig) {
			defer wg.Done()
			s := c.crawlSource(ctx, sc)
			mu.Lock()
			stats.Fetched += s.Fetched
			stats.Expanded += s.Expanded
			stats.Skipped += s.Skipped
			stats.Rejected += s.Rejected
			stats.Stored += s.Stored
			stats.Scored += s.Scored
			stats.Errors += s.Errors
			mu.Unlock()
		}(sc)
	}
	wg.Wait()

	stats.FinishedAt = time.Now()
	slog.Info("acquisition run finished",
		"run_id", stats.RunID,
		"fetched", stats.Fetched,
		"stored", stats.Stored,
		"skipped", stats.Skipped,
		"rejected", stats.Rejected,
		"errors", stats.Errors,
		"duration", stats.FinishedAt.Sub(stats.StartedAt).Round(time.Second))
	return stats, nil
}

// workItem is one queued detail URL with its expansion depth.
type workItem struct {
	url   string
	depth int
}

func (c *Crawler) crawlSource(ctx context.Context, sc config.SourceConfig) models.RunStats {
	var stats models.RunStats
	log := slog.With("source", sc.Tag)

	src := models.Source(sc.Tag)
	ext, err := extractor.ForSource(src)
	if err != nil {
		log.Error("unknown source tag", "error", err)
		stats.Errors++
		return stats
	}
	f, err := c.newFetcher(sc, c.cfg.Fetch)
	if err != nil {
		log.Error("failed to create fetcher", "error", err)
		stats.Errors++
		return stats
	}
	defer f.Close()

	retries := c.cfg.Fetch.MaxRetries
	retryDelay := time.Duration(c.cfg.Fetch.RetryDelaySeconds) * time.Second

	// Index pages first: collect detail URLs from the search results.
	visited := make(map[string]bool)
	var queue []workItem
	pages := 0
	for _, startURL := range sc.StartURLs {
		if sc.MaxPages > 0 && pages >= sc.MaxPages {
			break
		}
		if ctx.Err() != nil {
			return stats
		}
		pages++
		res := fetcher.WithRetry(f, startURL, retries, retryDelay)
		if res.Status != fetcher.StatusOK {
			log.Warn("skipping index page", "url", startURL, "status", res.Status.String(), "error", res.Err)
			stats.Errors++
			continue
		}
		page, err := extractor.NewPage(startURL, res.HTML)
		if err != nil {
			log.Warn("skipping unparseable index page", "url", startURL, "error", err)
			stats.Errors++
			continue
		}
		for _, u := range ext.ListingURLs(page) {
			if !visited[u] {
				visited[u] = true
				queue = append(queue, workItem{url: u, depth: 0})
			}
		}
	}
	log.Info("index pages scanned", "detail_urls", len(queue))

	// Detail pages: the queue grows when a collection page expands
	// into child listings, the visited set keeps cycles out.
	for i := 0; i < len(queue); i++ {
		if ctx.Err() != nil {
			return stats
		}
		item := queue[i]

		if !c.refresh {
			known, err := c.store.Exists(ctx, item.url)
			if err != nil {
				log.Warn("exists check failed, fetching anyway", "url", item.url, "error", err)
			} else if known {
				log.Debug("skipping known listing", "url", item.url)
				stats.Skipped++
				continue
			}
		}

		res := fetcher.WithRetry(f, item.url, retries, retryDelay)
		if res.Status != fetcher.StatusOK {
			log.Warn("skipping listing page", "url", item.url, "status", res.Status.String(), "error", res.Err)
			stats.Errors++
			continue
		}
		stats.Fetched++

		page, err := extractor.NewPage(item.url, res.HTML)
		if err != nil {
			log.Warn("skipping unparseable page", "url", item.url, "error", err)
			stats.Errors++
			continue
		}

		if children, isCollection := ext.CollectionURLs(page); isCollection {
			if item.depth >= maxCollectionDepth {
				log.Warn("collection expansion depth exceeded", "url", item.url)
				continue
			}
			added := 0
			for _, child := range children {
				if !visited[child] {
					visited[child] = true
					queue = append(queue, workItem{url: child, depth: item.depth + 1})
					added++
				}
			}
			stats.Expanded += added
			log.Info("expanded collection page", "url", item.url, "children", added)
			continue
		}

		if err := c.process(ctx, ext, page, &stats); err != nil {
			log.Warn("skipping listing", "url", item.url, "error", err)
			stats.Errors++
		}
	}
	return stats
}

// process runs one parsed detail page through extract, normalize,
// filter, score and store.
func (c *Crawler) process(ctx context.Context, ext extractor.Extractor, page *extractor.Page, stats *models.RunStats) error {
	l, err := ext.Extract(page)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	normalize.Apply(l, c.cfg.Mortgage)

	if kept := criteria.Filter([]*models.Listing{l}, c.cfg.Criteria, c.cfg.Plausibility); len(kept) == 0 {
		stats.Rejected++
		return nil
	}

	score, _ := scoring.Score(l, c.cfg.Ranges, c.profile)
	l.Score = &score
	stats.Scored++

	if c.images != nil && l.ImageURL != nil {
		if ref, err := c.images.Save(*l.ImageURL); err != nil {
			slog.Warn("failed to archive listing image", "url", l.URL, "error", err)
		} else {
			l.ImageRef = &ref
		}
	}

	if err := c.store.Upsert(ctx, l); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	stats.Stored++
	return nil
}
