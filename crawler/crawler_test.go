package crawler

import (
	"context"
	"fmt"
	"testing"

	"immo-scouter/config"
	"immo-scouter/fetcher"
	"immo-scouter/models"
	"immo-scouter/store"
)

// fakeFetcher serves canned pages and records the fetch order.
type fakeFetcher struct {
	pages   map[string]string
	fetched []string
}

func (f *fakeFetcher) Fetch(url string) fetcher.Result {
	f.fetched = append(f.fetched, url)
	html, ok := f.pages[url]
	if !ok {
		return fetcher.Result{Status: fetcher.StatusFetchError, Err: fmt.Errorf("404 for %s", url)}
	}
	return fetcher.Result{Status: fetcher.StatusOK, HTML: html}
}

func (f *fakeFetcher) Close() error { return nil }

func detailHTML(title string, price, area string) string {
	return fmt.Sprintf(`<html><body>
<h1>%s</h1>
<p>Kaufpreis € %s, %s m² Wohnfläche, 3 Zimmer, 1050 Wien</p>
</body></html>`, title, price, area)
}

func testCrawler(t *testing.T, pages map[string]string, sc config.SourceConfig) (*Crawler, *store.Memory, *fakeFetcher) {
	t.Helper()
	cfg := config.Default()
	cfg.Sources = []config.SourceConfig{sc}
	cfg.Fetch.MaxRetries = 1
	cfg.Fetch.RetryDelaySeconds = 0

	profile, err := cfg.Profile("default")
	if err != nil {
		t.Fatal(err)
	}

	m := store.NewMemory()
	ff := &fakeFetcher{pages: pages}
	c := New(m, cfg, profile)
	c.newFetcher = func(config.SourceConfig, config.Fetch) (fetcher.Fetcher, error) {
		return ff, nil
	}
	return c, m, ff
}

func TestRunStoresExtractedListings(t *testing.T) {
	index := "https://www.willhaben.at/iad/immobilien/suche"
	d1 := "https://www.willhaben.at/iad/immobilien/d/wohnung-1/"
	d2 := "https://www.willhaben.at/iad/immobilien/d/wohnung-2/"
	pages := map[string]string{
		index: fmt.Sprintf(`<html><body><a href="%s">A</a><a href="%s">B</a></body></html>`, d1, d2),
		d1:    detailHTML("Wohnung Eins", "298.000", "82"),
		d2:    detailHTML("Wohnung Zwei", "315.000", "75"),
	}
	c, m, _ := testCrawler(t, pages, config.SourceConfig{
		Tag:       "willhaben",
		StartURLs: []string{index},
	})

	stats, err := c.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Fetched != 2 || stats.Stored != 2 || stats.Scored != 2 {
		t.Fatalf("stats = %+v; want 2 fetched/stored/scored", stats)
	}
	if stats.RunID == "" {
		t.Error("run id missing")
	}
	got, err := m.Get(context.Background(), d1)
	if err != nil {
		t.Fatal(err)
	}
	if got.Score == nil || got.PricePerM2 == nil {
		t.Error("stored listing not normalized and scored")
	}
}

func TestRunSkipsFailedPagesAndContinues(t *testing.T) {
	index := "https://www.willhaben.at/iad/immobilien/suche"
	d1 := "https://www.willhaben.at/iad/immobilien/d/wohnung-1/"
	d2 := "https://www.willhaben.at/iad/immobilien/d/wohnung-2/"
	pages := map[string]string{
		index: fmt.Sprintf(`<html><body><a href="%s">A</a><a href="%s">B</a></body></html>`, d1, d2),
		// d1 missing: fetch fails.
		d2: detailHTML("Wohnung Zwei", "315.000", "75"),
	}
	c, m, _ := testCrawler(t, pages, config.SourceConfig{
		Tag:       "willhaben",
		StartURLs: []string{index},
	})

	stats, err := c.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Errors != 1 || stats.Stored != 1 {
		t.Fatalf("stats = %+v; want 1 error, 1 stored", stats)
	}
	if m.Len() != 1 {
		t.Fatalf("store has %d listings; want 1", m.Len())
	}
}

func TestRunSkipsKnownListings(t *testing.T) {
	index := "https://www.willhaben.at/iad/immobilien/suche"
	d1 := "https://www.willhaben.at/iad/immobilien/d/wohnung-1/"
	d2 := "https://www.willhaben.at/iad/immobilien/d/wohnung-2/"
	pages := map[string]string{
		index: fmt.Sprintf(`<html><body><a href="%s">A</a><a href="%s">B</a></body></html>`, d1, d2),
		d1:    detailHTML("Wohnung Eins", "298.000", "82"),
		d2:    detailHTML("Wohnung Zwei", "315.000", "75"),
	}
	c, m, ff := testCrawler(t, pages, config.SourceConfig{
		Tag:       "willhaben",
		StartURLs: []string{index},
	})
	if err := m.Upsert(context.Background(), &models.Listing{URL: d1, Source: models.SourceWillhaben}); err != nil {
		t.Fatal(err)
	}

	stats, err := c.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Skipped != 1 || stats.Fetched != 1 || stats.Stored != 1 {
		t.Fatalf("stats = %+v; want d1 skipped, d2 fetched and stored", stats)
	}
	for _, url := range ff.fetched {
		if url == d1 {
			t.Fatal("known listing detail page was fetched")
		}
	}
}

func TestRunRefreshRefetchesKnownListings(t *testing.T) {
	index := "https://www.willhaben.at/iad/immobilien/suche"
	d1 := "https://www.willhaben.at/iad/immobilien/d/wohnung-1/"
	pages := map[string]string{
		index: fmt.Sprintf(`<html><body><a href="%s">A</a></body></html>`, d1),
		d1:    detailHTML("Wohnung Eins", "298.000", "82"),
	}
	c, m, _ := testCrawler(t, pages, config.SourceConfig{
		Tag:       "willhaben",
		StartURLs: []string{index},
	})
	if err := m.Upsert(context.Background(), &models.Listing{URL: d1, Source: models.SourceWillhaben}); err != nil {
		t.Fatal(err)
	}
	c = c.WithRefresh(true)

	stats, err := c.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Skipped != 0 || stats.Fetched != 1 || stats.Stored != 1 {
		t.Fatalf("stats = %+v; want known listing re-fetched", stats)
	}
	got, err := m.Get(context.Background(), d1)
	if err != nil {
		t.Fatal(err)
	}
	if got.PriceTotal == nil || *got.PriceTotal != 298000 {
		t.Error("refresh did not update the stored record")
	}
}

func TestRunRejectsImplausibleListing(t *testing.T) {
	index := "https://www.willhaben.at/iad/immobilien/suche"
	d1 := "https://www.willhaben.at/iad/immobilien/d/wohnung-1/"
	pages := map[string]string{
		index: fmt.Sprintf(`<html><body><a href="%s">A</a></body></html>`, d1),
		d1:    detailHTML("Tippfehler", "30.000", "60"),
	}
	c, m, _ := testCrawler(t, pages, config.SourceConfig{
		Tag:       "willhaben",
		StartURLs: []string{index},
	})

	stats, err := c.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Rejected != 1 || stats.Stored != 0 {
		t.Fatalf("stats = %+v; want rejected, not stored", stats)
	}
	if m.Len() != 0 {
		t.Error("implausible listing reached the store")
	}
}

func TestRunExpandsCollectionsWithoutLoops(t *testing.T) {
	base := "https://immobilien.derstandard.at"
	index := base + "/suche"
	collection := base + "/detail/999999"
	var children string
	pages := map[string]string{}
	for i := 0; i < 8; i++ {
		child := fmt.Sprintf("%s/detail/%d", base, 100000+i)
		children += fmt.Sprintf(`<a href="/detail/%d">Top %d</a>`, 100000+i, i)
		pages[child] = detailHTML(fmt.Sprintf("Top %d", i), "298.000", "82")
	}
	// The collection links back to itself; the visited set must not
	// re-enqueue it.
	pages[index] = `<html><body><a href="/detail/999999">Projekt</a></body></html>`
	pages[collection] = fmt.Sprintf(`<html><body>%s<a href="/detail/999999">self</a></body></html>`, children)

	c, m, ff := testCrawler(t, pages, config.SourceConfig{
		Tag:       "derstandard",
		StartURLs: []string{index},
	})

	stats, err := c.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Expanded != 8 {
		t.Fatalf("expanded = %d; want 8", stats.Expanded)
	}
	if stats.Stored != 8 {
		t.Fatalf("stored = %d; want 8 children", stats.Stored)
	}
	if m.Len() != 8 {
		t.Fatalf("store has %d listings; want 8", m.Len())
	}
	// Collection page fetched exactly once despite the self link.
	count := 0
	for _, u := range ff.fetched {
		if u == collection {
			count++
		}
	}
	if count != 1 {
		t.Errorf("collection fetched %d times; want 1", count)
	}
}

func TestRunRespectsMaxPages(t *testing.T) {
	p1 := "https://www.willhaben.at/iad/immobilien/suche?p=1"
	p2 := "https://www.willhaben.at/iad/immobilien/suche?p=2"
	pages := map[string]string{
		p1: `<html><body></body></html>`,
		p2: `<html><body></body></html>`,
	}
	c, _, ff := testCrawler(t, pages, config.SourceConfig{
		Tag:       "willhaben",
		StartURLs: []string{p1, p2},
		MaxPages:  1,
	})

	if _, err := c.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(ff.fetched) != 1 || ff.fetched[0] != p1 {
		t.Fatalf("fetched = %v; want only the first index page", ff.fetched)
	}
}

var _ fetcher.Fetcher = (*fakeFetcher)(nil)
