package fetcher

import (
	"fmt"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// HTTPFetcher fetches server-rendered pages over plain HTTP using colly.
// One instance serves one source: requests are serialized and spaced by
// the configured delay. This is a politeness contract, not an
// optimization; do not share an instance across sources.
type HTTPFetcher struct {
	collector *colly.Collector
	mu        sync.Mutex

	// per-request capture, valid only while mu is held
	html     string
	fetchErr error
}

// NewHTTPFetcher creates an HTTPFetcher with a fixed inter-request delay.
func NewHTTPFetcher(delay time.Duration) *HTTPFetcher {
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
	)

	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       delay,
	})

	hf := &HTTPFetcher{collector: c}

	c.OnResponse(func(r *colly.Response) {
		hf.html = string(r.Body)
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			hf.fetchErr = fmt.Errorf("HTTP %d: %w", r.StatusCode, err)
		} else {
			hf.fetchErr = err
		}
	})

	return hf
}

// Fetch implements the Fetcher interface.
func (hf *HTTPFetcher) Fetch(url string) Result {
	hf.mu.Lock()
	defer hf.mu.Unlock()

	hf.html = ""
	hf.fetchErr = nil

	if err := hf.collector.Visit(url); err != nil {
		return Result{Status: StatusFetchError, Err: fmt.Errorf("failed to visit %s: %w", url, err)}
	}
	hf.collector.Wait()

	if hf.fetchErr != nil {
		return Result{Status: StatusFetchError, Err: fmt.Errorf("fetching %s: %w", url, hf.fetchErr)}
	}
	if hf.html == "" {
		return Result{Status: StatusFetchError, Err: fmt.Errorf("empty response from %s", url)}
	}
	return Result{Status: StatusOK, HTML: hf.html}
}

// Close implements the Fetcher interface. Nothing to release for the
// plain-HTTP strategy.
func (hf *HTTPFetcher) Close() error { return nil }
