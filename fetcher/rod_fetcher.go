package fetcher

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodFetcher fetches JavaScript-rendered pages through a headless
// browser. Renders are blocking calls with a bounded timeout; a render
// that does not stabilize in time is reported as StatusRenderTimeout so
// the caller can skip the URL and continue.
type RodFetcher struct {
	browser       *rod.Browser
	renderTimeout time.Duration
	delay         time.Duration
	mu            sync.Mutex
	lastFetch     time.Time
}

// NewRodFetcher launches a headless browser. The same politeness delay
// applies as for plain HTTP fetches.
func NewRodFetcher(delay, renderTimeout time.Duration) (*RodFetcher, error) {
	l := launcher.New().
		Headless(true).
		NoSandbox(true).
		Leakless(false).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run").
		Set("disable-extensions").
		Set("mute-audio")

	for _, path := range []string{
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/snap/bin/chromium",
	} {
		if _, err := os.Stat(path); err == nil {
			l = l.Bin(path)
			break
		}
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &RodFetcher{
		browser:       browser,
		renderTimeout: renderTimeout,
		delay:         delay,
	}, nil
}

// Fetch implements the Fetcher interface.
func (rf *RodFetcher) Fetch(url string) Result {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if elapsed := time.Since(rf.lastFetch); elapsed < rf.delay {
		time.Sleep(rf.delay - elapsed)
	}
	defer func() { rf.lastFetch = time.Now() }()

	page, err := rf.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return Result{Status: StatusFetchError, Err: fmt.Errorf("failed to create page: %w", err)}
	}
	defer page.Close()

	if err := page.Timeout(rf.renderTimeout).Navigate(url); err != nil {
		return Result{Status: StatusFetchError, Err: fmt.Errorf("failed to navigate to %s: %w", url, err)}
	}
	if err := page.Timeout(rf.renderTimeout).WaitLoad(); err != nil {
		return Result{Status: StatusRenderTimeout, Err: fmt.Errorf("page load timed out for %s: %w", url, err)}
	}
	if err := page.Timeout(rf.renderTimeout).WaitStable(500 * time.Millisecond); err != nil {
		// An unsettled page can still hold usable markup.
		slog.Warn("page did not stabilize, continuing", "url", url, "err", err)
	}

	html, err := page.HTML()
	if err != nil {
		return Result{Status: StatusRenderTimeout, Err: fmt.Errorf("failed to read rendered HTML for %s: %w", url, err)}
	}
	return Result{Status: StatusOK, HTML: html}
}

// Close shuts down the browser.
func (rf *RodFetcher) Close() error {
	if rf.browser != nil {
		return rf.browser.Close()
	}
	return nil
}
