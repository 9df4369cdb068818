package fetcher

import (
	"log/slog"
	"time"
)

// Status classifies a fetch outcome. Failures are values, not panics:
// the crawler decides per status whether to retry, skip, or fall back.
type Status int

const (
	StatusOK Status = iota
	StatusRenderTimeout
	StatusFetchError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusRenderTimeout:
		return "render_timeout"
	default:
		return "fetch_error"
	}
}

// Result is the typed outcome of one page fetch.
type Result struct {
	Status Status
	HTML   string
	Err    error
}

// Fetcher retrieves the HTML of a single page. Implementations are
// strictly sequential: a second Fetch does not start before the first
// returns, and the plain-HTTP implementation enforces the inter-request
// politeness delay internally.
type Fetcher interface {
	Fetch(url string) Result
	Close() error
}

// WithRetry calls f.Fetch up to maxAttempts times with a fixed delay
// between attempts. Render timeouts and fetch errors both retry; the
// last result is returned when all attempts fail.
func WithRetry(f Fetcher, url string, maxAttempts int, delay time.Duration) Result {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var res Result
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res = f.Fetch(url)
		if res.Status == StatusOK {
			return res
		}
		if attempt < maxAttempts {
			slog.Warn("fetch failed, retrying",
				"url", url,
				"status", res.Status.String(),
				"attempt", attempt,
				"max", maxAttempts,
				"err", res.Err)
			time.Sleep(delay)
		}
	}
	return res
}
