// Package store persists listings keyed by URL. Upserts are
// idempotent: re-processing a URL updates the stored record instead of
// duplicating it.
package store

import (
	"context"
	"errors"
	"time"

	"immo-scouter/models"
)

// ErrNotFound is returned when a URL has no stored record.
var ErrNotFound = errors.New("listing not found")

// CandidateQuery selects scored listings for dispatch.
type CandidateQuery struct {
	MinScore          float64
	MinRooms          float64
	ExcludedDistricts []string
	// SentBefore, when set, excludes listings dispatched after the
	// cutoff. Never-sent listings always pass. The exclusion runs in
	// the query so suppressed listings do not consume Limit slots.
	SentBefore *time.Time
	// Limit caps the result size; 0 means no cap. Results come back
	// ordered by score descending.
	Limit int
}

// Store is the persistence boundary for the pipeline.
type Store interface {
	// Upsert inserts or fully replaces the record for l.URL.
	Upsert(ctx context.Context, l *models.Listing) error
	Get(ctx context.Context, url string) (*models.Listing, error)
	Exists(ctx context.Context, url string) (bool, error)
	// FindCandidates returns unsent or previously sent listings
	// matching q, best score first.
	FindCandidates(ctx context.Context, q CandidateQuery) ([]*models.Listing, error)
	// MarkSent stamps the given URLs as dispatched at t.
	MarkSent(ctx context.Context, urls []string, t time.Time) error
	// RecentlySent returns the URLs dispatched after cutoff with their
	// send time.
	RecentlySent(ctx context.Context, cutoff time.Time) (map[string]time.Time, error)
	Close() error
}
