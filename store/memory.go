package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"immo-scouter/models"
)

// Memory is an in-memory Store for dry runs and tests.
type Memory struct {
	mu       sync.RWMutex
	listings map[string]*models.Listing
}

func NewMemory() *Memory {
	return &Memory{listings: make(map[string]*models.Listing)}
}

func (m *Memory) Upsert(_ context.Context, l *models.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *l
	if existing, ok := m.listings[l.URL]; ok && existing.SentAt != nil {
		clone.SentAt = existing.SentAt
	}
	m.listings[l.URL] = &clone
	return nil
}

func (m *Memory) Get(_ context.Context, url string) (*models.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.listings[url]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *l
	return &clone, nil
}

func (m *Memory) Exists(_ context.Context, url string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.listings[url]
	return ok, nil
}

func (m *Memory) FindCandidates(_ context.Context, q CandidateQuery) ([]*models.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.Listing
	for _, l := range m.listings {
		if l.Score == nil || *l.Score < q.MinScore {
			continue
		}
		if q.MinRooms > 0 && (l.Rooms == nil || *l.Rooms < q.MinRooms) {
			continue
		}
		if l.Bezirk != nil && containsString(q.ExcludedDistricts, *l.Bezirk) {
			continue
		}
		if q.SentBefore != nil && l.SentAt != nil && l.SentAt.After(*q.SentBefore) {
			continue
		}
		clone := *l
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].Score > *out[j].Score })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *Memory) MarkSent(_ context.Context, urls []string, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, url := range urls {
		if l, ok := m.listings[url]; ok {
			at := t
			l.SentAt = &at
		}
	}
	return nil
}

func (m *Memory) RecentlySent(_ context.Context, cutoff time.Time) (map[string]time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sent := make(map[string]time.Time)
	for url, l := range m.listings {
		if l.SentAt != nil && l.SentAt.After(cutoff) {
			sent[url] = *l.SentAt
		}
	}
	return sent, nil
}

func (m *Memory) Close() error { return nil }

// Len reports the number of stored listings.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.listings)
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
