// Package dispatch runs the selection and suppression stage: pull a
// candidate pool from the store, drop implausible and recently sent
// records, pick a batch and hand it to the notifier. A listing is
// marked sent only after the notifier acknowledged its message, so a
// failed send is retried on the next run.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"immo-scouter/config"
	"immo-scouter/criteria"
	"immo-scouter/models"
	"immo-scouter/store"
)

// Notifier delivers one formatted message per listing to its
// destination and reports per-message success.
type Notifier interface {
	Notify(ctx context.Context, l *models.Listing, message string) error
}

// Result carries the per-stage counts of one dispatch run.
type Result struct {
	Candidates int
	Validated  int
	// Suppressed counts the listings still inside the cooldown
	// window, which the candidate query excluded.
	Suppressed int
	Selected   int
	Dispatched int
	Failed     int
}

// Options tweak a single run.
type Options struct {
	// Override re-includes listings inside the cooldown window, for
	// explicitly requested digests.
	Override bool
	// DryRun formats and logs without notifying or marking sent.
	DryRun bool
}

type Dispatcher struct {
	store    store.Store
	notifier Notifier
	cfg      config.Dispatch
	plaus    config.Plausibility
	cooldown time.Duration

	rng *rand.Rand
	now func() time.Time
}

func New(s store.Store, n Notifier, cfg *config.Config) *Dispatcher {
	return &Dispatcher{
		store:    s,
		notifier: n,
		cfg:      cfg.Dispatch,
		plaus:    cfg.Plausibility,
		cooldown: cfg.CooldownWindow(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
}

// Run executes one dispatch pass and returns its counts. Only
// notifier failures leave listings unmarked; they surface in
// Result.Failed, not as an error.
func (d *Dispatcher) Run(ctx context.Context, opts Options) (*Result, error) {
	res := &Result{}

	q := store.CandidateQuery{
		MinScore:          d.cfg.MinScore,
		MinRooms:          d.cfg.MinRooms,
		ExcludedDistricts: d.cfg.ExcludedBez,
		Limit:             d.cfg.Limit * d.cfg.PoolFactor,
	}
	// The recently-sent exclusion runs inside the query, so a
	// suppressed listing never costs a pool slot and candidates below
	// the pool cutoff still surface on later runs.
	if !opts.Override {
		cutoff := d.now().Add(-d.cooldown)
		q.SentBefore = &cutoff
		sent, err := d.store.RecentlySent(ctx, cutoff)
		if err != nil {
			return nil, fmt.Errorf("failed to load recently sent: %w", err)
		}
		res.Suppressed = len(sent)
	}

	pool, err := d.store.FindCandidates(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidates: %w", err)
	}
	res.Candidates = len(pool)

	// Garbage can score well on the fields it does have; the price
	// sanity check runs again right before anything leaves the system.
	var validated []*models.Listing
	for _, l := range pool {
		if ok, reason := criteria.Plausible(l, d.plaus); !ok {
			slog.Debug("dropped implausible candidate", "url", l.URL, "reason", reason)
			continue
		}
		validated = append(validated, l)
	}
	res.Validated = len(validated)

	selected := d.selectBatch(validated)
	res.Selected = len(selected)
	if len(selected) == 0 {
		slog.Info("no candidates to dispatch",
			"pool", res.Candidates, "suppressed", res.Suppressed)
		return res, nil
	}

	var acked []string
	for _, l := range selected {
		msg := FormatMessage(l)
		if opts.DryRun {
			slog.Info("dry run, would dispatch", "url", l.URL, "score", deref(l.Score))
			continue
		}
		if err := d.notifier.Notify(ctx, l, msg); err != nil {
			slog.Warn("failed to dispatch listing", "url", l.URL, "error", err)
			res.Failed++
			continue
		}
		res.Dispatched++
		acked = append(acked, l.URL)
	}

	if len(acked) > 0 {
		if err := d.store.MarkSent(ctx, acked, d.now()); err != nil {
			return res, fmt.Errorf("failed to mark listings sent: %w", err)
		}
	}
	return res, nil
}

// selectBatch picks up to Limit listings from the pool at random, so
// repeated runs over a stable pool do not always show the literal
// top of the ranking. The batch itself comes back best first. A pool
// smaller than the limit shrinks the batch instead of failing.
func (d *Dispatcher) selectBatch(pool []*models.Listing) []*models.Listing {
	n := d.cfg.Limit
	if len(pool) <= n {
		n = len(pool)
	} else {
		d.rng.Shuffle(len(pool), func(i, j int) {
			pool[i], pool[j] = pool[j], pool[i]
		})
	}
	batch := make([]*models.Listing, n)
	copy(batch, pool[:n])
	sort.Slice(batch, func(i, j int) bool {
		return deref(batch[i].Score) > deref(batch[j].Score)
	})
	return batch
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
