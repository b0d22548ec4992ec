package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultRefreshInterval = time.Hour
	DefaultMaxRetries      = 3
	DefaultRetryBackoff    = 2 * time.Second
	DefaultConcurrency     = 2
)

var ErrRefreshInProgress = errors.New("price refresh already running")

type RefresherConfig struct {
	// Interval between cycles; chunks that fail are deferred by one interval.
	Interval     time.Duration
	ChunkSize    int
	MaxRetries   int
	Backoff      time.Duration
	Concurrency  int64
	FetchTimeout time.Duration
	Now          func() time.Time
}

func (c RefresherConfig) withDefaults() RefresherConfig {
	if c.Interval <= 0 {
		c.Interval = DefaultRefreshInterval
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.Backoff <= 0 {
		c.Backoff = DefaultRetryBackoff
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// RefreshStats summarizes one refresh cycle.
type RefreshStats struct {
	Due          int
	Chunks       int
	FailedChunks int
	Refreshed    int
	Deferred     int
	Evicted      int
	Took         time.Duration
}

// Refresher re-prices outdated cache entries and sweeps idle ones.
type Refresher struct {
	client  Client
	cards   *CardCache
	store   SnapshotStore
	cfg     RefresherConfig
	sem     *semaphore.Weighted
	running atomic.Bool
}

func NewRefresher(client Client, cards *CardCache, cfg RefresherConfig) *Refresher {
	cfg = cfg.withDefaults()
	return &Refresher{
		client: client,
		cards:  cards,
		cfg:    cfg,
		sem:    semaphore.NewWeighted(cfg.Concurrency),
	}
}

// SetSnapshotStore makes every cycle save refreshed cards and delete evicted ones.
func (r *Refresher) SetSnapshotStore(store SnapshotStore) {
	r.store = store
}

// Start runs a cycle every interval until ctx is done.
func (r *Refresher) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := r.RunOnce(ctx); err != nil && !errors.Is(err, ErrRefreshInProgress) {
					slog.Error("Price refresh failed",
						slog.String("type", "catalog"),
						slog.Any("error", err),
					)
				}
			}
		}
	}()
}

// RunOnce refreshes every outdated entry, then evicts idle entries. Chunks
// that fail after all retries are deferred to the next cycle.
func (r *Refresher) RunOnce(ctx context.Context) (RefreshStats, error) {
	if !r.running.CompareAndSwap(false, true) {
		return RefreshStats{}, ErrRefreshInProgress
	}
	defer r.running.Store(false)

	start := time.Now()
	// deferrals count from the tick that started the cycle, so they are due
	// again at the next tick however long retries took
	cycleStart := r.cfg.Now()
	due := r.cards.Outdated()
	ids := make([]string, len(due))
	for i, e := range due {
		ids[i] = e.Card.ID
	}
	chunks := ChunkIDs(ids, r.cfg.ChunkSize)
	stats := RefreshStats{Due: len(due), Chunks: len(chunks)}

	var (
		mu        sync.Mutex
		refreshed []Card
		deferred  []string
	)

	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		g.Go(func() error {
			if err := r.sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer r.sem.Release(1)

			cards, err := r.fetchWithRetry(gctx, chunk)
			if err != nil {
				slog.Warn("Price chunk deferred",
					slog.String("type", "catalog"),
					slog.Int("chunk", i+1),
					slog.Int("ids", len(chunk)),
					slog.Any("error", err),
				)
				mu.Lock()
				stats.FailedChunks++
				deferred = append(deferred, chunk...)
				mu.Unlock()
				return nil
			}

			pricedAt := r.cfg.Now()
			updated := make([]Card, 0, len(cards))
			got := make(map[string]struct{}, len(cards))
			for _, c := range cards {
				if card, ok := r.cards.UpdatePrice(c.ID, c.Price, pricedAt); ok {
					updated = append(updated, card)
					got[c.ID] = struct{}{}
				}
			}
			var missing []string
			for _, id := range chunk {
				if _, ok := got[id]; !ok {
					missing = append(missing, id)
				}
			}

			mu.Lock()
			refreshed = append(refreshed, updated...)
			deferred = append(deferred, missing...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	r.cards.Defer(deferred, cycleStart.Add(r.cfg.Interval))

	// only after every price write of this cycle; cards repriced just now
	// wait for the next sweep
	spare := make([]string, len(refreshed))
	for i, c := range refreshed {
		spare[i] = c.ID
	}
	evicted := r.cards.EvictStale(spare...)

	r.persist(ctx, refreshed, evicted)

	stats.Refreshed = len(refreshed)
	stats.Deferred = len(deferred)
	stats.Evicted = len(evicted)
	stats.Took = time.Since(start)

	slog.Info("Price refresh completed",
		slog.String("type", "catalog"),
		slog.Int("due", stats.Due),
		slog.Int("refreshed", stats.Refreshed),
		slog.Int("deferred", stats.Deferred),
		slog.Int("evicted", stats.Evicted),
		slog.Int("failed_chunks", stats.FailedChunks),
		slog.Duration("took", stats.Took),
	)
	return stats, nil
}

func (r *Refresher) fetchWithRetry(ctx context.Context, ids []string) ([]Card, error) {
	query := IDQuery(ids)
	backoff := r.cfg.Backoff

	for attempt := 0; ; attempt++ {
		fctx, cancel := context.WithTimeout(ctx, r.cfg.FetchTimeout)
		cards, err := r.client.SearchCards(fctx, query)
		cancel()
		if err == nil {
			return cards, nil
		}
		if attempt >= r.cfg.MaxRetries || errors.Is(err, ErrNotFound) || ctx.Err() != nil {
			return nil, asRemoteError("refresh prices", err)
		}

		slog.Debug("Retrying price chunk",
			slog.String("type", "catalog"),
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", backoff),
			slog.Any("error", err),
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, asRemoteError("refresh prices", ctx.Err())
		case <-timer.C:
		}
		backoff *= 2
	}
}

func (r *Refresher) persist(ctx context.Context, refreshed []Card, evicted []string) {
	if r.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if len(refreshed) > 0 {
		if err := r.store.SaveCards(ctx, refreshed); err != nil {
			slog.Warn("Failed to persist refreshed prices",
				slog.String("type", "catalog"),
				slog.Int("count", len(refreshed)),
				slog.Any("error", err),
			)
		}
	}
	if len(evicted) > 0 {
		if err := r.store.DeleteCards(ctx, evicted); err != nil {
			slog.Warn("Failed to delete evicted cards",
				slog.String("type", "catalog"),
				slog.Int("count", len(evicted)),
				slog.Any("error", err),
			)
		}
	}
}
