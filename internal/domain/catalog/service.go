package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pokepacks/pokepacks/internal/domain/packs"
	"github.com/sahilm/fuzzy"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultFetchTimeout = 15 * time.Second
	persistTimeout      = 30 * time.Second
)

type ServiceConfig struct {
	// ChunkSize caps the number of ids per remote id-batch query.
	ChunkSize int
	// FetchTimeout bounds every interactive remote call.
	FetchTimeout time.Duration
	Now          func() time.Time
}

func (c ServiceConfig) withDefaults() ServiceConfig {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Service is what command handlers talk to. It serves cards and sets from the
// caches and falls back to the remote catalog on a miss, backfilling the
// caches with whatever it fetched.
type Service struct {
	client    Client
	cards     *CardCache
	sets      *SetCache
	generator *packs.Generator
	store     SnapshotStore
	cfg       ServiceConfig

	// one remote call in flight per card id, set id or set backfill
	flight singleflight.Group
}

func NewService(client Client, cards *CardCache, sets *SetCache, generator *packs.Generator, cfg ServiceConfig) *Service {
	return &Service{
		client:    client,
		cards:     cards,
		sets:      sets,
		generator: generator,
		cfg:       cfg.withDefaults(),
	}
}

// SetSnapshotStore attaches durable storage. Must be called before Warm and
// before the service is shared.
func (s *Service) SetSnapshotStore(store SnapshotStore) {
	s.store = store
}

func (s *Service) Cards() *CardCache {
	return s.cards
}

func (s *Service) Sets() *SetCache {
	return s.sets
}

// Warm fills both caches from the snapshot store.
func (s *Service) Warm(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	start := time.Now()

	sets, err := s.store.LoadSets(ctx)
	if err != nil {
		return fmt.Errorf("failed to load sets: %w", err)
	}
	s.sets.PutMany(sets)

	cards, err := s.store.LoadCards(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cards: %w", err)
	}
	restored := s.cards.Restore(cards)

	slog.Info("Catalog cache warmed",
		slog.String("type", "catalog"),
		slog.Int("sets", len(sets)),
		slog.Int("cards", restored),
		slog.Duration("took", time.Since(start)),
	)
	return nil
}

// GetCard returns the card with the given id, fetching it on a cache miss.
func (s *Service) GetCard(ctx context.Context, id string) (Card, error) {
	if card, ok := s.cards.Get(id); ok {
		return card, nil
	}

	v, err, _ := s.flight.Do("card:"+id, func() (any, error) {
		// filled by a call that finished while we were queued
		if card, ok := s.cards.Get(id); ok {
			return card, nil
		}
		fctx, cancel := s.fetchContext(ctx)
		defer cancel()

		card, err := s.client.GetCard(fctx, id)
		if err != nil {
			return nil, asRemoteError("get card", err)
		}
		if s.cards.PutMany([]Card{card}) > 0 {
			s.persistCards([]Card{card})
		}
		return card, nil
	})
	if err != nil {
		return Card{}, err
	}
	return v.(Card), nil
}

// GetSet returns the set with the given id, fetching it on a cache miss.
func (s *Service) GetSet(ctx context.Context, id string) (Set, error) {
	if set, ok := s.sets.Get(id); ok {
		return set, nil
	}

	v, err, _ := s.flight.Do("set:"+id, func() (any, error) {
		if set, ok := s.sets.Get(id); ok {
			return set, nil
		}
		fctx, cancel := s.fetchContext(ctx)
		defer cancel()

		set, err := s.client.GetSet(fctx, id)
		if err != nil {
			return nil, asRemoteError("get set", err)
		}
		s.sets.Put(set)
		s.persistSets([]Set{set})
		return set, nil
	})
	if err != nil {
		return Set{}, err
	}
	return v.(Set), nil
}

// ListSets returns every set of the catalog, oldest first. The first call
// loads the full list; later calls are served from memory.
func (s *Service) ListSets(ctx context.Context) ([]Set, error) {
	if s.sets.Complete() {
		return s.sets.All(), nil
	}

	_, err, _ := s.flight.Do("sets:all", func() (any, error) {
		if s.sets.Complete() {
			return nil, nil
		}
		fctx, cancel := s.fetchContext(ctx)
		defer cancel()

		sets, err := s.client.SearchSets(fctx, "")
		if err != nil {
			return nil, asRemoteError("list sets", err)
		}
		s.sets.PutMany(sets)
		s.sets.MarkComplete()
		s.persistSets(sets)
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return s.sets.All(), nil
}

// SearchSets runs a free query against the catalog and caches the result.
func (s *Service) SearchSets(ctx context.Context, query string) ([]Set, error) {
	fctx, cancel := s.fetchContext(ctx)
	defer cancel()

	sets, err := s.client.SearchSets(fctx, query)
	if err != nil {
		return nil, asRemoteError("search sets", err)
	}
	s.sets.PutMany(sets)
	s.persistSets(sets)
	return sets, nil
}

// SearchCards runs a free query against the catalog and caches the result.
func (s *Service) SearchCards(ctx context.Context, query string) ([]Card, error) {
	fctx, cancel := s.fetchContext(ctx)
	defer cancel()

	cards, err := s.client.SearchCards(fctx, query)
	if err != nil {
		return nil, asRemoteError("search cards", err)
	}
	s.backfill(cards)
	return cards, nil
}

// GetCardsBySet returns every card of the set. A set whose cached card count
// already reaches its declared total is trusted as fully synced and served
// without a remote call.
func (s *Service) GetCardsBySet(ctx context.Context, set Set) ([]Card, error) {
	cached := s.cards.GetBySet(set.ID)
	if len(cached) >= set.Total {
		return cached, nil
	}

	v, err, _ := s.flight.Do("set-cards:"+set.ID, func() (any, error) {
		// synced by a backfill that finished while we were queued
		if synced := s.cards.GetBySet(set.ID); len(synced) >= set.Total {
			return synced, nil
		}
		fctx, cancel := s.fetchContext(ctx)
		defer cancel()

		fetched, err := s.client.SearchCards(fctx, SetQuery(set.ID))
		if err != nil {
			return nil, asRemoteError("search set cards", err)
		}
		// cached before the flight ends so later callers find the set synced
		s.backfill(fetched)
		return fetched, nil
	})
	if err != nil {
		return nil, err
	}
	return mergeCards(cached, v.([]Card)), nil
}

// GetCardsByIDs returns the cards with the given ids. Misses are fetched in
// chunks; a chunk that fails is left out of the result. An error is returned
// only when nothing at all could be served.
func (s *Service) GetCardsByIDs(ctx context.Context, ids []string) ([]Card, error) {
	ids = uniqueIDs(ids)
	cached := s.cards.GetMany(ids)
	if len(cached) == len(ids) {
		return cached, nil
	}

	have := make(map[string]struct{}, len(cached))
	for _, c := range cached {
		have[c.ID] = struct{}{}
	}
	missing := make([]string, 0, len(ids)-len(cached))
	for _, id := range ids {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}

	var (
		fetched []Card
		lastErr error
	)
	chunks := ChunkIDs(missing, s.cfg.ChunkSize)
	for i, chunk := range chunks {
		cards, err := s.fetchChunk(ctx, chunk)
		if err != nil {
			lastErr = err
			slog.Warn("Card chunk fetch failed",
				slog.String("type", "catalog"),
				slog.Int("chunk", i+1),
				slog.Int("chunks", len(chunks)),
				slog.Int("ids", len(chunk)),
				slog.Any("error", err),
			)
			continue
		}
		fetched = append(fetched, cards...)
	}

	s.backfill(fetched)
	merged := mergeCards(cached, fetched)
	if len(merged) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return merged, nil
}

func (s *Service) fetchChunk(ctx context.Context, ids []string) ([]Card, error) {
	fctx, cancel := s.fetchContext(ctx)
	defer cancel()

	cards, err := s.client.SearchCards(fctx, IDQuery(ids))
	if err != nil {
		return nil, asRemoteError("search cards by id", err)
	}
	return cards, nil
}

// OpenPacks draws n packs from the set. The set's cards are synced first so
// the draw sees the full rarity spread.
func (s *Service) OpenPacks(ctx context.Context, setID string, n int) (PackOpening, error) {
	if n < 1 {
		return PackOpening{}, packs.ErrInvalidPackCount
	}

	set, err := s.GetSet(ctx, setID)
	if err != nil {
		return PackOpening{}, err
	}
	cards, err := s.GetCardsBySet(ctx, set)
	if err != nil {
		return PackOpening{}, err
	}

	drawn, err := packs.Open(s.generator, cards, n)
	if err != nil {
		if errors.Is(err, packs.ErrEmptyDrawPool) {
			slog.Error("Pack generation hit an empty pool",
				slog.String("type", "catalog"),
				slog.String("set", set.ID),
				slog.Int("cards", len(cards)),
				slog.Int("packs", n),
				slog.Any("error", err),
			)
		}
		return PackOpening{}, err
	}

	return PackOpening{
		ID:       uuid.NewString(),
		SetID:    set.ID,
		Count:    n,
		Cards:    drawn,
		OpenedAt: s.cfg.Now(),
	}, nil
}

// SearchCached fuzzy-matches cached card names. It never goes remote.
func (s *Service) SearchCached(term string, limit int) []Card {
	all := s.cards.All()
	if term == "" || len(all) == 0 {
		return nil
	}

	matches := fuzzy.FindFrom(term, cardNames(all))
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]Card, len(matches))
	for i, m := range matches {
		out[i] = all[m.Index]
	}
	return out
}

// SearchCachedSets fuzzy-matches cached set names and ids.
func (s *Service) SearchCachedSets(term string, limit int) []Set {
	all := s.sets.All()
	if term == "" || len(all) == 0 {
		return nil
	}

	matches := fuzzy.FindFrom(term, setNames(all))
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]Set, len(matches))
	for i, m := range matches {
		out[i] = all[m.Index]
	}
	return out
}

type cardNames []Card

func (c cardNames) String(i int) string { return c[i].Name }
func (c cardNames) Len() int            { return len(c) }

type setNames []Set

func (s setNames) String(i int) string { return s[i].Name + " " + s[i].ID }
func (s setNames) Len() int            { return len(s) }

// backfill caches the cards that are not cached yet.
func (s *Service) backfill(cards []Card) {
	fresh := make([]Card, 0, len(cards))
	seen := make(map[string]struct{}, len(cards))
	for _, c := range cards {
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		if _, ok := s.cards.Entry(c.ID); ok {
			continue
		}
		fresh = append(fresh, c)
	}
	if s.cards.PutMany(fresh) > 0 {
		s.persistCards(fresh)
	}
}

// fetchContext detaches a shared remote call from the caller that happened to
// start it, so one abandoned command does not fail every waiter.
func (s *Service) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.cfg.FetchTimeout)
}

func (s *Service) persistCards(cards []Card) {
	if s.store == nil || len(cards) == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.store.SaveCards(ctx, cards); err != nil {
			slog.Warn("Failed to persist cards",
				slog.String("type", "catalog"),
				slog.Int("count", len(cards)),
				slog.Any("error", err),
			)
		}
	}()
}

func (s *Service) persistSets(sets []Set) {
	if s.store == nil || len(sets) == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.store.SaveSets(ctx, sets); err != nil {
			slog.Warn("Failed to persist sets",
				slog.String("type", "catalog"),
				slog.Int("count", len(sets)),
				slog.Any("error", err),
			)
		}
	}()
}

// mergeCards concatenates the lists, dropping repeated ids.
func mergeCards(a, b []Card) []Card {
	out := make([]Card, 0, len(a)+len(b))
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, list := range [][]Card{a, b} {
		for _, c := range list {
			if _, ok := seen[c.ID]; ok {
				continue
			}
			seen[c.ID] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}
