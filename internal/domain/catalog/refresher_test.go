package catalog_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/pokepacks/pokepacks/internal/domain/catalog"
	"github.com/pokepacks/pokepacks/internal/domain/catalog/mock"
	"go.uber.org/mock/gomock"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newRefresher(t *testing.T, maxRetries int) (*catalog.Refresher, *catalog.CardCache, *mock.MockClient, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
	cards := catalog.NewCardCache(catalog.CacheConfig{Now: clock.Now})
	client := mock.NewMockClient(gomock.NewController(t))
	r := catalog.NewRefresher(client, cards, catalog.RefresherConfig{
		ChunkSize:   250,
		MaxRetries:  maxRetries,
		Backoff:     time.Millisecond,
		Concurrency: 2,
		Now:         clock.Now,
	})
	return r, cards, client, clock
}

func repriced(price float64) func(context.Context, string) ([]catalog.Card, error) {
	return func(ctx context.Context, q string) ([]catalog.Card, error) {
		ids := idsFromQuery(q)
		out := make([]catalog.Card, len(ids))
		for i, id := range ids {
			out[i] = catalog.Card{ID: id, Price: price}
		}
		return out, nil
	}
}

func TestRefresher_RefreshesOnlyOutdated(t *testing.T) {
	r, cards, client, clock := newRefresher(t, 0)
	cards.Put(catalog.Card{ID: "old", Price: 1})
	clock.Advance(catalog.DefaultRefreshAfter)
	cards.Put(catalog.Card{ID: "new", Price: 1})

	client.EXPECT().
		SearchCards(gomock.Any(), "(id:old)").
		DoAndReturn(repriced(7.5)).
		Times(1)

	stats, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("Refresher.RunOnce() error = %v", err)
	}
	if stats.Due != 1 || stats.Refreshed != 1 {
		t.Errorf("stats = %+v, want 1 due and 1 refreshed", stats)
	}

	got, _ := cards.Entry("old")
	if got.Card.Price != 7.5 {
		t.Errorf("price = %v, want 7.5", got.Card.Price)
	}
	if !got.Card.LastPriced.Equal(clock.Now()) {
		t.Errorf("LastPriced = %v, want %v", got.Card.LastPriced, clock.Now())
	}
	if want := clock.Now().Add(catalog.DefaultRefreshAfter); !got.NextRefresh.Equal(want) {
		t.Errorf("NextRefresh = %v, want %v", got.NextRefresh, want)
	}
}

func TestRefresher_EvictsAfterPriceWrites(t *testing.T) {
	r, cards, client, clock := newRefresher(t, 0)
	cards.Put(catalog.Card{ID: "due-and-idle", Price: 1})
	cards.Put(catalog.Card{ID: "idle", Price: 1})
	cards.Defer([]string{"idle"}, clock.Now().Add(30*24*time.Hour))

	clock.Advance(catalog.DefaultRetention + time.Hour)

	client.EXPECT().
		SearchCards(gomock.Any(), "(id:due-and-idle)").
		DoAndReturn(repriced(3)).
		Times(1)

	stats, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("Refresher.RunOnce() error = %v", err)
	}
	if stats.Evicted != 1 {
		t.Errorf("evicted %d entries, want 1", stats.Evicted)
	}
	if _, ok := cards.Entry("due-and-idle"); !ok {
		t.Error("card refreshed this cycle was evicted in the same cycle")
	}
	if _, ok := cards.Entry("idle"); ok {
		t.Error("idle card survived eviction")
	}

	// still unread on the next cycle
	clock.Advance(time.Hour)
	stats, err = r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("second Refresher.RunOnce() error = %v", err)
	}
	if stats.Evicted != 1 || cards.Len() != 0 {
		t.Errorf("second cycle evicted %d, cache len %d", stats.Evicted, cards.Len())
	}
}

func TestRefresher_RetriesThenDefers(t *testing.T) {
	r, cards, client, clock := newRefresher(t, 2)

	ids := make([]string, 300)
	for i := range ids {
		ids[i] = fmt.Sprintf("sv3-%03d", i)
		cards.Put(catalog.Card{ID: ids[i], Price: 1})
	}
	clock.Advance(catalog.DefaultRefreshAfter)

	var mu sync.Mutex
	attempts := map[int]int{}
	client.EXPECT().
		SearchCards(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, q string) ([]catalog.Card, error) {
			chunk := idsFromQuery(q)
			mu.Lock()
			attempts[len(chunk)]++
			mu.Unlock()
			// the 250-id chunk keeps failing, the 50-id chunk works
			if len(chunk) == 250 {
				return nil, errors.New("502 bad gateway")
			}
			return repriced(2)(ctx, q)
		}).
		AnyTimes()

	stats, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("Refresher.RunOnce() error = %v", err)
	}
	if attempts[250] != 3 {
		t.Errorf("failing chunk tried %d times, want 3", attempts[250])
	}
	if attempts[50] != 1 {
		t.Errorf("healthy chunk tried %d times, want 1", attempts[50])
	}
	if stats.FailedChunks != 1 || stats.Refreshed != 50 || stats.Deferred != 250 {
		t.Errorf("stats = %+v", stats)
	}

	if due := cards.Outdated(); len(due) != 0 {
		t.Errorf("%d entries left due after the cycle, want 0", len(due))
	}
	clock.Advance(catalog.DefaultRefreshInterval)
	if due := cards.Outdated(); len(due) != 250 {
		t.Errorf("%d entries due one interval later, want the 250 deferred", len(due))
	}
}

func TestRefresher_DeferredDueAtNextTick(t *testing.T) {
	r, cards, client, clock := newRefresher(t, 1)
	cards.Put(catalog.Card{ID: "sv3-001", Price: 1})
	clock.Advance(catalog.DefaultRefreshAfter)

	// every failed attempt burns time on timeouts
	client.EXPECT().
		SearchCards(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, q string) ([]catalog.Card, error) {
			clock.Advance(30 * time.Second)
			return nil, errors.New("gateway timeout")
		}).
		Times(2)

	cycleStart := clock.Now()
	stats, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("Refresher.RunOnce() error = %v", err)
	}
	if stats.Deferred != 1 {
		t.Fatalf("stats = %+v, want 1 deferred", stats)
	}

	e, _ := cards.Entry("sv3-001")
	if want := cycleStart.Add(catalog.DefaultRefreshInterval); !e.NextRefresh.Equal(want) {
		t.Errorf("NextRefresh = %v, want %v", e.NextRefresh, want)
	}
	clock.Advance(cycleStart.Add(catalog.DefaultRefreshInterval).Sub(clock.Now()))
	if due := cards.Outdated(); len(due) != 1 {
		t.Errorf("%d entries due at the next tick, want the deferred one", len(due))
	}
}

func TestRefresher_DefersCardsMissingFromResponse(t *testing.T) {
	r, cards, client, clock := newRefresher(t, 0)
	cards.PutMany([]catalog.Card{{ID: "a"}, {ID: "b"}})
	clock.Advance(catalog.DefaultRefreshAfter)

	client.EXPECT().
		SearchCards(gomock.Any(), gomock.Any()).
		Return([]catalog.Card{{ID: "a", Price: 4}}, nil)

	stats, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("Refresher.RunOnce() error = %v", err)
	}
	if stats.Refreshed != 1 || stats.Deferred != 1 {
		t.Errorf("stats = %+v, want 1 refreshed and 1 deferred", stats)
	}
	e, _ := cards.Entry("b")
	if want := clock.Now().Add(catalog.DefaultRefreshInterval); !e.NextRefresh.Equal(want) {
		t.Errorf("NextRefresh of b = %v, want %v", e.NextRefresh, want)
	}
}

func TestRefresher_PersistsCycle(t *testing.T) {
	r, cards, client, clock := newRefresher(t, 0)
	store := mock.NewMockSnapshotStore(gomock.NewController(t))
	r.SetSnapshotStore(store)

	cards.Put(catalog.Card{ID: "due"})
	cards.Put(catalog.Card{ID: "idle"})
	cards.Defer([]string{"idle"}, clock.Now().Add(30*24*time.Hour))
	clock.Advance(catalog.DefaultRetention + time.Hour)

	client.EXPECT().SearchCards(gomock.Any(), "(id:due)").DoAndReturn(repriced(5))

	var saved []string
	store.EXPECT().
		SaveCards(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, cs []catalog.Card) error {
			for _, c := range cs {
				saved = append(saved, c.ID)
			}
			return nil
		})
	store.EXPECT().DeleteCards(gomock.Any(), []string{"idle"}).Return(nil)

	if _, err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("Refresher.RunOnce() error = %v", err)
	}
	sort.Strings(saved)
	if len(saved) != 1 || saved[0] != "due" {
		t.Errorf("saved %v, want [due]", saved)
	}
}

func TestRefresher_NothingDue(t *testing.T) {
	r, cards, _, _ := newRefresher(t, 0)
	cards.Put(catalog.Card{ID: "fresh"})

	stats, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("Refresher.RunOnce() error = %v", err)
	}
	if stats.Due != 0 || stats.Chunks != 0 {
		t.Errorf("stats = %+v, want an empty cycle", stats)
	}
}
