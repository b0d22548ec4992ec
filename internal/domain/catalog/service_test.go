package catalog_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pokepacks/pokepacks/internal/domain/catalog"
	"github.com/pokepacks/pokepacks/internal/domain/catalog/mock"
	"github.com/pokepacks/pokepacks/internal/domain/packs"
	"go.uber.org/mock/gomock"
)

var baseSet = catalog.Set{
	ID:          "base1",
	Name:        "Base",
	Series:      "Base",
	Printed:     7,
	Total:       7,
	ReleaseDate: time.Date(1999, 1, 9, 0, 0, 0, 0, time.UTC),
}

func card(id, rarity string) catalog.Card {
	return catalog.Card{ID: id, Name: "Card " + id, Set: baseSet, Rarity: rarity, Price: 1}
}

var baseCards = []catalog.Card{
	card("base1-1", "Rare Holo"),
	card("base1-2", "Common"),
	card("base1-3", "Common"),
	card("base1-4", "Common"),
	card("base1-5", "Uncommon"),
	card("base1-6", "Uncommon"),
	card("base1-7", "Uncommon"),
}

func newService(t *testing.T) (*catalog.Service, *mock.MockClient) {
	t.Helper()
	client := mock.NewMockClient(gomock.NewController(t))
	svc := catalog.NewService(
		client,
		catalog.NewCardCache(catalog.CacheConfig{}),
		catalog.NewSetCache(0),
		packs.NewGenerator(nil, rand.NewPCG(1, 2)),
		catalog.ServiceConfig{ChunkSize: 250},
	)
	return svc, client
}

// idsFromQuery undoes catalog.IDQuery.
func idsFromQuery(q string) []string {
	q = strings.TrimSuffix(strings.TrimPrefix(q, "("), ")")
	terms := strings.Split(q, " OR ")
	ids := make([]string, len(terms))
	for i, term := range terms {
		ids[i] = strings.TrimPrefix(term, "id:")
	}
	return ids
}

func TestService_GetCard(t *testing.T) {
	svc, client := newService(t)
	client.EXPECT().
		GetCard(gomock.Any(), "base1-4").
		Return(card("base1-4", "Rare Holo"), nil).
		Times(1)

	for i := 0; i < 3; i++ {
		got, err := svc.GetCard(context.Background(), "base1-4")
		if err != nil {
			t.Fatalf("Service.GetCard() error = %v", err)
		}
		if got.ID != "base1-4" {
			t.Errorf("Service.GetCard() = %v", got)
		}
	}
}

func TestService_GetCardErrors(t *testing.T) {
	tests := []struct {
		name      string
		clientErr error
		want      error
	}{
		{
			name:      "NotFound",
			clientErr: &catalog.NotFoundError{Entity: "card", ID: "nope-1"},
			want:      catalog.ErrNotFound,
		},
		{
			name:      "RemoteFailure",
			clientErr: errors.New("connection reset"),
			want:      catalog.ErrRemoteFetchFailed,
		},
		{
			name:      "Timeout",
			clientErr: context.DeadlineExceeded,
			want:      catalog.ErrRemoteFetchFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, client := newService(t)
			client.EXPECT().GetCard(gomock.Any(), "nope-1").Return(catalog.Card{}, tt.clientErr)

			_, err := svc.GetCard(context.Background(), "nope-1")
			if !errors.Is(err, tt.want) {
				t.Errorf("Service.GetCard() error = %v, want %v", err, tt.want)
			}
			if svc.Cards().Len() != 0 {
				t.Error("failed fetch left an entry in the cache")
			}
		})
	}
}

func TestService_GetCardSingleFlight(t *testing.T) {
	svc, client := newService(t)

	started := make(chan struct{})
	release := make(chan struct{})
	client.EXPECT().
		GetCard(gomock.Any(), "base1-4").
		DoAndReturn(func(ctx context.Context, id string) (catalog.Card, error) {
			close(started)
			<-release
			return card(id, "Rare Holo"), nil
		}).
		Times(1)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.GetCard(context.Background(), "base1-4")
			errs <- err
		}()
	}

	<-started
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Service.GetCard() error = %v", err)
		}
	}
}

func TestService_GetCardsBySetCompleteSkipsRemote(t *testing.T) {
	// no expectations: any client call fails the test
	svc, _ := newService(t)
	svc.Cards().PutMany(baseCards)

	got, err := svc.GetCardsBySet(context.Background(), baseSet)
	if err != nil {
		t.Fatalf("Service.GetCardsBySet() error = %v", err)
	}
	if len(got) != len(baseCards) {
		t.Errorf("Service.GetCardsBySet() returned %d cards, want %d", len(got), len(baseCards))
	}
}

func TestService_GetCardsBySetEmptySet(t *testing.T) {
	// no expectations: a set declaring zero cards is already complete
	svc, _ := newService(t)

	got, err := svc.GetCardsBySet(context.Background(), catalog.Set{ID: "empty", Total: 0})
	if err != nil {
		t.Fatalf("Service.GetCardsBySet() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Service.GetCardsBySet() returned %d cards, want 0", len(got))
	}
}

func TestService_GetCardsBySetSingleFlight(t *testing.T) {
	svc, client := newService(t)
	client.EXPECT().
		SearchCards(gomock.Any(), "set.id:base1").
		DoAndReturn(func(ctx context.Context, q string) ([]catalog.Card, error) {
			time.Sleep(20 * time.Millisecond)
			return baseCards, nil
		}).
		Times(1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := svc.GetCardsBySet(context.Background(), baseSet)
			if err != nil {
				t.Errorf("Service.GetCardsBySet() error = %v", err)
				return
			}
			if len(got) != len(baseCards) {
				t.Errorf("Service.GetCardsBySet() returned %d cards, want %d", len(got), len(baseCards))
			}
		}()
	}
	wg.Wait()
}

func TestService_GetCardsBySetBackfills(t *testing.T) {
	svc, client := newService(t)
	svc.Cards().PutMany(baseCards[:2])

	client.EXPECT().
		SearchCards(gomock.Any(), "set.id:base1").
		Return(baseCards, nil).
		Times(1)

	got, err := svc.GetCardsBySet(context.Background(), baseSet)
	if err != nil {
		t.Fatalf("Service.GetCardsBySet() error = %v", err)
	}
	if len(got) != len(baseCards) {
		t.Errorf("Service.GetCardsBySet() returned %d cards, want %d", len(got), len(baseCards))
	}
	seen := map[string]bool{}
	for _, c := range got {
		if seen[c.ID] {
			t.Errorf("duplicate card %s in result", c.ID)
		}
		seen[c.ID] = true
	}
	if svc.Cards().Len() != len(baseCards) {
		t.Errorf("cache holds %d cards after backfill, want %d", svc.Cards().Len(), len(baseCards))
	}

	// now complete: served from memory
	if _, err := svc.GetCardsBySet(context.Background(), baseSet); err != nil {
		t.Errorf("second Service.GetCardsBySet() error = %v", err)
	}
}

func TestService_GetCardsByIDsChunks(t *testing.T) {
	svc, client := newService(t)

	ids := make([]string, 600)
	for i := range ids {
		ids[i] = fmt.Sprintf("sv1-%d", i)
	}
	// repeated ids are fetched once
	request := append(append([]string{}, ids...), ids[:50]...)

	client.EXPECT().
		SearchCards(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, q string) ([]catalog.Card, error) {
			chunk := idsFromQuery(q)
			if len(chunk) > 250 {
				t.Errorf("query carries %d ids, want at most 250", len(chunk))
			}
			cards := make([]catalog.Card, len(chunk))
			for i, id := range chunk {
				cards[i] = catalog.Card{ID: id, Set: catalog.Set{ID: "sv1"}}
			}
			// the catalog may echo a card twice across pages
			return append(cards, cards[0]), nil
		}).
		Times(3)

	got, err := svc.GetCardsByIDs(context.Background(), request)
	if err != nil {
		t.Fatalf("Service.GetCardsByIDs() error = %v", err)
	}
	if len(got) != 600 {
		t.Errorf("Service.GetCardsByIDs() returned %d cards, want 600", len(got))
	}
	seen := map[string]bool{}
	for _, c := range got {
		if seen[c.ID] {
			t.Fatalf("duplicate card %s in result", c.ID)
		}
		seen[c.ID] = true
	}
}

func TestService_GetCardsByIDsPartialFailure(t *testing.T) {
	svc, client := newService(t)

	ids := make([]string, 300)
	for i := range ids {
		ids[i] = fmt.Sprintf("sv2-%d", i)
	}

	gomock.InOrder(
		client.EXPECT().
			SearchCards(gomock.Any(), gomock.Any()).
			Return(nil, errors.New("502 bad gateway")),
		client.EXPECT().
			SearchCards(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, q string) ([]catalog.Card, error) {
				var cards []catalog.Card
				for _, id := range idsFromQuery(q) {
					cards = append(cards, catalog.Card{ID: id})
				}
				return cards, nil
			}),
	)

	got, err := svc.GetCardsByIDs(context.Background(), ids)
	if err != nil {
		t.Fatalf("Service.GetCardsByIDs() error = %v", err)
	}
	if len(got) != 50 {
		t.Errorf("Service.GetCardsByIDs() returned %d cards, want the 50 of the healthy chunk", len(got))
	}
}

func TestService_GetCardsByIDsAllFailed(t *testing.T) {
	svc, client := newService(t)
	client.EXPECT().
		SearchCards(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("503 service unavailable"))

	_, err := svc.GetCardsByIDs(context.Background(), []string{"a", "b"})
	if !errors.Is(err, catalog.ErrRemoteFetchFailed) {
		t.Errorf("Service.GetCardsByIDs() error = %v, want ErrRemoteFetchFailed", err)
	}
}

func TestService_OpenPacks(t *testing.T) {
	svc, _ := newService(t)
	svc.Sets().Put(baseSet)
	svc.Cards().PutMany(baseCards)

	opening, err := svc.OpenPacks(context.Background(), "base1", 3)
	if err != nil {
		t.Fatalf("Service.OpenPacks() error = %v", err)
	}
	if opening.ID == "" {
		t.Error("opening has no id")
	}
	if opening.SetID != "base1" || opening.Count != 3 {
		t.Errorf("opening = %+v", opening)
	}
	if len(opening.Cards) != 30 {
		t.Errorf("opened %d cards, want 30", len(opening.Cards))
	}

	counts := map[string]int{}
	for _, c := range opening.Cards {
		counts[c.Rarity]++
	}
	if counts["Common"] != 18 || counts["Uncommon"] != 9 || counts["Rare Holo"] != 3 {
		t.Errorf("rarity counts = %v, want 18 commons, 9 uncommons, 3 rares", counts)
	}
}

func TestService_OpenPacksFetchesSet(t *testing.T) {
	svc, client := newService(t)
	client.EXPECT().GetSet(gomock.Any(), "base1").Return(baseSet, nil).Times(1)
	client.EXPECT().SearchCards(gomock.Any(), "set.id:base1").Return(baseCards, nil).Times(1)

	opening, err := svc.OpenPacks(context.Background(), "base1", 1)
	if err != nil {
		t.Fatalf("Service.OpenPacks() error = %v", err)
	}
	if len(opening.Cards) != 10 {
		t.Errorf("opened %d cards, want 10", len(opening.Cards))
	}
}

func TestService_OpenPacksInvalidCount(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.OpenPacks(context.Background(), "base1", 0); !errors.Is(err, packs.ErrInvalidPackCount) {
		t.Errorf("Service.OpenPacks(0) error = %v, want ErrInvalidPackCount", err)
	}
}

func TestService_OpenPacksEmptyPool(t *testing.T) {
	svc, _ := newService(t)
	set := catalog.Set{ID: "odd", Total: 1}
	svc.Sets().Put(set)
	svc.Cards().Put(catalog.Card{ID: "odd-1", Set: set, Rarity: "Common"})

	if _, err := svc.OpenPacks(context.Background(), "odd", 1); !errors.Is(err, packs.ErrEmptyDrawPool) {
		t.Errorf("Service.OpenPacks() error = %v, want ErrEmptyDrawPool", err)
	}
}

func TestService_ListSets(t *testing.T) {
	svc, client := newService(t)
	jungle := catalog.Set{ID: "base2", ReleaseDate: time.Date(1999, 6, 16, 0, 0, 0, 0, time.UTC)}
	client.EXPECT().
		SearchSets(gomock.Any(), "").
		Return([]catalog.Set{jungle, baseSet}, nil).
		Times(1)

	for i := 0; i < 2; i++ {
		sets, err := svc.ListSets(context.Background())
		if err != nil {
			t.Fatalf("Service.ListSets() error = %v", err)
		}
		if len(sets) != 2 || sets[0].ID != "base1" {
			t.Errorf("Service.ListSets() = %v, want base1 first", sets)
		}
	}
}

func TestService_SearchCached(t *testing.T) {
	svc, _ := newService(t)
	svc.Cards().PutMany([]catalog.Card{
		{ID: "base1-4", Name: "Charizard"},
		{ID: "base1-2", Name: "Blastoise"},
		{ID: "sm3-20", Name: "Charizard GX"},
	})

	got := svc.SearchCached("chariz", 5)
	if len(got) != 2 {
		t.Fatalf("Service.SearchCached() = %v, want both Charizards", got)
	}
	for _, c := range got {
		if !strings.HasPrefix(c.Name, "Charizard") {
			t.Errorf("unexpected match %q", c.Name)
		}
	}
	if got := svc.SearchCached("chariz", 1); len(got) != 1 {
		t.Errorf("limit ignored: %d results", len(got))
	}
}

func TestService_SearchCachedSets(t *testing.T) {
	svc, _ := newService(t)
	svc.Sets().PutMany([]catalog.Set{
		{ID: "base1", Name: "Base"},
		{ID: "base2", Name: "Jungle"},
		{ID: "swsh1", Name: "Sword & Shield"},
	})

	got := svc.SearchCachedSets("jungle", 5)
	if len(got) != 1 || got[0].ID != "base2" {
		t.Errorf("Service.SearchCachedSets(jungle) = %v", got)
	}
	if got := svc.SearchCachedSets("swsh", 5); len(got) != 1 || got[0].ID != "swsh1" {
		t.Errorf("Service.SearchCachedSets(swsh) = %v", got)
	}
	if got := svc.SearchCachedSets("", 5); got != nil {
		t.Errorf("empty term matched %v", got)
	}
}

func TestService_Warm(t *testing.T) {
	svc, _ := newService(t)
	store := mock.NewMockSnapshotStore(gomock.NewController(t))
	store.EXPECT().LoadSets(gomock.Any()).Return([]catalog.Set{baseSet}, nil)
	store.EXPECT().LoadCards(gomock.Any()).Return(baseCards, nil)
	svc.SetSnapshotStore(store)

	if err := svc.Warm(context.Background()); err != nil {
		t.Fatalf("Service.Warm() error = %v", err)
	}
	if svc.Cards().Len() != len(baseCards) {
		t.Errorf("warm cache holds %d cards, want %d", svc.Cards().Len(), len(baseCards))
	}
	if _, ok := svc.Sets().Get("base1"); !ok {
		t.Error("warm set cache is missing base1")
	}
}
