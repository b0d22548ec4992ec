package packs

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
)

var (
	ErrEmptyDrawPool    = errors.New("empty draw pool")
	ErrInvalidPackCount = errors.New("pack count must be at least 1")
)

// EmptyDrawPoolError means a slot had nothing to draw from.
type EmptyDrawPoolError struct {
	Tier string
}

func (e *EmptyDrawPoolError) Error() string {
	return fmt.Sprintf("no %s cards to draw from", e.Tier)
}

func (e *EmptyDrawPoolError) Is(target error) bool {
	return target == ErrEmptyDrawPool
}

// Drawable is anything with a rarity label, cards or owned cards alike.
type Drawable interface {
	RarityLabel() string
}

// Generator draws booster contents. It is safe for concurrent use.
type Generator struct {
	weights RarityWeights

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator returns a generator using weights for the rare slot. A nil
// source seeds a fresh PCG.
func NewGenerator(weights RarityWeights, src rand.Source) *Generator {
	if weights == nil {
		weights = DefaultRarityWeights
	}
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Generator{weights: weights, rng: rand.New(src)}
}

// pools is a set's cards split by pack slot.
type pools[T Drawable] struct {
	commons   []T
	uncommons []T
	rares     []T
	promos    []T
}

func partition[T Drawable](cards []T) pools[T] {
	var p pools[T]
	for _, c := range cards {
		switch tierOf(c.RarityLabel()) {
		case tierCommon:
			p.commons = append(p.commons, c)
		case tierUncommon:
			p.uncommons = append(p.uncommons, c)
		case tierPromo:
			p.promos = append(p.promos, c)
		default:
			p.rares = append(p.rares, c)
		}
	}
	return p
}

// Open draws n packs from the cards of one set. Normal sets yield 6 commons,
// 3 uncommons and 1 weighted rare per pack; sets without that structure
// yield n uniform draws from their promo pool. All draws are with replacement.
func Open[T Drawable](g *Generator, cards []T, n int) ([]T, error) {
	if n < 1 {
		return nil, ErrInvalidPackCount
	}
	p := partition(cards)

	g.mu.Lock()
	defer g.mu.Unlock()

	if len(p.commons) == 0 || len(p.uncommons) == 0 || len(p.rares) == 0 {
		return drawUniform(g.rng, p.promos, n, tierPromo)
	}

	drawn := make([]T, 0, CardsPerPack*n)
	commons, err := drawUniform(g.rng, p.commons, CommonsPerPack*n, tierCommon)
	if err != nil {
		return nil, err
	}
	drawn = append(drawn, commons...)

	uncommons, err := drawUniform(g.rng, p.uncommons, UncommonsPerPack*n, tierUncommon)
	if err != nil {
		return nil, err
	}
	drawn = append(drawn, uncommons...)

	rares, err := drawWeighted(g.rng, p.rares, RaresPerPack*n, g.weights)
	if err != nil {
		return nil, err
	}
	return append(drawn, rares...), nil
}

func drawUniform[T any](rng *rand.Rand, pool []T, count int, t tier) ([]T, error) {
	if len(pool) == 0 {
		return nil, &EmptyDrawPoolError{Tier: string(t)}
	}
	out := make([]T, count)
	for i := range out {
		out[i] = pool[rng.IntN(len(pool))]
	}
	return out, nil
}

func drawWeighted[T Drawable](rng *rand.Rand, pool []T, count int, weights RarityWeights) ([]T, error) {
	candidates := make([]T, 0, len(pool))
	cumulative := make([]int, 0, len(pool))
	total := 0
	for _, c := range pool {
		w := weights.Weight(c.RarityLabel())
		if w == 0 {
			continue
		}
		total += w
		candidates = append(candidates, c)
		cumulative = append(cumulative, total)
	}
	if total == 0 {
		return nil, &EmptyDrawPoolError{Tier: string(tierRare)}
	}

	out := make([]T, count)
	for i := range out {
		roll := rng.IntN(total)
		idx := sort.Search(len(cumulative), func(j int) bool { return cumulative[j] > roll })
		out[i] = candidates[idx]
	}
	return out, nil
}
