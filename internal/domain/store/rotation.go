package store

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/pokepacks/pokepacks/internal/domain/catalog"
)

// SlotCount is the number of sets on offer each day.
const SlotCount = 10

// weightEpoch is the year before the first set was printed; newer sets weigh more.
const weightEpoch = 1998

// Bundle is how many packs one purchase of a slot yields and what it costs
// relative to a single pack.
type Bundle struct {
	Name       string
	Packs      int
	Multiplier float64
}

var (
	bundleSingle  = Bundle{Name: "Pack", Packs: 1, Multiplier: 1.0}
	bundleBlister = Bundle{Name: "Blister", Packs: 4, Multiplier: 2.5}
	bundleBox     = Bundle{Name: "Box", Packs: 12, Multiplier: 10}
	bundleCase    = Bundle{Name: "Case", Packs: 36, Multiplier: 30}
)

// BundleForSlot maps a 1-based store slot to its bundle.
func BundleForSlot(slot int) Bundle {
	switch {
	case slot <= 4:
		return bundleSingle
	case slot <= 7:
		return bundleBlister
	case slot <= 9:
		return bundleBox
	default:
		return bundleCase
	}
}

// Offer is one purchasable slot of the daily store.
type Offer struct {
	Slot   int
	Set    catalog.Set
	Bundle Bundle
	Price  float64
}

// Rotation is the store content for one UTC day.
type Rotation struct {
	Offers  []Offer
	ResetAt time.Time
}

// Offer returns the offer in the 1-based slot.
func (r Rotation) Offer(slot int) (Offer, bool) {
	if slot < 1 || slot > len(r.Offers) {
		return Offer{}, false
	}
	return r.Offers[slot-1], true
}

// SetWeight is a set's chance of being picked; recent sets show up more often.
func SetWeight(set catalog.Set) int {
	return max(set.ReleaseDate.Year()-weightEpoch, 1)
}

// NextReset returns the next UTC midnight after now.
func NextReset(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}

// NewRotation picks up to SlotCount distinct sets, weighted by SetWeight, and
// prices each slot's bundle at now.
func NewRotation(sets []catalog.Set, now time.Time, rng *rand.Rand) Rotation {
	picked := pickWeighted(sets, SlotCount, rng)

	offers := make([]Offer, len(picked))
	for i, set := range picked {
		bundle := BundleForSlot(i + 1)
		offers[i] = Offer{
			Slot:   i + 1,
			Set:    set,
			Bundle: bundle,
			Price:  math.Round(set.PackPrice(now)*bundle.Multiplier*100) / 100,
		}
	}
	return Rotation{Offers: offers, ResetAt: NextReset(now)}
}

// pickWeighted draws k sets without replacement.
func pickWeighted(sets []catalog.Set, k int, rng *rand.Rand) []catalog.Set {
	pool := make([]catalog.Set, len(sets))
	copy(pool, sets)
	weights := make([]int, len(pool))
	total := 0
	for i, s := range pool {
		weights[i] = SetWeight(s)
		total += weights[i]
	}

	k = min(k, len(pool))
	picked := make([]catalog.Set, 0, k)
	for len(picked) < k {
		roll := rng.IntN(total)
		i := 0
		for ; i < len(pool)-1; i++ {
			roll -= weights[i]
			if roll < 0 {
				break
			}
		}
		picked = append(picked, pool[i])

		total -= weights[i]
		last := len(pool) - 1
		pool[i], weights[i] = pool[last], weights[last]
		pool, weights = pool[:last], weights[:last]
	}
	return picked
}
