package packs

// Rarity labels with a fixed meaning in pack composition.
const (
	RarityCommon            = "Common"
	RarityUncommon          = "Uncommon"
	RarityPromo             = "Promo"
	RarityClassicCollection = "Classic Collection"
	RarityUnknown           = "Unknown"
)

// Pack layout per booster.
const (
	CommonsPerPack   = 6
	UncommonsPerPack = 3
	RaresPerPack     = 1
	CardsPerPack     = CommonsPerPack + UncommonsPerPack + RaresPerPack
)

// RarityWeights maps a rarity label to its relative weight in the rare slot.
// Labels missing from the table weigh 0 and are never drawn there.
type RarityWeights map[string]int

func (w RarityWeights) Weight(rarity string) int {
	if v, ok := w[rarity]; ok && v > 0 {
		return v
	}
	return 0
}

// DefaultRarityWeights covers the rarity vocabulary of the Pokémon TCG catalog.
var DefaultRarityWeights = RarityWeights{
	"Rare":                      100,
	"Rare Holo":                 60,
	"Rare Holo EX":              15,
	"Rare Holo GX":              15,
	"Rare Holo V":               15,
	"Rare Holo VMAX":            8,
	"Rare Holo VSTAR":           8,
	"Rare Holo LV.X":            10,
	"Rare Holo Star":            3,
	"Rare Prime":                10,
	"Rare BREAK":                10,
	"Rare Prism Star":           10,
	"Rare ACE":                  10,
	"Rare Ultra":                8,
	"Rare Rainbow":              3,
	"Rare Secret":               3,
	"Rare Shining":              3,
	"Rare Shiny":                5,
	"Rare Shiny GX":             3,
	"Radiant Rare":              8,
	"Amazing Rare":              8,
	"LEGEND":                    5,
	"Double Rare":               15,
	"Ultra Rare":                8,
	"Illustration Rare":         6,
	"Special Illustration Rare": 2,
	"Hyper Rare":                1,
	"Shiny Rare":                5,
	"Shiny Ultra Rare":          2,
	"ACE SPEC Rare":             6,
	"Trainer Gallery Rare Holo": 10,
}

// tier is the pack slot a rarity label feeds.
type tier string

const (
	tierCommon   tier = "common"
	tierUncommon tier = "uncommon"
	tierRare     tier = "rare"
	tierPromo    tier = "promo"
)

func tierOf(rarity string) tier {
	switch rarity {
	case RarityCommon:
		return tierCommon
	case RarityUncommon:
		return tierUncommon
	case RarityPromo, RarityClassicCollection, RarityUnknown:
		return tierPromo
	default:
		return tierRare
	}
}
