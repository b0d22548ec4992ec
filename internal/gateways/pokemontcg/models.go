package pokemontcg

import (
	"time"

	"github.com/pokepacks/pokepacks/internal/domain/catalog"
	"github.com/pokepacks/pokepacks/internal/domain/packs"
)

// fallbackPrice is used when the catalog knows no market price at all.
const fallbackPrice = 0.01

// singleResponse wraps GET /cards/{id} and GET /sets/{id}.
type singleResponse[T any] struct {
	Data T `json:"data"`
}

// pageResponse wraps one page of a search.
type pageResponse[T any] struct {
	Data       []T `json:"data"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Count      int `json:"count"`
	TotalCount int `json:"totalCount"`
}

type Card struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Number     string      `json:"number"`
	Rarity     string      `json:"rarity"`
	Set        Set         `json:"set"`
	Images     CardImages  `json:"images"`
	TCGPlayer  *TCGPlayer  `json:"tcgplayer,omitempty"`
	Cardmarket *Cardmarket `json:"cardmarket,omitempty"`
}

type CardImages struct {
	Small string `json:"small"`
	Large string `json:"large"`
}

// PriceBand is one printing's TCGplayer prices. Absent values stay nil.
type PriceBand struct {
	Low    *float64 `json:"low"`
	Mid    *float64 `json:"mid"`
	High   *float64 `json:"high"`
	Market *float64 `json:"market"`
}

type TCGPlayer struct {
	URL       string               `json:"url"`
	UpdatedAt string               `json:"updatedAt"`
	Prices    map[string]PriceBand `json:"prices"`
}

type Cardmarket struct {
	URL       string `json:"url"`
	UpdatedAt string `json:"updatedAt"`
	Prices    struct {
		AverageSellPrice *float64 `json:"averageSellPrice"`
		TrendPrice       *float64 `json:"trendPrice"`
	} `json:"prices"`
}

type Set struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Series       string    `json:"series"`
	PrintedTotal int       `json:"printedTotal"`
	Total        int       `json:"total"`
	ReleaseDate  string    `json:"releaseDate"`
	Images       SetImages `json:"images"`
}

type SetImages struct {
	Symbol string `json:"symbol"`
	Logo   string `json:"logo"`
}

// pricePath is one step of the market price lookup.
type pricePath struct {
	printing string
	market   bool
}

var tcgPlayerPriceOrder = []pricePath{
	{"normal", true},
	{"normal", false},
	{"holofoil", true},
	{"holofoil", false},
	{"reverseHolofoil", true},
	{"reverseHolofoil", false},
	{"1stEditionNormal", true},
}

// MarketPrice picks the first known price: TCGplayer market or mid prices by
// printing, then the Cardmarket average sell price.
func (c Card) MarketPrice() float64 {
	if c.TCGPlayer != nil {
		for _, p := range tcgPlayerPriceOrder {
			band, ok := c.TCGPlayer.Prices[p.printing]
			if !ok {
				continue
			}
			v := band.Mid
			if p.market {
				v = band.Market
			}
			if v != nil {
				return *v
			}
		}
	}
	if c.Cardmarket != nil && c.Cardmarket.Prices.AverageSellPrice != nil {
		return *c.Cardmarket.Prices.AverageSellPrice
	}
	return fallbackPrice
}

func (c Card) toCatalog(pricedAt time.Time) catalog.Card {
	rarity := c.Rarity
	if rarity == "" {
		rarity = packs.RarityUnknown
	}
	return catalog.Card{
		ID:         c.ID,
		Name:       c.Name,
		Set:        c.Set.toCatalog(),
		Number:     c.Number,
		Price:      c.MarketPrice(),
		ImageURL:   c.Images.Large,
		Rarity:     rarity,
		LastPriced: pricedAt,
	}
}

func (s Set) toCatalog() catalog.Set {
	// an unparsable date leaves the set at age zero
	released, _ := catalog.ParseReleaseDate(s.ReleaseDate)
	return catalog.Set{
		ID:          s.ID,
		Name:        s.Name,
		Series:      s.Series,
		Printed:     s.PrintedTotal,
		Total:       s.Total,
		LogoURL:     s.Images.Logo,
		SymbolURL:   s.Images.Symbol,
		ReleaseDate: released,
	}
}
