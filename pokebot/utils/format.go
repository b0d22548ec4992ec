package utils

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/pokepacks/pokepacks/internal/domain/catalog"
	"github.com/pokepacks/pokepacks/internal/domain/packs"
	"github.com/pokepacks/pokepacks/pokebot/config"
)

func Ptr[T any](v T) *T {
	return &v
}

func FormatPrice(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

// RarityColor picks an embed color by how hard a card is to pull.
func RarityColor(rarity string) int {
	switch {
	case rarity == packs.RarityCommon:
		return config.RarityCommonColor
	case rarity == packs.RarityUncommon:
		return config.RarityUncommonColor
	case strings.Contains(rarity, "Secret"), strings.Contains(rarity, "Rainbow"), strings.Contains(rarity, "Hyper"):
		return config.RaritySecretColor
	case strings.Contains(rarity, "Holo"), strings.Contains(rarity, "Ultra"), strings.Contains(rarity, "Illustration"):
		return config.RarityHoloColor
	case strings.HasPrefix(rarity, "Rare"):
		return config.RarityRareColor
	default:
		return config.EmbedDefaultColor
	}
}

func CardLine(c catalog.Card) string {
	return fmt.Sprintf("`%s` **%s** · %s · %s", c.ID, c.Name, c.Rarity, FormatPrice(c.Price))
}

func SetLine(s catalog.Set) string {
	released := "unknown"
	if !s.ReleaseDate.IsZero() {
		released = s.ReleaseDate.Format("2006-01-02")
	}
	return fmt.Sprintf("`%s` **%s** · %s · %d cards · %s", s.ID, s.Name, s.Series, s.Total, released)
}

func CardEmbed(c catalog.Card) discord.Embed {
	return discord.NewEmbedBuilder().
		SetTitle(c.Name).
		SetDescription(fmt.Sprintf("%s #%s", c.Set.Name, c.Number)).
		AddField("ID", "`"+c.ID+"`", true).
		AddField("Rarity", c.Rarity, true).
		AddField("Market price", FormatPrice(c.Price), true).
		SetImage(c.ImageURL).
		SetColor(RarityColor(c.Rarity)).
		SetFooter("Priced "+c.LastPriced.UTC().Format("2006-01-02 15:04 MST"), "").
		Build()
}

// PageCount returns how many pages of perPage hold total items, at least one.
func PageCount(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}

// PageBounds clamps page into range and returns the slice bounds of it.
func PageBounds(total, perPage, page int) (int, int) {
	if perPage <= 0 {
		return 0, total
	}
	page = max(0, min(page, PageCount(total, perPage)-1))
	start := page * perPage
	return min(start, total), min(start+perPage, total)
}

// SortPulls orders pack results best first: by price, then by id.
func SortPulls(cards []catalog.Card) []catalog.Card {
	sorted := slices.Clone(cards)
	slices.SortStableFunc(sorted, func(a, b catalog.Card) int {
		if c := cmp.Compare(b.Price, a.Price); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return sorted
}

// PullsValue sums the market price of everything pulled.
func PullsValue(cards []catalog.Card) float64 {
	var total float64
	for _, c := range cards {
		total += c.Price
	}
	return total
}
