package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"
	"github.com/pokepacks/pokepacks/internal/domain/catalog"
	"github.com/pokepacks/pokepacks/pokebot"
	"github.com/pokepacks/pokepacks/pokebot/config"
	"github.com/pokepacks/pokepacks/pokebot/utils"
)

var Set = discord.SlashCommandCreate{
	Name:        "set",
	Description: "📦 Show a set, its pack price and its cards",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:         "id",
			Description:  "Set ID, e.g. base1",
			Required:     true,
			Autocomplete: true,
		},
	},
}

var Sets = discord.SlashCommandCreate{
	Name:        "sets",
	Description: "📚 List every set, oldest first",
}

func SetHandler(b *pokebot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		id := strings.TrimSpace(e.SlashCommandInteractionData().String("id"))
		if id == "" {
			return utils.EH.CreateUserError(e, "Give me a set ID.")
		}
		if err := e.DeferCreateMessage(false); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.CatalogRequestTimeout)
		defer cancel()

		set, err := b.Catalog.GetSet(ctx, id)
		if err != nil {
			return respondError(e, err)
		}
		cards, err := b.Catalog.GetCardsBySet(ctx, set)
		if err != nil {
			return respondError(e, err)
		}

		header := setHeader(set, time.Now())
		cards = utils.SortPulls(cards)
		pages := utils.PageCount(len(cards), config.CardsPerPage)

		return b.Paginator.Create(deferredResponder(e), paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				start, end := utils.PageBounds(len(cards), config.CardsPerPage, page)
				var description strings.Builder
				description.WriteString(header)
				for _, c := range cards[start:end] {
					description.WriteString(utils.CardLine(c))
					description.WriteString("\n")
				}
				embed.
					SetTitle("📦 "+set.Name).
					SetDescription(description.String()).
					SetThumbnail(set.LogoURL).
					SetColor(config.InfoColor).
					SetFooter(fmt.Sprintf("Page %d/%d • %d of %d cards", page+1, pages, len(cards), set.Total), "")
			},
			Pages:      pages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, false)
	}
}

// SetAutocomplete suggests cached sets. Until the set list has been loaded
// once there is nothing to suggest.
func SetAutocomplete(b *pokebot.Bot) handler.AutocompleteHandler {
	return func(e *handler.AutocompleteEvent) error {
		term := focusedString(e)

		var sets []catalog.Set
		if term == "" {
			sets = b.Catalog.Sets().All()
			// newest first when nothing was typed
			for i, j := 0, len(sets)-1; i < j; i, j = i+1, j-1 {
				sets[i], sets[j] = sets[j], sets[i]
			}
			sets = sets[:min(len(sets), config.AutocompleteLimit)]
		} else {
			sets = b.Catalog.SearchCachedSets(term, config.AutocompleteLimit)
		}

		choices := make([]discord.AutocompleteChoice, 0, len(sets))
		for _, s := range sets {
			choices = append(choices, discord.AutocompleteChoiceString{
				Name:  choiceName(fmt.Sprintf("%s (%s)", s.Name, s.ID)),
				Value: s.ID,
			})
		}
		return e.AutocompleteResult(choices)
	}
}

func SetsHandler(b *pokebot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if err := e.DeferCreateMessage(false); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.CatalogRequestTimeout)
		defer cancel()

		sets, err := b.Catalog.ListSets(ctx)
		if err != nil {
			return respondError(e, err)
		}

		now := time.Now()
		pages := utils.PageCount(len(sets), config.SetsPerPage)
		return b.Paginator.Create(deferredResponder(e), paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				start, end := utils.PageBounds(len(sets), config.SetsPerPage, page)
				var description strings.Builder
				for _, s := range sets[start:end] {
					fmt.Fprintf(&description, "%s · %s/pack\n", utils.SetLine(s), utils.FormatPrice(s.PackPrice(now)))
				}
				embed.
					SetTitle("📚 Sets").
					SetDescription(description.String()).
					SetColor(config.EmbedDefaultColor).
					SetFooter(fmt.Sprintf("Page %d/%d • %d sets", page+1, pages, len(sets)), "")
			},
			Pages:      pages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, false)
	}
}

func setHeader(set catalog.Set, now time.Time) string {
	released := "unknown"
	if !set.ReleaseDate.IsZero() {
		released = set.ReleaseDate.Format("2006-01-02")
	}
	return fmt.Sprintf("**Series:** %s\n**Released:** %s\n**Pack price:** %s\n\n",
		set.Series, released, utils.FormatPrice(set.PackPrice(now)))
}
