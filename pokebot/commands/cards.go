package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"
	"github.com/pokepacks/pokepacks/internal/domain/catalog"
	"github.com/pokepacks/pokepacks/pokebot"
	"github.com/pokepacks/pokepacks/pokebot/config"
	"github.com/pokepacks/pokepacks/pokebot/utils"
)

var Card = discord.SlashCommandCreate{
	Name:        "card",
	Description: "🃏 Look up a card and its market price",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:         "id",
			Description:  "Card ID, e.g. base1-4",
			Required:     true,
			Autocomplete: true,
		},
	},
}

var SearchCard = discord.SlashCommandCreate{
	Name:        "search-card",
	Description: "🔍 Search the catalog for cards by name",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "name",
			Description: "Card name, e.g. Charizard",
			Required:    true,
		},
	},
}

func CardHandler(b *pokebot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		id := strings.TrimSpace(e.SlashCommandInteractionData().String("id"))
		if id == "" {
			return utils.EH.CreateUserError(e, "Give me a card ID.")
		}
		if err := e.DeferCreateMessage(false); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.CatalogRequestTimeout)
		defer cancel()

		card, err := b.Catalog.GetCard(ctx, id)
		if err != nil {
			return respondError(e, err)
		}

		embed := utils.CardEmbed(card)
		if b.Ledger != nil {
			owned, err := b.Ledger.Amount(ctx, e.User().ID.String(), card.ID)
			if err != nil {
				slog.Warn("Failed to read owned amount",
					slog.String("type", "db"),
					slog.String("card_id", card.ID),
					slog.Any("error", err))
			} else {
				embed.Fields = append(embed.Fields, discord.EmbedField{
					Name:   "You own",
					Value:  fmt.Sprintf("%d", owned),
					Inline: utils.Ptr(true),
				})
			}
		}
		return utils.EH.UpdateWithEmbed(e, embed)
	}
}

// CardAutocomplete suggests ids of cards already in the cache. It never
// calls the catalog.
func CardAutocomplete(b *pokebot.Bot) handler.AutocompleteHandler {
	return func(e *handler.AutocompleteEvent) error {
		term := focusedString(e)
		if term == "" {
			return e.AutocompleteResult(nil)
		}

		cards := b.Catalog.SearchCached(term, config.AutocompleteLimit)
		choices := make([]discord.AutocompleteChoice, 0, len(cards))
		for _, c := range cards {
			choices = append(choices, discord.AutocompleteChoiceString{
				Name:  choiceName(fmt.Sprintf("%s (%s · %s)", c.Name, c.Set.Name, c.ID)),
				Value: c.ID,
			})
		}
		return e.AutocompleteResult(choices)
	}
}

func SearchCardHandler(b *pokebot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		name := strings.TrimSpace(e.SlashCommandInteractionData().String("name"))
		if name == "" {
			return utils.EH.CreateUserError(e, "Give me a card name.")
		}
		if err := e.DeferCreateMessage(false); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.CatalogRequestTimeout)
		defer cancel()

		cards, err := b.Catalog.SearchCards(ctx, catalog.NameQuery(name))
		if err != nil {
			return respondError(e, err)
		}
		if len(cards) == 0 {
			return utils.EH.UpdateWithEmbed(e, utils.Problem{
				Type:        utils.NotFoundError,
				Title:       "No results",
				Description: fmt.Sprintf("No card is named %q.", name),
			}.Embed())
		}

		return showCards(b, e, "🔍 Cards named "+name, cards)
	}
}

// showCards pages through cards, cheapest last.
func showCards(b *pokebot.Bot, e *handler.CommandEvent, title string, cards []catalog.Card) error {
	cards = utils.SortPulls(cards)
	pages := utils.PageCount(len(cards), config.CardsPerPage)

	return b.Paginator.Create(deferredResponder(e), paginator.Pages{
		ID:      e.ID().String(),
		Creator: e.User().ID,
		PageFunc: func(page int, embed *discord.EmbedBuilder) {
			start, end := utils.PageBounds(len(cards), config.CardsPerPage, page)
			var description strings.Builder
			for _, c := range cards[start:end] {
				description.WriteString(utils.CardLine(c))
				description.WriteString("\n")
			}
			embed.
				SetTitle(title).
				SetDescription(description.String()).
				SetColor(config.EmbedDefaultColor).
				SetFooter(fmt.Sprintf("Page %d/%d • %d cards", page+1, pages, len(cards)), "")
		},
		Pages:      pages,
		ExpireMode: paginator.ExpireModeAfterLastUsage,
	}, false)
}

func focusedString(e *handler.AutocompleteEvent) string {
	focused := e.Data.Focused()
	if focused.Value == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(focused.Value, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// choiceName trims a label to Discord's 100 character limit.
func choiceName(s string) string {
	r := []rune(s)
	if len(r) <= 100 {
		return s
	}
	return string(r[:99]) + "…"
}
