package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"
	"github.com/pokepacks/pokepacks/internal/domain/catalog"
	"github.com/pokepacks/pokepacks/internal/domain/packs"
	"github.com/pokepacks/pokepacks/pokebot"
	"github.com/pokepacks/pokepacks/pokebot/config"
	"github.com/pokepacks/pokepacks/pokebot/utils"
)

var OpenPack = discord.SlashCommandCreate{
	Name:        "openpack",
	Description: "🎁 Open booster packs of a set",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:         "set",
			Description:  "Set ID, e.g. base1",
			Required:     true,
			Autocomplete: true,
		},
		discord.ApplicationCommandOptionInt{
			Name:        "amount",
			Description: "How many packs to open",
			Required:    false,
			MinValue:    utils.Ptr(1),
			MaxValue:    utils.Ptr(config.MaxPacksPerOpening),
		},
	},
}

func OpenPackHandler(b *pokebot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		data := e.SlashCommandInteractionData()
		setID := strings.TrimSpace(data.String("set"))
		amount := 1
		if v, ok := data.OptInt("amount"); ok {
			amount = v
		}
		if amount < 1 || amount > config.MaxPacksPerOpening {
			return utils.EH.CreateUserError(e, utils.Describe(packs.ErrInvalidPackCount).Description)
		}
		if err := e.DeferCreateMessage(false); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.CatalogRequestTimeout)
		defer cancel()

		opening, err := b.Catalog.OpenPacks(ctx, setID, amount)
		if err != nil {
			return respondError(e, err)
		}

		if b.Ledger != nil {
			lctx, lcancel := context.WithTimeout(context.Background(), config.LedgerTimeout)
			err := b.Ledger.RecordOpening(lctx, e.User().ID.String(), opening)
			lcancel()
			if err != nil {
				slog.Error("Failed to record opening",
					slog.String("type", "db"),
					slog.String("opening_id", opening.ID),
					slog.Any("error", err))
				return respondError(e, fmt.Errorf("record opening %s: %w", opening.ID, err))
			}
		}

		set, _ := b.Catalog.Sets().Get(opening.SetID)
		return showOpening(b, e, set, opening)
	}
}

func showOpening(b *pokebot.Bot, e *handler.CommandEvent, set catalog.Set, opening catalog.PackOpening) error {
	pulls := utils.SortPulls(opening.Cards)
	pages := utils.PageCount(len(pulls), config.CardsPerPage)
	summary := openingSummary(set, opening, time.Now())

	color := config.EmbedDefaultColor
	if len(pulls) > 0 {
		color = utils.RarityColor(pulls[0].Rarity)
	}

	return b.Paginator.Create(deferredResponder(e), paginator.Pages{
		ID:      e.ID().String(),
		Creator: e.User().ID,
		PageFunc: func(page int, embed *discord.EmbedBuilder) {
			start, end := utils.PageBounds(len(pulls), config.CardsPerPage, page)
			var description strings.Builder
			description.WriteString(summary)
			for _, c := range pulls[start:end] {
				description.WriteString(utils.CardLine(c))
				description.WriteString("\n")
			}
			embed.
				SetTitle(fmt.Sprintf("🎁 %d × %s", opening.Count, setName(set, opening.SetID))).
				SetDescription(description.String()).
				SetColor(color).
				SetFooter(fmt.Sprintf("Page %d/%d • Opening %s", page+1, pages, opening.ID), "")
			if page == 0 && len(pulls) > 0 {
				embed.SetThumbnail(pulls[0].ImageURL)
			}
		},
		Pages:      pages,
		ExpireMode: paginator.ExpireModeAfterLastUsage,
	}, false)
}

func openingSummary(set catalog.Set, opening catalog.PackOpening, now time.Time) string {
	cost := set.PackPrice(now) * float64(opening.Count)
	return fmt.Sprintf("**Cost:** %s\n**Pulled value:** %s\n\n",
		utils.FormatPrice(cost), utils.FormatPrice(utils.PullsValue(opening.Cards)))
}

func setName(set catalog.Set, fallback string) string {
	if set.Name != "" {
		return set.Name
	}
	return fallback
}
