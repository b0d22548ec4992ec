package commands

import (
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/pokepacks/pokepacks/internal/domain/store"
	"github.com/pokepacks/pokepacks/pokebot"
	"github.com/pokepacks/pokepacks/pokebot/config"
	"github.com/pokepacks/pokepacks/pokebot/utils"
)

var Store = discord.SlashCommandCreate{
	Name:        "store",
	Description: "🏪 See today's store rotation",
}

func StoreHandler(b *pokebot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if err := e.DeferCreateMessage(false); err != nil {
			return err
		}

		rotation, err := b.Store.Current()
		if err != nil {
			return respondError(e, err)
		}
		return utils.EH.UpdateWithEmbed(e, rotationEmbed(rotation))
	}
}

func rotationEmbed(rotation store.Rotation) discord.Embed {
	var description strings.Builder
	for _, o := range rotation.Offers {
		fmt.Fprintf(&description, "**%d.** %s (`%s`) · %s × %d · %s\n",
			o.Slot, o.Set.Name, o.Set.ID, o.Bundle.Name, o.Bundle.Packs, utils.FormatPrice(o.Price))
	}
	if len(rotation.Offers) == 0 {
		description.WriteString("Nothing in stock today.")
	}

	return discord.NewEmbedBuilder().
		SetTitle("🏪 Today's store").
		SetDescription(description.String()).
		AddField("Restocks", fmt.Sprintf("<t:%d:R>", rotation.ResetAt.Unix()), false).
		SetColor(config.SuccessColor).
		Build()
}
