package commands

import (
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/disgo/rest"
	"github.com/pokepacks/pokepacks/pokebot"
	"github.com/pokepacks/pokepacks/pokebot/handlers"
	"github.com/pokepacks/pokepacks/pokebot/utils"
)

var Commands = []discord.ApplicationCommandCreate{
	Card,
	SearchCard,
	Set,
	Sets,
	OpenPack,
	Store,
	Version,
}

// Register wires every command handler into h.
func Register(h *handler.Mux, b *pokebot.Bot) {
	h.Command("/card", handlers.WrapWithLogging("card", CardHandler(b)))
	h.Autocomplete("/card", handlers.WrapAutocompleteWithLogging("card", CardAutocomplete(b)))
	h.Command("/search-card", handlers.WrapWithLogging("search-card", SearchCardHandler(b)))
	h.Command("/set", handlers.WrapWithLogging("set", SetHandler(b)))
	h.Autocomplete("/set", handlers.WrapAutocompleteWithLogging("set", SetAutocomplete(b)))
	h.Command("/sets", handlers.WrapWithLogging("sets", SetsHandler(b)))
	h.Command("/openpack", handlers.WrapWithLogging("openpack", OpenPackHandler(b)))
	h.Autocomplete("/openpack", handlers.WrapAutocompleteWithLogging("openpack", SetAutocomplete(b)))
	h.Command("/store", handlers.WrapWithLogging("store", StoreHandler(b)))
	h.Command("/version", VersionHandler(b))
}

// respondError shows err to the player. Only failures on our side are
// returned, so the logging wrapper does not flag typos as errors.
func respondError(e *handler.CommandEvent, err error) error {
	if uerr := utils.EH.UpdateWithError(e, err); uerr != nil {
		return uerr
	}
	if utils.Describe(err).Type == utils.SystemError {
		return err
	}
	return nil
}

// deferredResponder lets the paginator fill in a response that was already
// deferred while the catalog was being queried.
func deferredResponder(e *handler.CommandEvent) func(discord.InteractionResponseType, discord.InteractionResponseData, ...rest.RequestOpt) error {
	return func(_ discord.InteractionResponseType, data discord.InteractionResponseData, opts ...rest.RequestOpt) error {
		var msg discord.MessageCreate
		switch d := data.(type) {
		case discord.MessageCreate:
			msg = d
		case *discord.MessageCreate:
			msg = *d
		default:
			return fmt.Errorf("unexpected paginator response %T", data)
		}
		_, err := e.UpdateInteractionResponse(discord.MessageUpdate{
			Embeds:     &msg.Embeds,
			Components: &msg.Components,
		}, opts...)
		return err
	}
}
