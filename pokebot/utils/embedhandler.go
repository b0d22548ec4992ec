package utils

import (
	"context"
	"errors"
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/pokepacks/pokepacks/internal/domain/catalog"
	"github.com/pokepacks/pokepacks/internal/domain/packs"
	"github.com/pokepacks/pokepacks/internal/domain/store"
	"github.com/pokepacks/pokepacks/pokebot/config"
)

// ResponseHandler provides standardized responses for command handlers
type ResponseHandler struct{}

var EH = &ResponseHandler{}

// ErrorType represents different categories of errors for consistent handling
type ErrorType int

const (
	// UserError - bad input
	UserError ErrorType = iota
	// SystemError - the catalog or the database failed
	SystemError
	// NotFoundError - no such card or set
	NotFoundError
)

func (t ErrorType) prefix() string {
	switch t {
	case UserError:
		return "⚠️"
	case NotFoundError:
		return "🔍"
	default:
		return "🔧"
	}
}

func (t ErrorType) color() int {
	switch t {
	case UserError:
		return config.WarningColor
	case NotFoundError:
		return config.InfoColor
	default:
		return config.ErrorColor
	}
}

// Problem is what a player gets to see about an error.
type Problem struct {
	Type        ErrorType
	Title       string
	Description string
}

// Describe maps domain errors to messages fit for players. Unknown errors
// get a generic message; details stay in the logs.
func Describe(err error) Problem {
	var notFound *catalog.NotFoundError
	switch {
	case errors.As(err, &notFound):
		return Problem{NotFoundError, "No such " + notFound.Entity, fmt.Sprintf("There is no %s with ID `%s`.", notFound.Entity, notFound.ID)}
	case errors.Is(err, catalog.ErrNotFound):
		return Problem{NotFoundError, "Not found", "Nothing in the catalog matches that."}
	case errors.Is(err, catalog.ErrRemoteFetchFailed), errors.Is(err, context.DeadlineExceeded):
		return Problem{SystemError, "Catalog unavailable", "The card catalog did not answer in time. Please try again in a moment."}
	case errors.Is(err, packs.ErrInvalidPackCount):
		return Problem{UserError, "Invalid amount", fmt.Sprintf("You can open between 1 and %d packs at once.", config.MaxPacksPerOpening)}
	case errors.Is(err, packs.ErrEmptyDrawPool):
		return Problem{SystemError, "Cannot open this set", "This set does not have the cards a booster needs."}
	case errors.Is(err, store.ErrNotStocked):
		return Problem{SystemError, "Store closed", "The store is restocking. Try again shortly."}
	default:
		return Problem{SystemError, "Something went wrong", "An unexpected error occurred."}
	}
}

func (p Problem) Embed() discord.Embed {
	return discord.Embed{
		Title:       p.Type.prefix() + " " + p.Title,
		Description: p.Description,
		Color:       p.Type.color(),
	}
}

// UpdateWithError replaces a deferred response with the player-facing
// version of err.
func (h *ResponseHandler) UpdateWithError(event *handler.CommandEvent, err error) error {
	_, uerr := event.UpdateInteractionResponse(discord.MessageUpdate{
		Embeds: &[]discord.Embed{Describe(err).Embed()},
	})
	return uerr
}

// UpdateWithEmbed replaces a deferred response with embed.
func (h *ResponseHandler) UpdateWithEmbed(event *handler.CommandEvent, embed discord.Embed) error {
	_, err := event.UpdateInteractionResponse(discord.MessageUpdate{
		Embeds: &[]discord.Embed{embed},
	})
	return err
}

// CreateUserError answers with an ephemeral warning without deferring.
func (h *ResponseHandler) CreateUserError(event *handler.CommandEvent, message string) error {
	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{Problem{UserError, "Invalid input", message}.Embed()},
		Flags:  discord.MessageFlagEphemeral,
	})
}
