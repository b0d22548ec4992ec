package handlers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/handler"
	"github.com/pokepacks/pokepacks/pokebot/config"
)

// WrapWithLogging wraps a command handler with logging functionality
func WrapWithLogging(name string, h handler.CommandHandler) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		attrs := []any{
			slog.String("type", "cmd"),
			slog.String("name", name),
			slog.String("user_id", e.User().ID.String()),
			slog.String("user_name", e.User().Username),
		}
		return track(attrs, config.SlowCommandThreshold, config.CommandExecutionTimeout, func() error {
			return h(e)
		})
	}
}

// WrapAutocompleteWithLogging only reports failures; autocomplete fires on
// every keystroke.
func WrapAutocompleteWithLogging(name string, h handler.AutocompleteHandler) handler.AutocompleteHandler {
	return func(e *handler.AutocompleteEvent) error {
		err := h(e)
		if err != nil {
			slog.Error("Autocomplete failed",
				slog.String("type", "cmd"),
				slog.String("name", name),
				slog.String("user_name", e.User().Username),
				slog.Any("error", err))
		}
		return err
	}
}

// track runs fn and logs start, completion, slowness and timeouts. A timed
// out fn keeps running; its result is dropped.
func track(attrs []any, slow, timeout time.Duration, fn func() error) error {
	start := time.Now()
	slog.Info("Command started", attrs...)

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		duration := time.Since(start)
		attrs = append(attrs, slog.Duration("took", duration))

		switch {
		case err != nil:
			slog.Error("Command failed", append(attrs,
				slog.Any("error", err),
				slog.String("status", "failed"),
			)...)
		case duration > slow:
			slog.Warn("Command executed slowly", append(attrs,
				slog.String("status", "slow"),
			)...)
		default:
			slog.Info("Command completed", append(attrs,
				slog.String("status", "success"),
			)...)
		}
		return err

	case <-timer.C:
		slog.Error("Command timed out", append(attrs,
			slog.String("status", "timeout"),
			slog.Duration("timeout", timeout),
		)...)
		return fmt.Errorf("command timed out after %s", timeout)
	}
}
