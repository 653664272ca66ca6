// Package telegram wires the bot instance: creation, handler
// registration, and the adapter between the Bot API and the cleanup
// pipeline.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/chatsweep/chatsweep/internal/bot/handlers"
)

// NewTelegramBot creates a bot instance using the go-telegram/bot library.
func NewTelegramBot(token string, logger *slog.Logger, opts ...tgbot.Option) (*tgbot.Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_bot")

	b, err := tgbot.New(token, opts...)
	if err != nil {
		log.Error("Failed to create Telegram bot instance", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	log.Info("Telegram bot instance created")
	return b, nil
}

// applyMiddleware wraps a handler with a slice of middleware, applied in
// reverse order so the first one in the slice is the outermost.
func applyMiddleware(handler tgbot.HandlerFunc, mw []tgbot.Middleware) tgbot.HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

// RegisterHandlers registers command handlers with the bot instance and
// publishes the command list so clients show it in the command menu.
func RegisterHandlers(ctx context.Context, b *tgbot.Bot, logger *slog.Logger, registered map[string]handlers.RegisteredHandler) error {
	if b == nil {
		return fmt.Errorf("bot instance cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "handler_registry")

	commands := make([]models.BotCommand, 0, len(registered))
	for _, reg := range registered {
		if reg.Handler == nil {
			log.Warn("Skipping registration for nil handler", "pattern", reg.Pattern)
			continue
		}

		finalHandler := applyMiddleware(reg.Handler, reg.Middleware)
		b.RegisterHandler(reg.HandlerType, reg.Pattern, reg.MatchType, finalHandler)
		log.Debug("Registered handler", "pattern", reg.Pattern, "middleware_count", len(reg.Middleware))

		if reg.Description != "" {
			commands = append(commands, models.BotCommand{
				Command:     reg.Pattern,
				Description: reg.Description,
			})
		}
	}

	if len(commands) > 0 {
		if _, err := b.SetMyCommands(ctx, &tgbot.SetMyCommandsParams{Commands: commands}); err != nil {
			log.Warn("Failed to publish command list", "error", err)
		}
	}

	log.Info("Registered Telegram handlers", "count", len(registered))
	return nil
}
