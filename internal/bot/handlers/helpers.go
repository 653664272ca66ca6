package handlers

import (
	"context"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
)

// reply sends a plain text message to a chat, logging delivery failures.
func reply(ctx context.Context, b *tgbot.Bot, log *slog.Logger, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err, "chat_id", chatID)
	}
}
