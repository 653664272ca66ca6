package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const welcomeMessage = "Hi! I sweep chats clean.\n\n" +
	"Add me to a chat and I start indexing its messages. When you want " +
	"them gone, send /sweep confirm and I delete everything I know " +
	"about, in batches, surviving restarts and rate limits.\n\n" +
	"Send /help for the full command list."

// NewStartHandler returns a handler for the /start command.
func NewStartHandler(deps HandlerDeps) tgbot.HandlerFunc {
	return startHandler{deps}.Handle
}

// startHandler processes the /start command using injected dependencies.
type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Start handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	log.InfoContext(ctx, "Handling /start command",
		"chat_id", update.Message.Chat.ID, "user_id", update.Message.From.ID)
	reply(ctx, b, log, update.Message.Chat.ID, welcomeMessage)
}
