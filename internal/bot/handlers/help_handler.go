package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const helpMessage = "Commands:\n\n" +
	"/sweep confirm - delete this chat's indexed messages\n" +
	"/sweep_stop - halt the running sweep, keeping progress\n" +
	"/sweep_status - show the sweep's progress\n" +
	"/sweep_pref on|off - whether your sweeps may delete others' messages\n" +
	"/help - this list\n\n" +
	"Only messages seen since I joined can be deleted. In groups, " +
	"deleting others' messages requires owner or delete-capable admin " +
	"rights; otherwise a sweep removes only your own messages."

// NewHelpHandler returns a handler for the /help command.
func NewHelpHandler(deps HandlerDeps) tgbot.HandlerFunc {
	return helpHandler{deps}.Handle
}

// helpHandler processes the /help command using injected dependencies.
type helpHandler struct {
	deps HandlerDeps
}

func (h helpHandler) Handle(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "help")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Help handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	log.InfoContext(ctx, "Handling /help command",
		"chat_id", update.Message.Chat.ID, "user_id", update.Message.From.ID)
	reply(ctx, b, log, update.Message.Chat.ID, helpMessage)
}
