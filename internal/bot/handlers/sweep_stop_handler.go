package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewSweepStopHandler returns a handler for the /sweep_stop command.
func NewSweepStopHandler(deps HandlerDeps) tgbot.HandlerFunc {
	return sweepStopHandler{deps}.Handle
}

// sweepStopHandler requests a graceful halt of the chat's sweep.
type sweepStopHandler struct {
	deps HandlerDeps
}

func (h sweepStopHandler) Handle(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "sweep_stop")

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.WarnContext(ctx, "Stop handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := msg.Chat.ID

	found, err := h.deps.Controller.Stop(ctx, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to stop sweep", "chat_id", chatID, "error", err)
		reply(ctx, b, log, chatID, "Could not stop the sweep. Please try again.")
		return
	}
	if !found {
		reply(ctx, b, log, chatID, "No sweep task exists for this chat.")
		return
	}

	log.InfoContext(ctx, "Sweep stopped via command", "chat_id", chatID, "user_id", msg.From.ID)
	reply(ctx, b, log, chatID, "Sweep stopped. Progress is kept; /sweep confirm resumes it.")
}
