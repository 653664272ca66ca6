package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewSweepStatusHandler returns a handler for the /sweep_status command.
func NewSweepStatusHandler(deps HandlerDeps) tgbot.HandlerFunc {
	return sweepStatusHandler{deps}.Handle
}

// sweepStatusHandler re-publishes the chat's sweep status message.
type sweepStatusHandler struct {
	deps HandlerDeps
}

func (h sweepStatusHandler) Handle(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "sweep_status")

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.WarnContext(ctx, "Status handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := msg.Chat.ID

	_, found, err := h.deps.Controller.Status(ctx, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to read sweep status", "chat_id", chatID, "error", err)
		reply(ctx, b, log, chatID, "Could not read the sweep status. Please try again.")
		return
	}
	if !found {
		reply(ctx, b, log, chatID, "No sweep task exists for this chat.")
	}
}
