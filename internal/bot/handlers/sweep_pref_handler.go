package handlers

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewSweepPrefHandler returns a handler for the /sweep_pref command.
func NewSweepPrefHandler(deps HandlerDeps) tgbot.HandlerFunc {
	return sweepPrefHandler{deps}.Handle
}

// sweepPrefHandler reads or toggles the sender's delete-others
// preference. With the preference off, the sender's sweeps only delete
// their own messages even where they hold delete rights.
type sweepPrefHandler struct {
	deps HandlerDeps
}

func (h sweepPrefHandler) Handle(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "sweep_pref")

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.WarnContext(ctx, "Pref handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := msg.Chat.ID
	userID := msg.From.ID

	_, arg, _ := ParseCommand(msg.Text)
	switch arg {
	case "":
		enabled, err := h.deps.Store.DeleteOthersEnabled(ctx, userID)
		if err != nil {
			log.ErrorContext(ctx, "Failed to read preference", "user_id", userID, "error", err)
			reply(ctx, b, log, chatID, "Could not read your preference. Please try again.")
			return
		}
		reply(ctx, b, log, chatID, fmt.Sprintf(
			"Deleting others' messages is currently %s for your sweeps.\nUse /sweep_pref on or /sweep_pref off to change it.",
			onOff(enabled)))

	case "on", "off":
		enabled := arg == "on"
		if err := h.deps.Store.SetDeleteOthersEnabled(ctx, userID, enabled); err != nil {
			log.ErrorContext(ctx, "Failed to update preference", "user_id", userID, "error", err)
			reply(ctx, b, log, chatID, "Could not update your preference. Please try again.")
			return
		}
		log.InfoContext(ctx, "Updated delete-others preference", "user_id", userID, "enabled", enabled)
		reply(ctx, b, log, chatID, fmt.Sprintf(
			"Deleting others' messages is now %s for your sweeps.", onOff(enabled)))

	default:
		reply(ctx, b, log, chatID, "Usage: /sweep_pref, /sweep_pref on, or /sweep_pref off")
	}
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}
