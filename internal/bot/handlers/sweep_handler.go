package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/chatsweep/chatsweep/internal/cleanup"
)

const sweepConfirmPrompt = "This deletes messages in this chat permanently, for everyone, " +
	"and cannot be undone.\n\nSend /sweep confirm to proceed."

// NewSweepHandler returns a handler for the /sweep command.
func NewSweepHandler(deps HandlerDeps) tgbot.HandlerFunc {
	return sweepHandler{deps}.Handle
}

// sweepHandler starts a bulk-deletion job for the chat it is invoked in.
type sweepHandler struct {
	deps HandlerDeps
}

func (h sweepHandler) Handle(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "sweep")

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.WarnContext(ctx, "Sweep handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := msg.Chat.ID

	_, arg, ok := ParseCommand(msg.Text)
	if !ok || arg != "confirm" {
		reply(ctx, b, log, chatID, sweepConfirmPrompt)
		return
	}

	chatName := chatDisplayName(&msg.Chat)
	if chatName == "" {
		// Fall back to the title captured while indexing.
		if title, err := h.deps.Store.ChatTitle(ctx, chatID); err == nil {
			chatName = title
		}
	}

	req := cleanup.StartRequest{
		ChatID:   chatID,
		ChatName: chatName,
		UserID:   msg.From.ID,
		Private:  msg.Chat.Type == models.ChatTypePrivate,
	}

	started, err := h.deps.Controller.Start(ctx, req)
	if err != nil {
		log.ErrorContext(ctx, "Failed to start sweep", "chat_id", chatID, "error", err)
		reply(ctx, b, log, chatID, "Could not start the sweep. Please try again.")
		return
	}
	if !started {
		reply(ctx, b, log, chatID, "A sweep is already running in this chat. Use /sweep_status to follow it.")
		return
	}

	log.InfoContext(ctx, "Sweep started via command", "chat_id", chatID, "user_id", msg.From.ID)
	reply(ctx, b, log, chatID, "Sweep started. Use /sweep_status for progress or /sweep_stop to halt it.")
}

// chatDisplayName derives a human-readable chat name for reports.
func chatDisplayName(chat *models.Chat) string {
	if chat.Title != "" {
		return chat.Title
	}
	if chat.Username != "" {
		return "@" + chat.Username
	}
	name := chat.FirstName
	if chat.LastName != "" {
		if name != "" {
			name += " "
		}
		name += chat.LastName
	}
	return name
}
