package handlers

import (
	"context"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/chatsweep/chatsweep/internal/database"
)

// NewRecordHandler returns the default handler, which indexes every
// message the bot sees. The index is what sweep jobs later enumerate,
// since the Bot API offers no way to list a chat's history.
func NewRecordHandler(deps HandlerDeps) tgbot.HandlerFunc {
	return recordHandler{deps}.Handle
}

type recordHandler struct {
	deps HandlerDeps
}

func (h recordHandler) Handle(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "record")

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	record := &database.Message{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		UserID:    msg.From.ID,
		ChatTitle: chatDisplayName(&msg.Chat),
		SentAt:    time.Unix(int64(msg.Date), 0).UTC(),
	}

	if err := h.deps.Store.RecordMessage(ctx, record); err != nil {
		log.ErrorContext(ctx, "Failed to index message",
			"chat_id", msg.Chat.ID, "message_id", msg.ID, "error", err)
		return
	}
	log.DebugContext(ctx, "Indexed message", "chat_id", msg.Chat.ID, "message_id", msg.ID)
}
