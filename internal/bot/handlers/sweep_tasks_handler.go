package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewSweepTasksHandler returns a handler for the admin-only /sweep_tasks
// command, which lists every persisted sweep record across all chats.
func NewSweepTasksHandler(deps HandlerDeps) tgbot.HandlerFunc {
	return sweepTasksHandler{deps}.Handle
}

type sweepTasksHandler struct {
	deps HandlerDeps
}

func (h sweepTasksHandler) Handle(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "sweep_tasks")

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.WarnContext(ctx, "Tasks handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := msg.Chat.ID

	tasks, err := h.deps.Controller.Tasks()
	if err != nil {
		log.ErrorContext(ctx, "Failed to list sweep tasks", "error", err)
		reply(ctx, b, log, chatID, "Could not list sweep tasks. Please try again.")
		return
	}
	if len(tasks) == 0 {
		reply(ctx, b, log, chatID, "No sweep tasks on record.")
		return
	}

	now := time.Now()
	var sb strings.Builder
	fmt.Fprintf(&sb, "Sweep tasks (%d):\n", len(tasks))
	for _, task := range tasks {
		name := task.ChatName
		if name == "" {
			name = fmt.Sprintf("chat %d", task.ChatID)
		}
		fmt.Fprintf(&sb, "\n%s (%d)\n  %s, %d deleted, %d errors\n",
			name, task.ChatID, task.LiveLabel(now), task.DeletedMessages, len(task.Errors))
	}
	reply(ctx, b, log, chatID, sb.String())
}
