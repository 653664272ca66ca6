package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/chatsweep/chatsweep/internal/cleanup"
	"github.com/chatsweep/chatsweep/internal/database"
)

// Client adapts the Telegram Bot API and the local message index to the
// cleanup pipeline's capability interfaces. Reads come from the index,
// since the Bot API cannot enumerate chat history; deletions go to the
// API first and prune the index on success.
type Client struct {
	bot    *tgbot.Bot
	store  database.Store
	logger *slog.Logger
}

// NewClient creates a Client over the given bot instance and index store.
func NewClient(b *tgbot.Bot, store database.Store, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		bot:    b,
		store:  store,
		logger: logger.With("component", "telegram_client"),
	}
}

func (c *Client) ListMessages(ctx context.Context, chatID int64, afterID, limit int) ([]cleanup.Message, error) {
	rows, err := c.store.ListMessages(ctx, chatID, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing indexed messages: %w", err)
	}
	return toCleanupMessages(rows), nil
}

func (c *Client) SearchMessagesBySender(ctx context.Context, chatID, senderID int64, afterID, limit int) ([]cleanup.Message, error) {
	rows, err := c.store.SearchMessagesBySender(ctx, chatID, senderID, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("searching indexed messages: %w", err)
	}
	return toCleanupMessages(rows), nil
}

// DeleteMessages revokes a batch for all participants and prunes the
// deleted identifiers from the index. An index prune failure is logged
// but not returned: the messages are gone from the chat either way.
func (c *Client) DeleteMessages(ctx context.Context, chatID int64, messageIDs []int) error {
	ok, err := c.bot.DeleteMessages(ctx, &tgbot.DeleteMessagesParams{
		ChatID:     chatID,
		MessageIDs: messageIDs,
	})
	if err != nil {
		return classifyError(err)
	}
	if !ok {
		return fmt.Errorf("batch delete rejected for chat %d", chatID)
	}

	if err := c.store.DeleteMessages(ctx, chatID, messageIDs); err != nil {
		c.logger.WarnContext(ctx, "Failed to prune deleted messages from index",
			"chat_id", chatID, "count", len(messageIDs), "error", err)
	}
	return nil
}

func (c *Client) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	ok, err := c.bot.DeleteMessage(ctx, &tgbot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: messageID,
	})
	if err != nil {
		return classifyError(err)
	}
	if !ok {
		return fmt.Errorf("delete rejected for message %d in chat %d", messageID, chatID)
	}

	if err := c.store.DeleteMessages(ctx, chatID, []int{messageID}); err != nil {
		c.logger.WarnContext(ctx, "Failed to prune deleted message from index",
			"chat_id", chatID, "message_id", messageID, "error", err)
	}
	return nil
}

func (c *Client) GetMembership(ctx context.Context, chatID, userID int64) (cleanup.Membership, error) {
	member, err := c.bot.GetChatMember(ctx, &tgbot.GetChatMemberParams{
		ChatID: chatID,
		UserID: userID,
	})
	if err != nil {
		return cleanup.Membership{}, fmt.Errorf("getting chat member: %w", err)
	}

	m := cleanup.Membership{}
	switch {
	case member.Owner != nil:
		m.IsOwner = true
	case member.Administrator != nil:
		m.IsAdministrator = true
		m.CanDeleteMessages = member.Administrator.CanDeleteMessages
	}
	return m, nil
}

func (c *Client) SendReport(ctx context.Context, chatID int64, text string) (int, error) {
	msg, err := c.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		return 0, classifyError(err)
	}
	return msg.ID, nil
}

func (c *Client) EditReport(ctx context.Context, chatID int64, messageID int, text string) error {
	_, err := c.bot.EditMessageText(ctx, &tgbot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
	})
	if err != nil {
		return classifyError(err)
	}
	return nil
}

// classifyError maps API throttling responses onto the pipeline's
// rate-limit error so the batcher can back off for the instructed wait.
func classifyError(err error) error {
	var tmr *tgbot.TooManyRequestsError
	if errors.As(err, &tmr) {
		return &cleanup.RateLimitError{Wait: time.Duration(tmr.RetryAfter) * time.Second}
	}
	return err
}

func toCleanupMessages(rows []database.Message) []cleanup.Message {
	out := make([]cleanup.Message, 0, len(rows))
	for _, row := range rows {
		out = append(out, cleanup.Message{ID: row.MessageID, SenderID: row.UserID})
	}
	return out
}
