package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the data access interface for the message index.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// RecordMessage upserts one seen message into the index.
	RecordMessage(ctx context.Context, message *Message) error

	// ListMessages returns up to limit indexed messages for a chat,
	// oldest first, with message ID strictly greater than afterID.
	ListMessages(ctx context.Context, chatID int64, afterID, limit int) ([]Message, error)

	// SearchMessagesBySender is ListMessages restricted to one sender.
	SearchMessagesBySender(ctx context.Context, chatID, userID int64, afterID, limit int) ([]Message, error)

	// DeleteMessages prunes index rows for messages confirmed deleted.
	DeleteMessages(ctx context.Context, chatID int64, messageIDs []int) error

	// ChatTitle returns the most recently recorded title for a chat,
	// or an empty string if the chat is unknown.
	ChatTitle(ctx context.Context, chatID int64) (string, error)

	// DeleteOthersEnabled reports the user's stored delete-others
	// preference. Users without a stored preference default to enabled.
	DeleteOthersEnabled(ctx context.Context, userID int64) (bool, error)

	// SetDeleteOthersEnabled stores the user's delete-others preference.
	SetDeleteOthersEnabled(ctx context.Context, userID int64, enabled bool) error

	// RunMaintenance performs index maintenance tasks like VACUUM.
	RunMaintenance(ctx context.Context) error
}

// sqlxStore implements Store using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store backed by sqlx. It requires a connected
// sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) RecordMessage(ctx context.Context, message *Message) error {
	if message == nil {
		return fmt.Errorf("cannot record nil message")
	}
	if message.ChatID == 0 || message.MessageID == 0 {
		return fmt.Errorf("message must have non-zero chat_id and message_id")
	}
	if message.SentAt.IsZero() {
		message.SentAt = time.Now().UTC()
	}
	message.CreatedAt = time.Now().UTC()

	query := `
        INSERT INTO messages (chat_id, message_id, user_id, chat_title, sent_at, created_at)
        VALUES (:chat_id, :message_id, :user_id, :chat_title, :sent_at, :created_at)
        ON CONFLICT (chat_id, message_id) DO UPDATE SET
            user_id = excluded.user_id,
            chat_title = excluded.chat_title,
            sent_at = excluded.sent_at;
    `

	if _, err := s.db.NamedExecContext(ctx, query, message); err != nil {
		s.logger.ErrorContext(ctx, "Error recording message",
			"chat_id", message.ChatID, "message_id", message.MessageID, "error", err)
		return fmt.Errorf("failed to record message (chat %d, msg %d): %w",
			message.ChatID, message.MessageID, err)
	}

	return nil
}

func (s *sqlxStore) ListMessages(ctx context.Context, chatID int64, afterID, limit int) ([]Message, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chat_id cannot be zero")
	}
	if limit <= 0 {
		limit = 100
	}

	var messages []Message
	query := `
        SELECT chat_id, message_id, user_id, chat_title, sent_at, created_at
        FROM messages
        WHERE chat_id = ? AND message_id > ?
        ORDER BY message_id ASC
        LIMIT ?;
    `

	if err := s.db.SelectContext(ctx, &messages, query, chatID, afterID, limit); err != nil {
		s.logger.ErrorContext(ctx, "Error listing messages",
			"chat_id", chatID, "after_id", afterID, "error", err)
		return nil, fmt.Errorf("failed to list messages for chat %d: %w", chatID, err)
	}

	return messages, nil
}

func (s *sqlxStore) SearchMessagesBySender(ctx context.Context, chatID, userID int64, afterID, limit int) ([]Message, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chat_id cannot be zero")
	}
	if userID == 0 {
		return nil, fmt.Errorf("user_id cannot be zero")
	}
	if limit <= 0 {
		limit = 100
	}

	var messages []Message
	query := `
        SELECT chat_id, message_id, user_id, chat_title, sent_at, created_at
        FROM messages
        WHERE chat_id = ? AND user_id = ? AND message_id > ?
        ORDER BY message_id ASC
        LIMIT ?;
    `

	if err := s.db.SelectContext(ctx, &messages, query, chatID, userID, afterID, limit); err != nil {
		s.logger.ErrorContext(ctx, "Error searching messages by sender",
			"chat_id", chatID, "user_id", userID, "after_id", afterID, "error", err)
		return nil, fmt.Errorf("failed to search messages for chat %d: %w", chatID, err)
	}

	return messages, nil
}

func (s *sqlxStore) DeleteMessages(ctx context.Context, chatID int64, messageIDs []int) error {
	if len(messageIDs) == 0 {
		return nil
	}

	query, args, err := sqlx.In(
		`DELETE FROM messages WHERE chat_id = ? AND message_id IN (?)`, chatID, messageIDs)
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	query = s.db.Rebind(query)
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error pruning deleted messages",
			"chat_id", chatID, "count", len(messageIDs), "error", err)
		return fmt.Errorf("failed to prune %d messages for chat %d: %w", len(messageIDs), chatID, err)
	}

	affected, _ := result.RowsAffected()
	s.logger.DebugContext(ctx, "Pruned deleted messages from index",
		"chat_id", chatID, "requested", len(messageIDs), "affected", affected)
	return nil
}

func (s *sqlxStore) ChatTitle(ctx context.Context, chatID int64) (string, error) {
	var title string
	query := `
        SELECT chat_title FROM messages
        WHERE chat_id = ?
        ORDER BY message_id DESC
        LIMIT 1;
    `

	err := s.db.GetContext(ctx, &title, query, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get chat title for chat %d: %w", chatID, err)
	}

	return title, nil
}

func (s *sqlxStore) DeleteOthersEnabled(ctx context.Context, userID int64) (bool, error) {
	if userID == 0 {
		return false, fmt.Errorf("user_id cannot be zero")
	}

	var enabled bool
	err := s.db.GetContext(ctx, &enabled,
		`SELECT delete_others FROM user_prefs WHERE user_id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		// No stored preference means enabled.
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get preference for user %d: %w", userID, err)
	}

	return enabled, nil
}

func (s *sqlxStore) SetDeleteOthersEnabled(ctx context.Context, userID int64, enabled bool) error {
	if userID == 0 {
		return fmt.Errorf("user_id cannot be zero")
	}

	pref := UserPref{
		UserID:       userID,
		DeleteOthers: enabled,
		UpdatedAt:    time.Now().UTC(),
	}

	query := `
        INSERT INTO user_prefs (user_id, delete_others, updated_at)
        VALUES (:user_id, :delete_others, :updated_at)
        ON CONFLICT (user_id) DO UPDATE SET
            delete_others = excluded.delete_others,
            updated_at = excluded.updated_at;
    `

	if _, err := s.db.NamedExecContext(ctx, query, pref); err != nil {
		s.logger.ErrorContext(ctx, "Error saving preference",
			"user_id", userID, "error", err)
		return fmt.Errorf("failed to save preference for user %d: %w", userID, err)
	}

	s.logger.DebugContext(ctx, "Saved preference", "user_id", userID, "delete_others", enabled)
	return nil
}

// RunMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting index maintenance (VACUUM)")

	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		s.logger.ErrorContext(ctx, "Index maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Index maintenance (VACUUM) completed")
	return nil
}
