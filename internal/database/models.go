package database

import "time"

// Message is one indexed chat message. It stores only what the cleanup
// pipeline needs: identifiers for deletion and the sender for the
// restricted search strategy.
type Message struct {
	ChatID    int64     `db:"chat_id"`
	MessageID int       `db:"message_id"`
	UserID    int64     `db:"user_id"`
	ChatTitle string    `db:"chat_title"`
	SentAt    time.Time `db:"sent_at"`
	CreatedAt time.Time `db:"created_at"`
}

// UserPref holds a user's stored preferences. DeleteOthers gates whether
// the user's sweep jobs may use the privileged full-history strategy.
type UserPref struct {
	UserID       int64     `db:"user_id"`
	DeleteOthers bool      `db:"delete_others"`
	UpdatedAt    time.Time `db:"updated_at"`
}
