package cleanup

import (
	"context"
	"time"
)

// Message is one candidate message yielded by a MessageSource.
type Message struct {
	ID       int
	SenderID int64
}

// Membership is the platform's view of a user's standing in a chat.
type Membership struct {
	IsOwner           bool
	IsAdministrator   bool
	CanDeleteMessages bool
}

// MayDeleteOthers reports whether this membership authorizes deleting
// other participants' messages.
func (m Membership) MayDeleteOthers() bool {
	return m.IsOwner || (m.IsAdministrator && m.CanDeleteMessages)
}

// Platform is the messaging-platform capability surface the pipeline
// consumes. DeleteMessages and DeleteMessage revoke for all participants
// and return *RateLimitError when the platform instructs a backoff.
type Platform interface {
	ListMessages(ctx context.Context, chatID int64, afterID, limit int) ([]Message, error)
	SearchMessagesBySender(ctx context.Context, chatID, senderID int64, afterID, limit int) ([]Message, error)
	DeleteMessages(ctx context.Context, chatID int64, messageIDs []int) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	GetMembership(ctx context.Context, chatID, userID int64) (Membership, error)
}

// Sink is the external destination for status reports. Both calls may
// fail independently of the deletion job's success.
type Sink interface {
	SendReport(ctx context.Context, chatID int64, text string) (int, error)
	EditReport(ctx context.Context, chatID int64, messageID int, text string) error
}

// PrefStore exposes the stored per-identity delete-others preference.
type PrefStore interface {
	DeleteOthersEnabled(ctx context.Context, userID int64) (bool, error)
}

// sleepFunc suspends for d or until ctx is done, returning the context
// error if it was cancelled. Injectable so tests don't sleep for real.
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
