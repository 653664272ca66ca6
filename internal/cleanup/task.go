package cleanup

import (
	"fmt"
	"time"
)

// DeleteTask is the persisted record of one bulk-deletion job, keyed by
// chat. Timestamps are unix milliseconds. The JSON field names are the
// task document's wire format; userId and chatPrivate are carried so a
// resumed job can re-resolve its strategy after a restart.
type DeleteTask struct {
	ChatID          int64    `json:"chatId"`
	ChatName        string   `json:"chatName"`
	StartTime       int64    `json:"startTime"`
	DeletedMessages int64    `json:"deletedMessages"`
	IsRunning       bool     `json:"isRunning"`
	IsPaused        bool     `json:"isPaused"`
	SleepUntil      *int64   `json:"sleepUntil"`
	LastUpdate      int64    `json:"lastUpdate"`
	LastLogTime     int64    `json:"lastLogTime"`
	Errors          []string `json:"errors"`
	SavedMessageID  *int     `json:"savedMessageId"`
	UserID          int64    `json:"userId"`
	ChatPrivate     bool     `json:"chatPrivate"`
}

// NewDeleteTask creates a Running task for a chat and its invoker.
func NewDeleteTask(chatID int64, chatName string, userID int64, private bool) *DeleteTask {
	now := nowMillis()
	return &DeleteTask{
		ChatID:      chatID,
		ChatName:    chatName,
		StartTime:   now,
		IsRunning:   true,
		LastUpdate:  now,
		UserID:      userID,
		ChatPrivate: private,
	}
}

// Touch refreshes the last-update timestamp.
func (t *DeleteTask) Touch() {
	t.LastUpdate = nowMillis()
}

// RecordError appends an error string, keeping at most max entries.
// Older entries are dropped first.
func (t *DeleteTask) RecordError(msg string, max int) {
	t.Errors = append(t.Errors, msg)
	if max > 0 && len(t.Errors) > max {
		t.Errors = t.Errors[len(t.Errors)-max:]
	}
}

// SetSleepUntil marks the task as backing off until the given time.
func (t *DeleteTask) SetSleepUntil(until time.Time) {
	ms := until.UnixMilli()
	t.SleepUntil = &ms
}

// ClearSleep clears any backoff mark.
func (t *DeleteTask) ClearSleep() {
	t.SleepUntil = nil
}

// Elapsed returns the time since the task started.
func (t *DeleteTask) Elapsed(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(t.StartTime))
}

// Rate returns confirmed deletions per second since the task started.
func (t *DeleteTask) Rate(now time.Time) float64 {
	secs := t.Elapsed(now).Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(t.DeletedMessages) / secs
}

// LiveLabel derives the status label of a task: stopped or failed for
// halted records, sleeping with remaining backoff time when one is
// pending, running otherwise. A non-running record is paused when it was
// stopped on request and unpaused when its job died; completed records
// are removed, so the latter can only mean failure.
func (t *DeleteTask) LiveLabel(now time.Time) string {
	if !t.IsRunning {
		if t.IsPaused {
			return "stopped"
		}
		return "failed"
	}
	if t.SleepUntil != nil {
		remaining := time.UnixMilli(*t.SleepUntil).Sub(now)
		if remaining > 0 {
			return fmt.Sprintf("sleeping (%s left)", remaining.Round(time.Second))
		}
	}
	return "running"
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
