package cleanup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// ProgressReporter renders task status into a fixed-format message and
// upserts it into the external sink. One status message per task: the
// saved message is edited in place, and a new one is created only when
// the edit fails. Reporting failures never fail the job.
type ProgressReporter struct {
	sink       Sink
	tasks      TaskStore
	sinkChatID int64
	logger     *slog.Logger
}

// NewProgressReporter creates a reporter. sinkChatID is the fixed report
// destination; when zero, reports go to the chat being cleaned.
func NewProgressReporter(sink Sink, tasks TaskStore, sinkChatID int64, logger *slog.Logger) *ProgressReporter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ProgressReporter{
		sink:       sink,
		tasks:      tasks,
		sinkChatID: sinkChatID,
		logger:     logger.With("component", "reporter"),
	}
}

// Report upserts the task's status message with the given state label.
func (r *ProgressReporter) Report(ctx context.Context, task *DeleteTask, label string) {
	text := renderStatus(task, label, time.Now())

	target := r.sinkChatID
	if target == 0 {
		target = task.ChatID
	}

	if task.SavedMessageID != nil {
		err := r.sink.EditReport(ctx, target, *task.SavedMessageID, text)
		if err == nil {
			return
		}
		r.logger.DebugContext(ctx, "Status edit failed, sending new message",
			"chat_id", task.ChatID, "saved_message_id", *task.SavedMessageID, "error", err)
	}

	messageID, err := r.sink.SendReport(ctx, target, text)
	if err != nil {
		r.logger.WarnContext(ctx, "Failed to send status report",
			"chat_id", task.ChatID, "sink_chat_id", target, "error", err)
		return
	}

	task.SavedMessageID = &messageID
	if err := r.tasks.Save(task); err != nil {
		r.logger.WarnContext(ctx, "Failed to persist saved status message id",
			"chat_id", task.ChatID, "error", err)
	}
}

// renderStatus builds the fixed-format status text.
func renderStatus(task *DeleteTask, label string, now time.Time) string {
	name := task.ChatName
	if name == "" {
		name = fmt.Sprintf("chat %d", task.ChatID)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🧹 Sweep: %s\n", name)
	fmt.Fprintf(&sb, "Status: %s\n", label)
	fmt.Fprintf(&sb, "Deleted: %d messages\n", task.DeletedMessages)
	fmt.Fprintf(&sb, "Elapsed: %s\n", formatElapsed(task.Elapsed(now)))
	fmt.Fprintf(&sb, "Rate: %.1f msg/s", task.Rate(now))
	if len(task.Errors) > 0 {
		fmt.Fprintf(&sb, "\nErrors: %d (last: %s)", len(task.Errors), task.Errors[len(task.Errors)-1])
	}
	return sb.String()
}

// formatElapsed renders a duration as hours, minutes, and seconds,
// omitting leading zero units.
func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
