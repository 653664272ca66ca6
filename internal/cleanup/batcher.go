package cleanup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// DeletionBatcher issues batched delete calls and applies the retry and
// fallback policy: bounded backoff-and-retry on rate limits, per-item
// degradation on other batch failures.
type DeletionBatcher struct {
	platform    Platform
	tasks       TaskStore
	logger      *slog.Logger
	maxAttempts int
	itemDelay   time.Duration
	maxErrors   int
	sleep       sleepFunc
}

// NewDeletionBatcher creates a batcher. maxAttempts bounds consecutive
// rate-limit retries of one batch; itemDelay spaces per-item fallback
// deletions; maxErrors bounds the task's diagnostic error list.
func NewDeletionBatcher(platform Platform, tasks TaskStore, logger *slog.Logger, maxAttempts int, itemDelay time.Duration, maxErrors int) *DeletionBatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &DeletionBatcher{
		platform:    platform,
		tasks:       tasks,
		logger:      logger.With("component", "batcher"),
		maxAttempts: maxAttempts,
		itemDelay:   itemDelay,
		maxErrors:   maxErrors,
		sleep:       sleepContext,
	}
}

// DeleteBatch deletes one batch of message identifiers for the task's
// chat and returns the number of confirmed deletions. The task's counter
// is only advanced for confirmed deletions, and the task is persisted
// after every outcome so progress survives a crash between batches.
//
// Rate-limit signals suspend for the instructed wait and retry the same
// batch, up to the attempt ceiling; exhaustion returns
// ErrRateLimitExhausted. Cancellation is surfaced as the context error.
// Any other batch failure degrades to per-item deletion, where
// individual failures are logged and discarded.
func (b *DeletionBatcher) DeleteBatch(ctx context.Context, task *DeleteTask, ids []int) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	for attempt := 1; ; attempt++ {
		err := b.platform.DeleteMessages(ctx, task.ChatID, ids)
		if err == nil {
			task.DeletedMessages += int64(len(ids))
			task.ClearSleep()
			task.Touch()
			if saveErr := b.tasks.Save(task); saveErr != nil {
				b.logger.WarnContext(ctx, "Failed to persist task after batch",
					"chat_id", task.ChatID, "error", saveErr)
			}
			return len(ids), nil
		}

		var rl *RateLimitError
		if !errors.As(err, &rl) {
			// A failure caused by cancellation is not a batch problem;
			// surface it instead of degrading to per-item deletion.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return 0, ctxErr
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return 0, err
			}

			b.logger.WarnContext(ctx, "Batch delete failed, falling back to per-item deletion",
				"chat_id", task.ChatID, "batch_size", len(ids), "error", err)
			task.RecordError(fmt.Sprintf("batch delete failed: %v", err), b.maxErrors)
			return b.deleteIndividually(ctx, task, ids)
		}

		if attempt >= b.maxAttempts {
			task.RecordError(fmt.Sprintf("rate limit retries exhausted after %d attempts", attempt), b.maxErrors)
			task.ClearSleep()
			task.Touch()
			if saveErr := b.tasks.Save(task); saveErr != nil {
				b.logger.WarnContext(ctx, "Failed to persist task after retry exhaustion",
					"chat_id", task.ChatID, "error", saveErr)
			}
			return 0, ErrRateLimitExhausted
		}

		b.logger.InfoContext(ctx, "Rate limited, backing off before retrying batch",
			"chat_id", task.ChatID, "wait", rl.Wait, "attempt", attempt)
		task.SetSleepUntil(time.Now().Add(rl.Wait))
		task.Touch()
		if saveErr := b.tasks.Save(task); saveErr != nil {
			b.logger.WarnContext(ctx, "Failed to persist backoff state",
				"chat_id", task.ChatID, "error", saveErr)
		}

		if err := b.sleep(ctx, rl.Wait); err != nil {
			return 0, err
		}
		task.ClearSleep()
	}
}

// deleteIndividually deletes each identifier on its own, preserving
// partial progress. Per-item failures are recorded and skipped.
func (b *DeletionBatcher) deleteIndividually(ctx context.Context, task *DeleteTask, ids []int) (int, error) {
	deleted := 0
	for i, id := range ids {
		if i > 0 {
			if err := b.sleep(ctx, b.itemDelay); err != nil {
				break
			}
		}

		if err := b.platform.DeleteMessage(ctx, task.ChatID, id); err != nil {
			b.logger.DebugContext(ctx, "Per-item delete failed, skipping",
				"chat_id", task.ChatID, "message_id", id, "error", err)
			task.RecordError(fmt.Sprintf("delete message %d: %v", id, err), b.maxErrors)
			continue
		}
		deleted++
		task.DeletedMessages++
	}

	task.Touch()
	if err := b.tasks.Save(task); err != nil {
		b.logger.WarnContext(ctx, "Failed to persist task after fallback batch",
			"chat_id", task.ChatID, "error", err)
	}
	return deleted, nil
}
