package cleanup

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func newTestBatcher(platform *fakePlatform, tasks TaskStore, maxAttempts int) (*DeletionBatcher, *fakeSleep) {
	sleep := &fakeSleep{}
	batcher := NewDeletionBatcher(platform, tasks, nil, maxAttempts, 0, 10)
	batcher.sleep = sleep.sleep
	return batcher, sleep
}

func TestDeleteBatchAdvancesCounter(t *testing.T) {
	platform := &fakePlatform{}
	platform.seed(5, 1)
	store := newTestStore(t)
	task := NewDeleteTask(100, "c", 1, false)
	batcher, _ := newTestBatcher(platform, store, 3)

	deleted, err := batcher.DeleteBatch(context.Background(), task, []int{1, 2, 3, 4, 5})
	if err != nil {
		t.Fatalf("DeleteBatch failed: %v", err)
	}
	if deleted != 5 || task.DeletedMessages != 5 {
		t.Errorf("expected 5 deletions, got deleted=%d counter=%d", deleted, task.DeletedMessages)
	}

	// Progress must be persisted after the batch.
	saved, found, err := store.Get(100)
	if err != nil || !found {
		t.Fatalf("persisted task not found: %v", err)
	}
	if saved.DeletedMessages != 5 {
		t.Errorf("persisted counter = %d, want 5", saved.DeletedMessages)
	}
}

func TestDeleteBatchRetriesAfterRateLimit(t *testing.T) {
	platform := &fakePlatform{
		deleteErrs: []error{&RateLimitError{Wait: 5 * time.Second}, nil},
	}
	platform.seed(3, 1)
	store := newTestStore(t)
	task := NewDeleteTask(100, "c", 1, false)
	batcher, sleep := newTestBatcher(platform, store, 3)

	deleted, err := batcher.DeleteBatch(context.Background(), task, []int{1, 2, 3})
	if err != nil {
		t.Fatalf("DeleteBatch failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("expected 3 deletions after retry, got %d", deleted)
	}
	if len(sleep.waits) != 1 || sleep.waits[0] != 5*time.Second {
		t.Errorf("expected one 5s backoff, got %v", sleep.waits)
	}
	if task.SleepUntil != nil {
		t.Error("backoff mark not cleared after successful retry")
	}
	// Same batch retried, not skipped: the one successful call carries
	// all three ids.
	if len(platform.batchCalls) != 1 || len(platform.batchCalls[0]) != 3 {
		t.Errorf("unexpected batch calls: %v", platform.batchCalls)
	}
}

func TestDeleteBatchPersistsBackoffState(t *testing.T) {
	platform := &fakePlatform{
		deleteErrs: []error{&RateLimitError{Wait: time.Minute}},
	}
	store := newTestStore(t)
	task := NewDeleteTask(100, "c", 1, false)
	batcher := NewDeletionBatcher(platform, store, nil, 3, 0, 10)
	batcher.sleep = func(ctx context.Context, d time.Duration) error {
		// Inspect the persisted record mid-backoff.
		saved, found, err := store.Get(100)
		if err != nil || !found {
			t.Fatalf("task not persisted during backoff: %v", err)
		}
		if saved.SleepUntil == nil {
			t.Error("persisted task missing sleepUntil during backoff")
		}
		return nil
	}

	if _, err := batcher.DeleteBatch(context.Background(), task, []int{1}); err != nil {
		t.Fatalf("DeleteBatch failed: %v", err)
	}
}

func TestDeleteBatchRateLimitExhaustion(t *testing.T) {
	platform := &fakePlatform{
		deleteErrs: []error{
			&RateLimitError{Wait: time.Second},
			&RateLimitError{Wait: time.Second},
			&RateLimitError{Wait: time.Second},
		},
	}
	store := newTestStore(t)
	task := NewDeleteTask(100, "c", 1, false)
	batcher, sleep := newTestBatcher(platform, store, 3)

	deleted, err := batcher.DeleteBatch(context.Background(), task, []int{1, 2})
	if !errors.Is(err, ErrRateLimitExhausted) {
		t.Fatalf("expected ErrRateLimitExhausted, got %v", err)
	}
	if deleted != 0 || task.DeletedMessages != 0 {
		t.Errorf("counter advanced despite exhaustion: deleted=%d counter=%d", deleted, task.DeletedMessages)
	}
	// Two backoffs for three attempts; the final failure returns.
	if len(sleep.waits) != 2 {
		t.Errorf("expected 2 backoffs before exhaustion, got %d", len(sleep.waits))
	}
	if len(task.Errors) == 0 {
		t.Error("exhaustion not recorded in task errors")
	}
}

func TestDeleteBatchFallsBackPerItem(t *testing.T) {
	platform := &fakePlatform{
		deleteErrs: []error{errors.New("message can't be deleted")},
		itemErrs:   map[int]error{2: errors.New("too old")},
	}
	platform.seed(3, 1)
	store := newTestStore(t)
	task := NewDeleteTask(100, "c", 1, false)
	batcher, _ := newTestBatcher(platform, store, 3)

	deleted, err := batcher.DeleteBatch(context.Background(), task, []int{1, 2, 3})
	if err != nil {
		t.Fatalf("fallback should not fail the batch: %v", err)
	}
	if deleted != 2 || task.DeletedMessages != 2 {
		t.Errorf("expected 2 per-item deletions, got deleted=%d counter=%d", deleted, task.DeletedMessages)
	}
	if len(platform.itemCalls) != 2 {
		t.Errorf("expected 2 successful item calls, got %v", platform.itemCalls)
	}
	if len(task.Errors) < 2 {
		t.Errorf("expected batch and item failures recorded, got %v", task.Errors)
	}
}

func TestDeleteBatchCancelledDuringBackoff(t *testing.T) {
	platform := &fakePlatform{
		deleteErrs: []error{&RateLimitError{Wait: time.Hour}},
	}
	store := newTestStore(t)
	task := NewDeleteTask(100, "c", 1, false)
	batcher, _ := newTestBatcher(platform, store, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := batcher.DeleteBatch(ctx, task, []int{1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDeleteBatchCancelledCallSkipsFallback(t *testing.T) {
	platform := &fakePlatform{
		deleteErrs: []error{context.Canceled},
	}
	platform.seed(3, 1)
	store := newTestStore(t)
	task := NewDeleteTask(100, "c", 1, false)
	batcher, _ := newTestBatcher(platform, store, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := batcher.DeleteBatch(ctx, task, []int{1, 2, 3})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(platform.itemCalls) != 0 {
		t.Errorf("per-item fallback ran during shutdown: %v", platform.itemCalls)
	}
	if len(task.Errors) != 0 {
		t.Errorf("cancellation polluted the diagnostic error list: %v", task.Errors)
	}
}

func TestDeleteBatchWrappedCancellationSkipsFallback(t *testing.T) {
	// The call may surface the cancellation itself while ctx.Err() is
	// still nil, e.g. a deadline hit inside the transport.
	platform := &fakePlatform{
		deleteErrs: []error{fmt.Errorf("post deleteMessages: %w", context.DeadlineExceeded)},
	}
	store := newTestStore(t)
	task := NewDeleteTask(100, "c", 1, false)
	batcher, _ := newTestBatcher(platform, store, 3)

	_, err := batcher.DeleteBatch(context.Background(), task, []int{1})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
	if len(platform.itemCalls) != 0 || len(task.Errors) != 0 {
		t.Errorf("cancellation degraded to fallback: calls=%v errors=%v",
			platform.itemCalls, task.Errors)
	}
}

func TestDeleteBatchEmpty(t *testing.T) {
	batcher, _ := newTestBatcher(&fakePlatform{}, newTestStore(t), 3)
	deleted, err := batcher.DeleteBatch(context.Background(), NewDeleteTask(1, "c", 1, false), nil)
	if err != nil || deleted != 0 {
		t.Errorf("empty batch: deleted=%d err=%v", deleted, err)
	}
}
