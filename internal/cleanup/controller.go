package cleanup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Config tunes the deletion pipeline.
type Config struct {
	BatchSize            int
	PageSize             int
	PageDelay            time.Duration
	ItemDelay            time.Duration
	MaxRateLimitAttempts int
	ReportInterval       time.Duration
	MaxErrors            int
}

// StartRequest identifies the chat to sweep and the invoking identity.
type StartRequest struct {
	ChatID   int64
	ChatName string
	UserID   int64
	Private  bool
}

// job tracks one in-flight sweep. stopRequested distinguishes a user
// stop from a process shutdown when the job's context is cancelled.
type job struct {
	cancel        context.CancelFunc
	stopRequested atomic.Bool
}

// TaskController is the command surface of the pipeline: it starts,
// stops, and reports sweep jobs, enforcing one active job per chat.
// Cancellation is cooperative at batch granularity.
type TaskController struct {
	tasks    TaskStore
	resolver *PermissionResolver
	platform Platform
	batcher  *DeletionBatcher
	reporter *ProgressReporter
	cfg      Config
	logger   *slog.Logger

	mu   sync.Mutex
	jobs map[int64]*job
	wg   sync.WaitGroup
}

// NewTaskController wires the pipeline components into a controller.
func NewTaskController(tasks TaskStore, resolver *PermissionResolver, platform Platform, batcher *DeletionBatcher, reporter *ProgressReporter, cfg Config, logger *slog.Logger) *TaskController {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &TaskController{
		tasks:    tasks,
		resolver: resolver,
		platform: platform,
		batcher:  batcher,
		reporter: reporter,
		cfg:      cfg,
		logger:   logger.With("component", "controller"),
		jobs:     make(map[int64]*job),
	}
}

// Start begins a sweep for the chat, or no-ops when one is already
// running there. It returns whether a new job was launched. The job
// inherits ctx, so it lives until the sweep finishes, is stopped, or
// the process shuts down.
func (c *TaskController) Start(ctx context.Context, req StartRequest) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, active := c.jobs[req.ChatID]; active {
		c.logger.InfoContext(ctx, "Sweep already running, ignoring duplicate start",
			"chat_id", req.ChatID)
		return false, nil
	}

	task, found, err := c.tasks.Get(req.ChatID)
	if err != nil {
		return false, err
	}

	if !found {
		task = NewDeleteTask(req.ChatID, req.ChatName, req.UserID, req.Private)
	} else {
		task.IsRunning = true
		task.IsPaused = false
		task.UserID = req.UserID
		task.ChatPrivate = req.Private
		if req.ChatName != "" {
			task.ChatName = req.ChatName
		}
		task.Touch()
	}

	if err := c.tasks.Save(task); err != nil {
		return false, err
	}

	c.launch(ctx, task)
	c.logger.InfoContext(ctx, "Sweep started",
		"chat_id", req.ChatID, "resumed_count", task.DeletedMessages)
	return true, nil
}

// Stop requests a graceful halt: state is persisted as Stopped, a final
// report is sent, and the running loop exits after its in-flight batch.
// It returns whether a task existed for the chat.
func (c *TaskController) Stop(ctx context.Context, chatID int64) (bool, error) {
	c.mu.Lock()
	j := c.jobs[chatID]
	c.mu.Unlock()

	if j != nil {
		j.stopRequested.Store(true)
		j.cancel()
	}

	task, found, err := c.tasks.Get(chatID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	task.IsRunning = false
	task.IsPaused = true
	task.Touch()
	if err := c.tasks.Save(task); err != nil {
		return true, err
	}

	c.reporter.Report(ctx, task, "stopped")
	c.logger.InfoContext(ctx, "Sweep stopped",
		"chat_id", chatID, "deleted", task.DeletedMessages)
	return true, nil
}

// Status re-reports the chat's task without altering its state. It
// returns the task, or found=false when no task exists.
func (c *TaskController) Status(ctx context.Context, chatID int64) (*DeleteTask, bool, error) {
	task, found, err := c.tasks.Get(chatID)
	if err != nil || !found {
		return nil, false, err
	}

	c.reporter.Report(ctx, task, task.LiveLabel(time.Now()))
	return task, true, nil
}

// ResumeAll relaunches every persisted task still marked running,
// typically after a process restart.
func (c *TaskController) ResumeAll(ctx context.Context) error {
	tasks, err := c.tasks.List()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	resumed := 0
	for _, task := range tasks {
		if !task.IsRunning {
			continue
		}
		if _, active := c.jobs[task.ChatID]; active {
			continue
		}
		c.launch(ctx, task)
		resumed++
	}

	if resumed > 0 {
		c.logger.InfoContext(ctx, "Resumed persisted sweeps", "count", resumed)
	}
	return nil
}

// RefreshReports re-renders the status message of every running task.
// Called periodically so reports stay fresh during long backoff sleeps.
func (c *TaskController) RefreshReports(ctx context.Context) error {
	tasks, err := c.tasks.List()
	if err != nil {
		return err
	}

	now := time.Now()
	for _, task := range tasks {
		if !task.IsRunning {
			continue
		}
		c.reporter.Report(ctx, task, task.LiveLabel(now))
	}
	return nil
}

// Tasks returns all persisted sweep records, running or not.
func (c *TaskController) Tasks() ([]*DeleteTask, error) {
	return c.tasks.List()
}

// Wait blocks until all in-flight jobs have exited. Call after the
// jobs' parent context is cancelled to let in-flight batches finish.
func (c *TaskController) Wait() {
	c.wg.Wait()
}

// launch registers and starts the job goroutine. Caller holds c.mu.
func (c *TaskController) launch(ctx context.Context, task *DeleteTask) {
	jobCtx, cancel := context.WithCancel(ctx)
	j := &job{cancel: cancel}
	c.jobs[task.ChatID] = j

	c.wg.Add(1)
	go c.runJob(jobCtx, j, task)
}

// runJob is the cooperative batch loop of one sweep.
func (c *TaskController) runJob(ctx context.Context, j *job, task *DeleteTask) {
	defer c.wg.Done()
	defer func() {
		c.mu.Lock()
		delete(c.jobs, task.ChatID)
		c.mu.Unlock()
	}()
	defer func() {
		if r := recover(); r != nil {
			c.fail(task, fmt.Errorf("job panic: %v", r))
		}
	}()

	log := c.logger.With("chat_id", task.ChatID)

	canDeleteOthers := c.resolver.CanDeleteOthers(ctx, task.ChatID, task.UserID, task.ChatPrivate)
	source := NewMessageSource(c.platform, task.ChatID, task.UserID, canDeleteOthers, c.cfg.PageSize, c.cfg.PageDelay)
	log.InfoContext(ctx, "Sweep job running", "delete_others", canDeleteOthers)

	for {
		if ctx.Err() != nil {
			c.onCancelled(j, task)
			return
		}

		page, err := source.NextPage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.onCancelled(j, task)
				return
			}
			c.fail(task, fmt.Errorf("message source: %w", err))
			return
		}
		if len(page) == 0 {
			c.complete(task)
			return
		}

		for start := 0; start < len(page); start += c.cfg.BatchSize {
			if ctx.Err() != nil {
				c.onCancelled(j, task)
				return
			}

			end := start + c.cfg.BatchSize
			if end > len(page) {
				end = len(page)
			}

			ids := make([]int, 0, end-start)
			for _, m := range page[start:end] {
				ids = append(ids, m.ID)
			}

			if _, err := c.batcher.DeleteBatch(ctx, task, ids); err != nil {
				if errors.Is(err, context.Canceled) || ctx.Err() != nil {
					c.onCancelled(j, task)
					return
				}
				c.fail(task, err)
				return
			}

			c.maybeReport(ctx, task)
		}
	}
}

// onCancelled finalizes a job whose context was cancelled. A requested
// stop has already been persisted and reported by Stop; re-assert the
// flags in case an in-flight batch save overwrote them. A process
// shutdown leaves the record running so the sweep resumes on restart.
func (c *TaskController) onCancelled(j *job, task *DeleteTask) {
	if j.stopRequested.Load() {
		task.IsRunning = false
		task.IsPaused = true
	}
	task.Touch()
	if err := c.tasks.Save(task); err != nil {
		c.logger.Warn("Failed to persist task on cancellation",
			"chat_id", task.ChatID, "error", err)
	}
}

// complete finalizes an exhausted sweep: final report, record removed.
func (c *TaskController) complete(task *DeleteTask) {
	task.IsRunning = false
	task.Touch()

	// The job context may already be cancelled; the final report and
	// removal use a fresh context.
	ctx := context.Background()
	c.reporter.Report(ctx, task, "completed")

	if err := c.tasks.Remove(task.ChatID); err != nil {
		c.logger.Warn("Failed to remove completed task",
			"chat_id", task.ChatID, "error", err)
	}
	c.logger.Info("Sweep completed",
		"chat_id", task.ChatID, "deleted", task.DeletedMessages)
}

// fail finalizes a job on an unrecoverable error: error recorded, state
// persisted, final report sent, record retained for inspection.
func (c *TaskController) fail(task *DeleteTask, jobErr error) {
	task.RecordError(jobErr.Error(), c.cfg.MaxErrors)
	task.IsRunning = false
	task.IsPaused = false
	task.Touch()

	ctx := context.Background()
	if err := c.tasks.Save(task); err != nil {
		c.logger.Error("Failed to persist failed task",
			"chat_id", task.ChatID, "error", err)
	}
	c.reporter.Report(ctx, task, "failed")
	c.logger.Error("Sweep failed",
		"chat_id", task.ChatID, "deleted", task.DeletedMessages, "error", jobErr)
}

// maybeReport emits a live report when the report interval has elapsed.
func (c *TaskController) maybeReport(ctx context.Context, task *DeleteTask) {
	now := time.Now()
	if now.UnixMilli()-task.LastLogTime < c.cfg.ReportInterval.Milliseconds() {
		return
	}
	task.LastLogTime = now.UnixMilli()
	c.reporter.Report(ctx, task, task.LiveLabel(now))
}
