package cleanup

import (
	"context"
	"strings"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		BatchSize:            100,
		PageSize:             100,
		MaxRateLimitAttempts: 3,
		ReportInterval:       time.Hour,
		MaxErrors:            10,
	}
}

func newTestController(t *testing.T, platform *fakePlatform, sink *fakeSink, cfg Config) (*TaskController, *FileStore) {
	t.Helper()
	store := newTestStore(t)
	resolver := NewPermissionResolver(platform, &fakePrefs{enabled: true}, nil)
	batcher := NewDeletionBatcher(platform, store, nil, cfg.MaxRateLimitAttempts, 0, cfg.MaxErrors)
	batcher.sleep = (&fakeSleep{}).sleep
	reporter := NewProgressReporter(sink, store, 0, nil)
	return NewTaskController(store, resolver, platform, batcher, reporter, cfg, nil), store
}

func startRequest(chatID int64) StartRequest {
	return StartRequest{ChatID: chatID, ChatName: "Test Chat", UserID: 7, Private: true}
}

func TestSweepDeletesAllMessages(t *testing.T) {
	platform := &fakePlatform{}
	platform.seed(250, 7)
	sink := &fakeSink{}
	ctrl, store := newTestController(t, platform, sink, testConfig())

	started, err := ctrl.Start(context.Background(), startRequest(100))
	if err != nil || !started {
		t.Fatalf("Start = (%v, %v), want (true, nil)", started, err)
	}
	ctrl.Wait()

	if n := platform.remaining(); n != 0 {
		t.Errorf("%d messages left undeleted", n)
	}
	if len(platform.batchCalls) != 3 {
		t.Errorf("expected 3 batches of at most 100, got %d", len(platform.batchCalls))
	}
	for _, batch := range platform.batchCalls {
		if len(batch) > 100 {
			t.Errorf("batch of %d exceeds limit", len(batch))
		}
	}

	// Completed sweeps leave no record behind.
	if _, found, err := store.Get(100); err != nil || found {
		t.Errorf("expected record removed after completion, found=%v err=%v", found, err)
	}
	if !strings.Contains(sink.lastText(t), "completed") {
		t.Errorf("final report not marked completed: %q", sink.lastText(t))
	}
}

func TestStartIsIdempotentPerChat(t *testing.T) {
	platform := &fakePlatform{listGate: make(chan struct{})}
	platform.seed(10, 7)
	ctrl, _ := newTestController(t, platform, &fakeSink{}, testConfig())

	started, err := ctrl.Start(context.Background(), startRequest(100))
	if err != nil || !started {
		t.Fatalf("first Start = (%v, %v), want (true, nil)", started, err)
	}

	started, err = ctrl.Start(context.Background(), startRequest(100))
	if err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	if started {
		t.Error("second Start launched a duplicate job")
	}

	// A different chat is independent.
	started, err = ctrl.Start(context.Background(), startRequest(200))
	if err != nil || !started {
		t.Errorf("Start for another chat = (%v, %v), want (true, nil)", started, err)
	}

	close(platform.listGate)
	ctrl.Wait()
}

func TestStopPersistsStoppedState(t *testing.T) {
	platform := &fakePlatform{listGate: make(chan struct{})}
	platform.seed(1000, 7)
	sink := &fakeSink{}
	ctrl, store := newTestController(t, platform, sink, testConfig())

	if _, err := ctrl.Start(context.Background(), startRequest(100)); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	found, err := ctrl.Stop(context.Background(), 100)
	if err != nil || !found {
		t.Fatalf("Stop = (%v, %v), want (true, nil)", found, err)
	}
	ctrl.Wait()

	task, found, err := store.Get(100)
	if err != nil || !found {
		t.Fatalf("stopped record missing: %v", err)
	}
	if task.IsRunning || !task.IsPaused {
		t.Errorf("stopped record flags: isRunning=%v isPaused=%v, want false/true", task.IsRunning, task.IsPaused)
	}
	if !strings.Contains(sink.lastText(t), "stopped") {
		t.Errorf("final report not marked stopped: %q", sink.lastText(t))
	}

	// Stopped chats can be started again.
	started, err := ctrl.Start(context.Background(), startRequest(100))
	if err != nil || !started {
		t.Errorf("restart after stop = (%v, %v), want (true, nil)", started, err)
	}
	ctrl.Stop(context.Background(), 100)
	ctrl.Wait()
}

func TestStopWithoutTask(t *testing.T) {
	ctrl, _ := newTestController(t, &fakePlatform{}, &fakeSink{}, testConfig())
	found, err := ctrl.Stop(context.Background(), 100)
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if found {
		t.Error("Stop reported a task where none exists")
	}
}

func TestResumeAllRelaunchesRunningTasks(t *testing.T) {
	platform := &fakePlatform{}
	platform.seed(50, 7)
	sink := &fakeSink{}
	ctrl, store := newTestController(t, platform, sink, testConfig())

	// A crashed process left one running and one stopped record.
	running := NewDeleteTask(100, "Running Chat", 7, true)
	running.DeletedMessages = 30
	if err := store.Save(running); err != nil {
		t.Fatalf("seeding running task: %v", err)
	}
	stopped := NewDeleteTask(200, "Stopped Chat", 7, true)
	stopped.IsRunning = false
	stopped.IsPaused = true
	if err := store.Save(stopped); err != nil {
		t.Fatalf("seeding stopped task: %v", err)
	}

	if err := ctrl.ResumeAll(context.Background()); err != nil {
		t.Fatalf("ResumeAll failed: %v", err)
	}
	ctrl.Wait()

	if n := platform.remaining(); n != 0 {
		t.Errorf("resumed sweep left %d messages", n)
	}
	// The resumed counter keeps accumulating on top of prior progress.
	if !strings.Contains(sink.lastText(t), "Deleted: 80 messages") {
		t.Errorf("resumed counter not preserved: %q", sink.lastText(t))
	}

	// The stopped record is untouched.
	task, found, err := store.Get(200)
	if err != nil || !found {
		t.Fatalf("stopped record missing after resume: %v", err)
	}
	if task.IsRunning {
		t.Error("ResumeAll relaunched a stopped task")
	}
}

func TestShutdownKeepsRecordRunning(t *testing.T) {
	platform := &fakePlatform{listGate: make(chan struct{})}
	platform.seed(1000, 7)
	ctrl, store := newTestController(t, platform, &fakeSink{}, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	if _, err := ctrl.Start(ctx, startRequest(100)); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Process shutdown: the parent context ends without a stop command.
	cancel()
	ctrl.Wait()

	task, found, err := store.Get(100)
	if err != nil || !found {
		t.Fatalf("record missing after shutdown: %v", err)
	}
	if !task.IsRunning {
		t.Error("shutdown flipped the record to stopped; it must stay running for resume")
	}
}

func TestSweepFailureRetainsRecord(t *testing.T) {
	platform := &fakePlatform{
		deleteErrs: []error{
			&RateLimitError{Wait: time.Second},
			&RateLimitError{Wait: time.Second},
			&RateLimitError{Wait: time.Second},
		},
	}
	platform.seed(10, 7)
	sink := &fakeSink{}
	ctrl, store := newTestController(t, platform, sink, testConfig())

	if _, err := ctrl.Start(context.Background(), startRequest(100)); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	ctrl.Wait()

	task, found, err := store.Get(100)
	if err != nil || !found {
		t.Fatalf("failed record missing: %v", err)
	}
	if task.IsRunning || task.IsPaused {
		t.Errorf("failed record flags: isRunning=%v isPaused=%v, want false/false", task.IsRunning, task.IsPaused)
	}
	if len(task.Errors) == 0 {
		t.Error("failure left no diagnostic errors")
	}
	if !strings.Contains(sink.lastText(t), "failed") {
		t.Errorf("final report not marked failed: %q", sink.lastText(t))
	}

	// A later status query must not present the dead job as running.
	if _, found, err := ctrl.Status(context.Background(), 100); err != nil || !found {
		t.Fatalf("Status after failure = (%v, %v)", found, err)
	}
	if !strings.Contains(sink.lastText(t), "Status: failed") {
		t.Errorf("status report for dead job: %q", sink.lastText(t))
	}
}

func TestStatusReportsWithoutAltering(t *testing.T) {
	platform := &fakePlatform{}
	sink := &fakeSink{}
	ctrl, store := newTestController(t, platform, sink, testConfig())

	seeded := NewDeleteTask(100, "Chat", 7, true)
	seeded.IsRunning = false
	seeded.IsPaused = true
	seeded.DeletedMessages = 12
	if err := store.Save(seeded); err != nil {
		t.Fatalf("seeding task: %v", err)
	}

	task, found, err := ctrl.Status(context.Background(), 100)
	if err != nil || !found {
		t.Fatalf("Status = (%v, %v)", found, err)
	}
	if task.DeletedMessages != 12 {
		t.Errorf("Status returned wrong task: %+v", task)
	}
	if !strings.Contains(sink.lastText(t), "stopped") {
		t.Errorf("status report label: %q", sink.lastText(t))
	}

	if _, found, _ := ctrl.Status(context.Background(), 999); found {
		t.Error("Status invented a task for an unknown chat")
	}
}
