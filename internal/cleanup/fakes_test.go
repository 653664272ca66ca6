package cleanup

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// fakePlatform is an in-memory Platform. Messages are kept sorted by ID;
// deletions remove them, so sources observe shrinking history the way
// the real platform does.
type fakePlatform struct {
	mu            sync.Mutex
	messages      []Message
	membership    Membership
	membershipErr error

	// deleteErrs is consumed one entry per DeleteMessages call; a nil
	// entry means success. An exhausted queue also means success.
	deleteErrs []error
	itemErrs   map[int]error

	batchCalls [][]int
	itemCalls  []int
	listCalls  int

	// listGate, when non-nil, blocks ListMessages and
	// SearchMessagesBySender until closed or the context ends.
	listGate chan struct{}
}

func (p *fakePlatform) seed(n int, senderID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := 1; i <= n; i++ {
		p.messages = append(p.messages, Message{ID: i, SenderID: senderID})
	}
}

func (p *fakePlatform) wait(ctx context.Context) error {
	p.mu.Lock()
	gate := p.listGate
	p.mu.Unlock()
	if gate == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-gate:
		return nil
	}
}

func (p *fakePlatform) ListMessages(ctx context.Context, chatID int64, afterID, limit int) ([]Message, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.listCalls++

	var page []Message
	for _, m := range p.messages {
		if m.ID <= afterID {
			continue
		}
		page = append(page, m)
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

func (p *fakePlatform) SearchMessagesBySender(ctx context.Context, chatID, senderID int64, afterID, limit int) ([]Message, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.listCalls++

	var page []Message
	for _, m := range p.messages {
		if m.ID <= afterID || m.SenderID != senderID {
			continue
		}
		page = append(page, m)
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

func (p *fakePlatform) DeleteMessages(ctx context.Context, chatID int64, messageIDs []int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.deleteErrs) > 0 {
		err := p.deleteErrs[0]
		p.deleteErrs = p.deleteErrs[1:]
		if err != nil {
			return err
		}
	}

	p.batchCalls = append(p.batchCalls, append([]int(nil), messageIDs...))
	p.removeLocked(messageIDs)
	return nil
}

func (p *fakePlatform) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.itemErrs[messageID]; err != nil {
		return err
	}
	p.itemCalls = append(p.itemCalls, messageID)
	p.removeLocked([]int{messageID})
	return nil
}

func (p *fakePlatform) GetMembership(ctx context.Context, chatID, userID int64) (Membership, error) {
	return p.membership, p.membershipErr
}

func (p *fakePlatform) removeLocked(ids []int) {
	drop := make(map[int]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := p.messages[:0]
	for _, m := range p.messages {
		if !drop[m.ID] {
			kept = append(kept, m)
		}
	}
	p.messages = kept
}

func (p *fakePlatform) remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}

type sentReport struct {
	chatID int64
	text   string
}

// fakeSink records report sends and edits.
type fakeSink struct {
	mu      sync.Mutex
	nextID  int
	sends   []sentReport
	edits   []sentReport
	editErr error
	sendErr error
}

func (s *fakeSink) SendReport(ctx context.Context, chatID int64, text string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return 0, s.sendErr
	}
	s.nextID++
	s.sends = append(s.sends, sentReport{chatID: chatID, text: text})
	return s.nextID, nil
}

func (s *fakeSink) EditReport(ctx context.Context, chatID int64, messageID int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editErr != nil {
		return s.editErr
	}
	s.edits = append(s.edits, sentReport{chatID: chatID, text: text})
	return nil
}

func (s *fakeSink) lastText(t *testing.T) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.edits) > 0 {
		return s.edits[len(s.edits)-1].text
	}
	if len(s.sends) > 0 {
		return s.sends[len(s.sends)-1].text
	}
	t.Fatal("no reports recorded")
	return ""
}

type fakePrefs struct {
	enabled bool
	err     error
}

func (p *fakePrefs) DeleteOthersEnabled(ctx context.Context, userID int64) (bool, error) {
	return p.enabled, p.err
}

// fakeSleep records requested sleep durations without sleeping.
type fakeSleep struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (f *fakeSleep) sleep(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	f.waits = append(f.waits, d)
	f.mu.Unlock()
	return ctx.Err()
}

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "tasks.json"))
}

