// Package cleanup implements the bulk message-deletion pipeline: a
// long-running, resumable, rate-limit-aware background job that deletes
// some or all messages in a chat, persists its progress across restarts,
// and reports live status to an external sink.
package cleanup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// TaskStore persists one DeleteTask record per chat.
type TaskStore interface {
	// Get returns the task for a chat, with found=false when absent.
	Get(chatID int64) (*DeleteTask, bool, error)

	// Save upserts a task by chat ID.
	Save(task *DeleteTask) error

	// Remove deletes a chat's task record. Removing an absent record
	// is not an error.
	Remove(chatID int64) error

	// List returns all persisted tasks.
	List() ([]*DeleteTask, error)
}

// taskDocument is the on-disk layout: one JSON object holding an array
// of task records.
type taskDocument struct {
	Tasks []*DeleteTask `json:"tasks"`
}

// FileStore is a TaskStore backed by a single JSON document. Every call
// reads the whole document and rewrites it in full; a mutex serializes
// concurrent jobs' read-modify-write cycles.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a TaskStore persisting to the given file path.
// The file is created lazily on first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Get(chatID int64) (*DeleteTask, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, false, err
	}

	for _, task := range doc.Tasks {
		if task.ChatID == chatID {
			return task, true, nil
		}
	}
	return nil, false, nil
}

func (s *FileStore) Save(task *DeleteTask) error {
	if task == nil {
		return fmt.Errorf("%w: cannot save nil task", ErrStorage)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	replaced := false
	for i, existing := range doc.Tasks {
		if existing.ChatID == task.ChatID {
			doc.Tasks[i] = task
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Tasks = append(doc.Tasks, task)
	}

	return s.write(doc)
}

func (s *FileStore) Remove(chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	kept := doc.Tasks[:0]
	for _, task := range doc.Tasks {
		if task.ChatID != chatID {
			kept = append(kept, task)
		}
	}
	doc.Tasks = kept

	return s.write(doc)
}

func (s *FileStore) List() ([]*DeleteTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Tasks, nil
}

func (s *FileStore) load() (*taskDocument, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &taskDocument{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrStorage, s.path, err)
	}

	doc := &taskDocument{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrStorage, s.path, err)
	}
	return doc, nil
}

func (s *FileStore) write(doc *taskDocument) error {
	if doc.Tasks == nil {
		doc.Tasks = []*DeleteTask{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding tasks: %v", ErrStorage, err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrStorage, s.path, err)
	}
	return nil
}
