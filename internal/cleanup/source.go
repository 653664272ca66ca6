package cleanup

import (
	"context"
	"time"
)

// MessageSource yields pages of candidate message identifiers for
// deletion, forward-only. An empty page means the source is exhausted.
// Sources restart from the beginning on resume; they are not
// mid-page-resumable.
type MessageSource interface {
	NextPage(ctx context.Context) ([]Message, error)
}

// NewMessageSource selects the traversal strategy for a job: the full
// chronological history when the invoker may delete others' messages,
// otherwise a paged search restricted to the invoker's own messages.
func NewMessageSource(platform Platform, chatID, userID int64, canDeleteOthers bool, pageSize int, pageDelay time.Duration) MessageSource {
	if canDeleteOthers {
		return &fullHistorySource{
			platform: platform,
			chatID:   chatID,
			pageSize: pageSize,
		}
	}
	return &ownMessagesSource{
		platform:  platform,
		chatID:    chatID,
		senderID:  userID,
		pageSize:  pageSize,
		pageDelay: pageDelay,
		sleep:     sleepContext,
	}
}

// fullHistorySource iterates the chat's history oldest-first, yielding
// every message unfiltered.
type fullHistorySource struct {
	platform Platform
	chatID   int64
	pageSize int
	cursor   int
}

func (s *fullHistorySource) NextPage(ctx context.Context) ([]Message, error) {
	page, err := s.platform.ListMessages(ctx, s.chatID, s.cursor, s.pageSize)
	if err != nil {
		return nil, err
	}
	if len(page) > 0 {
		s.cursor = page[len(page)-1].ID
	}
	return page, nil
}

// ownMessagesSource pages through a sender-restricted search, using the
// last returned identifier as the next page's cursor. Pages are spaced
// by pageDelay to stay under platform throttling, and results are
// re-checked against the sender in case the search filter is loose.
type ownMessagesSource struct {
	platform  Platform
	chatID    int64
	senderID  int64
	pageSize  int
	pageDelay time.Duration
	sleep     sleepFunc
	cursor    int
	started   bool
}

func (s *ownMessagesSource) NextPage(ctx context.Context) ([]Message, error) {
	for {
		if s.started {
			if err := s.sleep(ctx, s.pageDelay); err != nil {
				return nil, err
			}
		}
		s.started = true

		page, err := s.platform.SearchMessagesBySender(ctx, s.chatID, s.senderID, s.cursor, s.pageSize)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			return nil, nil
		}
		s.cursor = page[len(page)-1].ID

		own := page[:0]
		for _, m := range page {
			if m.SenderID == s.senderID {
				own = append(own, m)
			}
		}
		if len(own) > 0 {
			return own, nil
		}
		// Whole page filtered out; advance to the next one.
	}
}
