package cleanup

import (
	"errors"
	"fmt"
	"time"
)

// ErrStorage indicates the task document could not be read or written.
// It is fatal for the current operation only, never for the process.
var ErrStorage = errors.New("task storage error")

// ErrRateLimitExhausted indicates a batch kept hitting rate limits until
// the configured attempt ceiling ran out.
var ErrRateLimitExhausted = errors.New("rate limit retry budget exhausted")

// RateLimitError is a platform response instructing the caller to wait
// before retrying the same call.
type RateLimitError struct {
	Wait time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.Wait)
}
