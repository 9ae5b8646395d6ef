package persistence

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// maxRetryAttempts bounds how many times WithRetry re-invokes op before
// giving up. Persistence failures past this point are unrecoverable by
// retrying (disk full, permission revoked) and must surface as a fatal
// abort rather than loop forever.
const maxRetryAttempts = 5

// WithRetry runs op with exponential backoff, retrying up to
// maxRetryAttempts times. It returns a FatalAbortError if every attempt
// fails, signaling the caller that retrying further is pointless and the
// process should abort rather than risk losing more durability ground.
func WithRetry(label string, op func() error) error {
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetryAttempts-1)

	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		return op()
	}, policy, func(err error, wait time.Duration) {
		log.Warn().Err(err).Str("op", label).Int("attempt", attempt).Dur("retry_in", wait).Msg("persistence operation failed, retrying")
	})
	if err != nil {
		return &FatalAbortError{Op: label, Attempts: attempt, Err: err}
	}
	return nil
}

// FatalAbortError signals that a persistence operation exhausted its
// retry budget. No code in this module calls WithRetry: Writer.Write is
// not retried, and runtime.Simulation.commit exits the process on the
// first sink error it sees.
type FatalAbortError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *FatalAbortError) Error() string {
	return fmt.Sprintf("persistence: %q failed after %d attempts, aborting: %v", e.Op, e.Attempts, e.Err)
}

func (e *FatalAbortError) Unwrap() error { return e.Err }
