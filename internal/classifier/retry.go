package classifier

import (
	"context"
	"log"
	"time"
)

const (
	defaultMaxAttempts = 3
	defaultBackoffUnit = time.Second
)

type attemptState int

const (
	stateAttempting attemptState = iota
	stateRetryWait
	stateSuccess
	stateFailed
)

// runWithRetry drives one provider call through an explicit attempt state
// machine: Attempting -> {Success, RetryWait(attempt), Failed}. Attempt k
// waits 2^k backoff units before retrying. The wait is local to this call
// and aborts as soon as the context is cancelled.
func runWithRetry(ctx context.Context, name string, maxAttempts int, unit time.Duration, call func() error) error {
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}
	if unit <= 0 {
		unit = defaultBackoffUnit
	}

	state := stateAttempting
	attempt := 0
	var lastErr error
	for {
		switch state {
		case stateAttempting:
			attempt++
			lastErr = call()
			switch {
			case lastErr == nil:
				state = stateSuccess
			case retryable(lastErr) && attempt < maxAttempts:
				state = stateRetryWait
			default:
				state = stateFailed
			}
		case stateRetryWait:
			wait := unit * (1 << attempt)
			log.Printf("classifier %s retryable error attempt=%d/%d wait=%s err=%v", name, attempt, maxAttempts, wait, lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			state = stateAttempting
		case stateSuccess:
			return nil
		case stateFailed:
			return lastErr
		}
	}
}
