package classifier

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/anthropics/anthropic-sdk-go"
)

// httpStatusError carries the status of a failed provider HTTP call so the
// retry loop can classify it.
type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.status, e.body)
}

// retryableStatus reports whether an HTTP status is worth retrying:
// server-side errors and explicit rate-limit signals are, other client
// errors are the caller's fault and fail immediately.
func retryableStatus(status int) bool {
	return status == 429 || status >= 500
}

// retryable classifies an error as transient. Context cancellation is
// never retryable: a cancelled request must abort cooperatively.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return retryableStatus(statusErr.status)
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.StatusCode)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
