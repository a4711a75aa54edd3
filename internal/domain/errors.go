package domain

import "errors"

// Error taxonomy surfaced across the pipeline. Callers are expected to
// match these with errors.Is; everything else is an internal error.
var (
	// ErrValidation means the input shape was wrong (caller's fault, no retry).
	ErrValidation = errors.New("validation error")

	// ErrClassifierUnavailable means the remote provider exhausted its
	// retries or its daily budget. Transient; the caller may retry later.
	ErrClassifierUnavailable = errors.New("classifier unavailable")

	// ErrDecryptionFailed means stored ciphertext failed authentication.
	// Logged server-side, never surfaced to end users as raw detail.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrNoData means a reporting query found nothing for the period.
	ErrNoData = errors.New("no data for period")

	// ErrInvalidPeriod means the period string was not of the form YYYY-MM.
	ErrInvalidPeriod = errors.New("invalid period")
)
