package sync

import "errors"

var (
	// ErrRunInProgress is returned when a run is requested while another is
	// holding the stream. Overlapping timer fires are expected; callers
	// treat this as "skipped", not as a failure.
	ErrRunInProgress = errors.New("a sync run is already in progress")

	ErrCursorNotFound = errors.New("sync cursor not found")

	// ErrFetchExhausted wraps the final vendor error after the retry budget
	// is spent. The cursor is left untouched.
	ErrFetchExhausted = errors.New("vendor fetch failed after retries")
)
