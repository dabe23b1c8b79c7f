package sync

import "context"

// CursorStore persists the per-stream watermark.
type CursorStore interface {
	Read(ctx context.Context, stream string) (Cursor, error)

	// Advance moves the stream's token forward. If the incoming token's
	// sequence is not strictly greater than the stored one the call is a
	// silent no-op: an out-of-order batch arriving late is an expected
	// race, not an error.
	Advance(ctx context.Context, stream string, token string) error
}

// PendingPunchRepository is the holding queue for punches whose external
// code is still unmapped.
type PendingPunchRepository interface {
	Enqueue(ctx context.Context, p PendingPunch) error
	ListByExternalCode(ctx context.Context, externalCode string) ([]PendingPunch, error)
	DeleteByExternalCode(ctx context.Context, externalCode string) error
	Count(ctx context.Context) (int64, error)
}
