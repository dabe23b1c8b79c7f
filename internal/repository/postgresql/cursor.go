package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	domainsync "github.com/quartzhr/attendance-sync-go/internal/domain/sync"
	"github.com/quartzhr/attendance-sync-go/internal/pkg/database"
	"github.com/quartzhr/attendance-sync-go/internal/pkg/etimetrack"
)

type cursorStore struct {
	db *database.DB
}

func NewCursorStore(db *database.DB) domainsync.CursorStore {
	return &cursorStore{db: db}
}

// Read implements sync.CursorStore.
func (r *cursorStore) Read(ctx context.Context, stream string) (domainsync.Cursor, error) {
	q := GetQuerier(ctx, r.db)

	var cur domainsync.Cursor
	err := q.QueryRow(ctx, `
		SELECT stream, last_record_token, last_synced_at, updated_at
		FROM sync_cursors
		WHERE stream = $1
	`, stream).Scan(&cur.Stream, &cur.LastRecordToken, &cur.LastSyncedAt, &cur.UpdatedAt)

	if err != nil {
		if err == pgx.ErrNoRows {
			return domainsync.Cursor{}, domainsync.ErrCursorNotFound
		}
		return domainsync.Cursor{}, fmt.Errorf("failed to read sync cursor: %w", err)
	}

	return cur, nil
}

// Advance implements sync.CursorStore. The row is locked so that the
// token comparison and the write happen atomically; a token that does not
// sort after the stored one leaves the cursor untouched.
func (r *cursorStore) Advance(ctx context.Context, stream string, token string) error {
	return WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		var current string
		err := tx.QueryRow(ctx, `
			SELECT last_record_token
			FROM sync_cursors
			WHERE stream = $1
			FOR UPDATE
		`, stream).Scan(&current)

		if err == pgx.ErrNoRows {
			_, err = tx.Exec(ctx, `
				INSERT INTO sync_cursors (stream, last_record_token, last_synced_at, updated_at)
				VALUES ($1, $2, NOW(), NOW())
			`, stream, token)
			if err != nil {
				return fmt.Errorf("failed to insert sync cursor: %w", err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to lock sync cursor: %w", err)
		}

		if !etimetrack.TokenNewer(token, current) {
			return nil
		}

		_, err = tx.Exec(ctx, `
			UPDATE sync_cursors
			SET last_record_token = $1, last_synced_at = NOW(), updated_at = NOW()
			WHERE stream = $2
		`, token, stream)
		if err != nil {
			return fmt.Errorf("failed to advance sync cursor: %w", err)
		}
		return nil
	})
}
