package postgresql

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	domainsync "github.com/quartzhr/attendance-sync-go/internal/domain/sync"
	"github.com/quartzhr/attendance-sync-go/internal/pkg/database"
)

type pendingPunchRepository struct {
	db *database.DB
}

func NewPendingPunchRepository(db *database.DB) domainsync.PendingPunchRepository {
	return &pendingPunchRepository{db: db}
}

// Enqueue implements sync.PendingPunchRepository. The (external_code,
// timestamp, direction) unique key absorbs redelivered batches.
func (r *pendingPunchRepository) Enqueue(ctx context.Context, p domainsync.PendingPunch) error {
	q := GetQuerier(ctx, r.db)

	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	_, err := q.Exec(ctx, `
		INSERT INTO pending_punches (id, external_code, external_name, timestamp, direction, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (external_code, timestamp, direction) DO NOTHING
	`, p.ID, p.ExternalCode, p.ExternalName, p.Timestamp, p.Direction)

	if err != nil {
		return fmt.Errorf("failed to enqueue pending punch: %w", err)
	}
	return nil
}

// ListByExternalCode implements sync.PendingPunchRepository.
func (r *pendingPunchRepository) ListByExternalCode(ctx context.Context, externalCode string) ([]domainsync.PendingPunch, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, external_code, external_name, timestamp, direction, created_at
		FROM pending_punches
		WHERE external_code = $1
		ORDER BY timestamp ASC
	`, externalCode)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending punches: %w", err)
	}
	defer rows.Close()

	var punches []domainsync.PendingPunch
	for rows.Next() {
		var p domainsync.PendingPunch
		err := rows.Scan(&p.ID, &p.ExternalCode, &p.ExternalName, &p.Timestamp, &p.Direction, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending punch: %w", err)
		}
		punches = append(punches, p)
	}

	return punches, nil
}

// DeleteByExternalCode implements sync.PendingPunchRepository.
func (r *pendingPunchRepository) DeleteByExternalCode(ctx context.Context, externalCode string) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `
		DELETE FROM pending_punches WHERE external_code = $1
	`, externalCode)
	if err != nil {
		return fmt.Errorf("failed to delete pending punches: %w", err)
	}
	return nil
}

// Count implements sync.PendingPunchRepository.
func (r *pendingPunchRepository) Count(ctx context.Context) (int64, error) {
	q := GetQuerier(ctx, r.db)

	var count int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM pending_punches`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pending punches: %w", err)
	}
	return count, nil
}
