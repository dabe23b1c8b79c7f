package postgresql

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/quartzhr/attendance-sync-go/internal/domain/mapping"
	"github.com/quartzhr/attendance-sync-go/internal/pkg/database"
)

type mappingRepository struct {
	db *database.DB
}

func NewMappingRepository(db *database.DB) mapping.MappingRepository {
	return &mappingRepository{db: db}
}

// Upsert implements mapping.MappingRepository.
func (r *mappingRepository) Upsert(ctx context.Context, m mapping.Mapping) (mapping.Mapping, error) {
	q := GetQuerier(ctx, r.db)

	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	query := `
		INSERT INTO device_employee_mappings (
			id, external_code, external_name, employee_id, match_score, status, active,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, NOW(), NOW()
		)
		ON CONFLICT (external_code) DO UPDATE SET
			external_name = EXCLUDED.external_name,
			employee_id   = EXCLUDED.employee_id,
			match_score   = EXCLUDED.match_score,
			status        = EXCLUDED.status,
			active        = EXCLUDED.active,
			updated_at    = NOW()
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		m.ID,
		m.ExternalCode,
		m.ExternalName,
		m.EmployeeID,
		m.MatchScore,
		m.Status,
		m.Active,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)

	if err != nil {
		return mapping.Mapping{}, fmt.Errorf("failed to upsert mapping: %w", err)
	}

	return m, nil
}

// GetActiveByExternalCode implements mapping.MappingRepository.
func (r *mappingRepository) GetActiveByExternalCode(ctx context.Context, externalCode string) (mapping.Mapping, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, external_code, external_name, employee_id, match_score, status, active,
			   created_at, updated_at
		FROM device_employee_mappings
		WHERE external_code = $1
		  AND active = true
		LIMIT 1
	`

	var m mapping.Mapping
	err := q.QueryRow(ctx, query, externalCode).Scan(
		&m.ID, &m.ExternalCode, &m.ExternalName, &m.EmployeeID, &m.MatchScore, &m.Status, &m.Active,
		&m.CreatedAt, &m.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return mapping.Mapping{}, mapping.ErrMappingNotFound
		}
		return mapping.Mapping{}, fmt.Errorf("failed to get mapping by external code: %w", err)
	}

	return m, nil
}

// List implements mapping.MappingRepository.
func (r *mappingRepository) List(ctx context.Context, status *mapping.Status) ([]mapping.Mapping, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT m.id, m.external_code, m.external_name, m.employee_id, m.match_score, m.status, m.active,
			   m.created_at, m.updated_at,
			   e.full_name AS employee_name
		FROM device_employee_mappings m
		LEFT JOIN employees e ON e.id = m.employee_id
		WHERE m.active = true
	`
	args := []interface{}{}
	if status != nil && *status != "" {
		query += " AND m.status = $1"
		args = append(args, *status)
	}
	query += " ORDER BY m.updated_at DESC"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query mappings: %w", err)
	}
	defer rows.Close()

	var mappings []mapping.Mapping
	for rows.Next() {
		var m mapping.Mapping
		err := rows.Scan(
			&m.ID, &m.ExternalCode, &m.ExternalName, &m.EmployeeID, &m.MatchScore, &m.Status, &m.Active,
			&m.CreatedAt, &m.UpdatedAt,
			&m.EmployeeName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mapping: %w", err)
		}
		mappings = append(mappings, m)
	}

	return mappings, nil
}

// Count implements mapping.MappingRepository.
func (r *mappingRepository) Count(ctx context.Context) (int64, error) {
	q := GetQuerier(ctx, r.db)

	var count int64
	err := q.QueryRow(ctx, `
		SELECT COUNT(*) FROM device_employee_mappings WHERE active = true
	`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count mappings: %w", err)
	}

	return count, nil
}
