package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/quartzhr/attendance-sync-go/internal/domain/attendance"
	"github.com/quartzhr/attendance-sync-go/internal/pkg/database"
)

type dayRecordRepository struct {
	db *database.DB
}

func NewDayRecordRepository(db *database.DB) attendance.DayRecordRepository {
	return &dayRecordRepository{db: db}
}

// Upsert implements attendance.DayRecordRepository. The conflict target is
// the (employee_id, date) unique key, which is what makes redelivered sync
// batches safe.
func (r *dayRecordRepository) Upsert(ctx context.Context, rec attendance.DayRecord) (attendance.DayRecord, error) {
	q := GetQuerier(ctx, r.db)

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	query := `
		INSERT INTO day_attendance_records (
			id, employee_id, date, check_in_at, check_out_at,
			break_start, break_end, worked_minutes, is_late, status, source,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW()
		)
		ON CONFLICT (employee_id, date) DO UPDATE SET
			check_in_at    = EXCLUDED.check_in_at,
			check_out_at   = EXCLUDED.check_out_at,
			break_start    = EXCLUDED.break_start,
			break_end      = EXCLUDED.break_end,
			worked_minutes = EXCLUDED.worked_minutes,
			is_late        = EXCLUDED.is_late,
			status         = EXCLUDED.status,
			source         = EXCLUDED.source,
			updated_at     = NOW()
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		rec.ID,
		rec.EmployeeID,
		rec.Date,
		rec.CheckInAt,
		rec.CheckOutAt,
		rec.BreakStart,
		rec.BreakEnd,
		rec.WorkedMinutes,
		rec.IsLate,
		rec.Status,
		rec.Source,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)

	if err != nil {
		return attendance.DayRecord{}, fmt.Errorf("failed to upsert day record: %w", err)
	}

	return rec, nil
}

// GetByEmployeeAndDate implements attendance.DayRecordRepository.
func (r *dayRecordRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.DayRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, date, check_in_at, check_out_at,
			   break_start, break_end, worked_minutes, is_late, status, source,
			   created_at, updated_at
		FROM day_attendance_records
		WHERE employee_id = $1
		  AND date = $2
		LIMIT 1
	`

	var rec attendance.DayRecord
	err := q.QueryRow(ctx, query, employeeID, date).Scan(
		&rec.ID, &rec.EmployeeID, &rec.Date, &rec.CheckInAt, &rec.CheckOutAt,
		&rec.BreakStart, &rec.BreakEnd, &rec.WorkedMinutes, &rec.IsLate, &rec.Status, &rec.Source,
		&rec.CreatedAt, &rec.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // no record for that day yet
		}
		return nil, fmt.Errorf("failed to get day record by employee and date: %w", err)
	}

	return &rec, nil
}

// List implements attendance.DayRecordRepository.
func (r *dayRecordRepository) List(ctx context.Context, filter attendance.Filter) ([]attendance.DayRecord, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere := "1=1"
	args := []interface{}{}
	argIdx := 1

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		baseWhere += fmt.Sprintf(" AND d.employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.Date != nil && *filter.Date != "" {
		baseWhere += fmt.Sprintf(" AND d.date = $%d", argIdx)
		args = append(args, *filter.Date)
		argIdx++
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND d.date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND d.date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}
	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND d.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.Source != nil && *filter.Source != "" {
		baseWhere += fmt.Sprintf(" AND d.source = $%d", argIdx)
		args = append(args, *filter.Source)
		argIdx++
	}

	countQuery := "SELECT COUNT(*) FROM day_attendance_records d WHERE " + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count day records: %w", err)
	}

	orderByField := "d.date"
	switch filter.SortBy {
	case "check_in_at":
		orderByField = "d.check_in_at"
	case "check_out_at":
		orderByField = "d.check_out_at"
	case "status":
		orderByField = "d.status"
	}
	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	selectQuery := fmt.Sprintf(`
		SELECT d.id, d.employee_id, d.date, d.check_in_at, d.check_out_at,
			   d.break_start, d.break_end, d.worked_minutes, d.is_late, d.status, d.source,
			   d.created_at, d.updated_at,
			   e.full_name AS employee_name
		FROM day_attendance_records d
		LEFT JOIN employees e ON e.id = d.employee_id
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, baseWhere, orderByField, sortOrder, argIdx, argIdx+1)

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	offset := (filter.Page - 1) * limit
	args = append(args, limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query day records: %w", err)
	}
	defer rows.Close()

	var records []attendance.DayRecord
	for rows.Next() {
		var rec attendance.DayRecord
		err := rows.Scan(
			&rec.ID, &rec.EmployeeID, &rec.Date, &rec.CheckInAt, &rec.CheckOutAt,
			&rec.BreakStart, &rec.BreakEnd, &rec.WorkedMinutes, &rec.IsLate, &rec.Status, &rec.Source,
			&rec.CreatedAt, &rec.UpdatedAt,
			&rec.EmployeeName,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan day record: %w", err)
		}
		records = append(records, rec)
	}

	return records, total, nil
}

// ListByEmployee implements attendance.DayRecordRepository.
func (r *dayRecordRepository) ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.DayRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, date, check_in_at, check_out_at,
			   break_start, break_end, worked_minutes, is_late, status, source,
			   created_at, updated_at
		FROM day_attendance_records
		WHERE employee_id = $1
		  AND date >= $2
		  AND date <= $3
		ORDER BY date ASC
	`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query day records by employee: %w", err)
	}
	defer rows.Close()

	var records []attendance.DayRecord
	for rows.Next() {
		var rec attendance.DayRecord
		err := rows.Scan(
			&rec.ID, &rec.EmployeeID, &rec.Date, &rec.CheckInAt, &rec.CheckOutAt,
			&rec.BreakStart, &rec.BreakEnd, &rec.WorkedMinutes, &rec.IsLate, &rec.Status, &rec.Source,
			&rec.CreatedAt, &rec.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan day record: %w", err)
		}
		records = append(records, rec)
	}

	return records, nil
}

// CountSince implements attendance.DayRecordRepository.
func (r *dayRecordRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	var count int64
	err := q.QueryRow(ctx, `
		SELECT COUNT(*) FROM day_attendance_records WHERE updated_at >= $1
	`, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent day records: %w", err)
	}

	return count, nil
}
