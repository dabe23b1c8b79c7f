package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/quartzhr/attendance-sync-go/internal/domain/leave"
	"github.com/quartzhr/attendance-sync-go/internal/pkg/database"
)

type leaveRepository struct {
	db *database.DB
}

func NewLeaveRepository(db *database.DB) leave.LeaveRepository {
	return &leaveRepository{db: db}
}

// ListDayFlags implements leave.LeaveRepository. Duplicate rows for the
// same date are returned as stored; the service layer dedupes.
func (r *leaveRepository) ListDayFlags(ctx context.Context, employeeID string, year int, month time.Month) ([]leave.DayFlag, error) {
	q := GetQuerier(ctx, r.db)

	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	query := `
		SELECT date, leave_type, is_paid, is_holiday
		FROM leave_days
		WHERE employee_id = $1
		  AND date >= $2
		  AND date < $3
		ORDER BY date ASC, created_at ASC
	`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave days: %w", err)
	}
	defer rows.Close()

	var flags []leave.DayFlag
	for rows.Next() {
		var f leave.DayFlag
		if err := rows.Scan(&f.Date, &f.LeaveType, &f.IsPaid, &f.IsHoliday); err != nil {
			return nil, fmt.Errorf("failed to scan leave day: %w", err)
		}
		flags = append(flags, f)
	}

	return flags, nil
}

// ListCompanyHolidays implements leave.LeaveRepository.
func (r *leaveRepository) ListCompanyHolidays(ctx context.Context, year int, month time.Month) ([]time.Time, error) {
	q := GetQuerier(ctx, r.db)

	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	rows, err := q.Query(ctx, `
		SELECT date FROM company_holidays WHERE date >= $1 AND date < $2 ORDER BY date ASC
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query company holidays: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan company holiday: %w", err)
		}
		dates = append(dates, d)
	}

	return dates, nil
}
