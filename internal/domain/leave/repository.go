package leave

import (
	"context"
	"time"
)

type LeaveRepository interface {
	// ListDayFlags returns one employee's approved leave days for a month,
	// date-sorted. Upstream data has produced duplicate rows for the same
	// date; callers dedupe before grouping.
	ListDayFlags(ctx context.Context, employeeID string, year int, month time.Month) ([]DayFlag, error)

	// ListCompanyHolidays returns the explicit company-holiday dates for a
	// month. Sundays are handled separately by the deduction calculator.
	ListCompanyHolidays(ctx context.Context, year int, month time.Month) ([]time.Time, error)
}
