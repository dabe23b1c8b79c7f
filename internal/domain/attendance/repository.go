package attendance

import (
	"context"
	"time"
)

// DayRecordRepository defines data access for reconciled day records.
// Upsert is the only write path the sync pipeline uses: it must be keyed on
// (employee_id, date) so that redelivered batches cannot create duplicates.
type DayRecordRepository interface {
	// Upsert inserts or replaces the record for (EmployeeID, Date) and
	// returns the stored row.
	Upsert(ctx context.Context, record DayRecord) (DayRecord, error)

	// GetByEmployeeAndDate returns nil (not an error) when no record exists
	// for that day yet.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*DayRecord, error)

	// List retrieves day records with filters and pagination.
	List(ctx context.Context, filter Filter) ([]DayRecord, int64, error)

	// ListByEmployee retrieves one employee's records for a date range,
	// oldest first. Used by the leave/salary views.
	ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]DayRecord, error)

	// CountSince counts records created or updated after the given instant.
	// Feeds the sync status surface.
	CountSince(ctx context.Context, since time.Time) (int64, error)
}
