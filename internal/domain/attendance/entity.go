package attendance

import (
	"time"

	"github.com/quartzhr/attendance-sync-go/internal/domain/punch"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusAbsent     Status = "absent"
)

type RecordSource string

const (
	SourceBiometric RecordSource = "biometric"
	SourceManual    RecordSource = "manual"
	SourceMixed     RecordSource = "mixed"
)

// DayRecord is the authoritative attendance record for one employee on one
// calendar date. Exactly one exists per (employee, date) no matter how many
// raw punches contributed; the reconciler enforces this via an idempotent
// upsert keyed on those two columns.
type DayRecord struct {
	ID         string
	EmployeeID string
	Date       time.Time // midnight UTC, represents the working day

	CheckInAt  *time.Time
	CheckOutAt *time.Time

	// At most one break interval is modeled. A second break start on the
	// same day overwrites the recorded start rather than appending.
	BreakStart *time.Time
	BreakEnd   *time.Time

	// WorkedMinutes = (CheckOutAt - CheckInAt) - break duration, floored at
	// zero. Nil while CheckOutAt is nil.
	WorkedMinutes *int

	IsLate bool
	Status Status
	Source RecordSource

	CreatedAt time.Time
	UpdatedAt time.Time

	// Joined for list views.
	EmployeeName *string
}

// BreakMinutes returns the recorded break duration, zero when the interval
// is open or absent.
func (r *DayRecord) BreakMinutes() int {
	if r.BreakStart == nil || r.BreakEnd == nil {
		return 0
	}
	d := r.BreakEnd.Sub(*r.BreakStart)
	if d < 0 {
		return 0
	}
	return int(d.Minutes())
}

// MergeSource folds the origin of a newly applied event into the record's
// aggregate source, turning it mixed once both origins contributed.
func (r *DayRecord) MergeSource(s punch.Source) {
	incoming := SourceBiometric
	if s == punch.SourceManual {
		incoming = SourceManual
	}
	switch {
	case r.Source == "":
		r.Source = incoming
	case r.Source != incoming && r.Source != SourceMixed:
		r.Source = SourceMixed
	}
}
