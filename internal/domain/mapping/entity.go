package mapping

import "time"

type Status string

const (
	StatusAutoMapped    Status = "auto_mapped"
	StatusPendingReview Status = "pending_review"
	StatusRejected      Status = "rejected"
)

// Mapping links a terminal-side employee code to an internal employee.
// Mappings are upserted by external code and deactivated rather than
// deleted, so the review history stays queryable.
type Mapping struct {
	ID           string
	ExternalCode string
	ExternalName string
	EmployeeID   *string // nil while pending review or rejected
	MatchScore   float64 // 0..1 name similarity at mapping time
	Status       Status
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Joined for list views.
	EmployeeName *string
}
