package punch

import "time"

type Source string

const (
	SourceBiometric Source = "biometric"
	SourceManual    Source = "manual"
)

type Direction string

const (
	DirectionIn         Direction = "in"
	DirectionOut        Direction = "out"
	DirectionBreakStart Direction = "break_start"
	DirectionBreakEnd   Direction = "break_end"
	DirectionUnknown    Direction = "unknown"
)

// Event is a single observed clock action, either pulled from the biometric
// terminal or produced by a manual check-in/out action. Events are immutable;
// reconciliation only ever supersedes them with a day record.
type Event struct {
	// ExternalCode and ExternalName identify the employee on the terminal
	// side. They are empty for manual events.
	ExternalCode string
	ExternalName string

	// EmployeeID is the internal identity. Empty until the identity mapper
	// resolves the external code; always set for manual events.
	EmployeeID string

	// Timestamp is stored in UTC. Vendor wall-clock times are converted by
	// the normalizer before an Event exists.
	Timestamp time.Time

	Direction Direction
	Source    Source
}

// Resolved reports whether the event is attributable to an internal employee.
func (e Event) Resolved() bool {
	return e.EmployeeID != ""
}

// Day returns the calendar date of the event in the given location,
// normalized to midnight UTC for keying day records.
func (e Event) Day(loc *time.Location) time.Time {
	local := e.Timestamp.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}
