package sync

import (
	"time"

	"github.com/quartzhr/attendance-sync-go/internal/domain/punch"
)

// StreamBiometric is the cursor stream for the eTimeTrack terminal feed.
// There is one cursor row per stream.
const StreamBiometric = "etimetrack"

// Cursor is the last-acknowledged vendor watermark for one sync stream.
// The token format is vendor-defined ("MMYYYY$sequence"); ordering is
// numeric on the sequence component. The cursor is monotonically
// non-decreasing and only advances after a batch is durably persisted.
type Cursor struct {
	Stream          string
	LastRecordToken string
	LastSyncedAt    *time.Time
	UpdatedAt       time.Time
}

type Mode string

const (
	ModeIncremental Mode = "incremental"
	ModeDaily       Mode = "daily"
	ModeRange       Mode = "range"
)

// Result summarizes one orchestrator run for the ops surface.
type Result struct {
	Mode             Mode     `json:"mode"`
	RecordsFetched   int      `json:"records_fetched"`
	RecordsProcessed int      `json:"records_processed"`
	RecordsQueued    int      `json:"records_queued"`
	CursorAdvancedTo string   `json:"cursor_advanced_to,omitempty"`
	Errors           []string `json:"errors"`
}

// Status is the read-only sync health view exposed to the UI.
type Status struct {
	IsRunning               bool       `json:"is_running"`
	LastSyncedAt            *time.Time `json:"last_synced_at,omitempty"`
	LastRecordToken         string     `json:"last_record_token,omitempty"`
	TotalEmployees          int64      `json:"total_employees"`
	TotalMappings           int64      `json:"total_mappings"`
	RecentAttendanceRecords int64      `json:"recent_attendance_records"`
}

// PendingPunch is a biometric event held back because its external code has
// no resolved identity mapping yet. It is replayed when the mapping review
// completes.
type PendingPunch struct {
	ID           string
	ExternalCode string
	ExternalName string
	Timestamp    time.Time
	Direction    punch.Direction
	CreatedAt    time.Time
}

// Event converts the held punch back into a reconcilable event once the
// owning employee is known.
func (p PendingPunch) Event(employeeID string) punch.Event {
	return punch.Event{
		ExternalCode: p.ExternalCode,
		ExternalName: p.ExternalName,
		EmployeeID:   employeeID,
		Timestamp:    p.Timestamp,
		Direction:    p.Direction,
		Source:       punch.SourceBiometric,
	}
}
