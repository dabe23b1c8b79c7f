package attendance

import "errors"

// Attendance domain errors
var (
	// Manual punch path errors
	ErrAlreadyCheckedIn  = errors.New("you have already checked in today")
	ErrNotCheckedIn      = errors.New("you have not checked in yet")
	ErrAlreadyCheckedOut = errors.New("you have already checked out today")
	ErrBreakNotStarted   = errors.New("no break in progress")
	ErrBreakInProgress   = errors.New("a break is already in progress")

	// General errors
	ErrRecordNotFound = errors.New("attendance record not found")
)
