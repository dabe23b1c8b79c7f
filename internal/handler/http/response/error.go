package response

import (
	"errors"
	"net/http"

	"github.com/quartzhr/attendance-sync-go/internal/domain/attendance"
	"github.com/quartzhr/attendance-sync-go/internal/domain/employee"
	"github.com/quartzhr/attendance-sync-go/internal/domain/leave"
	"github.com/quartzhr/attendance-sync-go/internal/domain/mapping"
	"github.com/quartzhr/attendance-sync-go/internal/domain/sync"
	"github.com/quartzhr/attendance-sync-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Attendance domain errors
	case errors.Is(err, attendance.ErrAlreadyCheckedIn):
		Conflict(w, "Already checked in today")
	case errors.Is(err, attendance.ErrNotCheckedIn):
		BadRequest(w, "Not checked in yet", nil)
	case errors.Is(err, attendance.ErrAlreadyCheckedOut):
		Conflict(w, "Already checked out today")
	case errors.Is(err, attendance.ErrBreakNotStarted):
		BadRequest(w, "No break in progress", nil)
	case errors.Is(err, attendance.ErrBreakInProgress):
		Conflict(w, "A break is already in progress")
	case errors.Is(err, attendance.ErrRecordNotFound):
		NotFound(w, "Attendance record not found")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrNoBaseSalary):
		BadRequest(w, "Employee has no base salary configured", nil)

	// Mapping domain errors
	case errors.Is(err, mapping.ErrMappingNotFound):
		NotFound(w, "Identity mapping not found")
	case errors.Is(err, mapping.ErrAlreadyResolved):
		Conflict(w, "Identity mapping has already been resolved")
	case errors.Is(err, mapping.ErrEmployeeIDRequired):
		BadRequest(w, "employee_id is required to approve a mapping", nil)

	// Sync domain errors
	case errors.Is(err, sync.ErrRunInProgress):
		Conflict(w, "A sync run is already in progress")
	case errors.Is(err, sync.ErrFetchExhausted):
		BadGateway(w, "Biometric vendor is unreachable")

	// Leave domain errors
	case errors.Is(err, leave.ErrInvalidMonth):
		BadRequest(w, "month must be in YYYY-MM format", nil)

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
