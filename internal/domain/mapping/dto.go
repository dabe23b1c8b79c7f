package mapping

import "github.com/quartzhr/attendance-sync-go/internal/pkg/validator"

type MappingResponse struct {
	ID           string  `json:"id"`
	ExternalCode string  `json:"external_code"`
	ExternalName string  `json:"external_name"`
	EmployeeID   *string `json:"employee_id,omitempty"`
	EmployeeName *string `json:"employee_name,omitempty"`
	MatchScore   float64 `json:"match_score"`
	Status       string  `json:"status"`
	Active       bool    `json:"active"`
}

// ReviewRequest is the manual-review action for a pending_review mapping.
type ReviewRequest struct {
	ExternalCode string  `json:"-"`
	Approve      bool    `json:"approve"`
	EmployeeID   *string `json:"employee_id,omitempty"`
}

func (r *ReviewRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ExternalCode) {
		errs = append(errs, validator.ValidationError{
			Field:   "external_code",
			Message: "external_code is required",
		})
	}

	if r.Approve && (r.EmployeeID == nil || validator.IsEmpty(*r.EmployeeID)) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required when approving a mapping",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}
