package employee

type EmployeeResponse struct {
	ID               string  `json:"id"`
	EmployeeCode     string  `json:"employee_code"`
	FullName         string  `json:"full_name"`
	Email            string  `json:"email"`
	BaseSalary       *string `json:"base_salary,omitempty"`
	EmploymentStatus string  `json:"employment_status"`
}

func ToResponse(e Employee) EmployeeResponse {
	resp := EmployeeResponse{
		ID:               e.ID,
		EmployeeCode:     e.EmployeeCode,
		FullName:         e.FullName,
		Email:            e.Email,
		EmploymentStatus: string(e.EmploymentStatus),
	}
	if e.BaseSalary != nil {
		s := e.BaseSalary.StringFixed(2)
		resp.BaseSalary = &s
	}
	return resp
}
