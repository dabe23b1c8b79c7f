package leave

import "github.com/shopspring/decimal"

type PeriodResponse struct {
	StartDate       string          `json:"start_date"`
	EndDate         string          `json:"end_date"`
	DayCount        int             `json:"day_count"`
	PredominantType string          `json:"predominant_type"`
	IsOfficeHoliday bool            `json:"is_office_holiday"`
	IsPaid          bool            `json:"is_paid"`
	TotalDeduction  decimal.Decimal `json:"total_deduction"`
}

type SalarySummaryResponse struct {
	EmployeeID         string          `json:"employee_id"`
	Month              string          `json:"month"` // YYYY-MM
	BaseSalary         decimal.Decimal `json:"base_salary"`
	DaysInMonth        int             `json:"days_in_month"`
	DailyRate          decimal.Decimal `json:"daily_rate"`
	UnpaidDays         int             `json:"unpaid_days"`
	OfficeHolidayCount int             `json:"office_holiday_count"`
	TotalDeduction     decimal.Decimal `json:"total_deduction"`
}
