package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// DayFlag is one calendar day's leave/holiday marking for an employee,
// as recorded by leave requests and the company holiday calendar.
type DayFlag struct {
	Date      time.Time // midnight UTC
	LeaveType string    // e.g. "sick", "casual", "annual", "holiday"
	IsPaid    bool
	IsHoliday bool // explicit company holiday
}

// Period is a run of consecutive leave days collapsed for display and
// payroll. Derived on read, never persisted.
type Period struct {
	StartDate       time.Time
	EndDate         time.Time
	DayCount        int
	PredominantType string
	IsOfficeHoliday bool
	IsPaid          bool
	TotalDeduction  decimal.Decimal
}

// SalarySummary is the per-month deduction view for one employee.
type SalarySummary struct {
	EmployeeID         string
	Year               int
	Month              time.Month
	BaseSalary         decimal.Decimal
	DaysInMonth        int
	DailyRate          decimal.Decimal
	UnpaidDays         int
	OfficeHolidayCount int // explicit holidays + Sundays
	TotalDeduction     decimal.Decimal
}
