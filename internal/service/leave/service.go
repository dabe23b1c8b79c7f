package leave

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quartzhr/attendance-sync-go/internal/domain/employee"
	"github.com/quartzhr/attendance-sync-go/internal/domain/leave"
	"github.com/shopspring/decimal"
)

// Service derives leave periods and salary deductions on read. Nothing
// here is persisted; the leave_days rows stay the source of truth.
type Service struct {
	leaveRepo    leave.LeaveRepository
	employeeRepo employee.EmployeeRepository
	logger       *slog.Logger
}

func NewService(leaveRepo leave.LeaveRepository, employeeRepo employee.EmployeeRepository, logger *slog.Logger) *Service {
	return &Service{leaveRepo: leaveRepo, employeeRepo: employeeRepo, logger: logger}
}

// MonthlyPeriods returns one employee's leave for a month, grouped into
// consecutive runs with per-period deductions.
func (s *Service) MonthlyPeriods(ctx context.Context, employeeID string, year int, month time.Month) ([]leave.PeriodResponse, error) {
	emp, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	flags, err := s.leaveRepo.ListDayFlags(ctx, employeeID, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to load leave days: %w", err)
	}
	flags = DedupeByDate(flags)

	dailyRate := decimal.Zero
	if emp.BaseSalary != nil {
		dailyRate = emp.BaseSalary.Div(decimal.NewFromInt(int64(daysInMonth(year, month))))
	}

	periods := GroupPeriods(flags)
	responses := make([]leave.PeriodResponse, 0, len(periods))
	idx := 0
	for _, p := range periods {
		run := flags[idx : idx+p.DayCount]
		idx += p.DayCount

		deduction := dailyRate.Mul(decimal.NewFromInt(int64(DeductibleDays(run)))).Round(2)
		responses = append(responses, leave.PeriodResponse{
			StartDate:       p.StartDate.Format("2006-01-02"),
			EndDate:         p.EndDate.Format("2006-01-02"),
			DayCount:        p.DayCount,
			PredominantType: p.PredominantType,
			IsOfficeHoliday: p.IsOfficeHoliday,
			IsPaid:          p.IsPaid,
			TotalDeduction:  deduction,
		})
	}

	return responses, nil
}

// SalarySummary computes the month's deduction for one employee:
// dailyRate = baseSalary / daysInMonth, deduction = dailyRate times the
// unpaid leave days that are neither explicit holidays nor Sundays.
func (s *Service) SalarySummary(ctx context.Context, employeeID string, year int, month time.Month) (leave.SalarySummaryResponse, error) {
	emp, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return leave.SalarySummaryResponse{}, err
	}
	if emp.BaseSalary == nil {
		return leave.SalarySummaryResponse{}, employee.ErrNoBaseSalary
	}

	flags, err := s.leaveRepo.ListDayFlags(ctx, employeeID, year, month)
	if err != nil {
		return leave.SalarySummaryResponse{}, fmt.Errorf("failed to load leave days: %w", err)
	}
	flags = DedupeByDate(flags)

	holidays, err := s.leaveRepo.ListCompanyHolidays(ctx, year, month)
	if err != nil {
		return leave.SalarySummaryResponse{}, fmt.Errorf("failed to load company holidays: %w", err)
	}

	days := daysInMonth(year, month)
	dailyRate := emp.BaseSalary.Div(decimal.NewFromInt(int64(days)))
	unpaidDays := DeductibleDays(flags)
	total := dailyRate.Mul(decimal.NewFromInt(int64(unpaidDays))).Round(2)

	return leave.SalarySummaryResponse{
		EmployeeID:         employeeID,
		Month:              fmt.Sprintf("%04d-%02d", year, int(month)),
		BaseSalary:         *emp.BaseSalary,
		DaysInMonth:        days,
		DailyRate:          dailyRate.Round(2),
		UnpaidDays:         unpaidDays,
		OfficeHolidayCount: len(holidays) + SundaysInMonth(year, month),
		TotalDeduction:     total,
	}, nil
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
