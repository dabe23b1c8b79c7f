package leave

import (
	"time"

	"github.com/quartzhr/attendance-sync-go/internal/domain/leave"
)

// DedupeByDate collapses duplicate rows for the same calendar date, keeping
// the first row encountered. Upstream leave imports have produced doubled
// days; counting them twice would double the deduction.
func DedupeByDate(flags []leave.DayFlag) []leave.DayFlag {
	seen := make(map[string]struct{}, len(flags))
	out := make([]leave.DayFlag, 0, len(flags))
	for _, f := range flags {
		k := f.Date.Format("2006-01-02")
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, f)
	}
	return out
}

// GroupPeriods merges date-sorted day flags into consecutive runs. Days one
// apart stay in the same period; a gap of more than one day starts a new
// one. The predominant type is the most frequent leave type in the run,
// first-encountered winning ties. A period is paid only if every day in it
// is paid and none is a holiday; it is an office holiday only if every day
// is one.
func GroupPeriods(flags []leave.DayFlag) []leave.Period {
	if len(flags) == 0 {
		return nil
	}

	var periods []leave.Period
	start := 0
	for i := 1; i <= len(flags); i++ {
		if i < len(flags) && gapDays(flags[i-1].Date, flags[i].Date) <= 1 {
			continue
		}
		periods = append(periods, buildPeriod(flags[start:i]))
		start = i
	}
	return periods
}

func gapDays(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

func buildPeriod(run []leave.DayFlag) leave.Period {
	counts := make(map[string]int, len(run))
	var predominant string
	best := 0
	allPaid := true
	allHoliday := true
	for _, f := range run {
		counts[f.LeaveType]++
		if counts[f.LeaveType] > best {
			best = counts[f.LeaveType]
			predominant = f.LeaveType
		}
		if !f.IsPaid || f.IsHoliday {
			allPaid = false
		}
		if !f.IsHoliday {
			allHoliday = false
		}
	}

	return leave.Period{
		StartDate:       run[0].Date,
		EndDate:         run[len(run)-1].Date,
		DayCount:        len(run),
		PredominantType: predominant,
		IsOfficeHoliday: allHoliday,
		IsPaid:          allPaid,
	}
}

// DeductibleDays counts the days in the run that cost salary: unpaid, not
// an explicit holiday, and not a Sunday.
func DeductibleDays(flags []leave.DayFlag) int {
	n := 0
	for _, f := range flags {
		if !f.IsPaid && !f.IsHoliday && f.Date.Weekday() != time.Sunday {
			n++
		}
	}
	return n
}

// SundaysInMonth counts the Sundays of a calendar month.
func SundaysInMonth(year int, month time.Month) int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Sunday {
			n++
		}
	}
	return n
}
