package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/quartzhr/attendance-sync-go/internal/domain/attendance"
	"github.com/quartzhr/attendance-sync-go/internal/domain/punch"
)

// Config carries the shift parameters the lateness check needs. Location is
// the wall clock the shift times are expressed in.
type Config struct {
	Location         *time.Location
	ShiftStartHour   int
	ShiftStartMinute int
	GraceMinutes     int
}

// Service folds punch events into per-(employee, date) day records. Applying
// the same batch twice yields the same records: every rule below either sets
// an empty field or moves a field strictly forward.
type Service struct {
	dayRepo attendance.DayRecordRepository
	cfg     Config
	logger  *slog.Logger
}

func New(dayRepo attendance.DayRecordRepository, cfg Config, logger *slog.Logger) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Service{dayRepo: dayRepo, cfg: cfg, logger: logger}
}

// ProcessEvents groups resolved events by employee and calendar day and
// upserts the affected day records. It returns the number of records
// persisted and one error per group that failed; failing groups do not stop
// the rest of the batch.
func (s *Service) ProcessEvents(ctx context.Context, events []punch.Event) (int, []error) {
	type groupKey struct {
		employeeID string
		day        time.Time
	}

	groups := make(map[groupKey][]punch.Event)
	for _, ev := range events {
		if !ev.Resolved() {
			continue
		}
		k := groupKey{employeeID: ev.EmployeeID, day: ev.Day(s.cfg.Location)}
		groups[k] = append(groups[k], ev)
	}

	var processed int
	var errs []error
	for k, evs := range groups {
		persisted, err := s.applyGroup(ctx, k.employeeID, k.day, evs)
		if err != nil {
			errs = append(errs, fmt.Errorf("reconcile %s on %s: %w", k.employeeID, k.day.Format("2006-01-02"), err))
			continue
		}
		if persisted {
			processed++
		}
	}

	return processed, errs
}

// ApplyEvent runs a single event through the state machine and persists the
// result. The manual check-in/out path uses this directly.
func (s *Service) ApplyEvent(ctx context.Context, ev punch.Event) (attendance.DayRecord, error) {
	day := ev.Day(s.cfg.Location)
	rec, err := s.loadOrInit(ctx, ev.EmployeeID, day)
	if err != nil {
		return attendance.DayRecord{}, err
	}

	s.applyEvent(&rec, ev)
	s.recompute(&rec)

	stored, err := s.dayRepo.Upsert(ctx, rec)
	if err != nil {
		return attendance.DayRecord{}, fmt.Errorf("failed to persist day record: %w", err)
	}
	return stored, nil
}

func (s *Service) applyGroup(ctx context.Context, employeeID string, day time.Time, evs []punch.Event) (bool, error) {
	rec, err := s.loadOrInit(ctx, employeeID, day)
	if err != nil {
		return false, err
	}

	sort.SliceStable(evs, func(i, j int) bool {
		return evs[i].Timestamp.Before(evs[j].Timestamp)
	})

	before := rec
	for _, ev := range evs {
		s.applyEvent(&rec, ev)
	}
	s.recompute(&rec)

	if rec.ID != "" && unchanged(before, rec) {
		return false, nil
	}

	if _, err := s.dayRepo.Upsert(ctx, rec); err != nil {
		return false, fmt.Errorf("failed to persist day record: %w", err)
	}
	return true, nil
}

func (s *Service) loadOrInit(ctx context.Context, employeeID string, day time.Time) (attendance.DayRecord, error) {
	existing, err := s.dayRepo.GetByEmployeeAndDate(ctx, employeeID, day)
	if err != nil {
		return attendance.DayRecord{}, fmt.Errorf("failed to load day record: %w", err)
	}
	if existing != nil {
		return *existing, nil
	}
	return attendance.DayRecord{
		EmployeeID: employeeID,
		Date:       day,
		Status:     attendance.StatusPending,
	}, nil
}

// applyEvent mutates rec according to one event. Rules, in order of the
// event's direction:
//
//	in:   fills an empty check-in; a later in from the other source
//	      supersedes it and marks the record mixed; everything else is a
//	      duplicate and ignored.
//	out:  fills an empty check-out when it lands after the check-in; an
//	      existing check-out only ever moves forward.
//	break_start: overwrites the recorded start (second break of the day
//	      replaces the first); a start at or after the recorded end voids
//	      the end.
//	break_end: recorded only after a start, and only moves forward.
func (s *Service) applyEvent(rec *attendance.DayRecord, ev punch.Event) {
	ts := ev.Timestamp

	switch ev.Direction {
	case punch.DirectionIn:
		switch {
		case rec.CheckInAt == nil:
			rec.CheckInAt = &ts
			rec.MergeSource(ev.Source)
		case differentOrigin(rec.Source, ev.Source) && ts.After(*rec.CheckInAt):
			rec.CheckInAt = &ts
			rec.MergeSource(ev.Source)
		case differentOrigin(rec.Source, ev.Source):
			rec.MergeSource(ev.Source)
		}

	case punch.DirectionOut:
		switch {
		case rec.CheckOutAt == nil:
			if rec.CheckInAt == nil || ts.After(*rec.CheckInAt) {
				rec.CheckOutAt = &ts
				rec.MergeSource(ev.Source)
			}
		case ts.After(*rec.CheckOutAt):
			rec.CheckOutAt = &ts
			rec.MergeSource(ev.Source)
		}

	case punch.DirectionBreakStart:
		if rec.BreakStart == nil || !ts.Equal(*rec.BreakStart) {
			rec.BreakStart = &ts
			if rec.BreakEnd != nil && !rec.BreakEnd.After(ts) {
				rec.BreakEnd = nil
			}
			rec.MergeSource(ev.Source)
		}

	case punch.DirectionBreakEnd:
		if rec.BreakStart != nil && ts.After(*rec.BreakStart) {
			if rec.BreakEnd == nil || ts.After(*rec.BreakEnd) {
				rec.BreakEnd = &ts
				rec.MergeSource(ev.Source)
			}
		}
	}
}

// recompute derives status, lateness and worked minutes from the record's
// timestamps.
func (s *Service) recompute(rec *attendance.DayRecord) {
	switch {
	case rec.CheckInAt != nil && rec.CheckOutAt != nil && rec.CheckOutAt.After(*rec.CheckInAt):
		rec.Status = attendance.StatusCompleted
	case rec.CheckInAt != nil:
		rec.Status = attendance.StatusInProgress
	default:
		rec.Status = attendance.StatusPending
	}

	if rec.CheckInAt != nil {
		local := rec.CheckInAt.In(s.cfg.Location)
		shiftStart := time.Date(local.Year(), local.Month(), local.Day(),
			s.cfg.ShiftStartHour, s.cfg.ShiftStartMinute, 0, 0, s.cfg.Location)
		deadline := shiftStart.Add(time.Duration(s.cfg.GraceMinutes) * time.Minute)
		rec.IsLate = local.After(deadline)
	} else {
		rec.IsLate = false
	}

	if rec.CheckInAt != nil && rec.CheckOutAt != nil && rec.CheckOutAt.After(*rec.CheckInAt) {
		minutes := int(rec.CheckOutAt.Sub(*rec.CheckInAt).Minutes()) - rec.BreakMinutes()
		if minutes < 0 {
			minutes = 0
		}
		rec.WorkedMinutes = &minutes
	} else {
		rec.WorkedMinutes = nil
	}
}

func differentOrigin(recorded attendance.RecordSource, incoming punch.Source) bool {
	switch recorded {
	case attendance.SourceBiometric:
		return incoming == punch.SourceManual
	case attendance.SourceManual:
		return incoming == punch.SourceBiometric
	default:
		return false
	}
}

func unchanged(a, b attendance.DayRecord) bool {
	return timePtrEqual(a.CheckInAt, b.CheckInAt) &&
		timePtrEqual(a.CheckOutAt, b.CheckOutAt) &&
		timePtrEqual(a.BreakStart, b.BreakStart) &&
		timePtrEqual(a.BreakEnd, b.BreakEnd) &&
		intPtrEqual(a.WorkedMinutes, b.WorkedMinutes) &&
		a.IsLate == b.IsLate &&
		a.Status == b.Status &&
		a.Source == b.Source
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
