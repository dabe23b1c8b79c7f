package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/quartzhr/attendance-sync-go/internal/domain/attendance"
	"github.com/quartzhr/attendance-sync-go/internal/domain/punch"
	"github.com/quartzhr/attendance-sync-go/internal/service/reconciler"
)

// Service is the manual clock path: check-in/out and break actions taken
// from the app rather than the terminal. Preconditions are checked here so
// the API can answer with a meaningful error; the actual state transition
// is delegated to the reconciler, which treats manual actions as just
// another event source.
type Service struct {
	dayRepo    attendance.DayRecordRepository
	reconciler *reconciler.Service
	loc        *time.Location
	logger     *slog.Logger
}

func NewService(dayRepo attendance.DayRecordRepository, rec *reconciler.Service, loc *time.Location, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{dayRepo: dayRepo, reconciler: rec, loc: loc, logger: logger}
}

func (s *Service) employeeIDFromToken(ctx context.Context) (string, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get claims from token: %w", err)
	}
	employeeID, ok := claims["employee_id"].(string)
	if !ok || employeeID == "" {
		return "", fmt.Errorf("employee_id not found in token claims")
	}
	return employeeID, nil
}

func (s *Service) todayRecord(ctx context.Context, employeeID string, now time.Time) (*attendance.DayRecord, time.Time, error) {
	local := now.In(s.loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	rec, err := s.dayRepo.GetByEmployeeAndDate(ctx, employeeID, day)
	if err != nil {
		return nil, day, err
	}
	return rec, day, nil
}

// CheckIn records a manual check-in for the requesting employee.
func (s *Service) CheckIn(ctx context.Context) (attendance.DayRecordResponse, error) {
	employeeID, err := s.employeeIDFromToken(ctx)
	if err != nil {
		return attendance.DayRecordResponse{}, err
	}

	now := time.Now().UTC()
	rec, _, err := s.todayRecord(ctx, employeeID, now)
	if err != nil {
		return attendance.DayRecordResponse{}, err
	}
	if rec != nil && rec.CheckInAt != nil {
		return attendance.DayRecordResponse{}, attendance.ErrAlreadyCheckedIn
	}

	stored, err := s.reconciler.ApplyEvent(ctx, punch.Event{
		EmployeeID: employeeID,
		Timestamp:  now,
		Direction:  punch.DirectionIn,
		Source:     punch.SourceManual,
	})
	if err != nil {
		return attendance.DayRecordResponse{}, err
	}

	s.logger.Info("Manual check-in", "employee_id", employeeID, "at", now)
	return toResponse(stored), nil
}

// CheckOut records a manual check-out for the requesting employee.
func (s *Service) CheckOut(ctx context.Context) (attendance.DayRecordResponse, error) {
	employeeID, err := s.employeeIDFromToken(ctx)
	if err != nil {
		return attendance.DayRecordResponse{}, err
	}

	now := time.Now().UTC()
	rec, _, err := s.todayRecord(ctx, employeeID, now)
	if err != nil {
		return attendance.DayRecordResponse{}, err
	}
	if rec == nil || rec.CheckInAt == nil {
		return attendance.DayRecordResponse{}, attendance.ErrNotCheckedIn
	}
	if rec.CheckOutAt != nil {
		return attendance.DayRecordResponse{}, attendance.ErrAlreadyCheckedOut
	}

	stored, err := s.reconciler.ApplyEvent(ctx, punch.Event{
		EmployeeID: employeeID,
		Timestamp:  now,
		Direction:  punch.DirectionOut,
		Source:     punch.SourceManual,
	})
	if err != nil {
		return attendance.DayRecordResponse{}, err
	}

	s.logger.Info("Manual check-out", "employee_id", employeeID, "at", now)
	return toResponse(stored), nil
}

// StartBreak opens the day's break interval. Starting a second break
// replaces the first recorded interval.
func (s *Service) StartBreak(ctx context.Context) (attendance.DayRecordResponse, error) {
	employeeID, err := s.employeeIDFromToken(ctx)
	if err != nil {
		return attendance.DayRecordResponse{}, err
	}

	now := time.Now().UTC()
	rec, _, err := s.todayRecord(ctx, employeeID, now)
	if err != nil {
		return attendance.DayRecordResponse{}, err
	}
	if rec == nil || rec.CheckInAt == nil {
		return attendance.DayRecordResponse{}, attendance.ErrNotCheckedIn
	}
	if rec.BreakStart != nil && rec.BreakEnd == nil {
		return attendance.DayRecordResponse{}, attendance.ErrBreakInProgress
	}

	stored, err := s.reconciler.ApplyEvent(ctx, punch.Event{
		EmployeeID: employeeID,
		Timestamp:  now,
		Direction:  punch.DirectionBreakStart,
		Source:     punch.SourceManual,
	})
	if err != nil {
		return attendance.DayRecordResponse{}, err
	}
	return toResponse(stored), nil
}

// EndBreak closes the open break interval.
func (s *Service) EndBreak(ctx context.Context) (attendance.DayRecordResponse, error) {
	employeeID, err := s.employeeIDFromToken(ctx)
	if err != nil {
		return attendance.DayRecordResponse{}, err
	}

	now := time.Now().UTC()
	rec, _, err := s.todayRecord(ctx, employeeID, now)
	if err != nil {
		return attendance.DayRecordResponse{}, err
	}
	if rec == nil || rec.BreakStart == nil || rec.BreakEnd != nil {
		return attendance.DayRecordResponse{}, attendance.ErrBreakNotStarted
	}

	stored, err := s.reconciler.ApplyEvent(ctx, punch.Event{
		EmployeeID: employeeID,
		Timestamp:  now,
		Direction:  punch.DirectionBreakEnd,
		Source:     punch.SourceManual,
	})
	if err != nil {
		return attendance.DayRecordResponse{}, err
	}
	return toResponse(stored), nil
}

// Today returns the requesting employee's record for the current day, or
// ErrRecordNotFound when no punch has landed yet.
func (s *Service) Today(ctx context.Context) (attendance.DayRecordResponse, error) {
	employeeID, err := s.employeeIDFromToken(ctx)
	if err != nil {
		return attendance.DayRecordResponse{}, err
	}

	rec, _, err := s.todayRecord(ctx, employeeID, time.Now().UTC())
	if err != nil {
		return attendance.DayRecordResponse{}, err
	}
	if rec == nil {
		return attendance.DayRecordResponse{}, attendance.ErrRecordNotFound
	}
	return toResponse(*rec), nil
}

// My lists the requesting employee's own records; the filter's employee
// scope is forced to the token identity.
func (s *Service) My(ctx context.Context, filter attendance.Filter) (attendance.ListResponse, error) {
	employeeID, err := s.employeeIDFromToken(ctx)
	if err != nil {
		return attendance.ListResponse{}, err
	}
	filter.EmployeeID = &employeeID
	return s.List(ctx, filter)
}

// List returns day records matching the filter, paginated.
func (s *Service) List(ctx context.Context, filter attendance.Filter) (attendance.ListResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListResponse{}, err
	}

	records, total, err := s.dayRepo.List(ctx, filter)
	if err != nil {
		return attendance.ListResponse{}, err
	}

	responses := make([]attendance.DayRecordResponse, 0, len(records))
	for _, rec := range records {
		responses = append(responses, toResponse(rec))
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return attendance.ListResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Records:    responses,
	}, nil
}

func toResponse(rec attendance.DayRecord) attendance.DayRecordResponse {
	return attendance.DayRecordResponse{
		ID:            rec.ID,
		EmployeeID:    rec.EmployeeID,
		EmployeeName:  rec.EmployeeName,
		Date:          rec.Date.Format("2006-01-02"),
		CheckInAt:     timePtrToString(rec.CheckInAt),
		CheckOutAt:    timePtrToString(rec.CheckOutAt),
		BreakStart:    timePtrToString(rec.BreakStart),
		BreakEnd:      timePtrToString(rec.BreakEnd),
		WorkedMinutes: rec.WorkedMinutes,
		IsLate:        rec.IsLate,
		Status:        string(rec.Status),
		Source:        string(rec.Source),
	}
}

func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
