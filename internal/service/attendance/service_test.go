package attendance

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/quartzhr/attendance-sync-go/internal/domain/attendance"
	"github.com/quartzhr/attendance-sync-go/internal/service/reconciler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDayRepo struct {
	records map[string]attendance.DayRecord
}

func newFakeDayRepo() *fakeDayRepo {
	return &fakeDayRepo{records: make(map[string]attendance.DayRecord)}
}

func (f *fakeDayRepo) key(employeeID string, date time.Time) string {
	return employeeID + "|" + date.Format("2006-01-02")
}

func (f *fakeDayRepo) Upsert(_ context.Context, rec attendance.DayRecord) (attendance.DayRecord, error) {
	if rec.ID == "" {
		rec.ID = "rec-1"
	}
	f.records[f.key(rec.EmployeeID, rec.Date)] = rec
	return rec, nil
}

func (f *fakeDayRepo) GetByEmployeeAndDate(_ context.Context, employeeID string, date time.Time) (*attendance.DayRecord, error) {
	rec, ok := f.records[f.key(employeeID, date)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (f *fakeDayRepo) List(context.Context, attendance.Filter) ([]attendance.DayRecord, int64, error) {
	return nil, 0, nil
}

func (f *fakeDayRepo) ListByEmployee(context.Context, string, time.Time, time.Time) ([]attendance.DayRecord, error) {
	return nil, nil
}

func (f *fakeDayRepo) CountSince(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func authedContext(t *testing.T, employeeID string) context.Context {
	t.Helper()
	ja := jwtauth.New("HS256", []byte("test-secret"), nil)
	token, _, err := ja.Encode(map[string]interface{}{
		"employee_id": employeeID,
		"role":        "employee",
		"type":        "access",
	})
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(repo attendance.DayRecordRepository) *Service {
	rec := reconciler.New(repo, reconciler.Config{
		Location:       time.UTC,
		ShiftStartHour: 9,
		GraceMinutes:   15,
	}, nil)
	return NewService(repo, rec, time.UTC, discardLogger())
}

func TestCheckIn_ThenDuplicate(t *testing.T) {
	repo := newFakeDayRepo()
	svc := newService(repo)
	ctx := authedContext(t, "emp-1")

	resp, err := svc.CheckIn(ctx)
	require.NoError(t, err)
	assert.Equal(t, "emp-1", resp.EmployeeID)
	assert.Equal(t, string(attendance.StatusInProgress), resp.Status)
	assert.Equal(t, string(attendance.SourceManual), resp.Source)
	require.NotNil(t, resp.CheckInAt)

	_, err = svc.CheckIn(ctx)
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)
}

func TestCheckOut_RequiresCheckIn(t *testing.T) {
	svc := newService(newFakeDayRepo())
	ctx := authedContext(t, "emp-1")

	_, err := svc.CheckOut(ctx)
	assert.ErrorIs(t, err, attendance.ErrNotCheckedIn)
}

func TestCheckOut_ThenDuplicate(t *testing.T) {
	repo := newFakeDayRepo()
	svc := newService(repo)
	ctx := authedContext(t, "emp-1")

	_, err := svc.CheckIn(ctx)
	require.NoError(t, err)

	resp, err := svc.CheckOut(ctx)
	require.NoError(t, err)
	assert.Equal(t, string(attendance.StatusCompleted), resp.Status)

	_, err = svc.CheckOut(ctx)
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)
}

func TestBreakLifecycle(t *testing.T) {
	repo := newFakeDayRepo()
	svc := newService(repo)
	ctx := authedContext(t, "emp-1")

	_, err := svc.EndBreak(ctx)
	assert.ErrorIs(t, err, attendance.ErrBreakNotStarted)

	_, err = svc.StartBreak(ctx)
	assert.ErrorIs(t, err, attendance.ErrNotCheckedIn)

	_, err = svc.CheckIn(ctx)
	require.NoError(t, err)

	resp, err := svc.StartBreak(ctx)
	require.NoError(t, err)
	require.NotNil(t, resp.BreakStart)

	_, err = svc.StartBreak(ctx)
	assert.ErrorIs(t, err, attendance.ErrBreakInProgress)
}

func TestToday_NoRecord(t *testing.T) {
	svc := newService(newFakeDayRepo())
	ctx := authedContext(t, "emp-1")

	_, err := svc.Today(ctx)
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
}

func TestCheckIn_WithoutToken(t *testing.T) {
	svc := newService(newFakeDayRepo())

	_, err := svc.CheckIn(context.Background())
	require.Error(t, err)
}
