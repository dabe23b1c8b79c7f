package reconciler

import (
	"context"
	"testing"
	"time"

	"github.com/quartzhr/attendance-sync-go/internal/domain/attendance"
	"github.com/quartzhr/attendance-sync-go/internal/domain/punch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDayRepo struct {
	records map[string]attendance.DayRecord
	upserts int
}

func newFakeDayRepo() *fakeDayRepo {
	return &fakeDayRepo{records: make(map[string]attendance.DayRecord)}
}

func (f *fakeDayRepo) key(employeeID string, date time.Time) string {
	return employeeID + "|" + date.Format("2006-01-02")
}

func (f *fakeDayRepo) Upsert(_ context.Context, rec attendance.DayRecord) (attendance.DayRecord, error) {
	if rec.ID == "" {
		rec.ID = "rec-" + f.key(rec.EmployeeID, rec.Date)
	}
	f.records[f.key(rec.EmployeeID, rec.Date)] = rec
	f.upserts++
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

func newTestService(t *testing.T, repo attendance.DayRecordRepository) *Service {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return New(repo, Config{
		Location:         loc,
		ShiftStartHour:   9,
		ShiftStartMinute: 0,
		GraceMinutes:     15,
	}, nil)
}

// ist returns the UTC instant of an IST wall-clock time on 2025-10-03.
func ist(hour, minute int) time.Time {
	loc, _ := time.LoadLocation("Asia/Kolkata")
	return time.Date(2025, 10, 3, hour, minute, 0, 0, loc).UTC()
}

func biometric(dir punch.Direction, ts time.Time) punch.Event {
	return punch.Event{
		ExternalCode: "17",
		EmployeeID:   "emp-1",
		Timestamp:    ts,
		Direction:    dir,
		Source:       punch.SourceBiometric,
	}
}

func manual(dir punch.Direction, ts time.Time) punch.Event {
	return punch.Event{
		EmployeeID: "emp-1",
		Timestamp:  ts,
		Direction:  dir,
		Source:     punch.SourceManual,
	}
}

func TestProcessEvents_FullDayComputesWorkedMinutes(t *testing.T) {
	repo := newFakeDayRepo()
	svc := newTestService(t, repo)

	processed, errs := svc.ProcessEvents(context.Background(), []punch.Event{
		biometric(punch.DirectionIn, ist(9, 0)),
		biometric(punch.DirectionBreakStart, ist(13, 0)),
		biometric(punch.DirectionBreakEnd, ist(13, 30)),
		biometric(punch.DirectionOut, ist(18, 0)),
	})
	require.Empty(t, errs)
	assert.Equal(t, 1, processed)

	require.Len(t, repo.records, 1)
	for _, rec := range repo.records {
		assert.Equal(t, attendance.StatusCompleted, rec.Status)
		require.NotNil(t, rec.WorkedMinutes)
		// 9 hours minus the 30 minute break.
		assert.Equal(t, 510, *rec.WorkedMinutes)
		assert.False(t, rec.IsLate)
		assert.Equal(t, attendance.SourceBiometric, rec.Source)
	}
}

func TestProcessEvents_SingleRecordPerEmployeeAndDay(t *testing.T) {
	repo := newFakeDayRepo()
	svc := newTestService(t, repo)

	_, errs := svc.ProcessEvents(context.Background(), []punch.Event{
		biometric(punch.DirectionIn, ist(9, 0)),
		biometric(punch.DirectionOut, ist(12, 0)),
		biometric(punch.DirectionOut, ist(18, 0)),
	})
	require.Empty(t, errs)
	assert.Len(t, repo.records, 1)
}

func TestProcessEvents_CheckoutNeverRegresses(t *testing.T) {
	repo := newFakeDayRepo()
	svc := newTestService(t, repo)

	ctx := context.Background()
	_, errs := svc.ProcessEvents(ctx, []punch.Event{
		biometric(punch.DirectionIn, ist(9, 0)),
		biometric(punch.DirectionOut, ist(17, 0)),
	})
	require.Empty(t, errs)

	// A redelivered 16:00 punch must not pull the checkout back.
	_, errs = svc.ProcessEvents(ctx, []punch.Event{
		biometric(punch.DirectionOut, ist(16, 0)),
	})
	require.Empty(t, errs)

	for _, rec := range repo.records {
		require.NotNil(t, rec.CheckOutAt)
		assert.Equal(t, ist(17, 0), *rec.CheckOutAt)
	}
}

func TestProcessEvents_ReplayIsIdempotent(t *testing.T) {
	repo := newFakeDayRepo()
	svc := newTestService(t, repo)

	batch := []punch.Event{
		biometric(punch.DirectionIn, ist(9, 0)),
		biometric(punch.DirectionOut, ist(18, 0)),
	}

	ctx := context.Background()
	processed, errs := svc.ProcessEvents(ctx, batch)
	require.Empty(t, errs)
	assert.Equal(t, 1, processed)
	first := repo.records["emp-1|2025-10-03"]

	processed, errs = svc.ProcessEvents(ctx, batch)
	require.Empty(t, errs)
	assert.Equal(t, 0, processed, "unchanged replay should not persist")
	assert.Equal(t, first, repo.records["emp-1|2025-10-03"])
}

func TestProcessEvents_MixedSourceWhenBothOriginsContribute(t *testing.T) {
	repo := newFakeDayRepo()
	svc := newTestService(t, repo)

	ctx := context.Background()
	_, errs := svc.ProcessEvents(ctx, []punch.Event{manual(punch.DirectionIn, ist(9, 0))})
	require.Empty(t, errs)
	_, errs = svc.ProcessEvents(ctx, []punch.Event{biometric(punch.DirectionOut, ist(18, 0))})
	require.Empty(t, errs)

	rec := repo.records["emp-1|2025-10-03"]
	assert.Equal(t, attendance.SourceMixed, rec.Source)
	assert.Equal(t, attendance.StatusCompleted, rec.Status)
}

func TestProcessEvents_LaterInFromOtherSourceSupersedes(t *testing.T) {
	repo := newFakeDayRepo()
	svc := newTestService(t, repo)

	ctx := context.Background()
	_, errs := svc.ProcessEvents(ctx, []punch.Event{biometric(punch.DirectionIn, ist(9, 0))})
	require.Empty(t, errs)
	_, errs = svc.ProcessEvents(ctx, []punch.Event{manual(punch.DirectionIn, ist(9, 5))})
	require.Empty(t, errs)

	rec := repo.records["emp-1|2025-10-03"]
	require.NotNil(t, rec.CheckInAt)
	assert.Equal(t, ist(9, 5), *rec.CheckInAt)
	assert.Equal(t, attendance.SourceMixed, rec.Source)
}

func TestProcessEvents_DuplicateInFromSameSourceIgnored(t *testing.T) {
	repo := newFakeDayRepo()
	svc := newTestService(t, repo)

	ctx := context.Background()
	_, errs := svc.ProcessEvents(ctx, []punch.Event{biometric(punch.DirectionIn, ist(9, 0))})
	require.Empty(t, errs)
	_, errs = svc.ProcessEvents(ctx, []punch.Event{biometric(punch.DirectionIn, ist(9, 30))})
	require.Empty(t, errs)

	rec := repo.records["emp-1|2025-10-03"]
	require.NotNil(t, rec.CheckInAt)
	assert.Equal(t, ist(9, 0), *rec.CheckInAt)
	assert.Equal(t, attendance.SourceBiometric, rec.Source)
}

func TestProcessEvents_LatenessUsesShiftGrace(t *testing.T) {
	repo := newFakeDayRepo()
	svc := newTestService(t, repo)

	ctx := context.Background()
	_, errs := svc.ProcessEvents(ctx, []punch.Event{biometric(punch.DirectionIn, ist(9, 14))})
	require.Empty(t, errs)
	rec := repo.records["emp-1|2025-10-03"]
	assert.False(t, rec.IsLate, "inside grace window")

	repo2 := newFakeDayRepo()
	svc2 := newTestService(t, repo2)
	_, errs = svc2.ProcessEvents(ctx, []punch.Event{biometric(punch.DirectionIn, ist(9, 16))})
	require.Empty(t, errs)
	rec = repo2.records["emp-1|2025-10-03"]
	assert.True(t, rec.IsLate, "past grace window")
}

func TestProcessEvents_OutWithoutInStaysPending(t *testing.T) {
	repo := newFakeDayRepo()
	svc := newTestService(t, repo)

	_, errs := svc.ProcessEvents(context.Background(), []punch.Event{
		biometric(punch.DirectionOut, ist(18, 0)),
	})
	require.Empty(t, errs)

	rec := repo.records["emp-1|2025-10-03"]
	assert.Equal(t, attendance.StatusPending, rec.Status)
	assert.NotNil(t, rec.CheckOutAt)
	assert.Nil(t, rec.CheckInAt)
	assert.Nil(t, rec.WorkedMinutes)
}

func TestProcessEvents_SecondBreakStartOverwrites(t *testing.T) {
	repo := newFakeDayRepo()
	svc := newTestService(t, repo)

	ctx := context.Background()
	_, errs := svc.ProcessEvents(ctx, []punch.Event{
		biometric(punch.DirectionIn, ist(9, 0)),
		biometric(punch.DirectionBreakStart, ist(12, 0)),
		biometric(punch.DirectionBreakEnd, ist(12, 20)),
	})
	require.Empty(t, errs)

	_, errs = svc.ProcessEvents(ctx, []punch.Event{
		biometric(punch.DirectionBreakStart, ist(15, 0)),
	})
	require.Empty(t, errs)

	rec := repo.records["emp-1|2025-10-03"]
	require.NotNil(t, rec.BreakStart)
	assert.Equal(t, ist(15, 0), *rec.BreakStart)
	assert.Nil(t, rec.BreakEnd, "stale break end must not pair with the new start")
}

func TestProcessEvents_UnresolvedEventsSkipped(t *testing.T) {
	repo := newFakeDayRepo()
	svc := newTestService(t, repo)

	processed, errs := svc.ProcessEvents(context.Background(), []punch.Event{
		{ExternalCode: "99", Timestamp: ist(9, 0), Direction: punch.DirectionIn, Source: punch.SourceBiometric},
	})
	require.Empty(t, errs)
	assert.Equal(t, 0, processed)
	assert.Empty(t, repo.records)
}

func TestApplyEvent_ManualPathPersists(t *testing.T) {
	repo := newFakeDayRepo()
	svc := newTestService(t, repo)

	rec, err := svc.ApplyEvent(context.Background(), manual(punch.DirectionIn, ist(9, 2)))
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusInProgress, rec.Status)
	assert.Equal(t, attendance.SourceManual, rec.Source)
	require.NotNil(t, rec.CheckInAt)
}
