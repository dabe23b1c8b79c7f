package sync

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/quartzhr/attendance-sync-go/internal/domain/punch"
	domainsync "github.com/quartzhr/attendance-sync-go/internal/domain/sync"
	"github.com/quartzhr/attendance-sync-go/internal/pkg/etimetrack"
	"github.com/quartzhr/attendance-sync-go/internal/service/normalizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	calls     int
	responses []fetchResponse
}

type fetchResponse struct {
	punches []etimetrack.PunchRecord
	err     error
}

func (f *fakeClient) FetchSince(context.Context, string, string) ([]etimetrack.PunchRecord, error) {
	resp := f.next()
	return resp.punches, resp.err
}

func (f *fakeClient) FetchRange(context.Context, time.Time, time.Time, string) ([]etimetrack.PunchRecord, error) {
	resp := f.next()
	return resp.punches, resp.err
}

func (f *fakeClient) FetchPairedRange(context.Context, time.Time, time.Time, string) ([]etimetrack.PairedRecord, error) {
	return nil, nil
}

func (f *fakeClient) next() fetchResponse {
	idx := f.calls
	f.calls++
	if idx >= len(f.responses) {
		return f.responses[len(f.responses)-1]
	}
	return f.responses[idx]
}

type fakeCursorStore struct {
	token string
}

func (f *fakeCursorStore) Read(context.Context, string) (domainsync.Cursor, error) {
	if f.token == "" {
		return domainsync.Cursor{}, domainsync.ErrCursorNotFound
	}
	return domainsync.Cursor{Stream: domainsync.StreamBiometric, LastRecordToken: f.token}, nil
}

func (f *fakeCursorStore) Advance(_ context.Context, _ string, token string) error {
	if etimetrack.TokenNewer(token, f.token) {
		f.token = token
	}
	return nil
}

type passthroughResolver struct{}

func (passthroughResolver) Resolve(_ context.Context, events []punch.Event) ([]punch.Event, int, []error) {
	for i := range events {
		events[i].EmployeeID = "emp-1"
	}
	return events, 0, nil
}

type fakeReconciler struct {
	errs    []error
	applied int
}

func (f *fakeReconciler) ProcessEvents(_ context.Context, events []punch.Event) (int, []error) {
	f.applied += len(events)
	if f.errs != nil {
		return 0, f.errs
	}
	return len(events), nil
}

func newOrchestrator(client VendorClient, cursors domainsync.CursorStore, rec Reconciler) *Orchestrator {
	return NewOrchestrator(
		client, cursors,
		normalizer.New(time.UTC, nil),
		passthroughResolver{},
		rec,
		nil, nil, nil,
		Config{
			MaxRetries: 3,
			RetryDelay: time.Millisecond,
			RunTimeout: time.Second,
		},
		slog.Default(),
	)
}

func punchRow(srNo, ts string) etimetrack.PunchRecord {
	return etimetrack.PunchRecord{Empcode: "17", Name: "Priya Sharma", PunchTime: ts, INOUT: "IN", SrNo: srNo}
}

func TestRunIncremental_AdvancesCursorAfterPersistence(t *testing.T) {
	client := &fakeClient{responses: []fetchResponse{{punches: []etimetrack.PunchRecord{
		punchRow("102025$41", "03/10/2025 09:02:00"),
		punchRow("102025$43", "03/10/2025 09:05:00"),
	}}}}
	cursors := &fakeCursorStore{token: "102025$40"}
	rec := &fakeReconciler{}

	result, err := newOrchestrator(client, cursors, rec).RunIncremental(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.RecordsFetched)
	assert.Equal(t, "102025$43", result.CursorAdvancedTo)
	assert.Equal(t, "102025$43", cursors.token)
	assert.Empty(t, result.Errors)
}

func TestRunIncremental_PersistenceFailureHoldsCursor(t *testing.T) {
	client := &fakeClient{responses: []fetchResponse{{punches: []etimetrack.PunchRecord{
		punchRow("102025$41", "03/10/2025 09:02:00"),
	}}}}
	cursors := &fakeCursorStore{token: "102025$40"}
	rec := &fakeReconciler{errs: []error{errors.New("db down")}}

	result, err := newOrchestrator(client, cursors, rec).RunIncremental(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.CursorAdvancedTo)
	assert.Equal(t, "102025$40", cursors.token, "cursor must not move past unpersisted records")
	assert.NotEmpty(t, result.Errors)
}

func TestRunIncremental_RetriesTransientFetch(t *testing.T) {
	client := &fakeClient{responses: []fetchResponse{
		{err: &etimetrack.APIError{Status: http.StatusBadGateway, Body: "upstream down"}},
		{err: &etimetrack.APIError{Status: http.StatusServiceUnavailable, Body: "still down"}},
		{punches: []etimetrack.PunchRecord{punchRow("102025$41", "03/10/2025 09:02:00")}},
	}}
	cursors := &fakeCursorStore{}
	rec := &fakeReconciler{}

	result, err := newOrchestrator(client, cursors, rec).RunIncremental(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, client.calls)
	assert.Equal(t, "102025$41", result.CursorAdvancedTo)
}

func TestRunIncremental_ExhaustedRetriesFail(t *testing.T) {
	client := &fakeClient{responses: []fetchResponse{
		{err: &etimetrack.APIError{Status: http.StatusBadGateway, Body: "upstream down"}},
	}}

	_, err := newOrchestrator(client, &fakeCursorStore{}, &fakeReconciler{}).RunIncremental(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domainsync.ErrFetchExhausted)
	// Initial attempt plus three retries.
	assert.Equal(t, 4, client.calls)
}

func TestRunIncremental_PermanentErrorFailsFast(t *testing.T) {
	client := &fakeClient{responses: []fetchResponse{
		{err: &etimetrack.APIError{Status: http.StatusBadRequest, Body: "bad Empcode"}},
	}}

	_, err := newOrchestrator(client, &fakeCursorStore{}, &fakeReconciler{}).RunIncremental(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, client.calls, "4xx must not be retried")
}

func TestRunIncremental_RefusesOverlappingRun(t *testing.T) {
	o := newOrchestrator(&fakeClient{responses: []fetchResponse{{}}}, &fakeCursorStore{}, &fakeReconciler{})

	o.runMu.Lock()
	defer o.runMu.Unlock()

	_, err := o.RunIncremental(context.Background())
	assert.ErrorIs(t, err, domainsync.ErrRunInProgress)
}

func TestRunIncremental_StaleBatchDoesNotRegressCursor(t *testing.T) {
	client := &fakeClient{responses: []fetchResponse{{punches: []etimetrack.PunchRecord{
		punchRow("102025$40", "03/10/2025 09:02:00"),
	}}}}
	cursors := &fakeCursorStore{token: "102025$50"}

	result, err := newOrchestrator(client, cursors, &fakeReconciler{}).RunIncremental(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "102025$50", cursors.token)
	_ = result
}

func TestRunRange_RejectsInvertedWindow(t *testing.T) {
	o := newOrchestrator(&fakeClient{responses: []fetchResponse{{}}}, &fakeCursorStore{}, &fakeReconciler{})

	from := time.Date(2025, 10, 5, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 10, 3, 0, 0, 0, 0, time.UTC)
	_, err := o.RunRange(context.Background(), from, to)
	require.Error(t, err)
}

func TestRunDaily_DoesNotTouchCursor(t *testing.T) {
	client := &fakeClient{responses: []fetchResponse{{punches: []etimetrack.PunchRecord{
		punchRow("102025$99", "03/10/2025 09:02:00"),
	}}}}
	cursors := &fakeCursorStore{token: "102025$40"}

	result, err := newOrchestrator(client, cursors, &fakeReconciler{}).RunDaily(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.CursorAdvancedTo)
	assert.Equal(t, "102025$40", cursors.token)
}
