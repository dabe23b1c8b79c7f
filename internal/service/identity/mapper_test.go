package identity

import (
	"context"
	"testing"
	"time"

	"github.com/quartzhr/attendance-sync-go/internal/domain/employee"
	"github.com/quartzhr/attendance-sync-go/internal/domain/mapping"
	"github.com/quartzhr/attendance-sync-go/internal/domain/punch"
	domainsync "github.com/quartzhr/attendance-sync-go/internal/domain/sync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMappingRepo struct {
	byCode map[string]mapping.Mapping
}

func newFakeMappingRepo() *fakeMappingRepo {
	return &fakeMappingRepo{byCode: make(map[string]mapping.Mapping)}
}

func (f *fakeMappingRepo) Upsert(_ context.Context, m mapping.Mapping) (mapping.Mapping, error) {
	if m.ID == "" {
		m.ID = "map-" + m.ExternalCode
	}
	f.byCode[m.ExternalCode] = m
	return m, nil
}

func (f *fakeMappingRepo) GetActiveByExternalCode(_ context.Context, code string) (mapping.Mapping, error) {
	m, ok := f.byCode[code]
	if !ok || !m.Active {
		return mapping.Mapping{}, mapping.ErrMappingNotFound
	}
	return m, nil
}

func (f *fakeMappingRepo) List(_ context.Context, status *mapping.Status) ([]mapping.Mapping, error) {
	var out []mapping.Mapping
	for _, m := range f.byCode {
		if status == nil || m.Status == *status {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMappingRepo) Count(context.Context) (int64, error) {
	return int64(len(f.byCode)), nil
}

type fakeEmployeeRepo struct {
	employees []employee.Employee
	listCalls int
}

func (f *fakeEmployeeRepo) GetByID(_ context.Context, id string) (employee.Employee, error) {
	for _, e := range f.employees {
		if e.ID == id {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (f *fakeEmployeeRepo) ListActive(context.Context) ([]employee.Employee, error) {
	f.listCalls++
	return f.employees, nil
}

func (f *fakeEmployeeRepo) CountActive(context.Context) (int64, error) {
	return int64(len(f.employees)), nil
}

type fakePendingRepo struct {
	byCode map[string][]domainsync.PendingPunch
}

func newFakePendingRepo() *fakePendingRepo {
	return &fakePendingRepo{byCode: make(map[string][]domainsync.PendingPunch)}
}

func (f *fakePendingRepo) Enqueue(_ context.Context, p domainsync.PendingPunch) error {
	f.byCode[p.ExternalCode] = append(f.byCode[p.ExternalCode], p)
	return nil
}

func (f *fakePendingRepo) ListByExternalCode(_ context.Context, code string) ([]domainsync.PendingPunch, error) {
	return f.byCode[code], nil
}

func (f *fakePendingRepo) DeleteByExternalCode(_ context.Context, code string) error {
	delete(f.byCode, code)
	return nil
}

func (f *fakePendingRepo) Count(context.Context) (int64, error) {
	var n int64
	for _, ps := range f.byCode {
		n += int64(len(ps))
	}
	return n, nil
}

type fakeApplier struct {
	applied []punch.Event
}

func (f *fakeApplier) ProcessEvents(_ context.Context, events []punch.Event) (int, []error) {
	f.applied = append(f.applied, events...)
	return len(events), nil
}

func testConfig() Config {
	return Config{AutoMapThreshold: 0.8, ReviewFloor: 0.3}
}

func biometricEvent(code, name string) punch.Event {
	return punch.Event{
		ExternalCode: code,
		ExternalName: name,
		Timestamp:    time.Date(2025, 10, 3, 3, 32, 0, 0, time.UTC),
		Direction:    punch.DirectionIn,
		Source:       punch.SourceBiometric,
	}
}

func TestResolve_ExactNameAutoMaps(t *testing.T) {
	mappings := newFakeMappingRepo()
	employees := &fakeEmployeeRepo{employees: []employee.Employee{
		{ID: "emp-1", FullName: "Priya Sharma", EmploymentStatus: employee.EmploymentStatusActive},
	}}
	pending := newFakePendingRepo()
	m := NewMapper(mappings, employees, pending, &fakeApplier{}, testConfig(), nil)

	resolved, queued, errs := m.Resolve(context.Background(), []punch.Event{
		biometricEvent("17", "Priya Sharma"),
	})
	require.Empty(t, errs)
	assert.Zero(t, queued)
	require.Len(t, resolved, 1)
	assert.Equal(t, "emp-1", resolved[0].EmployeeID)

	stored := mappings.byCode["17"]
	assert.Equal(t, mapping.StatusAutoMapped, stored.Status)
	assert.Equal(t, 1.0, stored.MatchScore)
	assert.True(t, stored.Active)
}

func TestResolve_MidScoreParksForReview(t *testing.T) {
	mappings := newFakeMappingRepo()
	employees := &fakeEmployeeRepo{employees: []employee.Employee{
		{ID: "emp-1", FullName: "Priya Sharma"},
	}}
	pending := newFakePendingRepo()
	m := NewMapper(mappings, employees, pending, &fakeApplier{}, testConfig(), nil)

	resolved, queued, errs := m.Resolve(context.Background(), []punch.Event{
		biometricEvent("17", "Priya S"),
	})
	require.Empty(t, errs)
	assert.Empty(t, resolved)
	assert.Equal(t, 1, queued)

	stored := mappings.byCode["17"]
	assert.Equal(t, mapping.StatusPendingReview, stored.Status)
	assert.Nil(t, stored.EmployeeID)
	assert.Len(t, pending.byCode["17"], 1)
}

func TestResolve_BelowFloorCreatesNoMapping(t *testing.T) {
	mappings := newFakeMappingRepo()
	employees := &fakeEmployeeRepo{employees: []employee.Employee{
		{ID: "emp-1", FullName: "Priya Sharma"},
	}}
	pending := newFakePendingRepo()
	m := NewMapper(mappings, employees, pending, &fakeApplier{}, testConfig(), nil)

	resolved, queued, errs := m.Resolve(context.Background(), []punch.Event{
		biometricEvent("99", "XYZ"),
	})
	require.Empty(t, errs)
	assert.Empty(t, resolved)
	assert.Equal(t, 1, queued, "punch is held, not discarded")
	assert.NotContains(t, mappings.byCode, "99")
}

func TestResolve_ExistingMappingSkipsScoring(t *testing.T) {
	mappings := newFakeMappingRepo()
	empID := "emp-1"
	mappings.byCode["17"] = mapping.Mapping{
		ID: "map-17", ExternalCode: "17", EmployeeID: &empID,
		Status: mapping.StatusAutoMapped, Active: true,
	}
	employees := &fakeEmployeeRepo{}
	m := NewMapper(mappings, employees, newFakePendingRepo(), &fakeApplier{}, testConfig(), nil)

	resolved, _, errs := m.Resolve(context.Background(), []punch.Event{
		biometricEvent("17", "Priya Sharma"),
		biometricEvent("17", "Priya Sharma"),
	})
	require.Empty(t, errs)
	require.Len(t, resolved, 2)
	assert.Zero(t, employees.listCalls, "no scoring when a mapping already exists")
}

func TestReview_ApproveReplaysHeldPunches(t *testing.T) {
	mappings := newFakeMappingRepo()
	mappings.byCode["17"] = mapping.Mapping{
		ID: "map-17", ExternalCode: "17", ExternalName: "Priya S",
		Status: mapping.StatusPendingReview, Active: true,
	}
	employees := &fakeEmployeeRepo{employees: []employee.Employee{{ID: "emp-1", FullName: "Priya Sharma"}}}
	pending := newFakePendingRepo()
	pending.byCode["17"] = []domainsync.PendingPunch{
		{ExternalCode: "17", Timestamp: time.Now().UTC(), Direction: punch.DirectionIn},
		{ExternalCode: "17", Timestamp: time.Now().UTC(), Direction: punch.DirectionOut},
	}
	applier := &fakeApplier{}
	m := NewMapper(mappings, employees, pending, applier, testConfig(), nil)

	empID := "emp-1"
	resp, err := m.Review(context.Background(), mapping.ReviewRequest{
		ExternalCode: "17", Approve: true, EmployeeID: &empID,
	})
	require.NoError(t, err)
	assert.Equal(t, string(mapping.StatusAutoMapped), resp.Status)

	require.Len(t, applier.applied, 2)
	assert.Equal(t, "emp-1", applier.applied[0].EmployeeID)
	assert.Empty(t, pending.byCode["17"], "queue drained after replay")
}

func TestReview_RejectKeepsQueue(t *testing.T) {
	mappings := newFakeMappingRepo()
	mappings.byCode["17"] = mapping.Mapping{
		ID: "map-17", ExternalCode: "17", Status: mapping.StatusPendingReview, Active: true,
	}
	pending := newFakePendingRepo()
	pending.byCode["17"] = []domainsync.PendingPunch{{ExternalCode: "17"}}
	m := NewMapper(mappings, &fakeEmployeeRepo{}, pending, &fakeApplier{}, testConfig(), nil)

	resp, err := m.Review(context.Background(), mapping.ReviewRequest{ExternalCode: "17", Approve: false})
	require.NoError(t, err)
	assert.Equal(t, string(mapping.StatusRejected), resp.Status)
	assert.Len(t, pending.byCode["17"], 1)
}

func TestReview_AutoMappedIsAlreadyResolved(t *testing.T) {
	mappings := newFakeMappingRepo()
	empID := "emp-1"
	mappings.byCode["17"] = mapping.Mapping{
		ID: "map-17", ExternalCode: "17", EmployeeID: &empID,
		Status: mapping.StatusAutoMapped, Active: true,
	}
	m := NewMapper(mappings, &fakeEmployeeRepo{}, newFakePendingRepo(), &fakeApplier{}, testConfig(), nil)

	_, err := m.Review(context.Background(), mapping.ReviewRequest{ExternalCode: "17", Approve: true, EmployeeID: &empID})
	assert.ErrorIs(t, err, mapping.ErrAlreadyResolved)
}

func TestReview_ApproveWithoutEmployeeFailsValidation(t *testing.T) {
	m := NewMapper(newFakeMappingRepo(), &fakeEmployeeRepo{}, newFakePendingRepo(), &fakeApplier{}, testConfig(), nil)

	_, err := m.Review(context.Background(), mapping.ReviewRequest{ExternalCode: "17", Approve: true})
	require.Error(t, err)
}
