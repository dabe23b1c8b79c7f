package normalizer

import (
	"testing"
	"time"

	"github.com/quartzhr/attendance-sync-go/internal/domain/punch"
	"github.com/quartzhr/attendance-sync-go/internal/pkg/etimetrack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kolkata(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return loc
}

func TestNormalize_PairedRowConvertsToUTC(t *testing.T) {
	n := New(kolkata(t), nil)

	events, errs := n.Normalize(nil, []etimetrack.PairedRecord{
		{Empcode: "17", Name: "Priya Sharma", DateString: "03/10/2025", INTime: "09:02", OUTTime: "17:31"},
	})
	require.Empty(t, errs)
	require.Len(t, events, 2)

	// 09:02 IST is 03:32 UTC.
	assert.Equal(t, punch.DirectionIn, events[0].Direction)
	assert.Equal(t, time.Date(2025, 10, 3, 3, 32, 0, 0, time.UTC), events[0].Timestamp)

	assert.Equal(t, punch.DirectionOut, events[1].Direction)
	assert.Equal(t, time.Date(2025, 10, 3, 12, 1, 0, 0, time.UTC), events[1].Timestamp)
}

func TestNormalize_PairedRowWithoutOutEmitsInOnly(t *testing.T) {
	n := New(kolkata(t), nil)

	events, errs := n.Normalize(nil, []etimetrack.PairedRecord{
		{Empcode: "17", Name: "Priya Sharma", DateString: "03/10/2025", INTime: "09:02", OUTTime: ""},
	})
	require.Empty(t, errs)
	require.Len(t, events, 1)
	assert.Equal(t, punch.DirectionIn, events[0].Direction)
}

func TestNormalize_OvernightPairedRowRollsOutToNextDay(t *testing.T) {
	n := New(kolkata(t), nil)

	events, errs := n.Normalize(nil, []etimetrack.PairedRecord{
		{Empcode: "22", Name: "Night Guard", DateString: "03/10/2025", INTime: "22:00", OUTTime: "06:00"},
	})
	require.Empty(t, errs)
	require.Len(t, events, 2)
	assert.True(t, events[1].Timestamp.After(events[0].Timestamp),
		"out must land after in for an overnight shift")
}

func TestNormalize_ExplicitFlagsAreKept(t *testing.T) {
	n := New(kolkata(t), nil)

	events, errs := n.Normalize([]etimetrack.PunchRecord{
		{Empcode: "17", PunchTime: "03/10/2025 09:02:00", INOUT: "IN"},
		{Empcode: "17", PunchTime: "03/10/2025 17:31:00", INOUT: "OUT"},
	}, nil)
	require.Empty(t, errs)
	require.Len(t, events, 2)
	assert.Equal(t, punch.DirectionIn, events[0].Direction)
	assert.Equal(t, punch.DirectionOut, events[1].Direction)
}

func TestNormalize_AlternationInfersUnflaggedPunches(t *testing.T) {
	n := New(kolkata(t), nil)

	events, errs := n.Normalize([]etimetrack.PunchRecord{
		{Empcode: "17", PunchTime: "03/10/2025 09:00:00"},
		{Empcode: "17", PunchTime: "03/10/2025 13:00:00"},
	}, nil)
	require.Empty(t, errs)
	require.Len(t, events, 2)
	assert.Equal(t, punch.DirectionIn, events[0].Direction)
	assert.Equal(t, punch.DirectionOut, events[1].Direction)
}

func TestNormalize_TrailingOddPunchBecomesCheckout(t *testing.T) {
	n := New(kolkata(t), nil)

	events, errs := n.Normalize([]etimetrack.PunchRecord{
		{Empcode: "17", PunchTime: "03/10/2025 09:00:00"},
		{Empcode: "17", PunchTime: "03/10/2025 13:00:00"},
		{Empcode: "17", PunchTime: "03/10/2025 18:00:00"},
	}, nil)
	require.Empty(t, errs)
	require.Len(t, events, 3)
	// Strict alternation would call 18:00 an in; the trailing punch of the
	// day reads as the checkout instead.
	assert.Equal(t, punch.DirectionOut, events[2].Direction)
}

func TestNormalize_SinglePunchOfDayStaysIn(t *testing.T) {
	n := New(kolkata(t), nil)

	events, errs := n.Normalize([]etimetrack.PunchRecord{
		{Empcode: "17", PunchTime: "03/10/2025 09:00:00"},
	}, nil)
	require.Empty(t, errs)
	require.Len(t, events, 1)
	assert.Equal(t, punch.DirectionIn, events[0].Direction)
}

func TestNormalize_SameMinuteDoubleReadIsDropped(t *testing.T) {
	n := New(kolkata(t), nil)

	events, errs := n.Normalize([]etimetrack.PunchRecord{
		{Empcode: "17", PunchTime: "03/10/2025 09:02:10"},
		{Empcode: "17", PunchTime: "03/10/2025 09:02:40"},
		{Empcode: "17", PunchTime: "03/10/2025 17:31:00"},
	}, nil)
	require.Empty(t, errs)
	require.Len(t, events, 2)
	assert.Equal(t, punch.DirectionIn, events[0].Direction)
	assert.Equal(t, punch.DirectionOut, events[1].Direction)
}

func TestNormalize_MalformedRowIsIsolated(t *testing.T) {
	n := New(kolkata(t), nil)

	events, errs := n.Normalize([]etimetrack.PunchRecord{
		{Empcode: "17", PunchTime: "not a timestamp", INOUT: "IN"},
		{Empcode: "18", PunchTime: "03/10/2025 09:00:00", INOUT: "IN"},
	}, nil)
	require.Len(t, errs, 1)
	require.Len(t, events, 1)
	assert.Equal(t, "18", events[0].ExternalCode)
}

func TestNormalize_SeparateEmployeesDoNotShareAlternation(t *testing.T) {
	n := New(kolkata(t), nil)

	events, errs := n.Normalize([]etimetrack.PunchRecord{
		{Empcode: "17", PunchTime: "03/10/2025 09:00:00"},
		{Empcode: "18", PunchTime: "03/10/2025 09:05:00"},
	}, nil)
	require.Empty(t, errs)
	require.Len(t, events, 2)
	assert.Equal(t, punch.DirectionIn, events[0].Direction)
	assert.Equal(t, punch.DirectionIn, events[1].Direction)
}
