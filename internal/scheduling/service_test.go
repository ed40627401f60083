package scheduling

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"campuslog/internal/apperr"
	"campuslog/internal/store/storetest"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(NewRepository(storetest.Open(t).Client), zap.NewNop())
}

func meeting(sid, venue, date string) NewMeeting {
	return NewMeeting{StudentID: sid, Venue: venue, Date: date, Time: "14:30", Info: "discipline review"}
}

func TestForwardToAdminNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.ForwardToAdmin(ctx, AdminRecord{StudentName: "Asha", StudentID: "S1", Comment: "late"})
	require.NoError(t, err)
	// empty records are accepted
	_, err = svc.ForwardToAdmin(ctx, AdminRecord{})
	require.NoError(t, err)
	last, err := svc.ForwardToAdmin(ctx, AdminRecord{StudentName: "Ravi", StudentID: "S2", Faculty: "Dr. Rao"})
	require.NoError(t, err)

	got, err := svc.ListAdminRecords(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, last.ID, got[0].ID)
	assert.Equal(t, "Dr. Rao", got[0].Faculty)
	assert.Equal(t, "late", got[2].Comment)
}

func TestScheduleMeetingDefaultsPending(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	m, err := svc.ScheduleMeeting(ctx, meeting("S1", "Room 4", "2024-03-05"))
	require.NoError(t, err)
	assert.NotZero(t, m.No)
	assert.Equal(t, StatusPending, m.Status)
	assert.Equal(t, "2024-03-05", m.Date)

	alt, err := svc.ScheduleMeeting(ctx, meeting("S2", "Room 4", "06-03-2024"))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-06", alt.Date)

	got, err := svc.ListMeetings(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, alt.No, got[0].No)
	assert.Equal(t, "06 Mar 2024", got[0].Date)
	assert.Equal(t, "02:30 PM", got[0].Time)
}

func TestScheduleMeetingValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	cases := map[string]NewMeeting{
		"missing info": {StudentID: "S1", Venue: "R", Date: "2024-03-05", Time: "10:00"},
		"bad date":     meeting("S1", "R", "5th March"),
		"bad time":     {StudentID: "S1", Venue: "R", Date: "2024-03-05", Time: "noon", Info: "x"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ScheduleMeeting(ctx, in)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
		})
	}
}

func TestUpdateAttendance(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.UpdateAttendance(ctx, AttendanceUpdate{StudentID: "S1", Venue: "Room 4", Date: "2024-03-05", Status: "attended"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = svc.ScheduleMeeting(ctx, meeting("S1", "Room 4", "2024-03-05"))
	require.NoError(t, err)

	n, err := svc.UpdateAttendance(ctx, AttendanceUpdate{StudentID: "S1", Venue: "Room 4", Date: "05-03-2024", Status: "attended"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := svc.ListMeetings(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "attended", got[0].Status)

	pending, err := svc.Repo().CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestUpdateAttendanceMatchesEveryRow(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	for i := 0; i < 2; i++ {
		_, err := svc.ScheduleMeeting(ctx, meeting("S1", "Room 4", "2024-03-05"))
		require.NoError(t, err)
	}
	_, err := svc.ScheduleMeeting(ctx, meeting("S1", "Room 5", "2024-03-05"))
	require.NoError(t, err)

	n, err := svc.UpdateAttendance(ctx, AttendanceUpdate{StudentID: "S1", Venue: "Room 4", Date: "2024-03-05", Status: "absent"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	pending, err := svc.Repo().CountPending(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending)
}

func TestUpdateAttendanceValidation(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.UpdateAttendance(context.Background(), AttendanceUpdate{StudentID: "S1", Venue: "R", Date: "2024-03-05"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
