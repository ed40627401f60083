package complaints

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"campuslog/internal/apperr"
	"campuslog/internal/queue"
	"campuslog/internal/store"
	"campuslog/internal/store/storetest"
)

type memFiles struct {
	saved   map[string]string
	removed []string
	failOn  bool
}

func (m *memFiles) Save(original string, r io.Reader) (string, error) {
	if m.failOn {
		return "", errors.New("disk full")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if m.saved == nil {
		m.saved = map[string]string{}
	}
	path := "uploads/1700000000000-" + original
	m.saved[path] = string(b)
	return path, nil
}

func (m *memFiles) Remove(path string) error {
	m.removed = append(m.removed, path)
	return nil
}

func newTestService(t *testing.T, opts Options) (*Service, *memFiles, *queue.InMemory) {
	t.Helper()
	db := storetest.Open(t)
	files := &memFiles{}
	q := queue.NewInMemory(8)
	svc := NewService(NewRepository(db.Client), files, q, opts, zap.NewNop())
	return svc, files, q
}

func entry(sid, comment string) NewLogEntry {
	return NewLogEntry{
		StudentID:   sid,
		StudentName: "Asha",
		FacultyName: "Dr. Rao",
		TimeDate:    "2024-03-01 10:15:00",
		Comment:     comment,
		Venue:       "Lab 2",
	}
}

func TestCreateLogEntryRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, Options{})

	first, err := svc.CreateLogEntry(ctx, entry("S1", "late"))
	require.NoError(t, err)
	assert.NotZero(t, first.ComplaintID)

	_, err = svc.CreateLogEntry(ctx, entry("S1", "late"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	logs, err := svc.Repo().ListByStudent(ctx, "S1")
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestCreateLogEntryAllowsRepeatedMalpractice(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, Options{})

	for i := 0; i < 3; i++ {
		_, err := svc.CreateLogEntry(ctx, entry("S1", MalpracticeComment))
		require.NoError(t, err)
	}
	logs, err := svc.Repo().ListByStudent(ctx, "S1")
	require.NoError(t, err)
	assert.Len(t, logs, 3)
}

func TestCreateLogEntryWithoutStudentSkipsDuplicateCheck(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, Options{})

	in := entry("  ", "late")
	in.StudentName = ""
	for i := 0; i < 2; i++ {
		e, err := svc.CreateLogEntry(ctx, in)
		require.NoError(t, err)
		assert.Nil(t, e.StudentID)
		assert.Nil(t, e.StudentName)
	}
	unidentified, err := svc.ListUnidentified(ctx)
	require.NoError(t, err)
	assert.Len(t, unidentified, 2)
}

func TestCreateLogEntryValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, Options{})

	in := entry("S1", "late")
	in.Venue = " "
	_, err := svc.CreateLogEntry(ctx, in)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "venue")

	in = entry("S1", "late")
	in.TimeDate = "yesterday"
	_, err = svc.CreateLogEntry(ctx, in)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestParseTimeDateLayouts(t *testing.T) {
	want := time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC)
	for _, v := range []string{"2024-03-01 10:15:00", "2024-03-01T10:15", "2024-03-01T10:15:00Z"} {
		got, err := parseTimeDate(v)
		require.NoError(t, err, v)
		assert.True(t, want.Equal(got), v)
	}
}

func TestSubmitReasonCopiesLogEntry(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, Options{})

	e, err := svc.CreateLogEntry(ctx, entry("S7", "dress code"))
	require.NoError(t, err)

	rec, err := svc.SubmitReason(ctx, e.ComplaintID, "forgot ID card")
	require.NoError(t, err)
	assert.Equal(t, e.ComplaintID, rec.ComplaintID)
	require.NotNil(t, rec.StudentName)
	require.NotNil(t, rec.RollNo)
	require.NotNil(t, rec.Issue)
	assert.Equal(t, "Asha", *rec.StudentName)
	assert.Equal(t, "S7", *rec.RollNo)
	assert.Equal(t, "dress code", *rec.Issue)

	listed, err := svc.ListReasons(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.NotNil(t, listed[0].Venue)
	assert.Equal(t, "Lab 2", *listed[0].Venue)
}

func TestSubmitReasonMissingComplaint(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, Options{})

	_, err := svc.SubmitReason(ctx, 999, "anything")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	listed, err := svc.ListReasons(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestUpdateStatusTouchesOnlyTargetComplaint(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, Options{})

	x, err := svc.CreateLogEntry(ctx, entry("S1", "late"))
	require.NoError(t, err)
	y, err := svc.CreateLogEntry(ctx, entry("S2", "late"))
	require.NoError(t, err)
	for _, id := range []int64{x.ComplaintID, x.ComplaintID, y.ComplaintID} {
		_, err := svc.SubmitReason(ctx, id, "traffic")
		require.NoError(t, err)
	}

	res, err := svc.UpdateStatus(ctx, x.ComplaintID, "Accepted")
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.ReasonsUpdated)

	gotX, err := svc.ComplaintDetail(ctx, x.ComplaintID)
	require.NoError(t, err)
	require.NotNil(t, gotX.Status)
	assert.Equal(t, "Accepted", *gotX.Status)

	require.Len(t, gotX.Reasons, 2)
	for _, r := range gotX.Reasons {
		require.NotNil(t, r.Status)
		assert.Equal(t, "Accepted", *r.Status)
	}

	gotY, err := svc.ComplaintDetail(ctx, y.ComplaintID)
	require.NoError(t, err)
	assert.Nil(t, gotY.Status)
	require.Len(t, gotY.Reasons, 1)
	assert.Nil(t, gotY.Reasons[0].Status)
	assert.Equal(t, "traffic", gotY.Reasons[0].Reason)
}

func TestComplaintDetailWithoutReasons(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, Options{})

	e, err := svc.CreateLogEntry(ctx, entry("S1", "late"))
	require.NoError(t, err)
	got, err := svc.ComplaintDetail(ctx, e.ComplaintID)
	require.NoError(t, err)
	assert.Equal(t, e.ComplaintID, got.ComplaintID)
	assert.NotNil(t, got.Reasons)
	assert.Empty(t, got.Reasons)
}

func TestInsertLogEntryHitsUniqueIndex(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, Options{})

	sid := "S1"
	mk := func(comment string) *LogEntry {
		return &LogEntry{
			StudentID:   &sid,
			FacultyName: "Dr. Rao",
			TimeDate:    time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC),
			Comment:     comment,
			Venue:       "Lab 2",
		}
	}
	require.NoError(t, svc.Repo().InsertLogEntry(ctx, mk("late")))
	err := svc.Repo().InsertLogEntry(ctx, mk("late"))
	require.Error(t, err)
	assert.True(t, store.IsUniqueViolation(err))

	require.NoError(t, svc.Repo().InsertLogEntry(ctx, mk(MalpracticeComment)))
	require.NoError(t, svc.Repo().InsertLogEntry(ctx, mk(MalpracticeComment)))

	// A row written behind the service's back still surfaces as a conflict.
	_, err = svc.CreateLogEntry(ctx, entry("S1", "late"))
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestUpdateStatusMissingComplaint(t *testing.T) {
	svc, _, _ := newTestService(t, Options{})
	_, err := svc.UpdateStatus(context.Background(), 42, "Accepted")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdateStatusWhitelist(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, Options{StatusWhitelist: []string{"Accepted", "Declined"}})

	e, err := svc.CreateLogEntry(ctx, entry("S1", "late"))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, e.ComplaintID, "Maybe")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = svc.UpdateStatus(ctx, e.ComplaintID, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = svc.UpdateStatus(ctx, e.ComplaintID, "Declined")
	assert.NoError(t, err)
}

func TestForwardToMentorRequiresFile(t *testing.T) {
	svc, _, _ := newTestService(t, Options{})
	_, err := svc.ForwardToMentor(context.Background(), ForwardRequest{ComplaintID: 1, Description: "clip"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestForwardToMentorRequiresDescriptionWhenConfigured(t *testing.T) {
	svc, _, _ := newTestService(t, Options{RequireDescription: true})
	_, err := svc.ForwardToMentor(context.Background(), ForwardRequest{
		ComplaintID: 1, Filename: "a.mp4", Body: strings.NewReader("x"),
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestForwardToMentorQueuesOneItem(t *testing.T) {
	ctx := context.Background()
	svc, files, q := newTestService(t, Options{RequireDescription: true})

	item, err := svc.ForwardToMentor(ctx, ForwardRequest{
		ComplaintID: 5,
		Filename:    "cam.mp4",
		Body:        strings.NewReader("frames"),
		Description: "corridor camera",
	})
	require.NoError(t, err)
	assert.Equal(t, "frames", files.saved[item.VideoPath])

	queued, err := svc.ListMentorQueue(ctx)
	require.NoError(t, err)
	require.Len(t, queued, 1)
	assert.EqualValues(t, 5, queued[0].ComplaintID)
	assert.Equal(t, item.VideoPath, queued[0].VideoPath)

	cctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	msgs, err := q.Consume(cctx)
	require.NoError(t, err)
	msg := <-msgs
	assert.Equal(t, queue.TypeAttachmentStored, msg.Type)
	assert.Equal(t, item.ID, msg.ID)
}

func TestForwardToMentorStorageFailure(t *testing.T) {
	svc, files, _ := newTestService(t, Options{})
	files.failOn = true
	_, err := svc.ForwardToMentor(context.Background(), ForwardRequest{
		ComplaintID: 5, Filename: "cam.mp4", Body: strings.NewReader("x"),
	})
	assert.True(t, apperr.Is(err, apperr.KindStorage))
	assert.Equal(t, "failed to store attachment", apperr.PublicMessage(err))
}

func TestResolveIdentity(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, Options{})

	in := entry("", "late")
	in.StudentName = ""
	e, err := svc.CreateLogEntry(ctx, in)
	require.NoError(t, err)

	n, err := svc.ResolveIdentity(ctx, e.ComplaintID, "S9", "Ravi")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	unidentified, err := svc.ListUnidentified(ctx)
	require.NoError(t, err)
	assert.Empty(t, unidentified)

	n, err = svc.ResolveIdentity(ctx, 12345, "S9", "Ravi")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = svc.ResolveIdentity(ctx, e.ComplaintID, "S9", "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestStudentComplaintsRemainingTime(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, Options{ResponseWindow: 6 * time.Hour})
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	_, err := svc.CreateLogEntry(ctx, entry("S1", "late"))
	require.NoError(t, err)
	old := entry("S1", "phone")
	old.TimeDate = "2024-02-28 08:00:00"
	_, err = svc.CreateLogEntry(ctx, old)
	require.NoError(t, err)

	got, err := svc.StudentComplaints(ctx, "S1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "late", got[0].Comment)
	assert.EqualValues(t, 4*3600+15*60, got[0].RemainingSeconds)
	assert.Equal(t, "04:15:00", got[0].RemainingTime)
	assert.False(t, got[0].Expired)

	assert.Equal(t, "phone", got[1].Comment)
	assert.Zero(t, got[1].RemainingSeconds)
	assert.Equal(t, "00:00:00", got[1].RemainingTime)
	assert.True(t, got[1].Expired)
}

func TestUpdateStudentComplaintStatus(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, Options{})

	e, err := svc.CreateLogEntry(ctx, entry("S1", "late"))
	require.NoError(t, err)

	err = svc.UpdateStudentComplaintStatus(ctx, "S2", e.ComplaintID, "Accepted")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	require.NoError(t, svc.UpdateStudentComplaintStatus(ctx, "S1", e.ComplaintID, "Accepted"))
	got, err := svc.ComplaintDetail(ctx, e.ComplaintID)
	require.NoError(t, err)
	require.NotNil(t, got.Status)
	assert.Equal(t, "Accepted", *got.Status)
}

func TestComplaintDetailMissing(t *testing.T) {
	svc, _, _ := newTestService(t, Options{})
	_, err := svc.ComplaintDetail(context.Background(), 7)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
