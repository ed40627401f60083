package scheduling

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"campuslog/internal/apperr"
)

// Service handles admin forwarding, meeting bookings and attendance.
type Service struct {
	repo   *Repository
	logger *zap.Logger
}

// NewService creates a service backed by a repository.
func NewService(repo *Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// Repo exposes the repository for gauges.
func (s *Service) Repo() *Repository { return s.repo }

// ForwardToAdmin records rec as-is.
func (s *Service) ForwardToAdmin(ctx context.Context, rec AdminRecord) (AdminRecord, error) {
	rec.ID = 0
	if err := s.repo.InsertAdminRecord(ctx, &rec); err != nil {
		return AdminRecord{}, apperr.Storage("failed to save admin record", err)
	}
	return rec, nil
}

// ListAdminRecords returns all admin records, newest first.
func (s *Service) ListAdminRecords(ctx context.Context) ([]AdminRecord, error) {
	res, err := s.repo.ListAdminRecords(ctx)
	if err != nil {
		return nil, apperr.Storage("failed to list admin records", err)
	}
	return res, nil
}

// ScheduleMeeting books a pending meeting.
func (s *Service) ScheduleMeeting(ctx context.Context, in NewMeeting) (Meeting, error) {
	m := Meeting{
		StudentID: strings.TrimSpace(in.StudentID),
		Venue:     strings.TrimSpace(in.Venue),
		Info:      strings.TrimSpace(in.Info),
		Status:    StatusPending,
	}
	if m.StudentID == "" || m.Venue == "" || m.Info == "" || strings.TrimSpace(in.Date) == "" || strings.TrimSpace(in.Time) == "" {
		return Meeting{}, apperr.Validation("S_ID, VENUE, DATE_, TIME_ and INFO are required")
	}
	date, err := parseDate(in.Date)
	if err != nil {
		return Meeting{}, err
	}
	clock, err := time.Parse(timeLayout, strings.TrimSpace(in.Time))
	if err != nil {
		return Meeting{}, apperr.Validation("invalid TIME_ %q, expected HH:MM", in.Time)
	}
	m.Date = date.Format(dateLayout)
	m.Time = clock.Format(timeLayout)

	if err := s.repo.InsertMeeting(ctx, &m); err != nil {
		return Meeting{}, apperr.Storage("failed to schedule meeting", err)
	}
	s.logger.Info("meeting scheduled", zap.Int64("meeting_no", m.No), zap.String("s_id", m.StudentID))
	return m, nil
}

// ListMeetings returns meetings formatted for display, newest first.
func (s *Service) ListMeetings(ctx context.Context) ([]Meeting, error) {
	res, err := s.repo.ListMeetings(ctx)
	if err != nil {
		return nil, apperr.Storage("failed to list meetings", err)
	}
	for i := range res {
		if d, err := time.Parse(dateLayout, res[i].Date); err == nil {
			res[i].Date = d.Format(displayDate)
		}
		if t, err := time.Parse(timeLayout, res[i].Time); err == nil {
			res[i].Time = t.Format(displayTime)
		}
	}
	return res, nil
}

// UpdateAttendance sets status on every matching meeting and returns how many changed.
func (s *Service) UpdateAttendance(ctx context.Context, in AttendanceUpdate) (int64, error) {
	studentID, venue, status := strings.TrimSpace(in.StudentID), strings.TrimSpace(in.Venue), strings.TrimSpace(in.Status)
	if studentID == "" || venue == "" || status == "" || strings.TrimSpace(in.Date) == "" {
		return 0, apperr.Validation("S_ID, VENUE, DATE_ and STATUS_ are required")
	}
	date, err := parseDate(in.Date)
	if err != nil {
		return 0, err
	}
	n, err := s.repo.SetAttendance(ctx, status, studentID, venue, date.Format(dateLayout))
	if err != nil {
		return 0, apperr.Storage("failed to update attendance", err)
	}
	if n == 0 {
		return 0, apperr.NotFound("no meeting for %s at %s on %s", studentID, venue, date.Format(dateLayout))
	}
	return n, nil
}

func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range []string{dateLayout, altDateLayout} {
		if d, err := time.Parse(layout, v); err == nil {
			return d, nil
		}
	}
	return time.Time{}, apperr.Validation("invalid DATE_ %q, expected YYYY-MM-DD", v)
}
