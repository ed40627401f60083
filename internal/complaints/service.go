package complaints

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"campuslog/internal/apperr"
	"campuslog/internal/metrics"
	"campuslog/internal/queue"
	"campuslog/internal/store"
)

// timeLayouts are accepted for time_date, tried in order.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.RFC3339,
}

// AttachmentStore persists uploaded files.
type AttachmentStore interface {
	Save(original string, r io.Reader) (string, error)
	Remove(path string) error
}

// Publisher announces stored attachments to background workers.
type Publisher interface {
	Publish(ctx context.Context, msg queue.Message) error
}

// Options are the product decisions left to configuration.
type Options struct {
	// StatusWhitelist restricts status values; empty accepts any non-empty status.
	StatusWhitelist []string
	// RequireDescription makes the mentor forward description mandatory.
	RequireDescription bool
	// ResponseWindow is how long a student has to respond to a complaint.
	ResponseWindow time.Duration
}

// Service runs the complaint lifecycle: intake, escalation and the mentor relay.
type Service struct {
	repo   *Repository
	files  AttachmentStore
	pub    Publisher
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a service backed by a repository. files and pub may be nil
// when the mentor relay is not used.
func NewService(repo *Repository, files AttachmentStore, pub Publisher, opts Options, logger *zap.Logger) *Service {
	if opts.ResponseWindow <= 0 {
		opts.ResponseWindow = 6 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, files: files, pub: pub, opts: opts, logger: logger, now: time.Now}
}

// Repo exposes the repository for workers and gauges.
func (s *Service) Repo() *Repository { return s.repo }

// CreateLogEntry validates and records an incident. Unless the comment is
// "malpractice", a second complaint with the same student and comment is a conflict.
func (s *Service) CreateLogEntry(ctx context.Context, in NewLogEntry) (LogEntry, error) {
	var missing []string
	for _, f := range []struct{ name, val string }{
		{"faculty_name", in.FacultyName},
		{"time_date", in.TimeDate},
		{"comment", in.Comment},
		{"venue", in.Venue},
	} {
		if strings.TrimSpace(f.val) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return LogEntry{}, apperr.Validation("missing required fields: %s", strings.Join(missing, ", "))
	}
	when, err := parseTimeDate(in.TimeDate)
	if err != nil {
		return LogEntry{}, err
	}

	entry := LogEntry{
		StudentID:   nullable(in.StudentID),
		StudentName: nullable(in.StudentName),
		FacultyName: strings.TrimSpace(in.FacultyName),
		TimeDate:    when,
		Comment:     strings.TrimSpace(in.Comment),
		Venue:       strings.TrimSpace(in.Venue),
		Photo:       nullable(in.Photo),
	}

	err = s.repo.InTx(ctx, func(tx *Repository) error {
		if entry.Comment != MalpracticeComment && entry.StudentID != nil {
			dup, err := tx.HasComplaint(ctx, *entry.StudentID, entry.Comment)
			if err != nil {
				return apperr.Storage("failed to check existing complaints", err)
			}
			if dup {
				return apperr.Conflict("complaint %q already logged for student %s", entry.Comment, *entry.StudentID)
			}
		}
		if err := tx.InsertLogEntry(ctx, &entry); err != nil {
			if store.IsUniqueViolation(err) {
				return apperr.Conflict("complaint %q already logged for student %s", entry.Comment, *entry.StudentID)
			}
			return apperr.Storage("failed to create log", err)
		}
		return nil
	})
	if err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			metrics.ComplaintConflicts.Inc()
		}
		return LogEntry{}, err
	}
	metrics.ComplaintsCreated.Inc()
	s.logger.Info("log entry created",
		zap.Int64("complaint_id", entry.ComplaintID),
		zap.Bool("identified", entry.StudentID != nil && entry.StudentName != nil))
	return entry, nil
}

// SubmitReason escalates a complaint by copying its student and comment into a reason record.
func (s *Service) SubmitReason(ctx context.Context, complaintID int64, reason string) (Reason, error) {
	reason = strings.TrimSpace(reason)
	if complaintID <= 0 || reason == "" {
		return Reason{}, apperr.Validation("complaint id and reason are required")
	}
	var rec Reason
	err := s.repo.InTx(ctx, func(tx *Repository) error {
		entry, err := tx.GetLogEntry(ctx, complaintID)
		if err != nil {
			return apperr.Storage("failed to load complaint", err)
		}
		if entry == nil {
			return apperr.NotFound("complaint %d not found", complaintID)
		}
		comment := entry.Comment
		rec = Reason{
			ComplaintID: complaintID,
			Reason:      reason,
			StudentName: entry.StudentName,
			RollNo:      entry.StudentID,
			Issue:       &comment,
		}
		if err := tx.InsertReason(ctx, &rec); err != nil {
			return apperr.Storage("failed to save reason", err)
		}
		return nil
	})
	if err != nil {
		return Reason{}, err
	}
	return rec, nil
}

// UpdateStatus sets status on the complaint and on all of its reasons atomically.
func (s *Service) UpdateStatus(ctx context.Context, complaintID int64, status string) (StatusUpdate, error) {
	status, err := s.checkStatus(status)
	if err != nil {
		return StatusUpdate{}, err
	}
	out := StatusUpdate{ComplaintID: complaintID, Status: status}
	err = s.repo.InTx(ctx, func(tx *Repository) error {
		n, err := tx.SetLogStatus(ctx, complaintID, status)
		if err != nil {
			return apperr.Storage("failed to update complaint status", err)
		}
		if n == 0 {
			return apperr.NotFound("complaint %d not found", complaintID)
		}
		out.ReasonsUpdated, err = tx.SetReasonStatus(ctx, complaintID, status)
		if err != nil {
			return apperr.Storage("failed to update complaint status", err)
		}
		return nil
	})
	if err != nil {
		return StatusUpdate{}, err
	}
	metrics.StatusUpdates.WithLabelValues(status).Inc()
	return out, nil
}

// ListReasons returns all escalated complaints.
func (s *Service) ListReasons(ctx context.Context) ([]Reason, error) {
	res, err := s.repo.ListReasons(ctx)
	if err != nil {
		return nil, apperr.Storage("failed to list revoked complaints", err)
	}
	return res, nil
}

// ListUnidentified returns the support queue.
func (s *Service) ListUnidentified(ctx context.Context) ([]LogEntry, error) {
	res, err := s.repo.ListUnidentified(ctx)
	if err != nil {
		return nil, apperr.Storage("failed to list support logs", err)
	}
	return res, nil
}

// ForwardToMentor stores the attachment and queues the complaint for mentor review.
func (s *Service) ForwardToMentor(ctx context.Context, req ForwardRequest) (MentorItem, error) {
	if req.ComplaintID <= 0 {
		return MentorItem{}, apperr.Validation("complaint_id is required")
	}
	if req.Body == nil {
		return MentorItem{}, apperr.Validation("video file is required")
	}
	desc := nullable(req.Description)
	if desc == nil && s.opts.RequireDescription {
		return MentorItem{}, apperr.Validation("description is required")
	}
	if s.files == nil {
		return MentorItem{}, apperr.Storage("attachment storage not configured", nil)
	}

	path, err := s.files.Save(req.Filename, req.Body)
	if err != nil {
		return MentorItem{}, apperr.Storage("failed to store attachment", err)
	}
	item := MentorItem{ComplaintID: req.ComplaintID, VideoPath: path, Description: desc}
	if err := s.repo.InsertMentorItem(ctx, &item); err != nil {
		if rmErr := s.files.Remove(path); rmErr != nil {
			s.logger.Warn("orphan attachment left on disk", zap.String("path", path), zap.Error(rmErr))
		}
		return MentorItem{}, apperr.Storage("failed to queue for mentor", err)
	}

	if s.pub != nil {
		if err := s.pub.Publish(ctx, queue.Message{Type: queue.TypeAttachmentStored, ID: item.ID}); err != nil {
			s.logger.Warn("attachment publish failed", zap.Int64("mentor_item", item.ID), zap.Error(err))
		}
	}
	return item, nil
}

// ListMentorQueue returns all items awaiting mentor review.
func (s *Service) ListMentorQueue(ctx context.Context) ([]MentorItem, error) {
	res, err := s.repo.ListMentorQueue(ctx)
	if err != nil {
		return nil, apperr.Storage("failed to list mentor queue", err)
	}
	return res, nil
}

// ResolveIdentity patches the student onto a complaint. A complaint id that
// matches nothing is not an error; the returned count is zero.
func (s *Service) ResolveIdentity(ctx context.Context, complaintID int64, studentID, studentName string) (int64, error) {
	studentID, studentName = strings.TrimSpace(studentID), strings.TrimSpace(studentName)
	if complaintID <= 0 || studentID == "" || studentName == "" {
		return 0, apperr.Validation("complaint_id, S_ID and student_name are required")
	}
	n, err := s.repo.SetIdentity(ctx, complaintID, studentID, studentName)
	if err != nil {
		return 0, apperr.Storage("failed to update complaint", err)
	}
	return n, nil
}

// StudentComplaints lists a student's complaints with the time left to respond.
func (s *Service) StudentComplaints(ctx context.Context, studentID string) ([]StudentComplaint, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, apperr.Validation("S_ID is required")
	}
	entries, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, apperr.Storage("failed to fetch complaints", err)
	}
	now := s.now()
	out := make([]StudentComplaint, 0, len(entries))
	for _, e := range entries {
		out = append(out, annotate(e, now, s.opts.ResponseWindow))
	}
	return out, nil
}

// UpdateStudentComplaintStatus sets the status of a complaint belonging to studentID.
func (s *Service) UpdateStudentComplaintStatus(ctx context.Context, studentID string, complaintID int64, status string) error {
	status, err := s.checkStatus(status)
	if err != nil {
		return err
	}
	n, err := s.repo.SetStudentLogStatus(ctx, strings.TrimSpace(studentID), complaintID, status)
	if err != nil {
		return apperr.Storage("failed to update complaint status", err)
	}
	if n == 0 {
		return apperr.NotFound("complaint %d not found for student %s", complaintID, studentID)
	}
	metrics.StatusUpdates.WithLabelValues(status).Inc()
	return nil
}

// ComplaintDetail returns a single complaint with the reasons filed against it.
func (s *Service) ComplaintDetail(ctx context.Context, complaintID int64) (Detail, error) {
	e, err := s.repo.GetLogEntry(ctx, complaintID)
	if err != nil {
		return Detail{}, apperr.Storage("failed to fetch complaint", err)
	}
	if e == nil {
		return Detail{}, apperr.NotFound("complaint %d not found", complaintID)
	}
	reasons, err := s.repo.ReasonsFor(ctx, complaintID)
	if err != nil {
		return Detail{}, apperr.Storage("failed to fetch complaint", err)
	}
	if reasons == nil {
		reasons = []Reason{}
	}
	return Detail{LogEntry: *e, Reasons: reasons}, nil
}

func (s *Service) checkStatus(status string) (string, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return "", apperr.Validation("status is required")
	}
	if len(s.opts.StatusWhitelist) == 0 {
		return status, nil
	}
	for _, allowed := range s.opts.StatusWhitelist {
		if status == allowed {
			return status, nil
		}
	}
	return "", apperr.Validation("invalid status value %q", status)
}

func annotate(e LogEntry, now time.Time, window time.Duration) StudentComplaint {
	left := e.TimeDate.Add(window).Sub(now)
	if left < 0 {
		left = 0
	}
	secs := int64(left / time.Second)
	return StudentComplaint{
		LogEntry:         e,
		RemainingSeconds: secs,
		RemainingTime:    fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs%3600/60, secs%60),
		Expired:          left == 0,
	}
}

func parseTimeDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperr.Validation("invalid time_date %q, expected YYYY-MM-DD HH:MM:SS", v)
}

func nullable(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
