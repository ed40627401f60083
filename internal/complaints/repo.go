package complaints

import (
	"context"
	"database/sql"
	"errors"

	"campuslog/internal/store"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// Repository persists complaints, reasons and the mentor queue.
type Repository struct {
	db *sql.DB
	q  querier
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, q: db}
}

// InTx runs fn with a repository bound to a single transaction.
func (r *Repository) InTx(ctx context.Context, fn func(tx *Repository) error) error {
	return store.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(&Repository{db: r.db, q: tx})
	})
}

const logEntryColumns = `complaint_id, s_id, student_name, faculty_name, time_date, comment, venue, photo, status`

func scanLogEntry(s scanner) (LogEntry, error) {
	var e LogEntry
	err := s.Scan(&e.ComplaintID, &e.StudentID, &e.StudentName, &e.FacultyName, &e.TimeDate, &e.Comment, &e.Venue, &e.Photo, &e.Status)
	return e, err
}

func (r *Repository) listLogEntries(ctx context.Context, query string, args ...any) ([]LogEntry, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []LogEntry{}
	for rows.Next() {
		e, err := scanLogEntry(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// HasComplaint reports whether studentID already has a log entry with comment.
func (r *Repository) HasComplaint(ctx context.Context, studentID, comment string) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM log_entries WHERE s_id = $1 AND comment = $2)
	`, studentID, comment).Scan(&exists)
	return exists, err
}

// InsertLogEntry writes e and sets its ComplaintID.
func (r *Repository) InsertLogEntry(ctx context.Context, e *LogEntry) error {
	return r.q.QueryRowContext(ctx, `
		INSERT INTO log_entries (s_id, student_name, faculty_name, time_date, comment, venue, photo)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING complaint_id
	`, e.StudentID, e.StudentName, e.FacultyName, e.TimeDate, e.Comment, e.Venue, e.Photo).Scan(&e.ComplaintID)
}

// GetLogEntry returns a single log entry, or nil when it does not exist.
func (r *Repository) GetLogEntry(ctx context.Context, complaintID int64) (*LogEntry, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+logEntryColumns+` FROM log_entries WHERE complaint_id = $1`, complaintID)
	e, err := scanLogEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// ListUnidentified returns log entries missing a student id or name, newest first.
func (r *Repository) ListUnidentified(ctx context.Context) ([]LogEntry, error) {
	return r.listLogEntries(ctx, `
		SELECT `+logEntryColumns+` FROM log_entries
		WHERE s_id IS NULL OR student_name IS NULL
		ORDER BY time_date DESC, complaint_id DESC
	`)
}

// ListByStudent returns the student's log entries, newest first.
func (r *Repository) ListByStudent(ctx context.Context, studentID string) ([]LogEntry, error) {
	return r.listLogEntries(ctx, `
		SELECT `+logEntryColumns+` FROM log_entries
		WHERE s_id = $1
		ORDER BY time_date DESC, complaint_id DESC
	`, studentID)
}

// SetIdentity fills in the student on a log entry.
func (r *Repository) SetIdentity(ctx context.Context, complaintID int64, studentID, studentName string) (int64, error) {
	return r.exec(ctx, `UPDATE log_entries SET s_id = $1, student_name = $2 WHERE complaint_id = $3`, studentID, studentName, complaintID)
}

// SetLogStatus sets the status of a log entry.
func (r *Repository) SetLogStatus(ctx context.Context, complaintID int64, status string) (int64, error) {
	return r.exec(ctx, `UPDATE log_entries SET status = $1 WHERE complaint_id = $2`, status, complaintID)
}

// SetStudentLogStatus sets the status of a log entry only when it belongs to studentID.
func (r *Repository) SetStudentLogStatus(ctx context.Context, studentID string, complaintID int64, status string) (int64, error) {
	return r.exec(ctx, `UPDATE log_entries SET status = $1 WHERE s_id = $2 AND complaint_id = $3`, status, studentID, complaintID)
}

// InsertReason writes rec and sets its ID.
func (r *Repository) InsertReason(ctx context.Context, rec *Reason) error {
	return r.q.QueryRowContext(ctx, `
		INSERT INTO reasons (complaint_id, reason, student_name, roll_no, issue)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, rec.ComplaintID, rec.Reason, rec.StudentName, rec.RollNo, rec.Issue).Scan(&rec.ID)
}

// SetReasonStatus sets the status on every reason of a complaint.
func (r *Repository) SetReasonStatus(ctx context.Context, complaintID int64, status string) (int64, error) {
	return r.exec(ctx, `UPDATE reasons SET status = $1 WHERE complaint_id = $2`, status, complaintID)
}

// ListReasons returns all reasons with display fields from their log entry.
func (r *Repository) ListReasons(ctx context.Context) ([]Reason, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT r.id, r.complaint_id, r.reason, r.student_name, r.roll_no, r.issue, r.status,
		       f.comment, f.venue, f.time_date
		FROM reasons r
		LEFT JOIN log_entries f ON f.complaint_id = r.complaint_id
		ORDER BY r.id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []Reason{}
	for rows.Next() {
		var rec Reason
		if err := rows.Scan(&rec.ID, &rec.ComplaintID, &rec.Reason, &rec.StudentName, &rec.RollNo, &rec.Issue, &rec.Status,
			&rec.Comment, &rec.Venue, &rec.TimeDate); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// ReasonsFor returns the reasons recorded against a complaint.
func (r *Repository) ReasonsFor(ctx context.Context, complaintID int64) ([]Reason, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, complaint_id, reason, student_name, roll_no, issue, status
		FROM reasons WHERE complaint_id = $1 ORDER BY id
	`, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []Reason{}
	for rows.Next() {
		var rec Reason
		if err := rows.Scan(&rec.ID, &rec.ComplaintID, &rec.Reason, &rec.StudentName, &rec.RollNo, &rec.Issue, &rec.Status); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// InsertMentorItem writes item and sets its ID.
func (r *Repository) InsertMentorItem(ctx context.Context, item *MentorItem) error {
	return r.q.QueryRowContext(ctx, `
		INSERT INTO mentor_queue (complaint_id, video_path, description)
		VALUES ($1, $2, $3)
		RETURNING id
	`, item.ComplaintID, item.VideoPath, item.Description).Scan(&item.ID)
}

// ListMentorQueue returns all queued items in arrival order.
func (r *Repository) ListMentorQueue(ctx context.Context) ([]MentorItem, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, complaint_id, video_path, description, video_url FROM mentor_queue ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []MentorItem{}
	for rows.Next() {
		var it MentorItem
		if err := rows.Scan(&it.ID, &it.ComplaintID, &it.VideoPath, &it.Description, &it.VideoURL); err != nil {
			return nil, err
		}
		res = append(res, it)
	}
	return res, rows.Err()
}

// GetMentorItem returns a queued item, or nil when it does not exist.
func (r *Repository) GetMentorItem(ctx context.Context, id int64) (*MentorItem, error) {
	var it MentorItem
	err := r.q.QueryRowContext(ctx, `
		SELECT id, complaint_id, video_path, description, video_url FROM mentor_queue WHERE id = $1
	`, id).Scan(&it.ID, &it.ComplaintID, &it.VideoPath, &it.Description, &it.VideoURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &it, nil
}

// SetMentorVideoURL records where the attachment was mirrored to.
func (r *Repository) SetMentorVideoURL(ctx context.Context, id int64, url string) error {
	_, err := r.q.ExecContext(ctx, `UPDATE mentor_queue SET video_url = $1 WHERE id = $2`, url, id)
	return err
}

// CountUnidentified returns the size of the support queue.
func (r *Repository) CountUnidentified(ctx context.Context) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM log_entries WHERE s_id IS NULL OR student_name IS NULL`).Scan(&n)
	return n, err
}

// CountMentorQueue returns the number of items awaiting mentor review.
func (r *Repository) CountMentorQueue(ctx context.Context) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM mentor_queue`).Scan(&n)
	return n, err
}

func (r *Repository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
