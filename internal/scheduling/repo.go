package scheduling

import (
	"context"
	"database/sql"
)

// Repository persists admin records and meetings.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InsertAdminRecord writes rec and sets its ID.
func (r *Repository) InsertAdminRecord(ctx context.Context, rec *AdminRecord) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO admin_records (student_name, s_id, date_, time_, venue, comment, faculty)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, rec.StudentName, rec.StudentID, rec.Date, rec.Time, rec.Venue, rec.Comment, rec.Faculty).Scan(&rec.ID)
}

// ListAdminRecords returns records, newest first.
func (r *Repository) ListAdminRecords(ctx context.Context) ([]AdminRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, student_name, s_id, date_, time_, venue, comment, faculty
		FROM admin_records ORDER BY id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []AdminRecord{}
	for rows.Next() {
		var rec AdminRecord
		if err := rows.Scan(&rec.ID, &rec.StudentName, &rec.StudentID, &rec.Date, &rec.Time, &rec.Venue, &rec.Comment, &rec.Faculty); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// InsertMeeting writes m and sets its number.
func (r *Repository) InsertMeeting(ctx context.Context, m *Meeting) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO meetings (s_id, venue, date_, time_, info, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING meeting_no
	`, m.StudentID, m.Venue, m.Date, m.Time, m.Info, m.Status).Scan(&m.No)
}

// ListMeetings returns meetings with stored date and time, newest first.
func (r *Repository) ListMeetings(ctx context.Context) ([]Meeting, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT meeting_no, s_id, venue, date_, time_, info, status
		FROM meetings ORDER BY meeting_no DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []Meeting{}
	for rows.Next() {
		var m Meeting
		if err := rows.Scan(&m.No, &m.StudentID, &m.Venue, &m.Date, &m.Time, &m.Info, &m.Status); err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

// SetAttendance updates every meeting matching student, venue and date.
func (r *Repository) SetAttendance(ctx context.Context, status, studentID, venue, date string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE meetings SET status = $1 WHERE s_id = $2 AND venue = $3 AND date_ = $4
	`, status, studentID, venue, date)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountPending returns the number of meetings still awaiting attendance.
func (r *Repository) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM meetings WHERE status = $1`, StatusPending).Scan(&n)
	return n, err
}
