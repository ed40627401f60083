package complaints

import (
	"io"
	"time"
)

// MalpracticeComment is exempt from duplicate suppression: a student may be
// reported for malpractice any number of times.
const MalpracticeComment = "malpractice"

// LogEntry is a faculty-reported incident. Identity fields stay nil until a mentor resolves them.
type LogEntry struct {
	ComplaintID int64     `json:"complaint_id"`
	StudentID   *string   `json:"S_ID"`
	StudentName *string   `json:"student_name"`
	FacultyName string    `json:"faculty_name"`
	TimeDate    time.Time `json:"time_date"`
	Comment     string    `json:"comment"`
	Venue       string    `json:"venue"`
	Photo       *string   `json:"photo"`
	Status      *string   `json:"status"`
}

// NewLogEntry is the raw intake payload.
type NewLogEntry struct {
	StudentID   string `json:"S_ID"`
	StudentName string `json:"student_name"`
	FacultyName string `json:"faculty_name"`
	TimeDate    string `json:"time_date"`
	Comment     string `json:"comment"`
	Venue       string `json:"venue"`
	Photo       string `json:"photo"`
}

// Reason is an escalation record copied from a LogEntry.
type Reason struct {
	ID          int64   `json:"id"`
	ComplaintID int64   `json:"complaint_id"`
	Reason      string  `json:"REASON"`
	StudentName *string `json:"S_name"`
	RollNo      *string `json:"Roll_no"`
	Issue       *string `json:"issue"`
	Status      *string `json:"STATUS_"`

	// Display fields joined from the log entry.
	Comment  *string    `json:"comment,omitempty"`
	Venue    *string    `json:"venue,omitempty"`
	TimeDate *time.Time `json:"time_date,omitempty"`
}

// StatusUpdate reports the outcome of a dual-table status change.
type StatusUpdate struct {
	ComplaintID    int64  `json:"complaint_id"`
	Status         string `json:"status"`
	ReasonsUpdated int64  `json:"reasons_updated"`
}

// MentorItem is an unidentified complaint waiting for mentor review.
type MentorItem struct {
	ID          int64   `json:"id"`
	ComplaintID int64   `json:"complaint_id"`
	VideoPath   string  `json:"video_path"`
	Description *string `json:"description"`
	VideoURL    *string `json:"video_url,omitempty"`
}

// ForwardRequest carries an attachment from support to the mentor queue.
type ForwardRequest struct {
	ComplaintID int64
	Filename    string
	Body        io.Reader
	Description string
}

// Detail is a LogEntry with its escalation history.
type Detail struct {
	LogEntry
	Reasons []Reason `json:"reasons"`
}

// StudentComplaint is a LogEntry annotated with the time left in its response window.
type StudentComplaint struct {
	LogEntry
	RemainingSeconds int64  `json:"remaining_seconds"`
	RemainingTime    string `json:"remaining_time"`
	Expired          bool   `json:"expired"`
}
