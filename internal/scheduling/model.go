package scheduling

// Date and time layouts. Stored values use the canonical ones.
const (
	dateLayout    = "2006-01-02"
	altDateLayout = "02-01-2006"
	timeLayout    = "15:04"

	displayDate = "02 Jan 2006"
	displayTime = "03:04 PM"
)

// StatusPending is the status of a newly scheduled meeting.
const StatusPending = "pending"

// AdminRecord is an append-only decision forwarded to administration.
type AdminRecord struct {
	ID          int64  `json:"id"`
	StudentName string `json:"student_name"`
	StudentID   string `json:"S_ID"`
	Date        string `json:"Date_"`
	Time        string `json:"Time_"`
	Venue       string `json:"Venue"`
	Comment     string `json:"Comment"`
	Faculty     string `json:"faculty"`
}

// Meeting is a scheduled student meeting. Attendance is tracked in Status.
type Meeting struct {
	No        int64  `json:"No_"`
	StudentID string `json:"S_ID"`
	Venue     string `json:"VENUE"`
	Date      string `json:"DATE_"`
	Time      string `json:"TIME_"`
	Info      string `json:"INFO"`
	Status    string `json:"STATUS_"`
}

// NewMeeting is the raw scheduling payload.
type NewMeeting struct {
	StudentID string `json:"S_ID"`
	Venue     string `json:"VENUE"`
	Date      string `json:"DATE_"`
	Time      string `json:"TIME_"`
	Info      string `json:"INFO"`
}

// AttendanceUpdate sets the status of every meeting matching student, venue and date.
type AttendanceUpdate struct {
	StudentID string `json:"S_ID"`
	Venue     string `json:"VENUE"`
	Date      string `json:"DATE_"`
	Status    string `json:"STATUS_"`
}
