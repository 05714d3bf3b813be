package models

import "time"

// AttendanceStatus enumerates attendance outcomes for a day.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "Present"
	AttendanceAbsent  AttendanceStatus = "Absent"
	AttendanceLeave   AttendanceStatus = "Leave"
)

// Valid reports whether s is a known status.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLeave:
		return true
	}
	return false
}

// Student is the academic profile linked to an account by registration
// number.
type Student struct {
	ID             string    `db:"id" json:"id"`
	RegistrationNo string    `db:"registration_no" json:"registration_no"`
	Name           string    `db:"name" json:"name"`
	Photo          *string   `db:"photo" json:"photo,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// StudentSummary is a list entry enriched with the linked account's mobile
// number.
type StudentSummary struct {
	Student
	MobileNumber *string `db:"mobile_number" json:"mobile_number"`
}

// Subject records marks for one subject of a student.
type Subject struct {
	ID        string  `db:"id" json:"id"`
	StudentID string  `db:"student_id" json:"-"`
	Subject   string  `db:"subject" json:"subject"`
	Marks     float64 `db:"marks" json:"marks"`
}

// AttendanceRecord is one day of attendance.
type AttendanceRecord struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"-"`
	Date      time.Time        `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
}

// StudentDetail contains a student with subjects and attendance.
type StudentDetail struct {
	Student
	Subjects   []Subject          `json:"subjects"`
	Attendance []AttendanceRecord `json:"attendance"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search   string
	Page     int
	PageSize int
}

// StudentInput creates or updates a profile. Photo is set by the handler
// after the upload is stored.
type StudentInput struct {
	Name           string  `form:"name" json:"name" validate:"omitempty,max=120"`
	RegistrationNo string  `form:"registration_no" json:"registration_no" validate:"omitempty,alphanum,max=32"`
	Photo          *string `form:"-" json:"-"`
}

// SubjectRequest adds or updates marks for a subject.
type SubjectRequest struct {
	Subject string   `json:"subject" validate:"required,max=80"`
	Marks   *float64 `json:"marks" validate:"required,gte=0"`
}

// DeleteSubjectRequest names the subject to remove.
type DeleteSubjectRequest struct {
	Subject string `json:"subject" validate:"required"`
}

// AttendanceRequest marks attendance for a single day.
type AttendanceRequest struct {
	Date   string           `json:"date" validate:"required"`
	Status AttendanceStatus `json:"status" validate:"required"`
}

// BulkAttendanceEntry is one row of a bulk attendance update.
type BulkAttendanceEntry struct {
	StudentID string           `json:"student_id" validate:"required,uuid"`
	Date      string           `json:"date" validate:"required"`
	Status    AttendanceStatus `json:"status" validate:"required"`
}

// AttendanceUpsert is the normalised form written by the repository.
type AttendanceUpsert struct {
	StudentID string
	Date      time.Time
	Status    AttendanceStatus
}
