package models

import "time"

// ExamSchedule announces an upcoming exam.
type ExamSchedule struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Date        time.Time `db:"date" json:"date"`
	File        *string   `db:"file" json:"file,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ExamScheduleInput creates an exam schedule entry.
type ExamScheduleInput struct {
	Title       string  `form:"title" validate:"required,max=200"`
	Description string  `form:"description"`
	Date        string  `form:"date" validate:"required"`
	File        *string `form:"-"`
}

// ExamResult stores marks of a student for one subject.
type ExamResult struct {
	ID                    string    `db:"id" json:"id"`
	StudentID             string    `db:"student_id" json:"student_id"`
	StudentName           string    `db:"student_name" json:"student_name"`
	StudentRegistrationNo string    `db:"student_registration_no" json:"student_registration_no"`
	Subject               string    `db:"subject" json:"subject"`
	Marks                 float64   `db:"marks" json:"marks"`
	MaxMarks              float64   `db:"max_marks" json:"max_marks"`
	Grade                 *string   `db:"grade" json:"grade,omitempty"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}

// CreateExamResultRequest records a new result.
type CreateExamResultRequest struct {
	StudentID string   `json:"student_id" validate:"required,uuid"`
	Subject   string   `json:"subject" validate:"required,max=80"`
	Marks     *float64 `json:"marks" validate:"required,gte=0"`
	MaxMarks  *float64 `json:"max_marks" validate:"required,gt=0"`
	Grade     *string  `json:"grade" validate:"omitempty,max=16"`
}

// UpdateExamResultRequest patches a result; nil fields are kept.
type UpdateExamResultRequest struct {
	Subject  *string  `json:"subject" validate:"omitempty,max=80"`
	Marks    *float64 `json:"marks" validate:"omitempty,gte=0"`
	MaxMarks *float64 `json:"max_marks" validate:"omitempty,gt=0"`
	Grade    *string  `json:"grade" validate:"omitempty,max=16"`
}
