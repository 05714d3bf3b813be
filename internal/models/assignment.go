package models

import "time"

// GradePending is the grade of a submission that has not been graded yet.
const GradePending = "Pending"

// Assignment is homework published by a teacher.
type Assignment struct {
	ID          string       `db:"id" json:"id"`
	Title       string       `db:"title" json:"title"`
	Description string       `db:"description" json:"description"`
	DueDate     time.Time    `db:"due_date" json:"due_date"`
	File        *string      `db:"file" json:"file,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
	Submissions []Submission `db:"-" json:"submissions"`
}

// Submission is a student's answer to an assignment.
type Submission struct {
	ID                    string    `db:"id" json:"id"`
	AssignmentID          string    `db:"assignment_id" json:"assignment_id"`
	StudentID             string    `db:"student_id" json:"student_id"`
	StudentName           string    `db:"student_name" json:"student_name"`
	StudentRegistrationNo string    `db:"student_registration_no" json:"student_registration_no"`
	SubmissionFile        string    `db:"submission_file" json:"submission_file"`
	SubmissionDate        time.Time `db:"submission_date" json:"submission_date"`
	Grade                 string    `db:"grade" json:"grade"`
	Feedback              string    `db:"feedback" json:"feedback"`
}

// AssignmentInput creates an assignment. File is set by the handler.
type AssignmentInput struct {
	Title       string  `form:"title" validate:"required,max=200"`
	Description string  `form:"description" validate:"required"`
	DueDate     string  `form:"due_date" validate:"required"`
	File        *string `form:"-"`
}

// GradeRequest grades a submission. Empty fields keep the current value.
type GradeRequest struct {
	Grade    string `json:"grade" validate:"omitempty,max=16"`
	Feedback string `json:"feedback" validate:"omitempty,max=2000"`
}
