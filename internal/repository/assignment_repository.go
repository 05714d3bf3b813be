package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ecampus-api/internal/models"
)

const submissionSelect = `SELECT sub.id, sub.assignment_id, sub.student_id, s.name AS student_name, s.registration_no AS student_registration_no,
        sub.submission_file, sub.submission_date, sub.grade, sub.feedback
        FROM assignment_submissions sub
        JOIN students s ON s.id = sub.student_id`

// AssignmentRepository persists assignments and their submissions.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Create inserts a new assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	const query = `INSERT INTO assignments (id, title, description, due_date, file, created_at, updated_at)
        VALUES (:id, :title, :description, :due_date, :file, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return mapWriteError("create assignment", err)
	}
	return nil
}

// FindByID returns an assignment without submissions.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	const query = `SELECT id, title, description, due_date, file, created_at, updated_at FROM assignments WHERE id = $1`
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find assignment: %w", err)
	}
	return &assignment, nil
}

// List returns all assignments ordered by due date.
func (r *AssignmentRepository) List(ctx context.Context) ([]models.Assignment, error) {
	const query = `SELECT id, title, description, due_date, file, created_at, updated_at FROM assignments ORDER BY due_date ASC`
	assignments := []models.Assignment{}
	if err := r.db.SelectContext(ctx, &assignments, query); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// ListSubmissions returns submissions across assignments. A non-empty
// studentID restricts the result to that student.
func (r *AssignmentRepository) ListSubmissions(ctx context.Context, studentID string) ([]models.Submission, error) {
	query := submissionSelect
	var args []interface{}
	if studentID != "" {
		query += " WHERE sub.student_id = $1"
		args = append(args, studentID)
	}
	query += " ORDER BY sub.submission_date ASC"

	submissions := []models.Submission{}
	if err := r.db.SelectContext(ctx, &submissions, query, args...); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return submissions, nil
}

// FindSubmission returns the submission of a student for an assignment.
func (r *AssignmentRepository) FindSubmission(ctx context.Context, assignmentID, studentID string) (*models.Submission, error) {
	query := submissionSelect + " WHERE sub.assignment_id = $1 AND sub.student_id = $2"
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, assignmentID, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find submission: %w", err)
	}
	return &submission, nil
}

// CreateSubmission stores a submission. A second submission by the same
// student surfaces as ErrDuplicate.
func (r *AssignmentRepository) CreateSubmission(ctx context.Context, submission *models.Submission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	if submission.SubmissionDate.IsZero() {
		submission.SubmissionDate = time.Now().UTC()
	}
	if submission.Grade == "" {
		submission.Grade = models.GradePending
	}
	const query = `INSERT INTO assignment_submissions (id, assignment_id, student_id, submission_file, submission_date, grade, feedback)
        VALUES (:id, :assignment_id, :student_id, :submission_file, :submission_date, :grade, :feedback)`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		return mapWriteError("create submission", err)
	}
	return nil
}

// GradeSubmission stores grade and feedback of an existing submission.
func (r *AssignmentRepository) GradeSubmission(ctx context.Context, assignmentID, studentID, grade, feedback string) error {
	const query = `UPDATE assignment_submissions SET grade = $3, feedback = $4 WHERE assignment_id = $1 AND student_id = $2`
	res, err := r.db.ExecContext(ctx, query, assignmentID, studentID, grade, feedback)
	if err != nil {
		return fmt.Errorf("grade submission: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("grade submission: %w", err)
	}
	return expectOneRow("grade submission", affected)
}
