package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ecampus-api/internal/models"
)

// StudentSubjectRepository persists per-subject marks of students.
type StudentSubjectRepository struct {
	db *sqlx.DB
}

// NewStudentSubjectRepository constructs the repository.
func NewStudentSubjectRepository(db *sqlx.DB) *StudentSubjectRepository {
	return &StudentSubjectRepository{db: db}
}

// ListByStudent returns the subjects of a student ordered by name.
func (r *StudentSubjectRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Subject, error) {
	const query = `SELECT id, student_id, subject, marks FROM student_subjects WHERE student_id = $1 ORDER BY subject ASC`
	subjects := []models.Subject{}
	if err := r.db.SelectContext(ctx, &subjects, query, studentID); err != nil {
		return nil, fmt.Errorf("list student subjects: %w", err)
	}
	return subjects, nil
}

// Add records a new subject. A subject already present for the student
// surfaces as ErrDuplicate.
func (r *StudentSubjectRepository) Add(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	const query = `INSERT INTO student_subjects (id, student_id, subject, marks) VALUES (:id, :student_id, :subject, :marks)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return mapWriteError("add student subject", err)
	}
	return nil
}

// UpdateMarks changes the marks of an existing subject.
func (r *StudentSubjectRepository) UpdateMarks(ctx context.Context, studentID, subject string, marks float64) error {
	const query = `UPDATE student_subjects SET marks = $3 WHERE student_id = $1 AND subject = $2`
	res, err := r.db.ExecContext(ctx, query, studentID, subject, marks)
	if err != nil {
		return fmt.Errorf("update student subject: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update student subject: %w", err)
	}
	return expectOneRow("update student subject", affected)
}

// Delete removes a subject from a student.
func (r *StudentSubjectRepository) Delete(ctx context.Context, studentID, subject string) error {
	const query = `DELETE FROM student_subjects WHERE student_id = $1 AND subject = $2`
	res, err := r.db.ExecContext(ctx, query, studentID, subject)
	if err != nil {
		return fmt.Errorf("delete student subject: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete student subject: %w", err)
	}
	return expectOneRow("delete student subject", affected)
}
