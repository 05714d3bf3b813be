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

const examResultSelect = `SELECT r.id, r.student_id, s.name AS student_name, s.registration_no AS student_registration_no,
        r.subject, r.marks, r.max_marks, r.grade, r.created_at, r.updated_at
        FROM exam_results r
        JOIN students s ON s.id = r.student_id`

// ExamRepository persists exam schedules and exam results.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs the repository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

// CreateSchedule inserts an exam schedule entry.
func (r *ExamRepository) CreateSchedule(ctx context.Context, schedule *models.ExamSchedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now
	const query = `INSERT INTO exam_schedules (id, title, description, date, file, created_at, updated_at)
        VALUES (:id, :title, :description, :date, :file, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return mapWriteError("create exam schedule", err)
	}
	return nil
}

// ListSchedules returns exam schedules ordered by date.
func (r *ExamRepository) ListSchedules(ctx context.Context) ([]models.ExamSchedule, error) {
	const query = `SELECT id, title, description, date, file, created_at, updated_at FROM exam_schedules ORDER BY date ASC`
	schedules := []models.ExamSchedule{}
	if err := r.db.SelectContext(ctx, &schedules, query); err != nil {
		return nil, fmt.Errorf("list exam schedules: %w", err)
	}
	return schedules, nil
}

// CreateResult inserts an exam result. A missing student surfaces as
// ErrMissingReference.
func (r *ExamRepository) CreateResult(ctx context.Context, result *models.ExamResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	result.CreatedAt = now
	result.UpdatedAt = now
	const query = `INSERT INTO exam_results (id, student_id, subject, marks, max_marks, grade, created_at, updated_at)
        VALUES (:id, :student_id, :subject, :marks, :max_marks, :grade, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return mapWriteError("create exam result", err)
	}
	return nil
}

// FindResult returns a single exam result.
func (r *ExamRepository) FindResult(ctx context.Context, id string) (*models.ExamResult, error) {
	var result models.ExamResult
	if err := r.db.GetContext(ctx, &result, examResultSelect+" WHERE r.id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find exam result: %w", err)
	}
	return &result, nil
}

// ListResults returns exam results. A non-empty studentID restricts the
// result to that student.
func (r *ExamRepository) ListResults(ctx context.Context, studentID string) ([]models.ExamResult, error) {
	query := examResultSelect
	var args []interface{}
	if studentID != "" {
		query += " WHERE r.student_id = $1"
		args = append(args, studentID)
	}
	query += " ORDER BY r.created_at DESC"

	results := []models.ExamResult{}
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, fmt.Errorf("list exam results: %w", err)
	}
	return results, nil
}

// UpdateResult stores subject, marks and grade of an exam result.
func (r *ExamRepository) UpdateResult(ctx context.Context, result *models.ExamResult) error {
	result.UpdatedAt = time.Now().UTC()
	const query = `UPDATE exam_results SET subject = :subject, marks = :marks, max_marks = :max_marks, grade = :grade, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, result)
	if err != nil {
		return fmt.Errorf("update exam result: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update exam result: %w", err)
	}
	return expectOneRow("update exam result", affected)
}

// DeleteResult removes an exam result.
func (r *ExamRepository) DeleteResult(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM exam_results WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete exam result: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete exam result: %w", err)
	}
	return expectOneRow("delete exam result", affected)
}
