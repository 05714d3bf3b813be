package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ecampus-api/internal/models"
)

const upsertAttendanceQuery = `INSERT INTO student_attendance (id, student_id, date, status)
VALUES ($1, $2, $3, $4)
ON CONFLICT (student_id, date)
DO UPDATE SET status = EXCLUDED.status
RETURNING id, student_id, date, status`

// AttendanceRepository handles persistence for daily attendance of students.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListByStudent returns attendance of a student, most recent first.
func (r *AttendanceRepository) ListByStudent(ctx context.Context, studentID string) ([]models.AttendanceRecord, error) {
	const query = `SELECT id, student_id, date, status FROM student_attendance WHERE student_id = $1 ORDER BY date DESC`
	records := []models.AttendanceRecord{}
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// Upsert records the status for a day, replacing an existing entry for the
// same date.
func (r *AttendanceRepository) Upsert(ctx context.Context, entry models.AttendanceUpsert) (*models.AttendanceRecord, error) {
	var stored models.AttendanceRecord
	if err := r.db.GetContext(ctx, &stored, upsertAttendanceQuery, uuid.NewString(), entry.StudentID, entry.Date, entry.Status); err != nil {
		return nil, mapWriteError("upsert attendance", err)
	}
	return &stored, nil
}

// BulkUpsert applies every entry in a single transaction. An entry that
// references a missing student aborts the whole batch with
// ErrMissingReference.
func (r *AttendanceRepository) BulkUpsert(ctx context.Context, entries []models.AttendanceUpsert) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin bulk attendance: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback() //nolint:errcheck
		}
	}()

	for _, entry := range entries {
		var stored models.AttendanceRecord
		if err := tx.GetContext(ctx, &stored, upsertAttendanceQuery, uuid.NewString(), entry.StudentID, entry.Date, entry.Status); err != nil {
			return 0, mapWriteError("bulk upsert attendance", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit bulk attendance: %w", err)
	}
	commit = true
	return len(entries), nil
}
