package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ecampus-api/internal/models"
)

const studentColumns = `id, registration_no, name, photo, created_at, updated_at`

// StudentRepository manages persistence for student profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the filter, each enriched with the mobile
// number of the account linked by registration number.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentSummary, int, error) {
	base := "FROM students s"
	var args []interface{}
	if filter.Search != "" {
		base += fmt.Sprintf(" WHERE (LOWER(s.name) LIKE $%d OR LOWER(s.registration_no) LIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT s.id, s.registration_no, s.name, s.photo, s.created_at, s.updated_at,
        (SELECT a.mobile_number FROM accounts a WHERE a.registration_no = s.registration_no ORDER BY a.created_at LIMIT 1) AS mobile_number
        %s ORDER BY s.name ASC LIMIT %d OFFSET %d`, base, size, offset)

	students := []models.StudentSummary{}
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student profile by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	return r.findOne(ctx, "id", id)
}

// FindByRegistrationNo fetches a student profile by registration number.
func (r *StudentRepository) FindByRegistrationNo(ctx context.Context, registrationNo string) (*models.Student, error) {
	return r.findOne(ctx, "registration_no", registrationNo)
}

func (r *StudentRepository) findOne(ctx context.Context, column, value string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE %s = $1", studentColumns, column)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student by %s: %w", column, err)
	}
	return &student, nil
}

// Create inserts a new student profile. A registration number already in
// use surfaces as ErrDuplicate.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (` + studentColumns + `) VALUES (:id, :registration_no, :name, :photo, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return mapWriteError("create student", err)
	}
	return nil
}

// Update modifies name, registration number and photo of a profile.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET registration_no = :registration_no, name = :name, photo = :photo, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return mapWriteError("update student", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return expectOneRow("update student", affected)
}

// Delete removes a profile together with its subjects, attendance,
// submissions and exam results.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return expectOneRow("delete student", affected)
}
