package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ecampus-api/internal/models"
)

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "registration_no", "name", "photo", "created_at", "updated_at", "mobile_number"}).
		AddRow("s1", "42", "Jane Doe", nil, now, now, "0800").
		AddRow("s2", "43", "John Roe", "/uploads/1-john.png", now, now, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM students s WHERE (LOWER(s.name) LIKE $1 OR LOWER(s.registration_no) LIKE $1) ORDER BY s.name ASC LIMIT 50 OFFSET 0")).
		WithArgs("%jo%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students s WHERE")).
		WithArgs("%jo%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	students, total, err := repo.List(context.Background(), models.StudentFilter{Search: "Jo"})
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, 2, total)
	assert.Equal(t, "0800", *students[0].MobileNumber)
	assert.Nil(t, students[1].MobileNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreateDuplicateRegistration(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WithArgs(sqlmock.AnyArg(), "42", "Jane Doe", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: pqUniqueViolation, Constraint: "students_registration_no_key"})

	err := repo.Create(context.Background(), &models.Student{RegistrationNo: "42", Name: "Jane Doe"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "missing"), ErrNoChange)
}

func TestAttendanceRepositoryBulkUpsertRollsBackWhenFirstRowFails(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO student_attendance").
		WillReturnError(&pq.Error{Code: pqForeignKeyViolation, Constraint: "student_attendance_student_id_fkey"})
	mock.ExpectRollback()

	_, err := repo.BulkUpsert(context.Background(), []models.AttendanceUpsert{
		{StudentID: "ghost", Date: day, Status: models.AttendanceAbsent},
		{StudentID: "s2", Date: day, Status: models.AttendancePresent},
	})
	assert.ErrorIs(t, err, ErrMissingReference)
	assert.NoError(t, mock.ExpectationsWereMet())
}
