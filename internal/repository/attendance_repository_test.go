package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ecampus-api/internal/models"
)

func TestAttendanceRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (student_id, date)")).
		WithArgs(sqlmock.AnyArg(), "s1", day, models.AttendanceAbsent).
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "date", "status"}).AddRow("a1", "s1", day, "Absent"))

	record, err := repo.Upsert(context.Background(), models.AttendanceUpsert{StudentID: "s1", Date: day, Status: models.AttendanceAbsent})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceAbsent, record.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryBulkUpsertCommits(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	for _, id := range []string{"s1", "s2"} {
		mock.ExpectQuery("INSERT INTO student_attendance").
			WithArgs(sqlmock.AnyArg(), id, day, models.AttendancePresent).
			WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "date", "status"}).AddRow("a-"+id, id, day, "Present"))
	}
	mock.ExpectCommit()

	n, err := repo.BulkUpsert(context.Background(), []models.AttendanceUpsert{
		{StudentID: "s1", Date: day, Status: models.AttendancePresent},
		{StudentID: "s2", Date: day, Status: models.AttendancePresent},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryBulkUpsertRollsBackOnMissingStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO student_attendance").
		WithArgs(sqlmock.AnyArg(), "s1", day, models.AttendancePresent).
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "date", "status"}).AddRow("a1", "s1", day, "Present"))
	mock.ExpectQuery("INSERT INTO student_attendance").
		WithArgs(sqlmock.AnyArg(), "ghost", day, models.AttendancePresent).
		WillReturnError(&pq.Error{Code: pqForeignKeyViolation, Constraint: "student_attendance_student_id_fkey"})
	mock.ExpectRollback()

	n, err := repo.BulkUpsert(context.Background(), []models.AttendanceUpsert{
		{StudentID: "s1", Date: day, Status: models.AttendancePresent},
		{StudentID: "ghost", Date: day, Status: models.AttendancePresent},
	})
	assert.Zero(t, n)
	assert.ErrorIs(t, err, ErrMissingReference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryBulkUpsertEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	n, err := NewAttendanceRepository(db).BulkUpsert(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentSubjectRepositoryAddDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentSubjectRepository(db)

	mock.ExpectExec("INSERT INTO student_subjects").
		WithArgs(sqlmock.AnyArg(), "s1", "Math", 90.0).
		WillReturnError(&pq.Error{Code: pqUniqueViolation, Constraint: "student_subjects_student_id_subject_key"})

	err := repo.Add(context.Background(), &models.Subject{StudentID: "s1", Subject: "Math", Marks: 90})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentSubjectRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentSubjectRepository(db)

	mock.ExpectExec("UPDATE student_subjects SET marks").
		WithArgs("s1", "History", 70.0).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateMarks(context.Background(), "s1", "History", 70)
	assert.True(t, errors.Is(err, ErrNoChange))
	assert.NoError(t, mock.ExpectationsWereMet())
}
