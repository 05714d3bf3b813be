package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/ecampus-api/internal/models"
	appErrors "github.com/noah-isme/ecampus-api/pkg/errors"
)

type stubResultSource struct {
	results []models.ExamResult
}

func (s stubResultSource) ListResults(ctx context.Context, studentID string) ([]models.ExamResult, error) {
	return s.results, nil
}

func TestReportServiceExamReport(t *testing.T) {
	students := newFakeStudentRepo()
	student := &models.Student{Name: "Jane Doe", RegistrationNo: "42"}
	require.NoError(t, students.Create(context.Background(), student))
	results := stubResultSource{results: []models.ExamResult{
		{StudentID: student.ID, Subject: "Math", Marks: 45, MaxMarks: 50, Grade: strPtr("A")},
	}}
	svc := NewReportService(students, results, newFakeAttendanceRepo(nil), zap.NewNop())

	file, err := svc.ExamReport(context.Background(), student.ID)
	require.NoError(t, err)
	assert.Equal(t, "exam-report-42.pdf", file.Filename)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Content, []byte("%PDF-")))
}

func TestReportServiceAttendanceExport(t *testing.T) {
	students := newFakeStudentRepo()
	student := &models.Student{Name: "Jane Doe", RegistrationNo: "42"}
	require.NoError(t, students.Create(context.Background(), student))
	attendance := newFakeAttendanceRepo(nil)
	_, err := attendance.Upsert(context.Background(), models.AttendanceUpsert{
		StudentID: student.ID, Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Status: models.AttendancePresent,
	})
	require.NoError(t, err)
	svc := NewReportService(students, stubResultSource{}, attendance, zap.NewNop())

	file, err := svc.AttendanceExport(context.Background(), student.ID)
	require.NoError(t, err)
	assert.Equal(t, "Date,Status\n2024-03-01,Present\n", string(file.Content))
	assert.Equal(t, "attendance-42.csv", file.Filename)
}

func TestReportServiceUnknownStudent(t *testing.T) {
	svc := NewReportService(newFakeStudentRepo(), stubResultSource{}, newFakeAttendanceRepo(nil), zap.NewNop())

	_, err := svc.ExamReport(context.Background(), uuid.NewString())
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	_, err = svc.AttendanceExport(context.Background(), "bogus")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
