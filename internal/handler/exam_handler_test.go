package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/ecampus-api/internal/models"
	appErrors "github.com/noah-isme/ecampus-api/pkg/errors"
)

type examServiceMock struct {
	lastStudentID string
	lastSchedule  models.ExamScheduleInput
	err           error
}

func (m *examServiceMock) CreateSchedule(ctx context.Context, input models.ExamScheduleInput) (*models.ExamSchedule, error) {
	m.lastSchedule = input
	if m.err != nil {
		return nil, m.err
	}
	return &models.ExamSchedule{ID: "e-1", Title: input.Title, File: input.File}, nil
}

func (m *examServiceMock) ListSchedules(ctx context.Context) ([]models.ExamSchedule, error) {
	return []models.ExamSchedule{}, m.err
}

func (m *examServiceMock) CreateResult(ctx context.Context, req models.CreateExamResultRequest) (*models.ExamResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.ExamResult{ID: "r-1", StudentID: req.StudentID, Subject: req.Subject, Marks: *req.Marks, MaxMarks: *req.MaxMarks}, nil
}

func (m *examServiceMock) ListResults(ctx context.Context, actor *models.JWTClaims) ([]models.ExamResult, error) {
	return []models.ExamResult{}, m.err
}

func (m *examServiceMock) ListResultsByStudent(ctx context.Context, actor *models.JWTClaims, studentID string) ([]models.ExamResult, error) {
	m.lastStudentID = studentID
	if m.err != nil {
		return nil, m.err
	}
	return []models.ExamResult{{StudentID: studentID}}, nil
}

func (m *examServiceMock) UpdateResult(ctx context.Context, id string, req models.UpdateExamResultRequest) (*models.ExamResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.ExamResult{ID: id}, nil
}

func (m *examServiceMock) DeleteResult(ctx context.Context, id string) error { return m.err }

func TestExamHandlerCreateScheduleWithFile(t *testing.T) {
	svc := &examServiceMock{}
	store := newMemStore()
	h := NewExamHandler(svc, NewUploader(store, 1024, zap.NewNop()))

	c, w := newMultipartContext(t, http.MethodPost, "/examschedule",
		map[string]string{"title": "Midterm", "date": "2024-06-10"},
		upload{field: "file", filename: "timetable.pdf", content: "pdf"})
	h.CreateSchedule(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.lastSchedule.File)
	assert.Equal(t, "Midterm", svc.lastSchedule.Title)
	assert.Contains(t, store.files, *svc.lastSchedule.File)
}

func TestExamHandlerResultsOfAnotherStudentForbidden(t *testing.T) {
	svc := &examServiceMock{err: appErrors.Clone(appErrors.ErrForbidden, "students may only view their own results")}
	h := NewExamHandler(svc, NewUploader(newMemStore(), 1024, zap.NewNop()))

	c, w := newGinContext(http.MethodGet, "/examresults/other", nil)
	c.Params = gin.Params{{Key: "id", Value: "other"}}
	withClaims(c, "acc-1", models.RoleStudent)
	h.ListResultsByStudent(c)

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "other", svc.lastStudentID)
}

func TestExamHandlerCreateResult(t *testing.T) {
	h := NewExamHandler(&examServiceMock{}, NewUploader(newMemStore(), 1024, zap.NewNop()))

	c, w := newGinContext(http.MethodPost, "/examresults",
		[]byte(`{"student_id":"5f8c7f0e-6c1f-4a52-9d53-0b3c8f3f1a11","subject":"Math","marks":80,"max_marks":100}`))
	h.CreateResult(c)

	require.Equal(t, http.StatusCreated, w.Code)
	var result models.ExamResult
	decodeEnvelope(t, w, &result)
	assert.Equal(t, 80.0, result.Marks)
}

func TestExamHandlerDeleteResultNotFound(t *testing.T) {
	h := NewExamHandler(&examServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "exam result not found")}, NewUploader(newMemStore(), 1024, zap.NewNop()))

	c, w := newGinContext(http.MethodDelete, "/examresults/r-9", nil)
	c.Params = gin.Params{{Key: "id", Value: "r-9"}}
	h.DeleteResult(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
