package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/ecampus-api/internal/models"
	"github.com/noah-isme/ecampus-api/internal/repository"
	appErrors "github.com/noah-isme/ecampus-api/pkg/errors"
)

type fakeExamRepo struct {
	schedules []models.ExamSchedule
	results   map[string]models.ExamResult
	students  map[string]bool
}

func newFakeExamRepo(studentIDs ...string) *fakeExamRepo {
	known := make(map[string]bool, len(studentIDs))
	for _, id := range studentIDs {
		known[id] = true
	}
	return &fakeExamRepo{results: make(map[string]models.ExamResult), students: known}
}

func (f *fakeExamRepo) CreateSchedule(ctx context.Context, schedule *models.ExamSchedule) error {
	schedule.ID = uuid.NewString()
	f.schedules = append(f.schedules, *schedule)
	return nil
}

func (f *fakeExamRepo) ListSchedules(ctx context.Context) ([]models.ExamSchedule, error) {
	return f.schedules, nil
}

func (f *fakeExamRepo) CreateResult(ctx context.Context, result *models.ExamResult) error {
	if !f.students[result.StudentID] {
		return fmt.Errorf("create exam result: %w", repository.ErrMissingReference)
	}
	result.ID = uuid.NewString()
	f.results[result.ID] = *result
	return nil
}

func (f *fakeExamRepo) FindResult(ctx context.Context, id string) (*models.ExamResult, error) {
	result, ok := f.results[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &result, nil
}

func (f *fakeExamRepo) ListResults(ctx context.Context, studentID string) ([]models.ExamResult, error) {
	out := []models.ExamResult{}
	for _, result := range f.results {
		if studentID == "" || result.StudentID == studentID {
			out = append(out, result)
		}
	}
	return out, nil
}

func (f *fakeExamRepo) UpdateResult(ctx context.Context, result *models.ExamResult) error {
	if _, ok := f.results[result.ID]; !ok {
		return fmt.Errorf("update exam result: %w", repository.ErrNoChange)
	}
	f.results[result.ID] = *result
	return nil
}

func (f *fakeExamRepo) DeleteResult(ctx context.Context, id string) error {
	if _, ok := f.results[id]; !ok {
		return fmt.Errorf("delete exam result: %w", repository.ErrNoChange)
	}
	delete(f.results, id)
	return nil
}

func TestExamServiceSchedules(t *testing.T) {
	svc := NewExamService(newFakeExamRepo(), stubProfiles{}, nil, zap.NewNop())

	schedule, err := svc.CreateSchedule(context.Background(), models.ExamScheduleInput{Title: "Finals", Date: "2024-06-10"})
	require.NoError(t, err)
	assert.Equal(t, 10, schedule.Date.Day())

	_, err = svc.CreateSchedule(context.Background(), models.ExamScheduleInput{Title: "Finals"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	schedules, err := svc.ListSchedules(context.Background())
	require.NoError(t, err)
	assert.Len(t, schedules, 1)
}

func TestExamServiceResultsAreScopedForStudents(t *testing.T) {
	jane := &models.Student{ID: uuid.NewString(), Name: "Jane", RegistrationNo: "1"}
	john := &models.Student{ID: uuid.NewString(), Name: "John", RegistrationNo: "2"}
	svc := NewExamService(newFakeExamRepo(jane.ID, john.ID), stubProfiles{"acc-jane": jane}, nil, zap.NewNop())

	for _, id := range []string{jane.ID, john.ID} {
		_, err := svc.CreateResult(context.Background(), models.CreateExamResultRequest{StudentID: id, Subject: "Math", Marks: marks(40), MaxMarks: marks(50)})
		require.NoError(t, err)
	}

	all, err := svc.ListResults(context.Background(), teacher())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := svc.ListResults(context.Background(), student("acc-jane"))
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, jane.ID, own[0].StudentID)

	_, err = svc.ListResultsByStudent(context.Background(), student("acc-jane"), john.ID)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	byStudent, err := svc.ListResultsByStudent(context.Background(), teacher(), john.ID)
	require.NoError(t, err)
	assert.Len(t, byStudent, 1)
}

func TestExamServiceCreateResultRejections(t *testing.T) {
	svc := NewExamService(newFakeExamRepo(), stubProfiles{}, nil, zap.NewNop())

	_, err := svc.CreateResult(context.Background(), models.CreateExamResultRequest{StudentID: uuid.NewString(), Subject: "Math", Marks: marks(40), MaxMarks: marks(50)})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = svc.CreateResult(context.Background(), models.CreateExamResultRequest{StudentID: uuid.NewString(), Subject: "Math", Marks: marks(60), MaxMarks: marks(50)})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestExamServiceUpdateAndDeleteResult(t *testing.T) {
	studentID := uuid.NewString()
	svc := NewExamService(newFakeExamRepo(studentID), stubProfiles{}, nil, zap.NewNop())
	result, err := svc.CreateResult(context.Background(), models.CreateExamResultRequest{StudentID: studentID, Subject: "Math", Marks: marks(40), MaxMarks: marks(50)})
	require.NoError(t, err)

	updated, err := svc.UpdateResult(context.Background(), result.ID, models.UpdateExamResultRequest{Marks: marks(45), Grade: strPtr("A")})
	require.NoError(t, err)
	assert.Equal(t, 45.0, updated.Marks)
	assert.Equal(t, "Math", updated.Subject)

	_, err = svc.UpdateResult(context.Background(), result.ID, models.UpdateExamResultRequest{Marks: marks(99)})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	require.NoError(t, svc.DeleteResult(context.Background(), result.ID))
	err = svc.DeleteResult(context.Background(), result.ID)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
