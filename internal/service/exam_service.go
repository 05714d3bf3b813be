package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/ecampus-api/internal/models"
	"github.com/noah-isme/ecampus-api/internal/repository"
	appErrors "github.com/noah-isme/ecampus-api/pkg/errors"
)

type examRepository interface {
	CreateSchedule(ctx context.Context, schedule *models.ExamSchedule) error
	ListSchedules(ctx context.Context) ([]models.ExamSchedule, error)
	CreateResult(ctx context.Context, result *models.ExamResult) error
	FindResult(ctx context.Context, id string) (*models.ExamResult, error)
	ListResults(ctx context.Context, studentID string) ([]models.ExamResult, error)
	UpdateResult(ctx context.Context, result *models.ExamResult) error
	DeleteResult(ctx context.Context, id string) error
}

// ExamService manages the exam schedule and exam results.
type ExamService struct {
	repo      examRepository
	profiles  profileResolver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExamService constructs an ExamService.
func NewExamService(repo examRepository, profiles profileResolver, validate *validator.Validate, logger *zap.Logger) *ExamService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamService{repo: repo, profiles: profiles, validator: validate, logger: logger}
}

// CreateSchedule announces an exam.
func (s *ExamService) CreateSchedule(ctx context.Context, input models.ExamScheduleInput) (*models.ExamSchedule, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := s.validator.Struct(input); err != nil {
		return nil, invalidPayload(err, "invalid exam schedule payload")
	}
	date, err := parseDate(input.Date, "date")
	if err != nil {
		return nil, err
	}

	schedule := &models.ExamSchedule{Title: input.Title, Description: input.Description, Date: date, File: input.File}
	if err := s.repo.CreateSchedule(ctx, schedule); err != nil {
		return nil, appErrors.Storage(err, "failed to create exam schedule")
	}
	return schedule, nil
}

// ListSchedules returns the exam schedule ordered by date.
func (s *ExamService) ListSchedules(ctx context.Context) ([]models.ExamSchedule, error) {
	schedules, err := s.repo.ListSchedules(ctx)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to list exam schedules")
	}
	return schedules, nil
}

// CreateResult records marks of an existing student.
func (s *ExamService) CreateResult(ctx context.Context, req models.CreateExamResultRequest) (*models.ExamResult, error) {
	req.Subject = strings.TrimSpace(req.Subject)
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid exam result payload")
	}
	if *req.Marks > *req.MaxMarks {
		return nil, appErrors.Clone(appErrors.ErrValidation, "marks cannot exceed max_marks")
	}

	result := &models.ExamResult{
		StudentID: req.StudentID,
		Subject:   req.Subject,
		Marks:     *req.Marks,
		MaxMarks:  *req.MaxMarks,
		Grade:     req.Grade,
	}
	if err := s.repo.CreateResult(ctx, result); err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Storage(err, "failed to create exam result")
	}
	s.logger.Info("exam result recorded", zap.String("result_id", result.ID), zap.String("student_id", result.StudentID))
	return result, nil
}

// ListResults returns every result for teachers and only the caller's own
// results for students.
func (s *ExamService) ListResults(ctx context.Context, actor *models.JWTClaims) ([]models.ExamResult, error) {
	var studentID string
	if actor.Role == models.RoleStudent {
		profile, err := s.profiles.Resolve(ctx, actor.AccountID)
		if err != nil {
			return nil, err
		}
		studentID = profile.ID
	}
	return s.listResults(ctx, studentID)
}

// ListResultsByStudent returns the results of one student. Students may
// only ask for themselves.
func (s *ExamService) ListResultsByStudent(ctx context.Context, actor *models.JWTClaims, studentID string) ([]models.ExamResult, error) {
	if actor.Role == models.RoleStudent {
		profile, err := s.profiles.Resolve(ctx, actor.AccountID)
		if err != nil {
			return nil, err
		}
		if profile.ID != studentID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "students can only view their own results")
		}
	}
	if err := checkID(studentID, "student"); err != nil {
		return nil, err
	}
	return s.listResults(ctx, studentID)
}

func (s *ExamService) listResults(ctx context.Context, studentID string) ([]models.ExamResult, error) {
	results, err := s.repo.ListResults(ctx, studentID)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to list exam results")
	}
	return results, nil
}

// UpdateResult patches the non-nil fields of req onto the result.
func (s *ExamService) UpdateResult(ctx context.Context, id string, req models.UpdateExamResultRequest) (*models.ExamResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid exam result payload")
	}
	result, err := s.findResult(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Subject != nil && strings.TrimSpace(*req.Subject) != "" {
		result.Subject = strings.TrimSpace(*req.Subject)
	}
	if req.Marks != nil {
		result.Marks = *req.Marks
	}
	if req.MaxMarks != nil {
		result.MaxMarks = *req.MaxMarks
	}
	if req.Grade != nil {
		result.Grade = req.Grade
	}
	if result.Marks > result.MaxMarks {
		return nil, appErrors.Clone(appErrors.ErrValidation, "marks cannot exceed max_marks")
	}

	if err := s.repo.UpdateResult(ctx, result); err != nil {
		if errors.Is(err, repository.ErrNoChange) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam result not found")
		}
		return nil, appErrors.Storage(err, "failed to update exam result")
	}
	return result, nil
}

// DeleteResult removes a result.
func (s *ExamService) DeleteResult(ctx context.Context, id string) error {
	if err := checkID(id, "exam result"); err != nil {
		return err
	}
	if err := s.repo.DeleteResult(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNoChange) {
			return appErrors.Clone(appErrors.ErrNotFound, "exam result not found")
		}
		return appErrors.Storage(err, "failed to delete exam result")
	}
	return nil
}

func (s *ExamService) findResult(ctx context.Context, id string) (*models.ExamResult, error) {
	if err := checkID(id, "exam result"); err != nil {
		return nil, err
	}
	result, err := s.repo.FindResult(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam result not found")
		}
		return nil, appErrors.Storage(err, "failed to load exam result")
	}
	return result, nil
}
