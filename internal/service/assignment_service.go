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

type assignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	List(ctx context.Context) ([]models.Assignment, error)
	ListSubmissions(ctx context.Context, studentID string) ([]models.Submission, error)
	FindSubmission(ctx context.Context, assignmentID, studentID string) (*models.Submission, error)
	CreateSubmission(ctx context.Context, submission *models.Submission) error
	GradeSubmission(ctx context.Context, assignmentID, studentID, grade, feedback string) error
}

type profileResolver interface {
	Resolve(ctx context.Context, accountID string) (*models.Student, error)
}

// AssignmentService manages homework and student submissions.
type AssignmentService struct {
	repo      assignmentRepository
	profiles  profileResolver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(repo assignmentRepository, profiles profileResolver, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{repo: repo, profiles: profiles, validator: validate, logger: logger}
}

// Create publishes an assignment.
func (s *AssignmentService) Create(ctx context.Context, input models.AssignmentInput) (*models.Assignment, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := s.validator.Struct(input); err != nil {
		return nil, invalidPayload(err, "invalid assignment payload")
	}
	due, err := parseDate(input.DueDate, "due_date")
	if err != nil {
		return nil, err
	}

	assignment := &models.Assignment{
		Title:       input.Title,
		Description: input.Description,
		DueDate:     due,
		File:        input.File,
		Submissions: []models.Submission{},
	}
	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, appErrors.Storage(err, "failed to create assignment")
	}
	s.logger.Info("assignment created", zap.String("assignment_id", assignment.ID))
	return assignment, nil
}

// List returns assignments with their submissions. Students only see their
// own submission inside each assignment.
func (s *AssignmentService) List(ctx context.Context, actor *models.JWTClaims) ([]models.Assignment, error) {
	assignments, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to list assignments")
	}

	var studentID string
	if actor.Role == models.RoleStudent {
		profile, err := s.profiles.Resolve(ctx, actor.AccountID)
		if err != nil {
			if appErrors.Is(err, appErrors.ErrForbidden) {
				for i := range assignments {
					assignments[i].Submissions = []models.Submission{}
				}
				return assignments, nil
			}
			return nil, err
		}
		studentID = profile.ID
	}

	submissions, err := s.repo.ListSubmissions(ctx, studentID)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to list submissions")
	}
	byAssignment := make(map[string][]models.Submission, len(assignments))
	for _, submission := range submissions {
		byAssignment[submission.AssignmentID] = append(byAssignment[submission.AssignmentID], submission)
	}
	for i := range assignments {
		assignments[i].Submissions = byAssignment[assignments[i].ID]
		if assignments[i].Submissions == nil {
			assignments[i].Submissions = []models.Submission{}
		}
	}
	return assignments, nil
}

// Submit stores the caller's answer to an assignment. Each student may
// submit once.
func (s *AssignmentService) Submit(ctx context.Context, actor *models.JWTClaims, assignmentID, file string) (*models.Submission, error) {
	if file == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "submission file is required")
	}
	if err := checkID(assignmentID, "assignment"); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByID(ctx, assignmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Storage(err, "failed to load assignment")
	}

	profile, err := s.profiles.Resolve(ctx, actor.AccountID)
	if err != nil {
		return nil, err
	}

	submission := &models.Submission{
		AssignmentID:          assignmentID,
		StudentID:             profile.ID,
		StudentName:           profile.Name,
		StudentRegistrationNo: profile.RegistrationNo,
		SubmissionFile:        file,
		Grade:                 models.GradePending,
	}
	if err := s.repo.CreateSubmission(ctx, submission); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, appErrors.Clone(appErrors.ErrConflict, "assignment already submitted")
		case errors.Is(err, repository.ErrMissingReference):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		default:
			return nil, appErrors.Storage(err, "failed to store submission")
		}
	}
	s.logger.Info("assignment submitted", zap.String("assignment_id", assignmentID), zap.String("student_id", profile.ID))
	return submission, nil
}

// Grade sets grade and feedback of an existing submission. Empty fields keep
// their current value.
func (s *AssignmentService) Grade(ctx context.Context, assignmentID, studentID string, req models.GradeRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid grade payload")
	}
	if err := checkID(assignmentID, "submission"); err != nil {
		return nil, err
	}
	if err := checkID(studentID, "submission"); err != nil {
		return nil, err
	}

	submission, err := s.repo.FindSubmission(ctx, assignmentID, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Storage(err, "failed to load submission")
	}
	if grade := strings.TrimSpace(req.Grade); grade != "" {
		submission.Grade = grade
	}
	if req.Feedback != "" {
		submission.Feedback = req.Feedback
	}

	if err := s.repo.GradeSubmission(ctx, assignmentID, studentID, submission.Grade, submission.Feedback); err != nil {
		if errors.Is(err, repository.ErrNoChange) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Storage(err, "failed to grade submission")
	}
	return submission, nil
}
