package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/ecampus-api/internal/models"
	"github.com/noah-isme/ecampus-api/internal/repository"
	appErrors "github.com/noah-isme/ecampus-api/pkg/errors"
)

const studentCachePrefix = "students:list"

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentSummary, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

type studentSubjectRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Subject, error)
	Add(ctx context.Context, subject *models.Subject) error
	UpdateMarks(ctx context.Context, studentID, subject string, marks float64) error
	Delete(ctx context.Context, studentID, subject string) error
}

type attendanceRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.AttendanceRecord, error)
	Upsert(ctx context.Context, entry models.AttendanceUpsert) (*models.AttendanceRecord, error)
	BulkUpsert(ctx context.Context, entries []models.AttendanceUpsert) (int, error)
}

// fileRemover deletes previously stored uploads.
type fileRemover interface {
	Delete(publicPath string) error
}

type studentPage struct {
	Items []models.StudentSummary `json:"items"`
	Total int                     `json:"total"`
}

// StudentService handles student profile use-cases.
type StudentService struct {
	repo       studentRepository
	subjects   studentSubjectRepository
	attendance attendanceRepository
	files      fileRemover
	cache      *CacheService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewStudentService constructs the student service. files and cache are
// optional.
func NewStudentService(repo studentRepository, subjects studentSubjectRepository, attendance attendanceRepository, files fileRemover, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		repo:       repo,
		subjects:   subjects,
		attendance: attendance,
		files:      files,
		cache:      cache,
		validator:  validate,
		logger:     logger,
	}
}

// List returns students and pagination metadata. The boolean reports a
// cache hit.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentSummary, *models.Pagination, bool, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 50
	}

	key := makeCacheKey(studentCachePrefix, strconv.Itoa(filter.Page), strconv.Itoa(filter.PageSize), strings.ToLower(filter.Search))
	var cached studentPage
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached.Items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: cached.Total}, true, nil
	}

	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, false, appErrors.Storage(err, "failed to list students")
	}
	if err := s.cache.Set(ctx, key, studentPage{Items: students, Total: total}, 0); err != nil {
		s.logger.Warn("cache students", zap.Error(err))
	}
	return students, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, false, nil
}

// Get returns a student with subjects and attendance.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	subjects, err := s.subjects.ListByStudent(ctx, id)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load subjects")
	}
	attendance, err := s.attendance.ListByStudent(ctx, id)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load attendance")
	}
	return &models.StudentDetail{Student: *student, Subjects: subjects, Attendance: attendance}, nil
}

// Create adds a student profile. Name and registration number are required.
func (s *StudentService) Create(ctx context.Context, input models.StudentInput) (*models.Student, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.RegistrationNo = strings.TrimSpace(input.RegistrationNo)
	if err := s.validator.Struct(input); err != nil {
		return nil, invalidPayload(err, "invalid student payload")
	}
	if input.Name == "" || input.RegistrationNo == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name and registration_no are required")
	}

	student := &models.Student{Name: input.Name, RegistrationNo: input.RegistrationNo, Photo: input.Photo}
	if err := s.repo.Create(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student with this registration number already exists")
		}
		return nil, appErrors.Storage(err, "failed to create student")
	}
	s.invalidate(ctx)
	s.logger.Info("student created", zap.String("student_id", student.ID))
	return student, nil
}

// Update patches the non-empty fields of input onto the profile. A new photo
// replaces the stored one.
func (s *StudentService) Update(ctx context.Context, id string, input models.StudentInput) (*models.Student, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.RegistrationNo = strings.TrimSpace(input.RegistrationNo)
	if err := s.validator.Struct(input); err != nil {
		return nil, invalidPayload(err, "invalid student payload")
	}

	student, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	previousPhoto := student.Photo
	if input.Name != "" {
		student.Name = input.Name
	}
	if input.RegistrationNo != "" {
		student.RegistrationNo = input.RegistrationNo
	}
	if input.Photo != nil {
		student.Photo = input.Photo
	}

	if err := s.repo.Update(ctx, student); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, appErrors.Clone(appErrors.ErrConflict, "student with this registration number already exists")
		case errors.Is(err, repository.ErrNoChange):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		default:
			return nil, appErrors.Storage(err, "failed to update student")
		}
	}
	if input.Photo != nil && previousPhoto != nil && *previousPhoto != *input.Photo {
		s.removeFile(*previousPhoto)
	}
	s.invalidate(ctx)
	return student, nil
}

// Delete removes a student and everything recorded for them.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	student, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNoChange) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Storage(err, "failed to delete student")
	}
	if student.Photo != nil {
		s.removeFile(*student.Photo)
	}
	s.invalidate(ctx)
	s.logger.Info("student deleted", zap.String("student_id", id))
	return nil
}

// AddSubject records marks for a subject the student does not have yet.
func (s *StudentService) AddSubject(ctx context.Context, studentID string, req models.SubjectRequest) (*models.Subject, error) {
	req.Subject = strings.TrimSpace(req.Subject)
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid subject payload")
	}
	if _, err := s.find(ctx, studentID); err != nil {
		return nil, err
	}

	subject := &models.Subject{StudentID: studentID, Subject: req.Subject, Marks: *req.Marks}
	if err := s.subjects.Add(ctx, subject); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, appErrors.Clone(appErrors.ErrConflict, "subject already exists for this student")
		case errors.Is(err, repository.ErrMissingReference):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		default:
			return nil, appErrors.Storage(err, "failed to add subject")
		}
	}
	return subject, nil
}

// UpdateSubject changes the marks of an existing subject.
func (s *StudentService) UpdateSubject(ctx context.Context, studentID string, req models.SubjectRequest) error {
	req.Subject = strings.TrimSpace(req.Subject)
	if err := s.validator.Struct(req); err != nil {
		return invalidPayload(err, "invalid subject payload")
	}
	if err := checkID(studentID, "student"); err != nil {
		return err
	}
	if err := s.subjects.UpdateMarks(ctx, studentID, req.Subject, *req.Marks); err != nil {
		if errors.Is(err, repository.ErrNoChange) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Storage(err, "failed to update subject")
	}
	return nil
}

// DeleteSubject removes a subject from the student.
func (s *StudentService) DeleteSubject(ctx context.Context, studentID string, req models.DeleteSubjectRequest) error {
	req.Subject = strings.TrimSpace(req.Subject)
	if err := s.validator.Struct(req); err != nil {
		return invalidPayload(err, "invalid subject payload")
	}
	if err := checkID(studentID, "student"); err != nil {
		return err
	}
	if err := s.subjects.Delete(ctx, studentID, req.Subject); err != nil {
		if errors.Is(err, repository.ErrNoChange) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Storage(err, "failed to delete subject")
	}
	return nil
}

// MarkAttendance records the status of a single day, replacing an earlier
// entry for the same date.
func (s *StudentService) MarkAttendance(ctx context.Context, studentID string, req models.AttendanceRequest) (*models.AttendanceRecord, error) {
	entry, err := s.attendanceEntry(studentID, req.Date, req.Status)
	if err != nil {
		return nil, err
	}
	record, err := s.attendance.Upsert(ctx, entry)
	if err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Storage(err, "failed to record attendance")
	}
	return record, nil
}

// BulkAttendance applies all entries atomically. One unknown student fails
// the whole batch.
func (s *StudentService) BulkAttendance(ctx context.Context, entries []models.BulkAttendanceEntry) (int, error) {
	if len(entries) == 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "attendance updates must not be empty")
	}
	upserts := make([]models.AttendanceUpsert, 0, len(entries))
	for i, entry := range entries {
		if err := s.validator.Struct(entry); err != nil {
			return 0, invalidPayload(err, "invalid attendance entry at index "+strconv.Itoa(i))
		}
		upsert, err := s.attendanceEntry(entry.StudentID, entry.Date, entry.Status)
		if err != nil {
			return 0, err
		}
		upserts = append(upserts, upsert)
	}

	updated, err := s.attendance.BulkUpsert(ctx, upserts)
	if err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "attendance references an unknown student")
		}
		return 0, appErrors.Storage(err, "failed to update attendance")
	}
	s.logger.Info("bulk attendance applied", zap.Int("entries", updated))
	return updated, nil
}

func (s *StudentService) attendanceEntry(studentID, date string, status models.AttendanceStatus) (models.AttendanceUpsert, error) {
	if err := checkID(studentID, "student"); err != nil {
		return models.AttendanceUpsert{}, err
	}
	if !status.Valid() {
		return models.AttendanceUpsert{}, appErrors.Clone(appErrors.ErrValidation, "status must be Present, Absent or Leave")
	}
	day, err := parseDate(date, "date")
	if err != nil {
		return models.AttendanceUpsert{}, err
	}
	return models.AttendanceUpsert{StudentID: studentID, Date: day, Status: status}, nil
}

func (s *StudentService) find(ctx context.Context, id string) (*models.Student, error) {
	if err := checkID(id, "student"); err != nil {
		return nil, err
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Storage(err, "failed to load student")
	}
	return student, nil
}

func (s *StudentService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, studentCachePrefix+"*"); err != nil {
		s.logger.Warn("invalidate student cache", zap.Error(err))
	}
}

func (s *StudentService) removeFile(publicPath string) {
	if s.files == nil {
		return
	}
	if err := s.files.Delete(publicPath); err != nil {
		s.logger.Warn("remove stored file", zap.String("path", publicPath), zap.Error(err))
	}
}
