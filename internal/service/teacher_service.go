package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/ecampus-api/internal/models"
	appErrors "github.com/noah-isme/ecampus-api/pkg/errors"
)

const teacherCacheKey = "teachers:list"

type teacherDirectory interface {
	ListTeachers(ctx context.Context) ([]models.TeacherContact, error)
}

// TeacherService exposes the teacher directory.
type TeacherService struct {
	repo   teacherDirectory
	cache  *CacheService
	logger *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherDirectory, cache *CacheService, logger *zap.Logger) *TeacherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, cache: cache, logger: logger}
}

// List returns all teachers ordered by name. The boolean reports a cache hit.
func (s *TeacherService) List(ctx context.Context) ([]models.TeacherContact, bool, error) {
	var cached []models.TeacherContact
	if hit, err := s.cache.Get(ctx, teacherCacheKey, &cached); err == nil && hit {
		return cached, true, nil
	}

	teachers, err := s.repo.ListTeachers(ctx)
	if err != nil {
		return nil, false, appErrors.Storage(err, "failed to list teachers")
	}
	if err := s.cache.Set(ctx, teacherCacheKey, teachers, 0); err != nil {
		s.logger.Warn("cache teachers", zap.Error(err))
	}
	return teachers, false, nil
}

// Invalidate drops the cached directory after a teacher registers.
func (s *TeacherService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, teacherCacheKey); err != nil {
		s.logger.Warn("invalidate teacher cache", zap.Error(err))
	}
}
