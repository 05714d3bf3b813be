package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/ecampus-api/internal/models"
	appErrors "github.com/noah-isme/ecampus-api/pkg/errors"
)

type noteRepository interface {
	Create(ctx context.Context, note *models.Note) error
	List(ctx context.Context, subject string) ([]models.Note, error)
}

// NoteService manages study notes.
type NoteService struct {
	repo      noteRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNoteService constructs a NoteService.
func NewNoteService(repo noteRepository, validate *validator.Validate, logger *zap.Logger) *NoteService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoteService{repo: repo, validator: validate, logger: logger}
}

// Create stores a note.
func (s *NoteService) Create(ctx context.Context, input models.NoteInput) (*models.Note, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Subject = strings.TrimSpace(input.Subject)
	if err := s.validator.Struct(input); err != nil {
		return nil, invalidPayload(err, "invalid note payload")
	}
	note := &models.Note{Title: input.Title, Content: input.Content, Subject: input.Subject, File: input.File}
	if err := s.repo.Create(ctx, note); err != nil {
		return nil, appErrors.Storage(err, "failed to create note")
	}
	return note, nil
}

// List returns notes, optionally for one subject.
func (s *NoteService) List(ctx context.Context, subject string) ([]models.Note, error) {
	notes, err := s.repo.List(ctx, strings.TrimSpace(subject))
	if err != nil {
		return nil, appErrors.Storage(err, "failed to list notes")
	}
	return notes, nil
}
