package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/ecampus-api/internal/models"
	appErrors "github.com/noah-isme/ecampus-api/pkg/errors"
)

type fakeNoteRepo struct {
	notes []models.Note
	err   error
}

func (f *fakeNoteRepo) Create(ctx context.Context, note *models.Note) error {
	if f.err != nil {
		return f.err
	}
	f.notes = append(f.notes, *note)
	return nil
}

func (f *fakeNoteRepo) List(ctx context.Context, subject string) ([]models.Note, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []models.Note{}
	for _, note := range f.notes {
		if subject == "" || note.Subject == subject {
			out = append(out, note)
		}
	}
	return out, nil
}

func TestNoteServiceCreateAndFilter(t *testing.T) {
	svc := NewNoteService(&fakeNoteRepo{}, nil, zap.NewNop())
	_, err := svc.Create(context.Background(), models.NoteInput{Title: "Fractions", Content: "...", Subject: "Math", File: strPtr("/uploads/f.pdf")})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), models.NoteInput{Title: "Cells", Content: "...", Subject: "Biology"})
	require.NoError(t, err)

	math, err := svc.List(context.Background(), " Math ")
	require.NoError(t, err)
	require.Len(t, math, 1)
	assert.Equal(t, "Fractions", math[0].Title)

	all, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestNoteServiceErrors(t *testing.T) {
	svc := NewNoteService(&fakeNoteRepo{err: errors.New("db down")}, nil, zap.NewNop())
	_, err := svc.Create(context.Background(), models.NoteInput{Title: "x"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.List(context.Background(), "")
	assert.True(t, appErrors.Is(err, appErrors.ErrStorage))
}
