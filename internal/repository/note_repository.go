package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ecampus-api/internal/models"
)

// NoteRepository persists study notes.
type NoteRepository struct {
	db *sqlx.DB
}

// NewNoteRepository constructs the repository.
func NewNoteRepository(db *sqlx.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// Create inserts a note.
func (r *NoteRepository) Create(ctx context.Context, note *models.Note) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	note.CreatedAt = now
	note.UpdatedAt = now
	const query = `INSERT INTO notes (id, title, content, subject, file, created_at, updated_at)
        VALUES (:id, :title, :content, :subject, :file, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, note); err != nil {
		return mapWriteError("create note", err)
	}
	return nil
}

// List returns notes, optionally restricted to a subject, newest first.
func (r *NoteRepository) List(ctx context.Context, subject string) ([]models.Note, error) {
	query := `SELECT id, title, content, subject, file, created_at, updated_at FROM notes`
	var args []interface{}
	if subject != "" {
		query += ` WHERE subject = $1`
		args = append(args, subject)
	}
	query += ` ORDER BY created_at DESC`

	notes := []models.Note{}
	if err := r.db.SelectContext(ctx, &notes, query, args...); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}
