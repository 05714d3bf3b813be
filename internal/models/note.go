package models

import "time"

// Note is study material shared by teachers.
type Note struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	Subject   string    `db:"subject" json:"subject"`
	File      *string   `db:"file" json:"file,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NoteInput creates a note.
type NoteInput struct {
	Title   string  `form:"title" validate:"required,max=200"`
	Content string  `form:"content" validate:"required"`
	Subject string  `form:"subject" validate:"required,max=80"`
	File    *string `form:"-"`
}
