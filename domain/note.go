package domain

import (
	"time"

	"github.com/google/uuid"
)

// Note is a free-form text entry alongside the task list. Notes carry no
// ordering, subtasks, or completion state.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewNote builds a note with a generated id and creation timestamps.
func NewNote(title, content string) Note {
	now := time.Now().UTC()
	return Note{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
