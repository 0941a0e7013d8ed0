package transport

import "github.com/taskify/backend/collection"

// TaskCreateRequest carries the draft fields for a new task.
type TaskCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	DueDate     string `json:"due_date"`
}

// TaskUpdateRequest carries a partial field set; absent fields are untouched.
type TaskUpdateRequest struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Priority     *string `json:"priority"`
	Status       *string `json:"status"`
	DueDate      *string `json:"due_date"`
	ReminderTime *string `json:"reminder_time"`
}

// SubtaskRequest names a subtask title.
type SubtaskRequest struct {
	Title string `json:"title"`
}

// ReorderRequest is a completed drag gesture in view-local coordinates plus
// the ids the user was looking at, in view order. Visible may be empty for
// unfiltered flat views and is ignored for lane moves.
type ReorderRequest struct {
	collection.Move
	Visible []string `json:"visible"`
}

// ParseRequest carries free text for the text-to-task parser.
type ParseRequest struct {
	Text string `json:"text"`
}

// NoteRequest carries note fields for create and update.
type NoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
