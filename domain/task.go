package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Priority classifies a task into one of the three drag-and-drop lanes.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Lanes lists every priority in the fixed lane order used by grouped views.
var Lanes = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// ParsePriority maps arbitrary input onto a known priority, defaulting to medium.
func ParsePriority(raw string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(raw))) {
	case PriorityLow:
		return PriorityLow
	case PriorityHigh:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// Valid reports whether p is one of the three enumerated priorities.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Rank orders priorities for sorting: high first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Status is the single source of completion truth. The legacy boolean
// "completed" field is derived from it, never stored independently.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusTodo || s == StatusInProgress || s == StatusCompleted
}

// Subtask is owned by exactly one task and has no lifecycle of its own.
type Subtask struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Task represents a single item in the user's ordered collection. Position is
// not a field: it is the task's index within the collection sequence.
type Task struct {
	ID           string
	Title        string
	Description  string
	Priority     Priority
	Status       Status
	DueDate      *time.Time
	ReminderTime *time.Time
	CreatedAt    time.Time
	Subtasks     []Subtask
}

// Completed reports whether the task has been finished.
func (t *Task) Completed() bool {
	return t != nil && t.Status == StatusCompleted
}

// Clone returns a deep copy, including the subtask slice.
func (t Task) Clone() Task {
	out := t
	if t.DueDate != nil {
		due := *t.DueDate
		out.DueDate = &due
	}
	if t.ReminderTime != nil {
		reminder := *t.ReminderTime
		out.ReminderTime = &reminder
	}
	if t.Subtasks != nil {
		out.Subtasks = make([]Subtask, len(t.Subtasks))
		copy(out.Subtasks, t.Subtasks)
	}
	return out
}

// taskJSON mirrors Task on the wire with the derived completed flag included
// for clients that still read it.
type taskJSON struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Completed    bool       `json:"completed"`
	Priority     Priority   `json:"priority"`
	Status       Status     `json:"status"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	ReminderTime *time.Time `json:"reminder_time,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	Subtasks     []Subtask  `json:"subtasks"`
}

func (t Task) MarshalJSON() ([]byte, error) {
	return json.Marshal(taskJSON{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		Completed:    t.Status == StatusCompleted,
		Priority:     t.Priority,
		Status:       t.Status,
		DueDate:      t.DueDate,
		ReminderTime: t.ReminderTime,
		CreatedAt:    t.CreatedAt,
		Subtasks:     t.Subtasks,
	})
}

func (t *Task) UnmarshalJSON(data []byte) error {
	var raw taskJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Task{
		ID:           raw.ID,
		Title:        raw.Title,
		Description:  raw.Description,
		Priority:     raw.Priority,
		Status:       raw.Status,
		DueDate:      raw.DueDate,
		ReminderTime: raw.ReminderTime,
		CreatedAt:    raw.CreatedAt,
		Subtasks:     raw.Subtasks,
	}
	// A bare completed flag without a status comes from older clients.
	if t.Status == "" {
		if raw.Completed {
			t.Status = StatusCompleted
		} else {
			t.Status = StatusTodo
		}
	}
	return nil
}

// Draft carries the fields needed to create a task, produced by the creation
// form or the text-to-task parser.
type Draft struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// NewTask materializes a draft into a task with generated id and defaults.
func NewTask(draft Draft) Task {
	priority := draft.Priority
	if !priority.Valid() {
		priority = PriorityMedium
	}
	return Task{
		ID:          uuid.NewString(),
		Title:       draft.Title,
		Description: draft.Description,
		Priority:    priority,
		Status:      StatusTodo,
		DueDate:     draft.DueDate,
		CreatedAt:   time.Now().UTC(),
		Subtasks:    []Subtask{},
	}
}

// NewSubtask builds a subtask with a generated id.
func NewSubtask(title string) Subtask {
	return Subtask{
		ID:    uuid.NewString(),
		Title: title,
	}
}
