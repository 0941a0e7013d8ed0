// Package parser turns free-form text into a task draft via an upstream
// language model, normalizing whatever comes back into the draft contract:
// title always present, priority always one of the three lanes, due date
// either valid or absent.
package parser

import (
	"context"
	"strings"
	"time"

	"github.com/taskify/backend/domain"
)

// DefaultTitle is used when the upstream model omits a title.
const DefaultTitle = "New Task"

// Parser produces a task draft from free text.
type Parser interface {
	Parse(ctx context.Context, text string) (domain.Draft, error)
}

// RawDraft is the untrusted shape returned by the upstream model.
type RawDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	DueDate     string `json:"dueDate"`
}

// Normalize enforces the draft contract on an upstream response. Malformed
// fields fall back to defaults; they never produce an error.
func Normalize(raw RawDraft) domain.Draft {
	draft := domain.Draft{
		Title:       strings.TrimSpace(raw.Title),
		Description: strings.TrimSpace(raw.Description),
		Priority:    domain.ParsePriority(raw.Priority),
	}
	if draft.Title == "" {
		draft.Title = DefaultTitle
	}
	if due := strings.TrimSpace(raw.DueDate); due != "" && !strings.EqualFold(due, "null") {
		if parsed, err := time.Parse(time.RFC3339, due); err == nil {
			draft.DueDate = &parsed
		}
	}
	return draft
}
