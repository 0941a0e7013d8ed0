// Package gateway defines the persistence boundary. The collection never
// talks to storage directly; everything goes through these interfaces.
package gateway

import (
	"context"

	"github.com/taskify/backend/domain"
)

// TaskGateway persists tasks, their subtasks, and the collection order.
type TaskGateway interface {
	// FetchAll returns every task with nested subtasks, ordered by stored
	// position.
	FetchAll(ctx context.Context) ([]domain.Task, error)
	// Create persists a new task at the end of the stored order.
	Create(ctx context.Context, task domain.Task) error
	Update(ctx context.Context, task domain.Task) error
	// Delete removes the task; subtasks cascade.
	Delete(ctx context.Context, id string) error

	AddSubtask(ctx context.Context, taskID string, sub domain.Subtask) error
	UpdateSubtask(ctx context.Context, sub domain.Subtask) error
	DeleteSubtask(ctx context.Context, subID string) error

	// SaveOrder persists a position for every task in the given order.
	SaveOrder(ctx context.Context, ids []string) error
}

// NoteGateway persists notes.
type NoteGateway interface {
	FetchAll(ctx context.Context) ([]domain.Note, error)
	Create(ctx context.Context, note domain.Note) error
	Update(ctx context.Context, note domain.Note) error
	Delete(ctx context.Context, id string) error
}

// Notifier fans out change notifications between replicas, the stand-in for
// the hosted backend's realtime channel.
type Notifier interface {
	// Publish announces that the task table changed.
	Publish(ctx context.Context) error
	// Subscribe invokes onChange for every remote change until the returned
	// function is called.
	Subscribe(onChange func()) (func(), error)
}
