// Package collection holds the ordered task collection and the logic that
// keeps it consistent: the canonical store, derived view projections, the
// drag-and-drop reorder reconciler, and the optimistic sync coordinator.
package collection

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/taskify/backend/domain"
)

// Store is the sole authority for the task list's content and order. Every
// mutation is atomic with respect to concurrent readers, unknown ids degrade
// to no-ops, and after any operation each task id appears exactly once.
type Store struct {
	mu     sync.RWMutex
	tasks  []domain.Task
	logger *zap.Logger

	obsMu     sync.Mutex
	observers map[int]func()
	nextObs   int
}

// NewStore creates an empty store.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		logger:    logger,
		observers: make(map[int]func()),
	}
}

// Subscribe registers a callback invoked after every mutation. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func()) func() {
	if fn == nil {
		return func() {}
	}
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()
	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

// notify runs observers outside the store lock.
func (s *Store) notify() {
	s.obsMu.Lock()
	fns := make([]func(), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Snapshot returns a deep copy of the canonical sequence.
func (s *Store) Snapshot() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Get returns a copy of the task with the given id.
func (s *Store) Get(id string) (domain.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return domain.Task{}, false
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Add appends a new task built from the draft and returns it.
func (s *Store) Add(draft domain.Draft) domain.Task {
	task := domain.NewTask(draft)
	s.mu.Lock()
	s.tasks = append(s.tasks, task)
	s.mu.Unlock()
	s.notify()
	return task.Clone()
}

// SetAll wholesale-replaces the sequence, used when the persistence gateway
// delivers a fresh snapshot.
func (s *Store) SetAll(tasks []domain.Task) {
	next := make([]domain.Task, 0, len(tasks))
	seen := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if _, dup := seen[t.ID]; dup {
			s.logger.Warn("dropping duplicate task id in snapshot", zap.String("task_id", t.ID))
			continue
		}
		seen[t.ID] = struct{}{}
		next = append(next, t.Clone())
	}
	s.mu.Lock()
	s.tasks = next
	s.mu.Unlock()
	s.notify()
}

// ToggleCompletion flips the task between completed and todo. Unknown ids are
// a no-op; the UI may race with a deletion.
func (s *Store) ToggleCompletion(id string) {
	s.mutateTask(id, func(t *domain.Task) {
		if t.Status == domain.StatusCompleted {
			t.Status = domain.StatusTodo
		} else {
			t.Status = domain.StatusCompleted
		}
	})
}

// TaskOption mutates a single field during Update.
type TaskOption func(*domain.Task)

// WithTitle sets the task title.
func WithTitle(title string) TaskOption {
	return func(t *domain.Task) { t.Title = title }
}

// WithDescription sets the task description.
func WithDescription(description string) TaskOption {
	return func(t *domain.Task) { t.Description = description }
}

// WithPriority sets the task priority when valid.
func WithPriority(priority domain.Priority) TaskOption {
	if !priority.Valid() {
		return nil
	}
	return func(t *domain.Task) { t.Priority = priority }
}

// WithStatus sets the task status when valid.
func WithStatus(status domain.Status) TaskOption {
	if !status.Valid() {
		return nil
	}
	return func(t *domain.Task) { t.Status = status }
}

// WithDueDate sets or clears the due date.
func WithDueDate(due *time.Time) TaskOption {
	return func(t *domain.Task) { t.DueDate = due }
}

// WithReminderTime sets or clears the reminder.
func WithReminderTime(at *time.Time) TaskOption {
	return func(t *domain.Task) { t.ReminderTime = at }
}

// Update applies the given field options to the matching task. Unknown ids and
// nil options are no-ops.
func (s *Store) Update(id string, options ...TaskOption) {
	s.mutateTask(id, func(t *domain.Task) {
		for _, opt := range options {
			if opt != nil {
				opt(t)
			}
		}
	})
}

// Remove deletes the task and, with it, all its subtasks.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	removed := false
	for i, t := range s.tasks {
		if t.ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()
	if removed {
		s.notify()
	}
}

// AddSubtask appends a subtask to the matching task and returns it.
func (s *Store) AddSubtask(taskID, title string) (domain.Subtask, bool) {
	sub := domain.NewSubtask(title)
	ok := s.mutateTask(taskID, func(t *domain.Task) {
		t.Subtasks = append(t.Subtasks, sub)
	})
	if !ok {
		return domain.Subtask{}, false
	}
	return sub, true
}

// ToggleSubtask flips a subtask's completed flag.
func (s *Store) ToggleSubtask(taskID, subID string) {
	s.mutateSubtask(taskID, subID, func(sub *domain.Subtask) {
		sub.Completed = !sub.Completed
	})
}

// UpdateSubtask renames a subtask.
func (s *Store) UpdateSubtask(taskID, subID, title string) {
	s.mutateSubtask(taskID, subID, func(sub *domain.Subtask) {
		sub.Title = title
	})
}

// RemoveSubtask deletes a subtask from its owning task.
func (s *Store) RemoveSubtask(taskID, subID string) {
	s.mutateTask(taskID, func(t *domain.Task) {
		for i, sub := range t.Subtasks {
			if sub.ID == subID {
				t.Subtasks = append(t.Subtasks[:i], t.Subtasks[i+1:]...)
				return
			}
		}
	})
}

// ApplyOrder replaces the sequence order without changing any task's fields.
// The new sequence must be a permutation of the current one; anything else is
// rejected so the store can never silently drop or duplicate an id.
func (s *Store) ApplyOrder(ordered []domain.Task) bool {
	return s.applyOrder(ordered, "", "")
}

// ApplyOrderWithPriority combines a priority change for one task with a
// position change, atomically. Used for cross-lane moves.
func (s *Store) ApplyOrderWithPriority(id string, priority domain.Priority, ordered []domain.Task) bool {
	if !priority.Valid() {
		return false
	}
	return s.applyOrder(ordered, id, priority)
}

func (s *Store) applyOrder(ordered []domain.Task, priorityID string, priority domain.Priority) bool {
	s.mu.Lock()
	if !samePermutation(s.tasks, ordered) {
		s.mu.Unlock()
		s.logger.Error("rejected order that is not a permutation of the collection",
			zap.Int("current", len(s.tasks)), zap.Int("proposed", len(ordered)))
		return false
	}

	byID := make(map[string]domain.Task, len(s.tasks))
	for _, t := range s.tasks {
		byID[t.ID] = t
	}
	next := make([]domain.Task, len(ordered))
	for i, t := range ordered {
		kept := byID[t.ID]
		if kept.ID == priorityID {
			kept.Priority = priority
		}
		next[i] = kept
	}
	s.tasks = next
	s.mu.Unlock()
	s.notify()
	return true
}

// mutateTask applies fn to the task with the given id under the write lock.
func (s *Store) mutateTask(id string, fn func(*domain.Task)) bool {
	s.mu.Lock()
	found := false
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			fn(&s.tasks[i])
			found = true
			break
		}
	}
	s.mu.Unlock()
	if found {
		s.notify()
	}
	return found
}

func (s *Store) mutateSubtask(taskID, subID string, fn func(*domain.Subtask)) {
	s.mutateTask(taskID, func(t *domain.Task) {
		for i := range t.Subtasks {
			if t.Subtasks[i].ID == subID {
				fn(&t.Subtasks[i])
				return
			}
		}
	})
}

func samePermutation(current, proposed []domain.Task) bool {
	if len(current) != len(proposed) {
		return false
	}
	ids := make(map[string]struct{}, len(current))
	for _, t := range current {
		ids[t.ID] = struct{}{}
	}
	for _, t := range proposed {
		if _, ok := ids[t.ID]; !ok {
			return false
		}
		delete(ids, t.ID)
	}
	return len(ids) == 0
}
