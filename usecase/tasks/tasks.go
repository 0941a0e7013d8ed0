// Package tasks orchestrates the task collection: loading and refreshing from
// the persistence gateway, optimistic CRUD, drag-and-drop reordering, and
// text-to-task parsing.
package tasks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/taskify/backend/collection"
	"github.com/taskify/backend/domain"
	"github.com/taskify/backend/gateway"
	"github.com/taskify/backend/internal/infrastructure/cache"
	"github.com/taskify/backend/parser"
)

// Service owns the collection store and coordinates it with the gateway.
// Store mutations are synchronous; persistence always runs in the background
// so the caller sees the latest user intent immediately.
type Service struct {
	store    *collection.Store
	coord    *collection.Coordinator
	tasks    gateway.TaskGateway
	notifier gateway.Notifier
	parser   parser.Parser
	cache    *cache.Store
	logger   *zap.Logger
	notify   collection.NoticeFunc
	timeout  time.Duration

	mu      sync.Mutex
	pending int

	wg sync.WaitGroup
}

// Options configures optional collaborators.
type Options struct {
	Notifier gateway.Notifier
	Parser   parser.Parser
	Cache    *cache.Store
	Notify   collection.NoticeFunc
	Timeout  time.Duration
}

// New wires the service and its sync coordinator around the given store.
func New(store *collection.Store, tasksGW gateway.TaskGateway, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Notify == nil {
		opts.Notify = func(string, error) {}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	s := &Service{
		store:    store,
		tasks:    tasksGW,
		notifier: opts.Notifier,
		parser:   opts.Parser,
		cache:    opts.Cache,
		logger:   logger,
		notify:   opts.Notify,
		timeout:  opts.Timeout,
	}
	s.coord = collection.NewCoordinator(store, orderPersister{s}, logger, opts.Notify)
	return s
}

// Store exposes the underlying collection store.
func (s *Service) Store() *collection.Store {
	return s.store
}

// Load populates the store from the gateway, falling back to the local
// snapshot cache when the gateway is unreachable.
func (s *Service) Load(ctx context.Context) error {
	fetched, err := s.tasks.FetchAll(ctx)
	if err == nil {
		s.store.SetAll(fetched)
		s.writeCache(fetched)
		return nil
	}

	s.logger.Warn("task fetch failed, trying snapshot cache", zap.Error(err))
	if s.cache != nil {
		if snap, ok, cacheErr := s.cache.Get(); cacheErr == nil && ok {
			s.store.SetAll(snap.Tasks)
			s.logger.Info("serving cached task snapshot",
				zap.Time("saved_at", snap.SavedAt),
				zap.Int("tasks", len(snap.Tasks)))
			return nil
		}
	}
	return err
}

// Refresh re-fetches the remote task list and replaces the store. Refreshes
// are skipped while an optimistic commit is still being persisted so they
// cannot clobber pending local state.
func (s *Service) Refresh(ctx context.Context) error {
	if s.coord.Persisting() || s.pendingWrites() > 0 {
		s.logger.Debug("refresh skipped, local writes in flight")
		return nil
	}
	fetched, err := s.tasks.FetchAll(ctx)
	if err != nil {
		return err
	}
	s.store.SetAll(fetched)
	s.writeCache(fetched)
	return nil
}

// StartRealtime subscribes to remote change notifications. Each event
// triggers a refresh.
func (s *Service) StartRealtime() (func(), error) {
	if s.notifier == nil {
		return func() {}, nil
	}
	return s.notifier.Subscribe(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.Refresh(ctx); err != nil {
			s.logger.Warn("realtime refresh failed", zap.Error(err))
		}
	})
}

// List projects the current collection through the given view query.
func (s *Service) List(q collection.Query) []domain.Task {
	return collection.Project(s.store.Snapshot(), q)
}

// ListLanes projects and groups the collection into priority lanes.
func (s *Service) ListLanes(q collection.Query) collection.LaneSet {
	return collection.GroupLanes(collection.Project(s.store.Snapshot(), q))
}

// Create appends a task built from the draft and persists it in the
// background.
func (s *Service) Create(draft domain.Draft) domain.Task {
	task := s.store.Add(draft)
	s.persistAsync("create task", func(ctx context.Context) error {
		return s.tasks.Create(ctx, task)
	})
	return task
}

// ToggleCompletion flips a task's completion state; unknown ids no-op.
func (s *Service) ToggleCompletion(id string) {
	s.store.ToggleCompletion(id)
	s.persistTask(id)
}

// Update applies field changes to a task; unknown ids no-op.
func (s *Service) Update(id string, options ...collection.TaskOption) {
	if len(options) == 0 {
		return
	}
	s.store.Update(id, options...)
	s.persistTask(id)
}

// Delete removes a task and its subtasks; unknown ids no-op locally.
func (s *Service) Delete(id string) {
	s.store.Remove(id)
	s.persistAsync("delete task", func(ctx context.Context) error {
		if err := s.tasks.Delete(ctx, id); err != nil && !domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return err
		}
		return nil
	})
}

// AddSubtask appends a subtask to the given task.
func (s *Service) AddSubtask(taskID, title string) (domain.Subtask, bool) {
	sub, ok := s.store.AddSubtask(taskID, title)
	if !ok {
		return domain.Subtask{}, false
	}
	s.persistAsync("add subtask", func(ctx context.Context) error {
		return s.tasks.AddSubtask(ctx, taskID, sub)
	})
	return sub, true
}

// ToggleSubtask flips a subtask's completion.
func (s *Service) ToggleSubtask(taskID, subID string) {
	s.store.ToggleSubtask(taskID, subID)
	s.persistSubtask(taskID, subID)
}

// UpdateSubtask renames a subtask.
func (s *Service) UpdateSubtask(taskID, subID, title string) {
	s.store.UpdateSubtask(taskID, subID, title)
	s.persistSubtask(taskID, subID)
}

// DeleteSubtask removes a subtask.
func (s *Service) DeleteSubtask(taskID, subID string) {
	s.store.RemoveSubtask(taskID, subID)
	s.persistAsync("delete subtask", func(ctx context.Context) error {
		if err := s.tasks.DeleteSubtask(ctx, subID); err != nil && !domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return err
		}
		return nil
	})
}

// Reorder runs a drag gesture through the reconciler and sync coordinator.
// visible lists the ids the user was looking at, in view order; nil means the
// full collection.
func (s *Service) Reorder(visible []string, mv collection.Move) error {
	return s.coord.Reorder(visible, mv)
}

// Parse turns free text into a task draft via the upstream parser. Nothing is
// created; the caller decides what to do with the draft.
func (s *Service) Parse(ctx context.Context, text string) (domain.Draft, error) {
	if s.parser == nil {
		return domain.Draft{}, domain.ErrParserFailed
	}
	if len(text) == 0 {
		return domain.Draft{}, domain.ErrInvalidPayload
	}
	return s.parser.Parse(ctx, text)
}

// Wait blocks until every background persist has settled.
func (s *Service) Wait() {
	s.wg.Wait()
	s.coord.Wait()
}

// persistTask pushes the current state of one task to the gateway.
func (s *Service) persistTask(id string) {
	task, ok := s.store.Get(id)
	if !ok {
		return
	}
	s.persistAsync("update task", func(ctx context.Context) error {
		return s.tasks.Update(ctx, task)
	})
}

func (s *Service) persistSubtask(taskID, subID string) {
	task, ok := s.store.Get(taskID)
	if !ok {
		return
	}
	for _, sub := range task.Subtasks {
		if sub.ID == subID {
			s.persistAsync("update subtask", func(ctx context.Context) error {
				return s.tasks.UpdateSubtask(ctx, sub)
			})
			return
		}
	}
}

// persistAsync runs a gateway write in the background. Failures surface as a
// notice; the optimistic local value stays in place and there is no retry.
func (s *Service) persistAsync(op string, fn func(ctx context.Context) error) {
	s.mu.Lock()
	s.pending++
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			s.pending--
			s.mu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			s.logger.Error("background persist failed", zap.String("operation", op), zap.Error(err))
			s.notify("Failed to save changes", err)
			return
		}
		s.publish(ctx)
	}()
}

func (s *Service) pendingWrites() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func (s *Service) publish(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx); err != nil {
		s.logger.Warn("change notification failed", zap.Error(err))
	}
}

func (s *Service) writeCache(tasks []domain.Task) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(tasks); err != nil {
		s.logger.Warn("snapshot cache write failed", zap.Error(err))
	}
}

// orderPersister adapts the service to the coordinator's persister interface,
// publishing a change notification after a successful save.
type orderPersister struct {
	s *Service
}

func (p orderPersister) SaveOrder(ctx context.Context, ids []string) error {
	if err := p.s.tasks.SaveOrder(ctx, ids); err != nil {
		return err
	}
	p.s.publish(ctx)
	return nil
}
