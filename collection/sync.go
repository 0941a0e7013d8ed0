package collection

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/taskify/backend/domain"
)

// OrderPersister saves a canonical order remotely. Implemented by the
// persistence gateway.
type OrderPersister interface {
	SaveOrder(ctx context.Context, ids []string) error
}

// NoticeFunc surfaces a user-visible failure (the toast equivalent).
type NoticeFunc func(message string, err error)

// Coordinator applies reconciled orders optimistically and persists them in
// the background. A failed persist rolls the store back to the snapshot taken
// before the drag, unless a newer commit has superseded it in the meantime:
// the last applied optimistic state wins.
type Coordinator struct {
	store     *Store
	persister OrderPersister
	logger    *zap.Logger
	notify    NoticeFunc
	timeout   time.Duration

	mu         sync.Mutex
	generation uint64
	snapshot   []domain.Task
	inflight   int

	wg sync.WaitGroup
}

// NewCoordinator wires the coordinator.
func NewCoordinator(store *Store, persister OrderPersister, logger *zap.Logger, notify NoticeFunc) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notify == nil {
		notify = func(string, error) {}
	}
	return &Coordinator{
		store:     store,
		persister: persister,
		logger:    logger,
		notify:    notify,
		timeout:   10 * time.Second,
	}
}

// Persisting reports whether any persist is in flight. Remote refreshes are
// gated on this so they cannot clobber a pending optimistic state.
func (c *Coordinator) Persisting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight > 0
}

// Wait blocks until all in-flight persists have settled. Used on shutdown and
// in tests.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Reorder runs one drag gesture end to end: reconcile the view-local move
// against a snapshot, commit the result to the store synchronously, then
// persist the new order in the background. The store is never touched when
// reconciliation fails.
func (c *Coordinator) Reorder(visible []string, mv Move) error {
	snapshot := c.store.Snapshot()

	result, err := Reconcile(snapshot, visible, mv)
	if err != nil {
		c.logger.Warn("reorder aborted",
			zap.String("task_id", mv.TaskID),
			zap.Error(err))
		return err
	}
	if !result.Changed {
		return nil
	}

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.snapshot = snapshot
	c.inflight++
	c.mu.Unlock()

	var committed bool
	if result.PriorityChanged {
		committed = c.store.ApplyOrderWithPriority(mv.TaskID, result.NewPriority, result.Tasks)
	} else {
		committed = c.store.ApplyOrder(result.Tasks)
	}
	if !committed {
		c.settle()
		return domain.NewError(domain.ErrCodeConflict, "collection changed during reorder")
	}

	ids := IDs(result.Tasks)
	c.wg.Add(1)
	go c.persist(gen, ids)
	return nil
}

func (c *Coordinator) persist(gen uint64, ids []string) {
	defer c.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	err := c.persister.SaveOrder(ctx, ids)

	c.mu.Lock()
	c.inflight--
	latest := gen == c.generation
	snapshot := c.snapshot
	c.mu.Unlock()

	if err == nil {
		c.logger.Debug("order persisted", zap.Uint64("generation", gen))
		return
	}
	if !latest {
		// A newer commit owns the store now; this failure is history.
		c.logger.Warn("superseded persist failed, ignoring",
			zap.Uint64("generation", gen), zap.Error(err))
		return
	}

	c.logger.Error("order persist failed, rolling back",
		zap.Uint64("generation", gen), zap.Error(err))
	c.store.SetAll(snapshot)
	c.notify("Failed to save task order", err)
}

func (c *Coordinator) settle() {
	c.mu.Lock()
	c.inflight--
	c.mu.Unlock()
}
