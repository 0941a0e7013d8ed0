package collection_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskify/backend/collection"
)

// fakePersister scripts SaveOrder outcomes per call through fn and records
// every order it was asked to save.
type fakePersister struct {
	mu    sync.Mutex
	calls [][]string
	fn    func(ids []string) error
}

func (f *fakePersister) SaveOrder(_ context.Context, ids []string) error {
	f.mu.Lock()
	f.calls = append(f.calls, ids)
	fn := f.fn
	f.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(ids)
}

func (f *fakePersister) saved() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.calls...)
}

type noticeRecorder struct {
	mu       sync.Mutex
	messages []string
}

func (n *noticeRecorder) record(message string, _ error) {
	n.mu.Lock()
	n.messages = append(n.messages, message)
	n.mu.Unlock()
}

func (n *noticeRecorder) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

func TestCoordinatorCommitsThenPersists(t *testing.T) {
	store, tasks := seedStore(t, "a", "b", "c")
	persister := &fakePersister{}
	coord := collection.NewCoordinator(store, persister, nil, nil)

	err := coord.Reorder(nil, flatMove(tasks[2].ID, 2, 0))
	require.NoError(t, err)

	// The store mutates before the persist settles.
	want := []string{tasks[2].ID, tasks[0].ID, tasks[1].ID}
	assert.Equal(t, want, collection.IDs(store.Snapshot()))

	coord.Wait()
	require.Len(t, persister.saved(), 1)
	assert.Equal(t, want, persister.saved()[0])
	assert.False(t, coord.Persisting())
}

func TestCoordinatorNoChangeSkipsPersist(t *testing.T) {
	store, tasks := seedStore(t, "a", "b")
	persister := &fakePersister{}
	coord := collection.NewCoordinator(store, persister, nil, nil)

	err := coord.Reorder(nil, flatMove(tasks[0].ID, 0, 0))
	require.NoError(t, err)

	coord.Wait()
	assert.Empty(t, persister.saved())
}

func TestCoordinatorReconcileErrorLeavesStoreAlone(t *testing.T) {
	store, _ := seedStore(t, "a", "b")
	before := store.Snapshot()
	persister := &fakePersister{}
	coord := collection.NewCoordinator(store, persister, nil, nil)

	err := coord.Reorder(nil, flatMove("ghost", 0, 1))

	assert.ErrorIs(t, err, collection.ErrUnknownTask)
	assert.Equal(t, before, store.Snapshot())
	assert.Empty(t, persister.saved())
}

func TestCoordinatorRollsBackOnPersistFailure(t *testing.T) {
	store, tasks := seedStore(t, "a", "b", "c")
	before := collection.IDs(store.Snapshot())

	release := make(chan struct{})
	persister := &fakePersister{fn: func([]string) error {
		<-release
		return errors.New("gateway down")
	}}
	notices := &noticeRecorder{}
	coord := collection.NewCoordinator(store, persister, nil, notices.record)

	require.NoError(t, coord.Reorder(nil, flatMove(tasks[2].ID, 2, 0)))
	assert.True(t, coord.Persisting())
	assert.NotEqual(t, before, collection.IDs(store.Snapshot()))

	close(release)
	coord.Wait()

	assert.Equal(t, before, collection.IDs(store.Snapshot()))
	assert.Equal(t, []string{"Failed to save task order"}, notices.all())
	assert.False(t, coord.Persisting())
}

func TestCoordinatorSupersededFailureDoesNotRollBack(t *testing.T) {
	store, tasks := seedStore(t, "a", "b", "c")

	firstOrder := []string{tasks[1].ID, tasks[0].ID, tasks[2].ID}
	release := make(chan struct{})
	persister := &fakePersister{fn: func(ids []string) error {
		if len(ids) == 3 && ids[0] == firstOrder[0] && ids[1] == firstOrder[1] {
			<-release
			return errors.New("gateway down")
		}
		return nil
	}}
	notices := &noticeRecorder{}
	coord := collection.NewCoordinator(store, persister, nil, notices.record)

	// First drag: its persist hangs, then fails.
	require.NoError(t, coord.Reorder(nil, flatMove(tasks[1].ID, 1, 0)))
	// Second drag supersedes it before the failure lands.
	require.NoError(t, coord.Reorder(nil, flatMove(tasks[2].ID, 2, 0)))
	want := collection.IDs(store.Snapshot())

	close(release)
	coord.Wait()

	// The stale failure is discarded: no rollback, no notice.
	assert.Equal(t, want, collection.IDs(store.Snapshot()))
	assert.Empty(t, notices.all())
}

func TestCoordinatorPersistingGatesWhileInFlight(t *testing.T) {
	store, tasks := seedStore(t, "a", "b")

	release := make(chan struct{})
	persister := &fakePersister{fn: func([]string) error {
		<-release
		return nil
	}}
	coord := collection.NewCoordinator(store, persister, nil, nil)

	require.NoError(t, coord.Reorder(nil, flatMove(tasks[1].ID, 1, 0)))
	assert.True(t, coord.Persisting())

	close(release)
	coord.Wait()
	assert.False(t, coord.Persisting())
}
