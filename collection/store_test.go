package collection_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskify/backend/collection"
	"github.com/taskify/backend/domain"
)

func seedStore(t *testing.T, titles ...string) (*collection.Store, []domain.Task) {
	t.Helper()
	store := collection.NewStore(nil)
	for _, title := range titles {
		store.Add(domain.Draft{Title: title})
	}
	return store, store.Snapshot()
}

func TestStoreAddAssignsDefaults(t *testing.T) {
	store := collection.NewStore(nil)

	task := store.Add(domain.Draft{Title: "write report"})

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, domain.StatusTodo, task.Status)
	assert.Equal(t, domain.PriorityMedium, task.Priority)
	assert.NotNil(t, task.Subtasks)
	assert.False(t, task.Completed())
	assert.Equal(t, 1, store.Len())
}

func TestStoreSnapshotIsDeepCopy(t *testing.T) {
	store, _ := seedStore(t, "a", "b")

	snap := store.Snapshot()
	snap[0].Title = "mutated"
	sub, ok := store.AddSubtask(snap[1].ID, "child")
	require.True(t, ok)
	snap[1].Subtasks = append(snap[1].Subtasks, domain.Subtask{ID: "fake"})

	fresh := store.Snapshot()
	assert.Equal(t, "a", fresh[0].Title)
	require.Len(t, fresh[1].Subtasks, 1)
	assert.Equal(t, sub.ID, fresh[1].Subtasks[0].ID)
}

func TestStoreUnknownIDsAreNoOps(t *testing.T) {
	store, before := seedStore(t, "a", "b")

	store.ToggleCompletion("missing")
	store.Update("missing", collection.WithTitle("x"))
	store.Remove("missing")
	store.ToggleSubtask(before[0].ID, "missing")
	store.RemoveSubtask("missing", "missing")
	_, ok := store.AddSubtask("missing", "child")
	assert.False(t, ok)

	assert.Equal(t, before, store.Snapshot())
}

func TestStoreToggleCompletionFlipsStatus(t *testing.T) {
	store, tasks := seedStore(t, "a")
	id := tasks[0].ID

	store.ToggleCompletion(id)
	got, _ := store.Get(id)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.True(t, got.Completed())

	store.ToggleCompletion(id)
	got, _ = store.Get(id)
	assert.Equal(t, domain.StatusTodo, got.Status)
	assert.False(t, got.Completed())
}

func TestStoreToggleCompletionFromInProgress(t *testing.T) {
	store, tasks := seedStore(t, "a")
	id := tasks[0].ID

	store.Update(id, collection.WithStatus(domain.StatusInProgress))
	store.ToggleCompletion(id)

	got, _ := store.Get(id)
	assert.Equal(t, domain.StatusCompleted, got.Status)
}

func TestStoreUpdateAppliesOptions(t *testing.T) {
	store, tasks := seedStore(t, "a")
	id := tasks[0].ID
	due := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	store.Update(id,
		collection.WithTitle("renamed"),
		collection.WithDescription("details"),
		collection.WithPriority(domain.PriorityHigh),
		collection.WithDueDate(&due),
	)

	got, ok := store.Get(id)
	require.True(t, ok)
	assert.Equal(t, "renamed", got.Title)
	assert.Equal(t, "details", got.Description)
	assert.Equal(t, domain.PriorityHigh, got.Priority)
	require.NotNil(t, got.DueDate)
	assert.True(t, due.Equal(*got.DueDate))
}

func TestStoreUpdateRejectsInvalidEnumValues(t *testing.T) {
	store, tasks := seedStore(t, "a")
	id := tasks[0].ID

	store.Update(id,
		collection.WithPriority(domain.Priority("urgent")),
		collection.WithStatus(domain.Status("done")),
	)

	got, _ := store.Get(id)
	assert.Equal(t, domain.PriorityMedium, got.Priority)
	assert.Equal(t, domain.StatusTodo, got.Status)
}

func TestStoreRemoveDropsTaskAndSubtasks(t *testing.T) {
	store, tasks := seedStore(t, "a", "b", "c")
	id := tasks[1].ID
	_, ok := store.AddSubtask(id, "child")
	require.True(t, ok)

	store.Remove(id)

	assert.Equal(t, 2, store.Len())
	_, found := store.Get(id)
	assert.False(t, found)
}

func TestStoreSubtaskLifecycle(t *testing.T) {
	store, tasks := seedStore(t, "a")
	id := tasks[0].ID

	sub, ok := store.AddSubtask(id, "step one")
	require.True(t, ok)

	store.ToggleSubtask(id, sub.ID)
	store.UpdateSubtask(id, sub.ID, "step 1")

	got, _ := store.Get(id)
	require.Len(t, got.Subtasks, 1)
	assert.True(t, got.Subtasks[0].Completed)
	assert.Equal(t, "step 1", got.Subtasks[0].Title)

	store.RemoveSubtask(id, sub.ID)
	got, _ = store.Get(id)
	assert.Empty(t, got.Subtasks)
}

func TestStoreSetAllDropsDuplicateIDs(t *testing.T) {
	store := collection.NewStore(nil)
	task := domain.NewTask(domain.Draft{Title: "a"})

	store.SetAll([]domain.Task{task, task})

	assert.Equal(t, 1, store.Len())
}

func TestStoreApplyOrderAcceptsPermutation(t *testing.T) {
	store, tasks := seedStore(t, "a", "b", "c")

	reversed := []domain.Task{tasks[2], tasks[1], tasks[0]}
	require.True(t, store.ApplyOrder(reversed))

	got := store.Snapshot()
	assert.Equal(t, []string{tasks[2].ID, tasks[1].ID, tasks[0].ID}, collection.IDs(got))
}

func TestStoreApplyOrderRejectsNonPermutation(t *testing.T) {
	store, tasks := seedStore(t, "a", "b", "c")
	before := store.Snapshot()

	assert.False(t, store.ApplyOrder(tasks[:2]), "shorter sequence")
	assert.False(t, store.ApplyOrder([]domain.Task{tasks[0], tasks[1], tasks[1]}), "duplicated id")
	stranger := domain.NewTask(domain.Draft{Title: "x"})
	assert.False(t, store.ApplyOrder([]domain.Task{tasks[0], tasks[1], stranger}), "foreign id")

	assert.Equal(t, before, store.Snapshot())
}

func TestStoreApplyOrderKeepsCurrentFieldValues(t *testing.T) {
	store, tasks := seedStore(t, "a", "b")

	// A stale snapshot must not resurrect old field values on reorder.
	store.Update(tasks[0].ID, collection.WithTitle("renamed"))
	require.True(t, store.ApplyOrder([]domain.Task{tasks[1], tasks[0]}))

	got, _ := store.Get(tasks[0].ID)
	assert.Equal(t, "renamed", got.Title)
}

func TestStoreApplyOrderWithPriorityRewritesOneTask(t *testing.T) {
	store, tasks := seedStore(t, "a", "b")

	ok := store.ApplyOrderWithPriority(tasks[1].ID, domain.PriorityHigh, []domain.Task{tasks[1], tasks[0]})
	require.True(t, ok)

	got, _ := store.Get(tasks[1].ID)
	assert.Equal(t, domain.PriorityHigh, got.Priority)
	other, _ := store.Get(tasks[0].ID)
	assert.Equal(t, domain.PriorityMedium, other.Priority)
}

func TestStoreApplyOrderWithPriorityRejectsInvalidPriority(t *testing.T) {
	store, tasks := seedStore(t, "a")

	assert.False(t, store.ApplyOrderWithPriority(tasks[0].ID, domain.Priority("urgent"), tasks))
}

func TestStoreSubscribeFiresOnMutation(t *testing.T) {
	store := collection.NewStore(nil)
	fired := 0
	unsubscribe := store.Subscribe(func() { fired++ })

	task := store.Add(domain.Draft{Title: "a"})
	store.ToggleCompletion(task.ID)
	assert.Equal(t, 2, fired)

	unsubscribe()
	store.Remove(task.ID)
	assert.Equal(t, 2, fired)
}
