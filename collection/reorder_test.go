package collection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/taskify/backend/collection"
	"github.com/taskify/backend/domain"
)

func flatMove(id string, src, dst int) collection.Move {
	return collection.Move{
		TaskID:      id,
		Source:      collection.DropPoint{Index: src},
		Destination: collection.DropPoint{Index: dst},
	}
}

func laneMove(id string, srcLane domain.Priority, src int, dstLane domain.Priority, dst int) collection.Move {
	return collection.Move{
		TaskID:      id,
		Source:      collection.DropPoint{Lane: srcLane, Index: src},
		Destination: collection.DropPoint{Lane: dstLane, Index: dst},
	}
}

func TestReconcileFlatUnfilteredView(t *testing.T) {
	full := []domain.Task{
		taskFixture("a", "a", domain.PriorityMedium, domain.StatusTodo),
		taskFixture("b", "b", domain.PriorityMedium, domain.StatusTodo),
		taskFixture("c", "c", domain.PriorityMedium, domain.StatusTodo),
		taskFixture("d", "d", domain.PriorityMedium, domain.StatusTodo),
	}

	res, err := collection.Reconcile(full, nil, flatMove("d", 3, 0))

	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.False(t, res.PriorityChanged)
	assert.Equal(t, []string{"d", "a", "b", "c"}, collection.IDs(res.Tasks))
}

func TestReconcileFilteredViewReinterleavesBlock(t *testing.T) {
	// Canonical [a b c d], view filtered down to [a c]. Dragging c before a
	// moves the whole visible block back to a's old slot: [c a b d].
	full := []domain.Task{
		taskFixture("a", "a", domain.PriorityMedium, domain.StatusTodo),
		taskFixture("b", "b", domain.PriorityMedium, domain.StatusCompleted),
		taskFixture("c", "c", domain.PriorityMedium, domain.StatusTodo),
		taskFixture("d", "d", domain.PriorityMedium, domain.StatusCompleted),
	}

	res, err := collection.Reconcile(full, []string{"a", "c"}, flatMove("c", 1, 0))

	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b", "d"}, collection.IDs(res.Tasks))
}

func TestReconcileFilteredViewKeepsHiddenPrefix(t *testing.T) {
	// Hidden tasks before the first visible one stay in front of the block.
	full := []domain.Task{
		taskFixture("h1", "h1", domain.PriorityMedium, domain.StatusCompleted),
		taskFixture("a", "a", domain.PriorityMedium, domain.StatusTodo),
		taskFixture("h2", "h2", domain.PriorityMedium, domain.StatusCompleted),
		taskFixture("b", "b", domain.PriorityMedium, domain.StatusTodo),
	}

	res, err := collection.Reconcile(full, []string{"a", "b"}, flatMove("b", 1, 0))

	require.NoError(t, err)
	assert.Equal(t, []string{"h1", "b", "a", "h2"}, collection.IDs(res.Tasks))
}

func TestReconcileSourceEqualsDestinationIsNoChange(t *testing.T) {
	full := []domain.Task{
		taskFixture("a", "a", domain.PriorityMedium, domain.StatusTodo),
		taskFixture("b", "b", domain.PriorityMedium, domain.StatusTodo),
	}

	res, err := collection.Reconcile(full, nil, flatMove("b", 1, 1))

	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, collection.IDs(full), collection.IDs(res.Tasks))
}

func TestReconcileClampsDestination(t *testing.T) {
	full := []domain.Task{
		taskFixture("a", "a", domain.PriorityMedium, domain.StatusTodo),
		taskFixture("b", "b", domain.PriorityMedium, domain.StatusTodo),
		taskFixture("c", "c", domain.PriorityMedium, domain.StatusTodo),
	}

	res, err := collection.Reconcile(full, nil, flatMove("a", 0, 99))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, collection.IDs(res.Tasks))

	res, err = collection.Reconcile(full, nil, flatMove("c", 2, -5))
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, collection.IDs(res.Tasks))
}

func TestReconcileSameLaneMove(t *testing.T) {
	full := []domain.Task{
		taskFixture("h1", "h1", domain.PriorityHigh, domain.StatusTodo),
		taskFixture("m1", "m1", domain.PriorityMedium, domain.StatusTodo),
		taskFixture("h2", "h2", domain.PriorityHigh, domain.StatusTodo),
	}

	res, err := collection.Reconcile(full, nil,
		laneMove("h2", domain.PriorityHigh, 1, domain.PriorityHigh, 0))

	require.NoError(t, err)
	assert.False(t, res.PriorityChanged)
	// The high lane re-enters the sequence where its first member used to sit.
	assert.Equal(t, []string{"h2", "h1", "m1"}, collection.IDs(res.Tasks))
}

func TestReconcileCrossLaneRewritesPriority(t *testing.T) {
	full := []domain.Task{
		taskFixture("h1", "h1", domain.PriorityHigh, domain.StatusTodo),
		taskFixture("m1", "m1", domain.PriorityMedium, domain.StatusTodo),
		taskFixture("m2", "m2", domain.PriorityMedium, domain.StatusTodo),
		taskFixture("l1", "l1", domain.PriorityLow, domain.StatusTodo),
	}

	res, err := collection.Reconcile(full, nil,
		laneMove("l1", domain.PriorityLow, 0, domain.PriorityMedium, 1))

	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.True(t, res.PriorityChanged)
	assert.Equal(t, domain.PriorityMedium, res.NewPriority)
	// Lanes concatenate high, medium, low.
	assert.Equal(t, []string{"h1", "m1", "l1", "m2"}, collection.IDs(res.Tasks))

	for _, task := range res.Tasks {
		if task.ID == "l1" {
			assert.Equal(t, domain.PriorityMedium, task.Priority)
		}
	}
}

func TestReconcileCrossLaneClampsDestinationToLaneEnd(t *testing.T) {
	full := []domain.Task{
		taskFixture("m1", "m1", domain.PriorityMedium, domain.StatusTodo),
		taskFixture("l1", "l1", domain.PriorityLow, domain.StatusTodo),
	}

	res, err := collection.Reconcile(full, nil,
		laneMove("m1", domain.PriorityMedium, 0, domain.PriorityLow, 7))

	require.NoError(t, err)
	assert.Equal(t, []string{"l1", "m1"}, collection.IDs(res.Tasks))
}

func TestReconcileRejectsBadMoves(t *testing.T) {
	full := []domain.Task{
		taskFixture("a", "a", domain.PriorityMedium, domain.StatusTodo),
		taskFixture("b", "b", domain.PriorityHigh, domain.StatusTodo),
	}

	_, err := collection.Reconcile(full, nil, flatMove("", 0, 1))
	assert.ErrorIs(t, err, collection.ErrUnknownTask)

	_, err = collection.Reconcile(full, nil, flatMove("ghost", 0, 1))
	assert.ErrorIs(t, err, collection.ErrUnknownTask)

	// Index does not point at the claimed task.
	_, err = collection.Reconcile(full, nil, flatMove("a", 1, 0))
	assert.ErrorIs(t, err, collection.ErrSourceMismatch)

	_, err = collection.Reconcile(full, nil, flatMove("a", 99, 0))
	assert.ErrorIs(t, err, collection.ErrSourceMismatch)

	// View lists an id the collection no longer has.
	_, err = collection.Reconcile(full, []string{"a", "gone"}, flatMove("a", 0, 1))
	assert.ErrorIs(t, err, collection.ErrStaleView)

	// One end flat, the other lane-local.
	mixed := collection.Move{
		TaskID:      "b",
		Source:      collection.DropPoint{Lane: domain.PriorityHigh, Index: 0},
		Destination: collection.DropPoint{Index: 0},
	}
	_, err = collection.Reconcile(full, nil, mixed)
	assert.ErrorIs(t, err, collection.ErrMixedMove)
}

func TestReconcileNeverMutatesInput(t *testing.T) {
	full := []domain.Task{
		taskFixture("a", "a", domain.PriorityMedium, domain.StatusTodo),
		taskFixture("b", "b", domain.PriorityMedium, domain.StatusTodo),
		taskFixture("c", "c", domain.PriorityMedium, domain.StatusTodo),
	}

	_, err := collection.Reconcile(full, nil, flatMove("c", 2, 0))

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, collection.IDs(full))
}

// TestReconcileFlatProperties checks the flat reconciler over random filtered
// views: the result is always a permutation of the input, hidden tasks keep
// their relative order, and the dragged task lands where the view asked.
func TestReconcileFlatProperties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 12).Draw(rt, "collection_size")
		full := make([]domain.Task, n)
		for i := range full {
			full[i] = taskFixture(string(rune('a'+i)), "t", domain.PriorityMedium, domain.StatusTodo)
		}

		// Pick a non-empty visible subset in canonical order.
		visible := make([]string, 0, n)
		for _, task := range full {
			if rapid.Bool().Draw(rt, "visible") {
				visible = append(visible, task.ID)
			}
		}
		if len(visible) == 0 {
			visible = append(visible, full[0].ID)
		}

		src := rapid.IntRange(0, len(visible)-1).Draw(rt, "src")
		dst := rapid.IntRange(-2, len(visible)+2).Draw(rt, "dst")

		res, err := collection.Reconcile(full, visible, flatMove(visible[src], src, dst))
		if err != nil {
			rt.Fatalf("Reconcile failed: %v", err)
		}

		got := collection.IDs(res.Tasks)
		if len(got) != n {
			rt.Fatalf("result has %d tasks, want %d", len(got), n)
		}
		seen := make(map[string]bool, n)
		for _, id := range got {
			if seen[id] {
				rt.Fatalf("duplicate id %q in result", id)
			}
			seen[id] = true
		}
		for _, task := range full {
			if !seen[task.ID] {
				rt.Fatalf("id %q lost from result", task.ID)
			}
		}

		// Hidden tasks keep their relative order.
		inView := make(map[string]bool, len(visible))
		for _, id := range visible {
			inView[id] = true
		}
		var hiddenBefore, hiddenAfter []string
		for _, task := range full {
			if !inView[task.ID] {
				hiddenBefore = append(hiddenBefore, task.ID)
			}
		}
		for _, id := range got {
			if !inView[id] {
				hiddenAfter = append(hiddenAfter, id)
			}
		}
		if len(hiddenBefore) != len(hiddenAfter) {
			rt.Fatalf("hidden count changed: %d -> %d", len(hiddenBefore), len(hiddenAfter))
		}
		for i := range hiddenBefore {
			if hiddenBefore[i] != hiddenAfter[i] {
				rt.Fatalf("hidden order changed at %d: %q -> %q", i, hiddenBefore[i], hiddenAfter[i])
			}
		}

		// The dragged id sits at the clamped destination within the view.
		var viewAfter []string
		for _, id := range got {
			if inView[id] {
				viewAfter = append(viewAfter, id)
			}
		}
		want := dst
		if want < 0 {
			want = 0
		}
		if want > len(visible)-1 {
			want = len(visible) - 1
		}
		if viewAfter[want] != visible[src] {
			rt.Fatalf("dragged id at view index %d, want index %d (view %v)",
				indexOf(viewAfter, visible[src]), want, viewAfter)
		}
	})
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
