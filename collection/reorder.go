package collection

import (
	"github.com/taskify/backend/domain"
)

// Reconciliation errors. A drag result that cannot be validated aborts before
// any store mutation.
var (
	ErrUnknownTask    = domain.NewError(domain.ErrCodeInvalid, "dragged task not in collection")
	ErrSourceMismatch = domain.NewError(domain.ErrCodeInvalid, "dragged task not found at claimed source index")
	ErrStaleView      = domain.NewError(domain.ErrCodeInvalid, "view refers to tasks missing from the collection")
	ErrMixedMove      = domain.NewError(domain.ErrCodeInvalid, "move mixes flat and lane coordinates")
)

// DropPoint locates one end of a drag gesture in view-local coordinates:
// either an index in the flat view (Lane empty) or an index within a priority
// lane of the grouped view.
type DropPoint struct {
	Lane  domain.Priority `json:"lane,omitempty"`
	Index int             `json:"index"`
}

// Move is a completed drag gesture. Indices are view-local and are never
// applied to the canonical sequence directly; the dragged entity is resolved
// by id first.
type Move struct {
	TaskID      string    `json:"task_id"`
	Source      DropPoint `json:"source"`
	Destination DropPoint `json:"destination"`
}

// Result is a reconciled canonical order. When the move crossed lanes the
// moved task's priority has been rewritten and NewPriority is set.
type Result struct {
	Tasks           []domain.Task
	Changed         bool
	PriorityChanged bool
	NewPriority     domain.Priority
}

// Reconcile translates a view-local drag result into a new canonical order.
//
// full is a snapshot of the canonical sequence. visible lists the ids the user
// was looking at, in view order; it is required for flat moves over a filtered
// view and ignored for lane moves, whose scope is derived from the snapshot.
// Tasks not in the view keep their relative order in the reconciled sequence.
func Reconcile(full []domain.Task, visible []string, mv Move) (Result, error) {
	unchanged := Result{Tasks: full}

	if mv.TaskID == "" {
		return unchanged, ErrUnknownTask
	}
	if !containsID(full, mv.TaskID) {
		return unchanged, ErrUnknownTask
	}

	srcFlat := mv.Source.Lane == ""
	dstFlat := mv.Destination.Lane == ""
	switch {
	case srcFlat != dstFlat:
		return unchanged, ErrMixedMove
	case srcFlat:
		if visible == nil {
			visible = IDs(full)
		}
		return reconcileFlat(full, visible, mv)
	case mv.Source.Lane == mv.Destination.Lane:
		lanes := GroupLanes(full)
		return reconcileFlat(full, IDs(lanes.Lane(mv.Source.Lane)), mv)
	default:
		return reconcileCrossLane(full, mv)
	}
}

// reconcileFlat handles a reorder within one visible scope: splice the dragged
// id within the visible order, then re-interleave the whole visible block into
// the canonical sequence at the point where its first member used to sit.
func reconcileFlat(full []domain.Task, visible []string, mv Move) (Result, error) {
	unchanged := Result{Tasks: full}

	src := mv.Source.Index
	if src < 0 || src >= len(visible) || visible[src] != mv.TaskID {
		return unchanged, ErrSourceMismatch
	}

	dst := clamp(mv.Destination.Index, len(visible)-1)
	if dst == src {
		return unchanged, nil
	}

	reordered := splice(visible, src, dst)

	byID := make(map[string]domain.Task, len(full))
	for _, t := range full {
		byID[t.ID] = t
	}
	inView := make(map[string]struct{}, len(visible))
	for _, id := range visible {
		if _, ok := byID[id]; !ok {
			return unchanged, ErrStaleView
		}
		inView[id] = struct{}{}
	}

	// Partition the canonical order around the visible block.
	hidden := make([]domain.Task, 0, len(full)-len(visible))
	blockAt := -1
	for _, t := range full {
		if _, ok := inView[t.ID]; ok {
			if blockAt == -1 {
				blockAt = len(hidden)
			}
			continue
		}
		hidden = append(hidden, t)
	}

	next := make([]domain.Task, 0, len(full))
	next = append(next, hidden[:blockAt]...)
	for _, id := range reordered {
		next = append(next, byID[id])
	}
	next = append(next, hidden[blockAt:]...)

	return Result{Tasks: next, Changed: true}, nil
}

// reconcileCrossLane moves a task into another priority lane: rewrite its
// priority, insert it at the destination index of that lane, and rebuild the
// canonical sequence as the lane concatenation in fixed lane order.
func reconcileCrossLane(full []domain.Task, mv Move) (Result, error) {
	unchanged := Result{Tasks: full}

	lanes := GroupLanes(full)
	srcLane := lanes.Lane(mv.Source.Lane)

	src := mv.Source.Index
	if src < 0 || src >= len(srcLane) || srcLane[src].ID != mv.TaskID {
		return unchanged, ErrSourceMismatch
	}

	moved := srcLane[src].Clone()
	moved.Priority = mv.Destination.Lane

	remaining := make([]domain.Task, 0, len(srcLane)-1)
	remaining = append(remaining, srcLane[:src]...)
	remaining = append(remaining, srcLane[src+1:]...)

	dstLane := lanes.Lane(mv.Destination.Lane)
	dst := clamp(mv.Destination.Index, len(dstLane))
	inserted := make([]domain.Task, 0, len(dstLane)+1)
	inserted = append(inserted, dstLane[:dst]...)
	inserted = append(inserted, moved)
	inserted = append(inserted, dstLane[dst:]...)

	resolved := func(p domain.Priority) []domain.Task {
		switch p {
		case mv.Source.Lane:
			return remaining
		case mv.Destination.Lane:
			return inserted
		default:
			return lanes.Lane(p)
		}
	}

	next := make([]domain.Task, 0, len(full))
	for _, lane := range domain.Lanes {
		next = append(next, resolved(lane)...)
	}

	return Result{
		Tasks:           next,
		Changed:         true,
		PriorityChanged: true,
		NewPriority:     mv.Destination.Lane,
	}, nil
}

func splice(ids []string, src, dst int) []string {
	out := make([]string, 0, len(ids))
	out = append(out, ids[:src]...)
	out = append(out, ids[src+1:]...)
	out = append(out[:dst], append([]string{ids[src]}, out[dst:]...)...)
	return out
}

func clamp(idx, max int) int {
	if idx < 0 {
		return 0
	}
	if idx > max {
		return max
	}
	return idx
}

func containsID(tasks []domain.Task, id string) bool {
	for _, t := range tasks {
		if t.ID == id {
			return true
		}
	}
	return false
}
