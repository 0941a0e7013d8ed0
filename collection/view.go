package collection

import (
	"sort"
	"strings"

	"github.com/taskify/backend/domain"
)

// Filter restricts the view to a status or priority subset.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
	FilterLow       Filter = "low"
	FilterMedium    Filter = "medium"
	FilterHigh      Filter = "high"
)

// Sort orders the view.
type Sort string

const (
	SortNewest   Sort = "newest"
	SortOldest   Sort = "oldest"
	SortDueDate  Sort = "dueDate"
	SortPriority Sort = "priority"
)

// Query describes what the user currently sees. The zero value passes
// everything in canonical order.
type Query struct {
	Search string
	Filter Filter
	Sort   Sort
}

// Project derives the visible sequence from a snapshot of the canonical order.
// It never mutates its input; the same query over the same snapshot always
// yields the same output.
func Project(tasks []domain.Task, q Query) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	search := strings.ToLower(strings.TrimSpace(q.Search))
	for _, t := range tasks {
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		if !matchesFilter(&t, q.Filter) {
			continue
		}
		out = append(out, t)
	}

	switch q.Sort {
	case SortNewest:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	case SortOldest:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
	case SortDueDate:
		// Tasks without a due date sort last.
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i].DueDate, out[j].DueDate
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return a.Before(*b)
			}
		})
	case SortPriority:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Priority.Rank() < out[j].Priority.Rank()
		})
	}
	return out
}

func matchesFilter(t *domain.Task, f Filter) bool {
	switch f {
	case FilterActive:
		return !t.Completed()
	case FilterCompleted:
		return t.Completed()
	case FilterLow, FilterMedium, FilterHigh:
		return t.Priority == domain.Priority(f)
	default:
		return true
	}
}

// LaneSet partitions tasks into the three priority lanes, each preserving the
// canonical order of its members.
type LaneSet struct {
	High   []domain.Task
	Medium []domain.Task
	Low    []domain.Task
}

// Lane returns the slice for the given priority.
func (l *LaneSet) Lane(p domain.Priority) []domain.Task {
	switch p {
	case domain.PriorityHigh:
		return l.High
	case domain.PriorityMedium:
		return l.Medium
	default:
		return l.Low
	}
}

// GroupLanes splits the given (already filtered) tasks into priority lanes.
func GroupLanes(tasks []domain.Task) LaneSet {
	var lanes LaneSet
	for _, t := range tasks {
		switch t.Priority {
		case domain.PriorityHigh:
			lanes.High = append(lanes.High, t)
		case domain.PriorityMedium:
			lanes.Medium = append(lanes.Medium, t)
		default:
			lanes.Low = append(lanes.Low, t)
		}
	}
	return lanes
}

// IDs projects a task slice onto its id sequence.
func IDs(tasks []domain.Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}
