// Package view turns the task collection into what a screen shows: the
// filtered and sorted task list and the counters above it.
package view

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/tgienger/todo/internal/fold"
	"github.com/tgienger/todo/internal/models"
)

// Filter is a quick filter over task state
type Filter string

const (
	FilterAll       Filter = "all"
	FilterToday     Filter = "today"
	FilterOverdue   Filter = "overdue"
	FilterHigh      Filter = "high"
	FilterCompleted Filter = "completed"
	FilterPending   Filter = "pending"
)

// Filters lists the quick filters in the order the UI cycles through them
var Filters = []Filter{FilterAll, FilterToday, FilterOverdue, FilterHigh, FilterCompleted, FilterPending}

func (f Filter) Valid() bool {
	return slices.Contains(Filters, f)
}

// ParseFilter accepts a filter name; empty means all
func ParseFilter(s string) (Filter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FilterAll, nil
	}
	f := Filter(s)
	if !f.Valid() {
		return "", fmt.Errorf("unknown filter %q", s)
	}
	return f, nil
}

// Options selects and orders the visible tasks
type Options struct {
	Filter    Filter
	Category  models.Category // empty matches every category
	Query     string
	Sort      SortKey
	Ascending bool
}

// Apply returns the tasks matching every predicate in opts, sorted. The
// input slice is not modified. tags resolves tag names for search.
func Apply(tasks []models.Task, tags []models.Tag, opts Options, now time.Time) []models.Task {
	names := make(map[int64]string, len(tags))
	for _, t := range tags {
		names[t.ID] = fold.String(t.Name)
	}
	query := fold.String(strings.TrimSpace(opts.Query))

	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if !matchQuery(t, names, query) {
			continue
		}
		if !matchFilter(t, opts.Filter, now) {
			continue
		}
		if opts.Category != "" && t.Category != opts.Category {
			continue
		}
		out = append(out, t)
	}

	Sort(out, opts.Sort, opts.Ascending)
	return out
}

func matchQuery(t models.Task, tagNames map[int64]string, query string) bool {
	if query == "" {
		return true
	}
	if strings.Contains(fold.String(t.Title), query) || strings.Contains(fold.String(t.Description), query) {
		return true
	}
	for _, id := range t.Tags {
		if strings.Contains(tagNames[id], query) {
			return true
		}
	}
	return false
}

func matchFilter(t models.Task, f Filter, now time.Time) bool {
	switch f {
	case FilterToday:
		return t.IsDueOn(now)
	case FilterOverdue:
		return t.IsOverdue(now)
	case FilterHigh:
		return t.Priority == models.PriorityHigh || t.Priority == models.PriorityUrgent
	case FilterCompleted:
		return t.Completed
	case FilterPending:
		return !t.Completed
	}
	return true
}
