package view

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/tgienger/todo/internal/fold"
	"github.com/tgienger/todo/internal/models"
)

// SortKey names the field tasks are ordered by
type SortKey string

const (
	SortDueDate  SortKey = "dueDate"
	SortPriority SortKey = "priority"
	SortTitle    SortKey = "title"
	SortCreated  SortKey = "created"
)

var SortKeys = []SortKey{SortDueDate, SortPriority, SortTitle, SortCreated}

func (k SortKey) Valid() bool {
	return slices.Contains(SortKeys, k)
}

// ParseSortKey accepts a key name ignoring case, plus "dateAdded" for
// created. Empty means dueDate.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "duedate", "due":
		return SortDueDate, nil
	case "priority":
		return SortPriority, nil
	case "title":
		return SortTitle, nil
	case "created", "dateadded", "createdat":
		return SortCreated, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// DefaultAscending is the direction a key starts in when selected. The
// categories variant lists newest first.
func DefaultAscending(variant models.Variant, key SortKey) bool {
	return !(variant == models.VariantCategories && key == SortCreated)
}

// Sort orders tasks in place by key. The sort is stable in both directions.
func Sort(tasks []models.Task, key SortKey, ascending bool) {
	less := compareBy(key)
	if !ascending {
		asc := less
		less = func(a, b models.Task) int { return -asc(a, b) }
	}
	slices.SortStableFunc(tasks, less)
}

func compareBy(key SortKey) func(a, b models.Task) int {
	switch key {
	case SortPriority:
		return func(a, b models.Task) int {
			return cmp.Compare(a.Priority.Rank(), b.Priority.Rank())
		}
	case SortTitle:
		return func(a, b models.Task) int {
			return fold.Compare(a.Title, b.Title)
		}
	case SortCreated:
		// ids grow with creation, so they break timestamp ties
		return func(a, b models.Task) int {
			if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		}
	}
	return compareDue
}

// compareDue puts undated tasks after every dated one
func compareDue(a, b models.Task) int {
	switch {
	case a.DueDate == nil && b.DueDate == nil:
		return 0
	case a.DueDate == nil:
		return 1
	case b.DueDate == nil:
		return -1
	}
	switch {
	case a.DueDate.Before(*b.DueDate):
		return -1
	case a.DueDate.After(*b.DueDate):
		return 1
	}
	return 0
}
